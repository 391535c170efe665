// Package trend implements TrendAnalyzer (§4.B): OLS regression over a
// ratio or statement series, direction/quality classification, anomaly
// detection, seasonality and moving averages. Grounded in the teacher's
// open-interest regression (sawpanic-cryptorun) for the OLS shape, but
// uses gonum/stat for the regression itself rather than hand-rolled sums,
// matching how aristath-sentinel reaches for gonum on this kind of
// statistical diagnostic.
package trend

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"fundamentalengine/pkg/core/errs"
	"fundamentalengine/pkg/core/logging"
	"fundamentalengine/pkg/models"
)

var log = logging.For("trend")

const (
	minDataPoints        = 3
	strongThreshold       = 0.15
	strongPValue          = 0.05
	stablePValue          = 0.10
	anomalyZThreshold      = 2.5
	seasonalityThreshold   = 0.5
	relativeSlopeFloorPct  = 0.02
)

// Frequency names the inferred sampling period of a series, which drives
// the seasonality lag and the annualization factor applied to the slope.
type Frequency int

const (
	Annual Frequency = iota
	Quarterly
	Monthly
	Daily
)

func (f Frequency) periodsPerYear() float64 {
	switch f {
	case Quarterly:
		return 4
	case Monthly:
		return 12
	case Daily:
		return 252
	default:
		return 1
	}
}

func (f Frequency) seasonalLag() int {
	switch f {
	case Quarterly:
		return 4
	case Monthly:
		return 12
	default:
		return 0
	}
}

// Analyze fits the series and returns the full TrendMetrics record. series
// must be ordered oldest-to-newest; T < 3 yields insufficient_data per
// §4.B.
func Analyze(companyID, metricName string, asOf time.Time, series []float64, freq Frequency) (*models.TrendMetrics, error) {
	n := len(series)
	if n < minDataPoints {
		return nil, errs.New(errs.InsufficientData, "trend series has fewer than 3 points")
	}

	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}

	alpha, beta := stat.LinearRegression(xs, series, nil, false)
	r2 := stat.RSquared(xs, series, nil, alpha, beta)

	residuals := make([]float64, n)
	for i, x := range xs {
		residuals[i] = series[i] - (alpha + beta*x)
	}

	pValue := regressionPValue(xs, residuals, beta, n)
	mean := stat.Mean(series, nil)

	tm := &models.TrendMetrics{
		CompanyID:  companyID,
		MetricName: metricName,
		AsOf:       asOf,
		Slope:      beta,
		Intercept:  alpha,
		RSquared:   r2,
		PValue:     pValue,
		SigFlag:    pValue < strongPValue,
	}

	tm.Direction = classifyDirection(beta, mean, pValue, freq.periodsPerYear())
	tm.CAGR = computeCAGR(series, freq.periodsPerYear())
	tm.AnomalyIndices = detectAnomalies(residuals)

	if lag := freq.seasonalLag(); lag > 0 && n >= 2*lag {
		autocorr := stat.Correlation(series[:n-lag], series[lag:], nil)
		tm.Autocorrelation = autocorr
		tm.SeasonalLag = lag
		tm.Seasonal = autocorr > seasonalityThreshold
	}

	tm.MovingAverages, tm.GoldenCross, tm.DeathCross = movingAverages(series)

	log.Debug().Str("metric", metricName).Str("direction", string(tm.Direction)).Float64("r2", r2).Msg("trend analyzed")
	return tm, nil
}

// classifyDirection implements §4.B's threshold table: strong requires
// both a large annualized-slope/mean ratio and a significant p-value;
// stable is triggered either by a weak p-value or by the slope sitting
// under a series-relative 2% floor.
func classifyDirection(slope, mean, pValue, periodsPerYear float64) models.Direction {
	floor := relativeSlopeFloorPct * math.Abs(mean)
	if pValue >= stablePValue || math.Abs(slope) < floor {
		return models.Stable
	}

	ratio := 0.0
	if mean != 0 {
		ratio = (slope * periodsPerYear) / mean
	}

	switch {
	case ratio > strongThreshold && pValue < strongPValue:
		return models.StrongImproving
	case ratio < -strongThreshold && pValue < strongPValue:
		return models.StrongDeclining
	case ratio > 0:
		return models.Improving
	default:
		return models.Declining
	}
}

// regressionPValue is the two-sided p-value of the slope under a
// t-distribution with n-2 degrees of freedom.
func regressionPValue(xs, residuals []float64, slope float64, n int) float64 {
	if n <= 2 {
		return 1.0
	}
	sumSqResid := 0.0
	for _, r := range residuals {
		sumSqResid += r * r
	}
	stdErr := math.Sqrt(sumSqResid / float64(n-2))

	xMean := stat.Mean(xs, nil)
	sumSqX := 0.0
	for _, x := range xs {
		d := x - xMean
		sumSqX += d * d
	}
	if sumSqX <= 0 {
		return 1.0
	}
	if stdErr <= 0 {
		// Zero residual variance: a non-zero slope is fitted exactly.
		if slope != 0 {
			return 0
		}
		return 1.0
	}
	seSlope := stdErr / math.Sqrt(sumSqX)
	if seSlope == 0 {
		return 1.0
	}
	tStat := slope / seSlope

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	return 2 * (1 - dist.CDF(math.Abs(tStat)))
}

// computeCAGR only returns a value when the first and last points share
// sign and are both non-zero, per §4.B.
func computeCAGR(series []float64, periodsPerYear float64) *float64 {
	n := len(series)
	start, end := series[0], series[n-1]
	if start == 0 || end == 0 {
		return nil
	}
	if (start > 0) != (end > 0) {
		return nil
	}
	years := float64(n-1) / periodsPerYear
	if years <= 0 {
		return nil
	}
	c := math.Pow(end/start, 1.0/years) - 1
	return &c
}

// detectAnomalies flags indices whose regression residual's z-score
// exceeds 2.5 in absolute value.
func detectAnomalies(residuals []float64) []int {
	std := stat.StdDev(residuals, nil)
	if std == 0 {
		return nil
	}
	mean := stat.Mean(residuals, nil)
	var anomalies []int
	for i, r := range residuals {
		z := (r - mean) / std
		if math.Abs(z) > anomalyZThreshold {
			anomalies = append(anomalies, i)
		}
	}
	return anomalies
}

var maWindows = []int{3, 5, 50, 200}

// movingAverages computes SMA/EMA series for every window the series is
// long enough to support, and flags a golden/death cross on the 50/200
// pair with confirmation on the point following the crossover.
func movingAverages(series []float64) (map[int]models.MovingAverage, bool, bool) {
	out := make(map[int]models.MovingAverage)
	for _, w := range maWindows {
		if len(series) < w {
			continue
		}
		out[w] = models.MovingAverage{
			Window: w,
			SMA:    sma(series, w),
			EMA:    ema(series, w),
		}
	}

	golden, death := false, false
	if short, ok := out[50]; ok {
		if long, ok2 := out[200]; ok2 {
			// Align the tails: both series end on the last point.
			aligned := short.SMA[len(short.SMA)-len(long.SMA):]
			golden, death = detectCross(aligned, long.SMA)
		}
	}
	return out, golden, death
}

func sma(series []float64, window int) []float64 {
	out := make([]float64, 0, len(series)-window+1)
	sum := 0.0
	for i, v := range series {
		sum += v
		if i >= window {
			sum -= series[i-window]
		}
		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}
	return out
}

func ema(series []float64, window int) []float64 {
	alpha := 2.0 / (float64(window) + 1)
	out := make([]float64, len(series)-window+1)
	// seed with the simple average of the first window, matching the
	// teacher-adjacent convention of starting EMA from a stable anchor
	// rather than the first raw point.
	seed := 0.0
	for i := 0; i < window; i++ {
		seed += series[i]
	}
	prev := seed / float64(window)
	out[0] = prev
	for i := window; i < len(series); i++ {
		prev = alpha*series[i] + (1-alpha)*prev
		out[i-window+1] = prev
	}
	return out
}

// detectCross looks at the final three aligned points of short vs long
// moving averages: a cross is only flagged when the crossover at the
// second-to-last point is confirmed (not reversed) at the last point.
func detectCross(short, long []float64) (golden, death bool) {
	n := len(short)
	if n != len(long) || n < 3 {
		return false, false
	}
	beforeDiff := short[n-3] - long[n-3]
	crossDiff := short[n-2] - long[n-2]
	lastDiff := short[n-1] - long[n-1]
	golden = beforeDiff <= 0 && crossDiff > 0 && lastDiff > 0
	death = beforeDiff >= 0 && crossDiff < 0 && lastDiff < 0
	return golden, death
}
