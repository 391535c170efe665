// Package scoring implements Scorer (§4.J): the five per-dimension
// fundamental scores, their weighted composite, letter rating and
// ranking, plus the ML dimension-weight optimiser. Grounded on
// pkg/core/ratio's RatioSet as the input shape and on pkg/core/training's
// gate/confidence machinery for the optimiser, reusing rather than
// reimplementing §4.G's MLConfidence formula as §4.J requires.
package scoring

import (
	"math"

	"fundamentalengine/pkg/models"
)

// IndustryReference bundles the peer-group statistics a dimension needs
// to scale a company's ratios against its industry (§4.J).
type IndustryReference struct {
	MedianPE, MedianPB, MedianPEG, MedianEVToEBITDA float64

	P90ROE, P90ROA, P90NetMargin, P90OperMargin float64
}

// clamp100 bounds a dimension score to [0,100] (§4.J).
func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// averageDefined averages whatever scored sub-metrics are actually
// defined, rather than failing the whole dimension when one ratio is
// undefined (the same "exclude and renormalize" treatment §4.F gives
// undefined models).
func averageDefined(scores map[string]float64) (value float64, subMetrics map[string]float64) {
	if len(scores) == 0 {
		return 50, map[string]float64{}
	}
	var sum float64
	for _, v := range scores {
		sum += v
	}
	return clamp100(sum / float64(len(scores))), scores
}

// nearMedianScore scores closer-to-industry-median as higher, per §4.J's
// "inverse-scaled ... vs industry medians" valuation rule. Undefined when
// the median itself is non-positive (no peer reference available).
func nearMedianScore(value models.Metric, median float64) (float64, bool) {
	if !value.IsDefined() || median <= 0 {
		return 0, false
	}
	deviation := math.Abs(value.Float(0)-median) / median
	return clamp100(100 / (1 + deviation)), true
}

// capped90thScore scores higher-is-better ratios linearly up to the
// industry 90th percentile, per §4.J's profitability rule.
func capped90thScore(value models.Metric, p90 float64) (float64, bool) {
	if !value.IsDefined() || p90 <= 0 {
		return 0, false
	}
	return clamp100(100 * value.Float(0) / p90), true
}

// Valuation implements §4.J's valuation dimension.
func Valuation(mv models.MarketValueRatios, ref IndustryReference) models.DimensionScore {
	scores := map[string]float64{}
	if s, ok := nearMedianScore(mv.PE, ref.MedianPE); ok {
		scores["pe"] = s
	}
	if s, ok := nearMedianScore(mv.PB, ref.MedianPB); ok {
		scores["pb"] = s
	}
	if s, ok := nearMedianScore(mv.PEG, ref.MedianPEG); ok {
		scores["peg"] = s
	}
	if s, ok := nearMedianScore(mv.EVToEBITDA, ref.MedianEVToEBITDA); ok {
		scores["ev_ebitda"] = s
	}
	value, sub := averageDefined(scores)
	return models.DimensionScore{Dimension: models.DimValuation, Value: value, SubMetrics: sub}
}

// Profitability implements §4.J's profitability dimension.
func Profitability(p models.ProfitabilityRatios, ref IndustryReference) models.DimensionScore {
	scores := map[string]float64{}
	if s, ok := capped90thScore(p.ROE, ref.P90ROE); ok {
		scores["roe"] = s
	}
	if s, ok := capped90thScore(p.ROA, ref.P90ROA); ok {
		scores["roa"] = s
	}
	if s, ok := capped90thScore(p.NetMargin, ref.P90NetMargin); ok {
		scores["net_margin"] = s
	}
	if s, ok := capped90thScore(p.OperatingMargin, ref.P90OperMargin); ok {
		scores["oper_margin"] = s
	}
	value, sub := averageDefined(scores)
	return models.DimensionScore{Dimension: models.DimProfitability, Value: value, SubMetrics: sub}
}

// growthLogisticSlope controls how sharply a CAGR maps toward the 0/100
// ends of the growth dimension's logistic curve (§4.J: "signed,
// logistic-mapped").
const growthLogisticSlope = 5.0

func logisticScore(cagr models.Metric) (float64, bool) {
	if !cagr.IsDefined() {
		return 0, false
	}
	x := cagr.Float(0)
	return clamp100(100 / (1 + math.Exp(-growthLogisticSlope*x))), true
}

// Growth implements §4.J's growth dimension.
func Growth(g models.GrowthRatios) models.DimensionScore {
	scores := map[string]float64{}
	if s, ok := logisticScore(g.RevenueCAGR3Y); ok {
		scores["revenue_cagr"] = s
	}
	if s, ok := logisticScore(g.EarningsCAGR3Y); ok {
		scores["earnings_cagr"] = s
	}
	if s, ok := logisticScore(g.BookValueGrowth); ok {
		scores["book_value_cagr"] = s
	}
	value, sub := averageDefined(scores)
	return models.DimensionScore{Dimension: models.DimGrowth, Value: value, SubMetrics: sub}
}

// Health scaling bands: the ratio value that maps to a 100 score for each
// higher-is-better health metric, and the debt/equity value that maps to
// zero for the inverted one. §4.J names the four ratios without giving
// bands, so these are a documented assumption (see DESIGN.md).
const (
	healthCurrentRatioFull  = 2.0
	healthQuickRatioFull    = 1.5
	healthInterestCoverFull = 10.0
	healthDebtToEquityZero  = 2.0
)

// Health implements §4.J's health dimension.
func Health(l models.LiquidityRatios, lev models.LeverageRatios) models.DimensionScore {
	scores := map[string]float64{}
	if l.CurrentRatio.IsDefined() {
		scores["current_ratio"] = clamp100(100 * l.CurrentRatio.Float(0) / healthCurrentRatioFull)
	}
	if l.QuickRatio.IsDefined() {
		scores["quick_ratio"] = clamp100(100 * l.QuickRatio.Float(0) / healthQuickRatioFull)
	}
	if lev.DebtToEquity.IsDefined() {
		scores["debt_to_equity"] = clamp100(100 * (1 - lev.DebtToEquity.Float(0)/healthDebtToEquityZero))
	}
	if lev.InterestCoverage.IsDefined() {
		scores["interest_coverage"] = clamp100(100 * lev.InterestCoverage.Float(0) / healthInterestCoverFull)
	}
	value, sub := averageDefined(scores)
	return models.DimensionScore{Dimension: models.DimHealth, Value: value, SubMetrics: sub}
}

// Risk scaling bands for beta and volatility, the two inputs §4.J names
// without a RatioSet field of their own (see pkg/core/scoring/risk.go).
// Altman Z follows §4.J's explicit linear band exactly.
const (
	altmanZFloor = 1.81
	altmanZFull  = 3.0

	betaBandLow  = 0.5
	betaBandHigh = 2.0

	volatilityBandLow  = 0.15
	volatilityBandHigh = 0.60
)

func altmanScore(z float64) float64 {
	if z >= altmanZFull {
		return 100
	}
	if z < altmanZFloor {
		return 0
	}
	return clamp100(100 * (z - altmanZFloor) / (altmanZFull - altmanZFloor))
}

func invertedBandScore(v, low, high float64) float64 {
	if high <= low {
		return 50
	}
	return clamp100(100 * (high - v) / (high - low))
}

// Risk implements §4.J's risk dimension. altmanZ is nil when the
// statements needed for Altman Z (current Diagnostics.AltmanZ) are
// unavailable, in which case the dimension scores from beta/volatility
// alone.
func Risk(altmanZ *float64, beta, volatility float64) models.DimensionScore {
	scores := map[string]float64{}
	if altmanZ != nil {
		scores["altman_z"] = altmanScore(*altmanZ)
	}
	scores["beta"] = invertedBandScore(beta, betaBandLow, betaBandHigh)
	scores["volatility"] = invertedBandScore(volatility, volatilityBandLow, volatilityBandHigh)
	value, sub := averageDefined(scores)
	return models.DimensionScore{Dimension: models.DimRisk, Value: value, SubMetrics: sub}
}
