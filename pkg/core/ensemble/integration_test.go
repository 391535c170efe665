package ensemble

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fundamentalengine/pkg/core/valuation"
	"fundamentalengine/pkg/models"
)

// TestEnsembleResultShapeForHealthyLargeCap asserts on the whole
// EnsembleResult struct at once rather than field-by-field, the way the
// pack's integration-shaped tests do for structured outputs.
func TestEnsembleResultShapeForHealthyLargeCap(t *testing.T) {
	p := valuation.Params{
		GrowthSchedule:    []float64{0.06, 0.05, 0.04, 0.03, 0.03},
		WACC:              0.09,
		CostOfEquity:      0.10,
		TerminalGrowth:    0.025,
		SharesOutstanding: 1_000_000_000,
		CurrentFCF:        15_000_000_000,
		CurrentEarnings:   15_000_000_000,
		CurrentBookValue:  80_000_000_000,
		CurrentRevenue:    100_000_000_000,
		CurrentOperCF:     18_000_000_000,
		NOPAT:             15_500_000_000,
		InvestedCapital:   90_000_000_000,
		EPS:               6.50,
		BVPS:              28.0,
		CurrentGrowthPct:  8,
		DividendYieldPct:  1.2,
		CurrentAssets:     60_000_000_000,
		TotalLiabilities:  40_000_000_000,
		IndustryMedianPS:  3,
		IndustryMedianPCF: 12,
		DataCompleteness:  1.0,
	}

	e := newTestEngine()
	company := models.Company{ID: "C1", Industry: "tech", SharesOutstanding: 1000}
	res, err := e.Value("T1", company, time.Now(), p, Options{CurrentPrice: 120})
	require.NoError(t, err)
	require.NotNil(t, res)

	require.NotEqual(t, models.StatusFailed, res.Status)
	require.Len(t, res.PerModelValues, 24)
	require.InDelta(t, 1.0, sumWeights(res.ModelWeights), 1e-6)
	require.GreaterOrEqual(t, res.Confidence, 0.0)
	require.LessOrEqual(t, res.Confidence, 1.0)
	require.LessOrEqual(t, res.ValueRangeLow, res.FinalFairValue)
	require.LessOrEqual(t, res.FinalFairValue, res.ValueRangeHigh)
	require.Contains(t, []models.Recommendation{
		models.RecStrongBuy, models.RecBuy, models.RecHold, models.RecSell, models.RecStrongSell,
	}, res.Recommendation)
}

func sumWeights(w map[models.ModelID]float64) float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	return sum
}
