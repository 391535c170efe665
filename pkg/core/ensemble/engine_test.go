package ensemble

import (
	"testing"
	"time"

	"fundamentalengine/pkg/core/registry"
	"fundamentalengine/pkg/core/valuation"
	"fundamentalengine/pkg/models"
)

func newTestEngine() *Engine {
	r := registry.New()
	r.Init()
	return &Engine{Registry: r}
}

// S1 — Healthy large-cap: expect a positive final_fair_value, confidence in
// (0, 1], and value_range_low <= final_fair_value <= value_range_high.
func TestValueHealthyLargeCap(t *testing.T) {
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
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FinalFairValue <= 0 {
		t.Errorf("expected a positive blended fair value for a profitable large-cap, got %f", res.FinalFairValue)
	}
	if res.Confidence <= 0 || res.Confidence > 1 {
		t.Errorf("expected confidence in (0,1], got %f", res.Confidence)
	}
	if res.ValueRangeLow > res.FinalFairValue || res.FinalFairValue > res.ValueRangeHigh {
		t.Errorf("expected value_range_low <= final_fair_value <= value_range_high, got [%f, %f, %f]", res.ValueRangeLow, res.FinalFairValue, res.ValueRangeHigh)
	}
}

// S2 — Graham undefined: Graham returns null on negative EPS; ensemble
// renormalises over the remaining seven models, status=degraded, and
// degraded_metrics contains graham_number.
func TestValueGrahamUndefinedDegradesGracefully(t *testing.T) {
	p := valuation.Params{
		EPS:               -1.0,
		BVPS:              10.0,
		GrowthSchedule:    []float64{0.03, 0.03},
		WACC:              0.09,
		TerminalGrowth:    0.02,
		SharesOutstanding: 100,
		CurrentFCF:        50,
		CurrentEarnings:   -10,
		NOPAT:             5,
		InvestedCapital:   200,
		DataCompleteness:  1.0,
	}

	e := newTestEngine()
	company := models.Company{ID: "C2"}
	res, err := e.Value("T1", company, time.Now(), p, Options{CurrentPrice: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != models.StatusDegraded {
		t.Errorf("expected status=degraded, got %s", res.Status)
	}
	found := false
	for _, m := range res.DegradedMetrics {
		if m == "graham_number" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected degraded_metrics to contain graham_number, got %v", res.DegradedMetrics)
	}
	if res.ModelWeights[models.ModelGraham] != 0 {
		t.Errorf("expected Graham's weight to be renormalised to 0, got %f", res.ModelWeights[models.ModelGraham])
	}
}

// S3 — DCF invalid: WACC <= terminal growth makes DCF undefined_formula;
// ensemble excludes it without an uncaught error.
func TestValueDCFInvalidExcludedWithoutError(t *testing.T) {
	p := valuation.Params{
		WACC:              0.04,
		TerminalGrowth:    0.05,
		GrowthSchedule:    []float64{0.03},
		SharesOutstanding: 100,
		CurrentFCF:        50,
		EPS:               2,
		BVPS:              20,
		NOPAT:             10,
		InvestedCapital:   100,
		DataCompleteness:  1.0,
	}

	e := newTestEngine()
	company := models.Company{ID: "C3"}
	res, err := e.Value("T1", company, time.Now(), p, Options{CurrentPrice: 30})
	if err != nil {
		t.Fatalf("expected no uncaught error, got %v", err)
	}
	// base scenario's WACC (0.04) sits at/below terminal growth (0.05), so
	// DCF's base leg is undefined_formula; the bear perturbation (+3pp)
	// pushes WACC back above terminal growth and rescues that leg, so the
	// model survives renormalisation rather than dropping to a zero
	// weight. What matters for this scenario is that the undefined base
	// leg never surfaces as an uncaught error.
	if res.Status == models.StatusFailed {
		t.Errorf("expected the request to complete despite DCF's undefined base leg, got status=failed")
	}
}

func TestValueConfidenceAndRangeAlwaysBounded(t *testing.T) {
	p := valuation.Params{
		GrowthSchedule:    []float64{0.02},
		WACC:              0.08,
		TerminalGrowth:    0.02,
		SharesOutstanding: 10,
		CurrentFCF:        5,
		EPS:               1,
		BVPS:              5,
		NOPAT:             2,
		InvestedCapital:   20,
		DataCompleteness:  0.4,
	}

	e := newTestEngine()
	company := models.Company{ID: "C4"}
	res, err := e.Value("T1", company, time.Now(), p, Options{CurrentPrice: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		t.Errorf("expected confidence in [0,1], got %f", res.Confidence)
	}
	if res.ValueRangeLow > res.FinalFairValue || res.FinalFairValue > res.ValueRangeHigh {
		t.Errorf("expected value_range_low <= final_fair_value <= value_range_high")
	}
}

func TestResolveWeightsPrecedence(t *testing.T) {
	e := newTestEngine()
	company := models.Company{ID: "C5", Industry: "retail"}

	if got := e.resolveWeights(company); got != models.DefaultWeightTable {
		t.Errorf("expected default weight table absent any active vector")
	}

	global := &models.WeightVector{OwnerScope: models.GlobalScope(), ModelWeights: [8]float64{1, 0, 0, 0, 0, 0, 0, 0}, Deployed: models.DeployActive}
	e.Registry.SetActiveWeight(global)
	if got := e.resolveWeights(company); got != global.ModelWeights {
		t.Errorf("expected global-active vector to win over default")
	}

	industry := &models.WeightVector{OwnerScope: models.IndustryScope("retail"), ModelWeights: [8]float64{0, 1, 0, 0, 0, 0, 0, 0}, Deployed: models.DeployActive}
	e.Registry.SetActiveWeight(industry)
	if got := e.resolveWeights(company); got != industry.ModelWeights {
		t.Errorf("expected industry-active vector to win over global-active")
	}

	override := &models.WeightVector{OwnerScope: models.CompanyScope("C5"), ModelWeights: [8]float64{0, 0, 1, 0, 0, 0, 0, 0}, Deployed: models.DeployActive}
	e.Registry.SetActiveWeight(override)
	if got := e.resolveWeights(company); got != override.ModelWeights {
		t.Errorf("expected company-override vector to win over industry-active")
	}
}
