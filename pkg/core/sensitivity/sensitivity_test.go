package sensitivity

import (
	"context"
	"fmt"
	"testing"

	"fundamentalengine/pkg/core/valuation"
)

func baseParams() valuation.Params {
	return valuation.Params{
		GrowthSchedule:    []float64{0.05, 0.05, 0.05, 0.05, 0.05},
		WACC:              0.09,
		TerminalGrowth:    0.03,
		CurrentFCF:        100,
		SharesOutstanding: 50,
		NetDebt:           200,
		DataCompleteness:  1,
	}
}

func dcfValue(p valuation.Params) (float64, error) {
	r := valuation.DCF(p)
	if r.FairValue == nil {
		return 0, fmt.Errorf("dcf undefined: %s", r.Reason)
	}
	return *r.FairValue, nil
}

func TestOneWaySweepsAcrossRangeAndIsMonotonic(t *testing.T) {
	points, err := OneWay(baseParams(), "wacc", 0.06, 0.12, 7, dcfValue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 7 {
		t.Fatalf("expected 7 points, got %d", len(points))
	}
	if points[0].Value != 0.06 || points[len(points)-1].Value != 0.12 {
		t.Errorf("expected the sweep to span the inclusive range, got first=%f last=%f", points[0].Value, points[len(points)-1].Value)
	}
	for i := 1; i < len(points); i++ {
		if points[i].FairValue >= points[i-1].FairValue {
			t.Errorf("expected fair value to strictly decrease as wacc rises, index %d: %f -> %f", i, points[i-1].FairValue, points[i].FairValue)
		}
	}
}

func TestOneWayRejectsUnknownVariable(t *testing.T) {
	if _, err := OneWay(baseParams(), "not_a_real_variable", 0, 1, 3, dcfValue); err == nil {
		t.Fatal("expected an error for an unknown variable")
	}
}

func TestTwoWayProducesCartesianProduct(t *testing.T) {
	grid, err := TwoWay(baseParams(), "wacc", "terminal_growth", 0.07, 0.11, 3, 0.01, 0.04, 3, dcfValue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(grid) != 9 {
		t.Fatalf("expected a 3x3 cartesian product (9 cells), got %d", len(grid))
	}
}

func TestTornadoSortsByAbsoluteImpactDescending(t *testing.T) {
	entries, err := Tornado(baseParams(), []string{"wacc", "terminal_growth", "current_fcf"}, 0.10, dcfValue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected one entry per variable, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Impact > entries[i-1].Impact {
			t.Errorf("expected entries sorted by descending impact, index %d: %f > %f", i, entries[i].Impact, entries[i-1].Impact)
		}
	}
}

// S6 — Monte Carlo reproducibility: identical base params, distributions,
// N and seed must produce byte-identical summary statistics.
func TestMonteCarloIsReproducibleForFixedSeed(t *testing.T) {
	specs := []VariableDistribution{
		{Variable: "wacc", Dist: Normal{Mean: 0.09, StdDev: 0.005}},
		{Variable: "terminal_growth", Dist: Uniform{Min: 0.02, Max: 0.04}},
	}

	a, err := MonteCarlo(context.Background(), baseParams(), specs, 200, 7, dcfValue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := MonteCarlo(context.Background(), baseParams(), specs, 200, 7, dcfValue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.Mean != b.Mean || a.StdDev != b.StdDev || a.Median != b.Median {
		t.Errorf("expected identical summary stats for the same seed, got mean %f vs %f", a.Mean, b.Mean)
	}
	for _, p := range []int{5, 10, 25, 50, 75, 90, 95} {
		if a.Percentiles[p] != b.Percentiles[p] {
			t.Errorf("expected identical p%d for the same seed, got %f vs %f", p, a.Percentiles[p], b.Percentiles[p])
		}
	}
}

func TestMonteCarloPercentilesAreNonDecreasingAndBoundConfidenceIntervals(t *testing.T) {
	specs := []VariableDistribution{
		{Variable: "wacc", Dist: Triangular{Min: 0.07, Mode: 0.09, Max: 0.12}},
	}
	res, err := MonteCarlo(context.Background(), baseParams(), specs, 500, 11, dcfValue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.N != 500 {
		t.Errorf("expected all 500 samples to succeed, got N=%d", res.N)
	}

	order := []int{5, 10, 25, 50, 75, 90, 95}
	for i := 1; i < len(order); i++ {
		if res.Percentiles[order[i]] < res.Percentiles[order[i-1]] {
			t.Errorf("expected non-decreasing percentiles, p%d=%f < p%d=%f", order[i], res.Percentiles[order[i]], order[i-1], res.Percentiles[order[i-1]])
		}
	}
	if res.CI80[0] > res.CI80[1] || res.CI90[0] > res.CI90[1] {
		t.Errorf("expected confidence interval lower bound <= upper bound")
	}
	if res.CI90[0] > res.CI80[0] || res.CI90[1] < res.CI80[1] {
		t.Errorf("expected the 90%% interval to be at least as wide as the 80%% interval")
	}
}

func TestMonteCarloRejectsUnknownVariable(t *testing.T) {
	specs := []VariableDistribution{{Variable: "not_a_real_variable", Dist: Uniform{Min: 0, Max: 1}}}
	if _, err := MonteCarlo(context.Background(), baseParams(), specs, 10, 1, dcfValue); err == nil {
		t.Fatal("expected an error for an unknown variable")
	}
}
