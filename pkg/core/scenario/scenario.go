// Package scenario implements ScenarioExecutor (§4.D): runs every
// ValuationModels function once per bull/base/bear scenario with
// perturbed parameters, then scores each model's cross-scenario
// coherence. Grounded on the teacher's valuation package for the model
// functions themselves (pkg/core/valuation); the perturbation/coherence
// logic has no teacher equivalent and is built directly from spec.md
// §4.D's perturbation table.
package scenario

import (
	"math"
	"time"

	"fundamentalengine/pkg/core/valuation"
	"fundamentalengine/pkg/models"
)

const (
	bullWACCDelta    = -0.02
	bearWACCDelta    = 0.03
	bullGrowthDelta  = 0.03
	bearGrowthDelta  = -0.02
	bullMarginFactor = 1.05
	bearMarginFactor = 0.95

	bullConfidenceMultiplier = 0.70
	baseConfidenceMultiplier = 0.85
	bearConfidenceMultiplier = 0.65
)

// Result bundles the 24 per-scenario valuation results with the
// per-model coherence score §4.D requires.
type Result struct {
	Values    []models.ValuationResult // 8 models × 3 scenarios = 24
	Coherence map[models.ModelID]models.Metric
}

// Execute runs all eight models under each of the three scenarios and
// computes per-model coherence.
func Execute(companyID string, asOf time.Time, p valuation.Params) Result {
	byScenario := map[models.Scenario][]models.ValuationResult{
		models.ScenarioBull: valuation.Estimate(companyID, asOf, models.ScenarioBull, perturb(p, models.ScenarioBull)),
		models.ScenarioBase: valuation.Estimate(companyID, asOf, models.ScenarioBase, perturb(p, models.ScenarioBase)),
		models.ScenarioBear: valuation.Estimate(companyID, asOf, models.ScenarioBear, perturb(p, models.ScenarioBear)),
	}

	applyConfidenceMultiplier(byScenario[models.ScenarioBull], bullConfidenceMultiplier)
	applyConfidenceMultiplier(byScenario[models.ScenarioBase], baseConfidenceMultiplier)
	applyConfidenceMultiplier(byScenario[models.ScenarioBear], bearConfidenceMultiplier)

	var all []models.ValuationResult
	for _, s := range []models.Scenario{models.ScenarioBull, models.ScenarioBase, models.ScenarioBear} {
		all = append(all, byScenario[s]...)
	}

	coherence := make(map[models.ModelID]models.Metric, len(models.AllModels))
	for _, id := range models.AllModels {
		bull := valueFor(byScenario[models.ScenarioBull], id)
		base := valueFor(byScenario[models.ScenarioBase], id)
		bear := valueFor(byScenario[models.ScenarioBear], id)
		coherence[id] = coherenceScore(bull, base, bear)
	}

	return Result{Values: all, Coherence: coherence}
}

func applyConfidenceMultiplier(results []models.ValuationResult, mult float64) {
	for i := range results {
		results[i].ConfidenceBase *= mult
	}
}

func valueFor(results []models.ValuationResult, id models.ModelID) *float64 {
	for _, r := range results {
		if r.ModelID == id {
			return r.FairValue
		}
	}
	return nil
}

// coherenceScore is 1 - std(bull,base,bear)/|mean|, undefined whenever
// any of the three scenario values is itself undefined (the model
// reported undefined_formula for at least one perturbation) or the mean
// is zero.
func coherenceScore(bull, base, bear *float64) models.Metric {
	if bull == nil || base == nil || bear == nil {
		return models.Undefined()
	}
	vals := []float64{*bull, *base, *bear}
	mean := (vals[0] + vals[1] + vals[2]) / 3
	if mean == 0 {
		return models.Undefined()
	}
	variance := 0.0
	for _, v := range vals {
		d := v - mean
		variance += d * d
	}
	variance /= 3
	std := math.Sqrt(variance)
	return models.M(1 - std/math.Abs(mean))
}

// perturb applies §4.D's scenario deltas to the parameters each model
// actually consumes; fields a given model ignores flow through
// unperturbed, so "others run identically across scenarios" holds
// without the caller needing to know which model reads which field.
func perturb(p valuation.Params, s models.Scenario) valuation.Params {
	out := p
	out.GrowthSchedule = append([]float64(nil), p.GrowthSchedule...)

	switch s {
	case models.ScenarioBull:
		out.WACC += bullWACCDelta
		shiftGrowth(out.GrowthSchedule, bullGrowthDelta)
		out.CurrentGrowthPct += bullGrowthDelta * 100
		scaleMargins(&out, bullMarginFactor)
	case models.ScenarioBear:
		out.WACC += bearWACCDelta
		shiftGrowth(out.GrowthSchedule, bearGrowthDelta)
		out.CurrentGrowthPct += bearGrowthDelta * 100
		scaleMargins(&out, bearMarginFactor)
	case models.ScenarioBase:
		// unchanged
	}
	return out
}

func shiftGrowth(schedule []float64, delta float64) {
	for i := range schedule {
		schedule[i] += delta
	}
}

// scaleMargins perturbs the profitability-derived figures the
// cash-flow/earnings-based models (DCF, RIM, EVA, P/CF) consume. EPS,
// BVPS, current assets/liabilities and the industry-median multiples are
// realized-period snapshots, not scenario assumptions, so they are left
// untouched per §4.D's "only models that consume the respective
// parameter" rule.
func scaleMargins(p *valuation.Params, factor float64) {
	p.CurrentFCF *= factor
	p.CurrentEarnings *= factor
	p.NOPAT *= factor
	p.CurrentOperCF *= factor
}
