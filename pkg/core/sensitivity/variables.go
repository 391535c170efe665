// Package sensitivity implements SensitivityAnalyzer (§4.I): one-way and
// two-way parameter sweeps, tornado diagrams, and Monte Carlo simulation
// over valuation.Params. Grounded on the teacher's pkg/core/valuation for
// the thing being perturbed, and on gonum/stat + gonum/stat/distuv (the
// same pairing pkg/core/trend and pkg/core/training already use) for the
// percentile and distribution-sampling primitives.
package sensitivity

import "fundamentalengine/pkg/core/valuation"

// ValueFunc turns one set of perturbed parameters into the single scalar
// fair value a sweep tracks; callers typically close over a chosen
// models.ModelID or over the ensemble's blended fair value.
type ValueFunc func(valuation.Params) (float64, error)

// Variable is a named, addressable scalar field of valuation.Params. The
// named-variable table (rather than reflection) keeps every perturbation
// a plain, inlinable float64 read/write.
type Variable struct {
	Name string
	Get  func(valuation.Params) float64
	Set  func(p *valuation.Params, v float64)
}

var variableTable = map[string]Variable{
	"wacc": {
		Name: "wacc",
		Get:  func(p valuation.Params) float64 { return p.WACC },
		Set:  func(p *valuation.Params, v float64) { p.WACC = v },
	},
	"cost_of_equity": {
		Name: "cost_of_equity",
		Get:  func(p valuation.Params) float64 { return p.CostOfEquity },
		Set:  func(p *valuation.Params, v float64) { p.CostOfEquity = v },
	},
	"terminal_growth": {
		Name: "terminal_growth",
		Get:  func(p valuation.Params) float64 { return p.TerminalGrowth },
		Set:  func(p *valuation.Params, v float64) { p.TerminalGrowth = v },
	},
	"tax_rate": {
		Name: "tax_rate",
		Get:  func(p valuation.Params) float64 { return p.TaxRate },
		Set:  func(p *valuation.Params, v float64) { p.TaxRate = v },
	},
	"current_fcf": {
		Name: "current_fcf",
		Get:  func(p valuation.Params) float64 { return p.CurrentFCF },
		Set:  func(p *valuation.Params, v float64) { p.CurrentFCF = v },
	},
	"current_earnings": {
		Name: "current_earnings",
		Get:  func(p valuation.Params) float64 { return p.CurrentEarnings },
		Set:  func(p *valuation.Params, v float64) { p.CurrentEarnings = v },
	},
	"current_book_value": {
		Name: "current_book_value",
		Get:  func(p valuation.Params) float64 { return p.CurrentBookValue },
		Set:  func(p *valuation.Params, v float64) { p.CurrentBookValue = v },
	},
	"net_debt": {
		Name: "net_debt",
		Get:  func(p valuation.Params) float64 { return p.NetDebt },
		Set:  func(p *valuation.Params, v float64) { p.NetDebt = v },
	},
	"shares_outstanding": {
		Name: "shares_outstanding",
		Get:  func(p valuation.Params) float64 { return p.SharesOutstanding },
		Set:  func(p *valuation.Params, v float64) { p.SharesOutstanding = v },
	},
	"eps": {
		Name: "eps",
		Get:  func(p valuation.Params) float64 { return p.EPS },
		Set:  func(p *valuation.Params, v float64) { p.EPS = v },
	},
	"pe": {
		Name: "pe",
		Get:  func(p valuation.Params) float64 { return p.PE },
		Set:  func(p *valuation.Params, v float64) { p.PE = v },
	},
	"current_growth_pct": {
		Name: "current_growth_pct",
		Get:  func(p valuation.Params) float64 { return p.CurrentGrowthPct },
		Set:  func(p *valuation.Params, v float64) { p.CurrentGrowthPct = v },
	},
}

// Lookup resolves a variable by the name SensitivityAnalyzer callers pass
// through one_way/two_way/tornado.
func Lookup(name string) (Variable, bool) {
	v, ok := variableTable[name]
	return v, ok
}

func with(base valuation.Params, v Variable, value float64) valuation.Params {
	out := base
	out.GrowthSchedule = append([]float64(nil), base.GrowthSchedule...)
	v.Set(&out, value)
	return out
}
