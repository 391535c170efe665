package valuation

import (
	"math"
	"time"

	"fundamentalengine/pkg/models"
)

// DCF discounts a growth-schedule of FCF to present, adding a Gordon-growth
// terminal value, then bridges enterprise to equity value — the same
// shape as the teacher's CalculateDCF, generalized to take a plain growth
// schedule instead of a slice of ProjectedFinancials.
func DCF(p Params) models.ValuationResult {
	if p.WACC <= p.TerminalGrowth {
		return nullResult(models.ModelDCF, "wacc must exceed terminal growth rate")
	}
	if len(p.GrowthSchedule) == 0 || p.SharesOutstanding == 0 {
		return nullResult(models.ModelDCF, "insufficient inputs for DCF projection")
	}

	fcf := p.CurrentFCF
	pv := 0.0
	discount := 1.0
	for _, g := range p.GrowthSchedule {
		fcf *= 1 + g
		discount /= 1 + p.WACC
		pv += fcf * discount
	}

	terminalFCF := fcf * (1 + p.TerminalGrowth)
	terminalValue := terminalFCF / (p.WACC - p.TerminalGrowth)
	pvTerminal := terminalValue * discount

	ev := pv + pvTerminal
	equity := ev - p.NetDebt
	fairValue := equity / p.SharesOutstanding

	return models.ValuationResult{
		ModelID:        models.ModelDCF,
		FairValue:      &fairValue,
		ConfidenceBase: confidence(models.ModelDCF, p.DataCompleteness),
		Diagnostics: map[string]float64{
			"enterprise_value": ev,
			"pv_fcf":            pv,
			"pv_terminal":       pvTerminal,
		},
	}
}

// RIM (Ohlson residual income) adds discounted excess returns over the
// cost-of-equity capital charge to book value, the same recursion as the
// teacher's CalculateResidualIncome.
func RIM(p Params) models.ValuationResult {
	if p.CostOfEquity <= p.TerminalGrowth {
		return nullResult(models.ModelRIM, "cost of equity must exceed terminal growth rate")
	}
	if len(p.GrowthSchedule) == 0 || p.SharesOutstanding == 0 {
		return nullResult(models.ModelRIM, "insufficient inputs for RIM projection")
	}

	earnings := p.CurrentEarnings
	book := p.CurrentBookValue
	pvRI := 0.0
	discount := 1.0
	var lastRI float64

	for _, g := range p.GrowthSchedule {
		earnings *= 1 + g
		capitalCharge := book * p.CostOfEquity
		ri := earnings - capitalCharge
		discount /= 1 + p.CostOfEquity
		pvRI += ri * discount
		book += earnings // retained, no dividend assumption at this level
		lastRI = ri
	}

	terminalRI := lastRI * (1 + p.TerminalGrowth) / (p.CostOfEquity - p.TerminalGrowth)
	pvTerminal := terminalRI * discount

	equity := p.CurrentBookValue + pvRI + pvTerminal
	fairValue := equity / p.SharesOutstanding

	return models.ValuationResult{
		ModelID:        models.ModelRIM,
		FairValue:      &fairValue,
		ConfidenceBase: confidence(models.ModelRIM, p.DataCompleteness),
		Diagnostics: map[string]float64{
			"pv_residual_income": pvRI,
			"pv_terminal":        pvTerminal,
		},
	}
}

// EVA discounts economic profit (NOPAT minus a WACC capital charge on
// invested capital) instead of residual income against book equity —
// same PV-stream-plus-terminal shape as RIM, charged against invested
// capital per §4.C.
func EVA(p Params) models.ValuationResult {
	if p.WACC <= p.TerminalGrowth {
		return nullResult(models.ModelEVA, "wacc must exceed terminal growth rate")
	}
	if len(p.GrowthSchedule) == 0 || p.SharesOutstanding == 0 {
		return nullResult(models.ModelEVA, "insufficient inputs for EVA projection")
	}

	nopat := p.NOPAT
	capital := p.InvestedCapital
	pvEVA := 0.0
	discount := 1.0
	var lastEVA float64

	for _, g := range p.GrowthSchedule {
		nopat *= 1 + g
		capitalCharge := p.WACC * capital
		eva := nopat - capitalCharge
		discount /= 1 + p.WACC
		pvEVA += eva * discount
		capital += nopat * 0.2 // reinvestment assumption proportional to NOPAT growth
		lastEVA = eva
	}

	terminalEVA := lastEVA * (1 + p.TerminalGrowth) / (p.WACC - p.TerminalGrowth)
	pvTerminal := terminalEVA * discount

	ev := p.InvestedCapital + pvEVA + pvTerminal
	equity := ev - p.NetDebt
	fairValue := equity / p.SharesOutstanding

	return models.ValuationResult{
		ModelID:        models.ModelEVA,
		FairValue:      &fairValue,
		ConfidenceBase: confidence(models.ModelEVA, p.DataCompleteness),
		Diagnostics: map[string]float64{
			"enterprise_value": ev,
			"pv_eva":           pvEVA,
			"pv_terminal":      pvTerminal,
		},
	}
}

// Graham is Benjamin Graham's intrinsic-value square root formula, null
// whenever EPS or BVPS is non-positive per §4.C.
func Graham(p Params) models.ValuationResult {
	if p.EPS <= 0 || p.BVPS <= 0 {
		return nullResult(models.ModelGraham, "graham number requires positive EPS and BVPS")
	}
	fairValue := math.Sqrt(22.5 * p.EPS * p.BVPS)
	return models.ValuationResult{
		ModelID:        models.ModelGraham,
		FairValue:      &fairValue,
		ConfidenceBase: confidence(models.ModelGraham, p.DataCompleteness),
	}
}

// Lynch is the Peter Lynch fair-PE heuristic: fair_PE = growth% +
// dividend_yield%, fair_value = fair_PE * EPS.
func Lynch(p Params) models.ValuationResult {
	if p.EPS <= 0 {
		return nullResult(models.ModelLynch, "lynch fair value requires positive EPS")
	}
	fairPE := p.CurrentGrowthPct + p.DividendYieldPct
	if fairPE <= 0 {
		return nullResult(models.ModelLynch, "lynch fair PE is non-positive")
	}
	fairValue := fairPE * p.EPS

	diagnostics := map[string]float64{"fair_pe": fairPE}
	if p.PE > 0 {
		diagnostics["lynch_ratio"] = fairPE / p.PE
	}

	return models.ValuationResult{
		ModelID:        models.ModelLynch,
		FairValue:      &fairValue,
		ConfidenceBase: confidence(models.ModelLynch, p.DataCompleteness),
		Diagnostics:    diagnostics,
	}
}

// NCAV is Graham's net current asset value per share: a negative result
// is a valid, meaningful signal of balance-sheet distress, not an error.
func NCAV(p Params) models.ValuationResult {
	if p.SharesOutstanding == 0 {
		return nullResult(models.ModelNCAV, "ncav requires shares outstanding")
	}
	fairValue := (p.CurrentAssets - p.TotalLiabilities) / p.SharesOutstanding
	return models.ValuationResult{
		ModelID:        models.ModelNCAV,
		FairValue:      &fairValue,
		ConfidenceBase: confidence(models.ModelNCAV, p.DataCompleteness),
	}
}

// PSMultiple applies the industry-median P/S multiple to revenue per
// share, mirroring the teacher's CalculateComps peer-multiple approach
// but against a single supplied industry median rather than a peer set.
func PSMultiple(p Params) models.ValuationResult {
	if p.SharesOutstanding == 0 || p.IndustryMedianPS <= 0 {
		return nullResult(models.ModelPS, "p/s multiple requires shares outstanding and a positive industry median")
	}
	revenuePerShare := p.CurrentRevenue / p.SharesOutstanding
	fairValue := p.IndustryMedianPS * revenuePerShare
	return models.ValuationResult{
		ModelID:        models.ModelPS,
		FairValue:      &fairValue,
		ConfidenceBase: confidence(models.ModelPS, p.DataCompleteness),
	}
}

// PCFMultiple applies the industry-median P/CF multiple to operating cash
// flow per share.
func PCFMultiple(p Params) models.ValuationResult {
	if p.SharesOutstanding == 0 || p.IndustryMedianPCF <= 0 {
		return nullResult(models.ModelPCF, "p/cf multiple requires shares outstanding and a positive industry median")
	}
	cfPerShare := p.CurrentOperCF / p.SharesOutstanding
	fairValue := p.IndustryMedianPCF * cfPerShare
	return models.ValuationResult{
		ModelID:        models.ModelPCF,
		FairValue:      &fairValue,
		ConfidenceBase: confidence(models.ModelPCF, p.DataCompleteness),
	}
}

// Estimate runs all eight models against the same Params and stamps
// CompanyID/AsOf/Scenario on each result, the §4.C fan-out ValuationModels
// exposes to the ensemble.
func Estimate(companyID string, asOf time.Time, scenario models.Scenario, p Params) []models.ValuationResult {
	runners := []func(Params) models.ValuationResult{
		DCF, RIM, EVA, Graham, Lynch, NCAV, PSMultiple, PCFMultiple,
	}
	out := make([]models.ValuationResult, 0, len(runners))
	for _, run := range runners {
		r := run(p)
		r.CompanyID = companyID
		r.AsOf = asOf
		r.Scenario = scenario
		out = append(out, r)
	}
	return out
}
