package valuation

import "fundamentalengine/pkg/core/errs"

// WACCInput parameters for calculating Cost of Capital.
// pkg/core/ensemble.ParamsFromRatios derives Params.WACC and
// Params.CostOfEquity from the caller-supplied CAPM assumptions and the
// company's own debt/equity ratio (RatioKernel's leverage group) through
// CalculateWACC, ahead of calling any of the eight model functions.
type WACCInput struct {
	UnleveredBeta     float64
	RiskFreeRate      float64
	MarketRiskPremium float64
	PreTaxCostOfDebt  float64
	TaxRate           float64
	DebtToEquityRatio float64 // Target Leverage (D/E)
}

// WACCResult holds the calculated rates
type WACCResult struct {
	LeveredBeta  float64
	CostOfEquity float64
	CostOfDebt   float64 // After-tax
	WACC         float64
	WeightDebt   float64
	WeightEquity float64
}

// CalculateWACC computes the Weighted Average Cost of Capital using CAPM
// and the Hamada equation. A negative D/E (RatioKernel.Leverage.DebtToEquity
// is undefined rather than negative whenever equity is positive, so a
// negative input here means the caller fed it something other than
// RatioKernel's own output) or a TaxRate outside [0, 1) makes the Hamada
// releverage and the capital-weight split below nonsensical, so both raise
// errs.InvariantViolation instead of silently producing a negative weight
// or a >1 weight sum.
func CalculateWACC(input WACCInput) (WACCResult, error) {
	if input.DebtToEquityRatio < 0 {
		return WACCResult{}, errs.New(errs.InvariantViolation, "WACC input debt-to-equity ratio is negative")
	}
	if input.TaxRate < 0 || input.TaxRate >= 1 {
		return WACCResult{}, errs.New(errs.InvariantViolation, "WACC input tax rate is outside [0, 1)")
	}

	// 1. Re-lever Beta (Hamada)
	// BetaL = BetaU * (1 + (1-t)*(D/E))
	leveredBeta := input.UnleveredBeta * (1 + (1-input.TaxRate)*input.DebtToEquityRatio)

	// 2. Cost of Equity (CAPM)
	// Ke = Rf + BetaL * ERP
	ke := input.RiskFreeRate + leveredBeta*input.MarketRiskPremium

	// 3. Cost of Debt (After-tax)
	// Kd = PreTaxKd * (1 - t)
	kd := input.PreTaxCostOfDebt * (1 - input.TaxRate)

	// 4. Weights
	// D/E = x -> D = xE
	// V = D + E = xE + E = E(1+x)
	// Wd = D/V = xE / E(1+x) = x / (1+x)
	// We = E/V = E / E(1+x) = 1 / (1+x)
	wd := input.DebtToEquityRatio / (1 + input.DebtToEquityRatio)
	we := 1.0 / (1 + input.DebtToEquityRatio)

	// 5. WACC
	wacc := (ke * we) + (kd * wd)
	if wacc <= 0 {
		return WACCResult{}, errs.New(errs.InvariantViolation, "computed WACC is not positive, cannot discount future cash flows")
	}

	return WACCResult{
		LeveredBeta:  leveredBeta,
		CostOfEquity: ke,
		CostOfDebt:   kd,
		WACC:         wacc,
		WeightDebt:   wd,
		WeightEquity: we,
	}, nil
}
