package ensemble

import (
	"fundamentalengine/pkg/core/moneydec"
	"fundamentalengine/pkg/core/ratio"
	"fundamentalengine/pkg/core/valuation"
	"fundamentalengine/pkg/models"
)

// Assumptions bundles the cost-of-capital/tax inputs RatioKernel's output
// cannot supply on its own (§4.A computes ratios from statements, never a
// discount rate) — the same split the teacher's projection package draws
// between "derived from filings" and "analyst-supplied assumption".
// WACC and CostOfEquity are derived from these via CalculateWACC rather
// than supplied directly, so a caller only ever hands over CAPM inputs.
type Assumptions struct {
	UnleveredBeta     float64
	RiskFreeRate      float64
	MarketRiskPremium float64
	PreTaxCostOfDebt  float64
	TerminalGrowth    float64
	TaxRate           float64
	HorizonYears      int // default 5
}

func (a Assumptions) horizonYears() int {
	if a.HorizonYears <= 0 {
		return 5
	}
	return a.HorizonYears
}

// ParamsFromRatios implements the A→B→C handoff the data-flow diagram
// names: it takes RatioKernel's Input and output RatioSet and derives the
// raw-dollar and per-share fields ValuationModels' eight estimators need,
// so ValueFromStatements never asks a caller to hand-build a Params. It
// returns CalculateWACC's error unchanged when the company's leverage or
// the caller's assumptions make the discount rate undefined, rather than
// handing ValuationModels a zero or negative WACC to silently divide by.
func ParamsFromRatios(in ratio.Input, rs *models.RatioSet, assumptions Assumptions) (valuation.Params, error) {
	is, bs, cf := in.Current.Income, in.Current.Balance, in.Current.CashFlow
	shares := moneydec.F(in.SharesOutstanding)

	eps := moneydec.F(is.EPS)
	if eps == 0 && shares != 0 {
		eps = moneydec.F(is.NetIncome) / shares
	}
	bvps := 0.0
	if shares != 0 {
		bvps = moneydec.F(bs.TotalEquity) / shares
	}

	dividendYieldPct := 0.0
	if in.LatestMarket != nil {
		price := moneydec.F(in.LatestMarket.Close)
		if price > 0 {
			dividendYieldPct = moneydec.F(is.DividendsPerShare) / price * 100
		}
	}

	currentGrowthPct := rs.Growth.EarningsGrowth.Float(rs.Growth.RevenueGrowth.Float(0)) * 100

	investedCapital := moneydec.F(bs.TotalEquity.
		Add(bs.LongTermDebt).
		Add(bs.ShortTermDebt).
		Add(bs.CurrentPortionLTDebt).
		Sub(bs.Cash))

	wacc, err := valuation.CalculateWACC(valuation.WACCInput{
		UnleveredBeta:     assumptions.UnleveredBeta,
		RiskFreeRate:      assumptions.RiskFreeRate,
		MarketRiskPremium: assumptions.MarketRiskPremium,
		PreTaxCostOfDebt:  assumptions.PreTaxCostOfDebt,
		TaxRate:           assumptions.TaxRate,
		DebtToEquityRatio: rs.Leverage.DebtToEquity.Float(0),
	})
	if err != nil {
		return valuation.Params{}, err
	}

	p := valuation.Params{
		GrowthSchedule:    growthSchedule(currentGrowthPct/100, assumptions.TerminalGrowth, assumptions.horizonYears()),
		WACC:              wacc.WACC,
		CostOfEquity:      wacc.CostOfEquity,
		TerminalGrowth:    assumptions.TerminalGrowth,
		TaxRate:           assumptions.TaxRate,
		SharesOutstanding: shares,
		NetDebt:           moneydec.F(in.Current.NetDebt),
		InvestedCapital:   investedCapital,

		CurrentFCF:       moneydec.F(cf.CashFromOperations.Add(cf.Capex)),
		CurrentEarnings:  moneydec.F(is.NetIncome),
		CurrentBookValue: moneydec.F(bs.TotalEquity),
		CurrentRevenue:   moneydec.F(is.Revenue),
		CurrentOperCF:    moneydec.F(cf.CashFromOperations),
		NOPAT:            moneydec.F(is.OperatingIncome) * (1 - assumptions.TaxRate),

		EPS:              eps,
		BVPS:             bvps,
		DividendYieldPct: dividendYieldPct,
		CurrentGrowthPct: currentGrowthPct,
		PE:               rs.MarketValue.PE.Float(0),

		CurrentAssets:    moneydec.F(bs.TotalCurrentAssets),
		TotalLiabilities: moneydec.F(bs.TotalLiabilities),

		IndustryMedianPS:  in.IndustryMedians["PS"],
		IndustryMedianPCF: in.IndustryMedians["PCF"],

		DataCompleteness: completeness(is, bs, cf, eps),
	}
	return p, nil
}

// growthSchedule linearly tapers from startPct (the latest observed
// earnings/revenue growth rate) to terminalGrowth over years, the same
// fade-to-terminal shape §4.C's DCF/RIM multi-year projections assume.
func growthSchedule(startPct, terminalGrowth float64, years int) []float64 {
	if startPct > 0.40 {
		startPct = 0.40
	}
	if startPct < -0.40 {
		startPct = -0.40
	}
	schedule := make([]float64, years)
	if years == 1 {
		schedule[0] = startPct
		return schedule
	}
	step := (startPct - terminalGrowth) / float64(years-1)
	for i := 0; i < years; i++ {
		schedule[i] = startPct - step*float64(i)
	}
	schedule[years-1] = terminalGrowth
	return schedule
}

// completeness estimates valuation.Params.DataCompleteness as the fraction
// of the handful of inputs every model leans on (EPS, book value, revenue,
// operating cash flow, total assets) that came back non-zero, the closest proxy to §4.A's
// per-ratio undefined tracking available once the statement has already
// been flattened into Params' plain float64 fields.
func completeness(is *models.IncomeStatement, bs *models.BalanceSheet, cf *models.CashFlowStatement, eps float64) float64 {
	fields := []bool{
		eps != 0,
		!bs.TotalEquity.IsZero(),
		!is.Revenue.IsZero(),
		!cf.CashFromOperations.IsZero(),
		!bs.TotalAssets.IsZero(),
	}
	defined := 0
	for _, ok := range fields {
		if ok {
			defined++
		}
	}
	return float64(defined) / float64(len(fields))
}
