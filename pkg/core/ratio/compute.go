package ratio

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"fundamentalengine/pkg/core/errs"
	"fundamentalengine/pkg/core/logging"
	"fundamentalengine/pkg/core/moneydec"
	"fundamentalengine/pkg/models"
)

var log = logging.For("ratio")

// Compute is RatioKernel's single operation: compute(as_of, statements,
// market) -> RatioSet. It is a pure function of in — identical inputs
// always reproduce identical output (Testable Property 4).
func Compute(in Input) (*models.RatioSet, error) {
	if in.Current.Income == nil || in.Current.Balance == nil || in.Current.CashFlow == nil {
		return nil, errs.New(errs.InsufficientData, "current period statements incomplete")
	}
	if in.StaleHorizon != 0 {
		if in.AsOf.Sub(in.Current.Income.PeriodEnd) > in.StaleHorizon {
			log.Warn().Str("company", in.CompanyID).Msg("latest statement older than stale horizon")
		}
	}

	rs := &models.RatioSet{CompanyID: in.CompanyID, AsOf: in.AsOf}

	violations := validateConsistency(in.Current)
	rs.ConsistencyViolations = violations
	for _, v := range violations {
		log.Warn().Str("company", in.CompanyID).Str("violation", v).Msg("accounting identity out of tolerance")
	}

	is, bs, cf := in.Current.Income, in.Current.Balance, in.Current.CashFlow
	prior := in.priorByYearsBack(1)

	rs.Liquidity = computeLiquidity(bs)
	rs.Profitability = computeProfitability(is, bs, cf, prior)
	rs.Leverage = computeLeverage(is, bs)
	rs.Efficiency = computeEfficiency(is, bs, prior)
	rs.MarketValue = computeMarketValue(is, bs, cf, in)
	rs.Growth = computeGrowth(in)
	rs.MarketValue.PEG = peg(rs.MarketValue.PE, rs.Growth.EarningsGrowth)
	rs.CashFlow = computeCashFlow(cf, is, in.SharesOutstanding)
	rs.Diagnostics = computeDiagnostics(in, prior)

	return rs, nil
}

func computeLiquidity(bs *models.BalanceSheet) models.LiquidityRatios {
	return models.LiquidityRatios{
		CurrentRatio: moneydec.SafeDivRatio(bs.TotalCurrentAssets, bs.TotalCurrentLiabilities),
		QuickRatio: moneydec.SafeDivRatio(
			bs.Cash.Add(bs.ShortTermInvestments).Add(bs.AccountsReceivable),
			bs.TotalCurrentLiabilities,
		),
		CashRatio: moneydec.SafeDivRatio(bs.Cash, bs.TotalCurrentLiabilities),
		WorkingCapital: moneydec.SafeDivRatio(
			bs.TotalCurrentAssets.Sub(bs.TotalCurrentLiabilities),
			bs.TotalAssets,
		),
	}
}

func avgOrCurrent(current, prior decimal.Decimal, havePrior bool) decimal.Decimal {
	if !havePrior {
		return current
	}
	return current.Add(prior).DivRound(decimal.NewFromInt(2), moneydec.StorageScale)
}

func computeProfitability(is *models.IncomeStatement, bs *models.BalanceSheet, cf *models.CashFlowStatement, prior *models.StatementSet) models.ProfitabilityRatios {
	havePrior := prior != nil && prior.Balance != nil
	var priorAssets, priorEquity decimal.Decimal
	if havePrior {
		priorAssets = prior.Balance.TotalAssets
		priorEquity = prior.Balance.TotalEquity
	}
	avgAssets := avgOrCurrent(bs.TotalAssets, priorAssets, havePrior)
	avgEquity := avgOrCurrent(bs.TotalEquity, priorEquity, havePrior)

	grossProfit := is.Revenue.Add(is.CostOfGoodsSold) // COGS stored negative
	ebitda := is.OperatingIncome.Add(cf.DepreciationAmortization)

	effectiveTaxRate := 0.0
	if !is.IncomeBeforeTax.IsZero() {
		effectiveTaxRate = moneydec.F(is.IncomeTaxExpense.Neg()) / moneydec.F(is.IncomeBeforeTax)
	}
	nopat := moneydec.F(is.OperatingIncome) * (1 - effectiveTaxRate)
	investedCapital := moneydec.F(bs.TotalEquity) + moneydec.F(bs.LongTermDebt) + moneydec.F(bs.ShortTermDebt) + moneydec.F(bs.CurrentPortionLTDebt) - moneydec.F(bs.Cash)

	return models.ProfitabilityRatios{
		GrossMargin:     moneydec.SafeDivRatio(grossProfit, is.Revenue),
		OperatingMargin: moneydec.SafeDivRatio(is.OperatingIncome, is.Revenue),
		NetMargin:       moneydec.SafeDivRatio(is.NetIncome, is.Revenue),
		ROA:             moneydec.SafeDivRatio(is.NetIncome, avgAssets),
		ROE:             moneydec.SafeDivRatio(is.NetIncome, avgEquity),
		ROIC:            moneydec.SafeDivFloat(nopat, investedCapital),
		EBITDAMargin:    moneydec.SafeDivRatio(ebitda, is.Revenue),
	}
}

func computeLeverage(is *models.IncomeStatement, bs *models.BalanceSheet) models.LeverageRatios {
	totalDebt := bs.ShortTermDebt.Add(bs.CurrentPortionLTDebt).Add(bs.LongTermDebt)
	return models.LeverageRatios{
		DebtToEquity:      moneydec.SafeDivRatio(totalDebt, bs.TotalEquity),
		DebtToAssets:      moneydec.SafeDivRatio(totalDebt, bs.TotalAssets),
		InterestCoverage:  moneydec.SafeDivRatio(is.OperatingIncome, is.InterestExpense.Abs()),
		LongTermDebtToCap: moneydec.SafeDivRatio(bs.LongTermDebt, bs.LongTermDebt.Add(bs.TotalEquity)),
		EquityMultiplier:  moneydec.SafeDivRatio(bs.TotalAssets, bs.TotalEquity),
	}
}

func computeEfficiency(is *models.IncomeStatement, bs *models.BalanceSheet, prior *models.StatementSet) models.EfficiencyRatios {
	havePrior := prior != nil && prior.Balance != nil
	var priorAssets, priorInv, priorAR decimal.Decimal
	if havePrior {
		priorAssets = prior.Balance.TotalAssets
		priorInv = prior.Balance.Inventories
		priorAR = prior.Balance.AccountsReceivable
	}
	avgAssets := avgOrCurrent(bs.TotalAssets, priorAssets, havePrior)
	avgInv := avgOrCurrent(bs.Inventories, priorInv, havePrior)
	avgAR := avgOrCurrent(bs.AccountsReceivable, priorAR, havePrior)

	assetTurnover := moneydec.SafeDivRatio(is.Revenue, avgAssets)
	invTurnover := moneydec.SafeDivRatio(is.CostOfGoodsSold.Abs(), avgInv)
	recvTurnover := moneydec.SafeDivRatio(is.Revenue, avgAR)

	eff := models.EfficiencyRatios{
		AssetTurnover:       assetTurnover,
		InventoryTurnover:   invTurnover,
		ReceivablesTurnover: recvTurnover,
	}
	if invTurnover.IsDefined() && *invTurnover.Value != 0 {
		eff.DaysInventory = models.M(365.0 / *invTurnover.Value)
	}
	if recvTurnover.IsDefined() && *recvTurnover.Value != 0 {
		eff.DaysSalesOutstanding = models.M(365.0 / *recvTurnover.Value)
	}
	return eff
}

func computeMarketValue(is *models.IncomeStatement, bs *models.BalanceSheet, cf *models.CashFlowStatement, in Input) models.MarketValueRatios {
	if in.LatestMarket == nil {
		return models.MarketValueRatios{}
	}
	price := in.LatestMarket.AdjustedClose
	mve := in.MarketValueEquity
	if mve.IsZero() && !in.SharesOutstanding.IsZero() {
		mve = price.Mul(in.SharesOutstanding)
	}
	totalDebt := bs.ShortTermDebt.Add(bs.CurrentPortionLTDebt).Add(bs.LongTermDebt)
	ebitda := is.OperatingIncome.Add(cf.DepreciationAmortization)
	enterpriseValue := mve.Add(totalDebt).Sub(bs.Cash)

	mv := models.MarketValueRatios{
		PE:         moneydec.SafeDivRatio(price, is.EPS),
		PB:         moneydec.SafeDivRatio(mve, bs.TotalEquity),
		PS:         moneydec.SafeDivRatio(mve, is.Revenue),
		PCF:        moneydec.SafeDivRatio(mve, cf.CashFromOperations),
		EVToEBITDA: moneydec.SafeDivRatio(enterpriseValue, ebitda),
		DividendYield: moneydec.SafeDivRatio(is.DividendsPerShare, price),
	}
	return mv
}

// peg divides PE by earnings-growth expressed in percentage points, per the
// relative-valuation convention (PEG = PE / (growth% )). Undefined whenever
// either input is undefined or growth is non-positive, since a PEG against
// shrinking or flat earnings is not meaningful.
func peg(pe, earningsGrowth models.Metric) models.Metric {
	if !pe.IsDefined() || !earningsGrowth.IsDefined() {
		return models.Undefined()
	}
	growthPct := *earningsGrowth.Value * 100
	if growthPct <= 0 {
		return models.Undefined()
	}
	return models.M(*pe.Value / growthPct)
}

func computeGrowth(in Input) models.GrowthRatios {
	prior := in.priorByYearsBack(1)
	threeBack := in.priorByYearsBack(3)

	g := models.GrowthRatios{}
	if prior != nil && prior.Income != nil {
		g.RevenueGrowth = moneydec.GrowthRate(in.Current.Income.Revenue, prior.Income.Revenue)
		g.EarningsGrowth = moneydec.GrowthRate(in.Current.Income.NetIncome, prior.Income.NetIncome)
	}
	if prior != nil && prior.Balance != nil {
		g.BookValueGrowth = moneydec.GrowthRate(in.Current.Balance.TotalEquity, prior.Balance.TotalEquity)
	}
	if threeBack != nil && threeBack.Income != nil {
		g.RevenueCAGR3Y = cagr(in.Current.Income.Revenue, threeBack.Income.Revenue, 3)
		g.EarningsCAGR3Y = cagr(in.Current.Income.NetIncome, threeBack.Income.NetIncome, 3)
	}
	return g
}

// cagr only computes when start and end share sign and are non-zero, per
// §4.B's "CAGR only computed when start and end of series share sign and
// are non-zero."
func cagr(end, start decimal.Decimal, years int) models.Metric {
	if start.IsZero() || end.IsZero() || years == 0 {
		return models.Undefined()
	}
	if start.Sign() != end.Sign() {
		return models.Undefined()
	}
	e, s := moneydec.F(end), moneydec.F(start)
	return models.M(math.Pow(e/s, 1.0/float64(years)) - 1)
}

func computeCashFlow(cf *models.CashFlowStatement, is *models.IncomeStatement, shares decimal.Decimal) models.CashFlowRatios {
	fcf := cf.CashFromOperations.Add(cf.Capex) // Capex is negative
	ratios := models.CashFlowRatios{
		OperatingCashFlowMargin: moneydec.SafeDivRatio(cf.CashFromOperations, is.Revenue),
		CashFlowToDebt:          moneydec.SafeDivRatio(cf.CashFromOperations, cf.DebtRepayments.Abs()),
		CapexToRevenue:          moneydec.SafeDivRatio(cf.Capex.Abs(), is.Revenue),
	}
	if !shares.IsZero() {
		ratios.FreeCashFlowPerShare = moneydec.SafeDivRatio(fcf, shares)
	}
	return ratios
}

// validateConsistency adapts the teacher's validateFinancials/checkTolerance
// pass into a pure function returning the labels of identities that fell
// outside a 1% tolerance, surfaced as invariant_violation candidates per §7.
func validateConsistency(cur models.StatementSet) []string {
	var violations []string
	bs, is := cur.Balance, cur.Income

	balanceCheck := bs.TotalAssets.Sub(bs.TotalLiabilities.Add(bs.TotalEquity))
	if !bs.TotalAssets.IsZero() {
		pct := moneydec.F(balanceCheck.Abs()) / moneydec.F(bs.TotalAssets.Abs()) * 100
		if pct > 1.0 {
			violations = append(violations, fmt.Sprintf("balance_sheet_equation: %.4f%% off", pct))
		}
	}

	computedGross := is.Revenue.Add(is.CostOfGoodsSold)
	reportedGross := is.GrossProfit
	if !reportedGross.IsZero() {
		diff := computedGross.Sub(reportedGross).Abs()
		pct := moneydec.F(diff) / moneydec.F(reportedGross.Abs()) * 100
		if pct > 1.0 {
			violations = append(violations, fmt.Sprintf("gross_profit: %.4f%% off", pct))
		}
	}
	return violations
}
