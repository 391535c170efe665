package ratio

import (
	"fundamentalengine/pkg/core/moneydec"
	"fundamentalengine/pkg/models"
)

// computeDiagnostics adapts the teacher's Penman/DuPont/Beneish/Altman
// decompositions (pkg/core/calc/analysis.go, beneish.go in the teacher
// repo) to decimal-backed statements, folding in the common-size pass
// from AnalyzeFinancials.
func computeDiagnostics(in Input, prior *models.StatementSet) models.Diagnostics {
	is, bs := in.Current.Income, in.Current.Balance

	d := models.Diagnostics{
		CommonSize: commonSize(in.Current),
	}

	havePrior := prior != nil && prior.Balance != nil
	var avgAssets, avgEquity = moneydec.F(bs.TotalAssets), moneydec.F(bs.TotalEquity)
	if havePrior {
		avgAssets = (moneydec.F(bs.TotalAssets) + moneydec.F(prior.Balance.TotalAssets)) / 2
		avgEquity = (moneydec.F(bs.TotalEquity) + moneydec.F(prior.Balance.TotalEquity)) / 2
	}

	dupont := dupontROE(moneydec.F(is.NetIncome), moneydec.F(is.Revenue), avgAssets, avgEquity)
	d.DuPont = &dupont

	totalDebt := moneydec.F(bs.ShortTermDebt.Add(bs.CurrentPortionLTDebt).Add(bs.LongTermDebt))
	cash := moneydec.F(bs.Cash.Add(bs.ShortTermInvestments))
	noa := netOperatingAssets(moneydec.F(bs.TotalAssets), cash, moneydec.F(bs.TotalLiabilities), totalDebt)
	nfo := netFinancialObligations(totalDebt, cash)
	effectiveTaxRate := 0.0
	if !is.IncomeBeforeTax.IsZero() {
		effectiveTaxRate = moneydec.F(is.IncomeTaxExpense.Neg()) / moneydec.F(is.IncomeBeforeTax)
	}
	nopat := moneydec.F(is.OperatingIncome) * (1 - effectiveTaxRate)
	netInterestAT := moneydec.F(is.InterestExpense.Abs()) * (1 - effectiveTaxRate)
	penman := penmanDecomposition(nopat, netInterestAT, noa, nfo, avgEquity)
	d.Penman = &penman

	if havePrior && prior.Income != nil {
		beneish := beneishMScore(in.Current, *prior)
		d.Beneish = &beneish
	}

	if !in.MarketValueEquity.IsZero() {
		z := altmanZScore(
			moneydec.F(bs.TotalCurrentAssets.Sub(bs.TotalCurrentLiabilities)),
			moneydec.F(bs.RetainedEarnings),
			moneydec.F(is.OperatingIncome),
			moneydec.F(in.MarketValueEquity),
			moneydec.F(is.Revenue),
			moneydec.F(bs.TotalAssets),
			moneydec.F(bs.TotalLiabilities),
		)
		d.AltmanZ = &z
	}

	return d
}

// commonSize is a vertical analysis: income-statement lines as % of
// revenue, balance-sheet lines as % of total assets, adapted from the
// teacher's AnalyzeFinancials.
func commonSize(cur models.StatementSet) map[string]float64 {
	out := make(map[string]float64)
	is, bs := cur.Income, cur.Balance
	revenue := moneydec.F(is.Revenue)
	totalAssets := moneydec.F(bs.TotalAssets)

	addIS := func(key string, v float64) {
		if revenue != 0 {
			out[key] = v / revenue
		}
	}
	addBS := func(key string, v float64) {
		if totalAssets != 0 {
			out[key] = v / totalAssets
		}
	}

	addIS("cost_of_goods_sold", moneydec.F(is.CostOfGoodsSold))
	addIS("gross_profit", moneydec.F(is.Revenue.Add(is.CostOfGoodsSold)))
	addIS("sga_expenses", moneydec.F(is.SGAExpense))
	addIS("rd_expenses", moneydec.F(is.RDExpense))
	addIS("operating_income", moneydec.F(is.OperatingIncome))
	addIS("net_income", moneydec.F(is.NetIncome))

	addBS("cash_and_equivalents", moneydec.F(bs.Cash))
	addBS("accounts_receivable", moneydec.F(bs.AccountsReceivable))
	addBS("inventory", moneydec.F(bs.Inventories))
	addBS("ppe_net", moneydec.F(bs.PPENet))
	addBS("goodwill", moneydec.F(bs.Goodwill))
	addBS("accounts_payable", moneydec.F(bs.AccountsPayable))
	addBS("long_term_debt", moneydec.F(bs.LongTermDebt))
	addBS("total_equity", moneydec.F(bs.TotalEquity))

	return out
}

func dupontROE(netIncome, revenue, avgAssets, avgEquity float64) models.DuPontResult {
	pm := safeDiv(netIncome, revenue)
	at := safeDiv(revenue, avgAssets)
	fl := safeDiv(avgAssets, avgEquity)
	return models.DuPontResult{
		ProfitMargin:      pm,
		AssetTurnover:     at,
		FinancialLeverage: fl,
		ROE:               pm * at * fl,
	}
}

// netOperatingAssets: Operating Assets - Operating Liabilities, adapted
// from the teacher's Penman-framework NOA/NFO decomposition.
func netOperatingAssets(totalAssets, cash, totalLiabs, totalDebt float64) float64 {
	operatingAssets := totalAssets - cash
	operatingLiabs := totalLiabs - totalDebt
	return operatingAssets - operatingLiabs
}

func netFinancialObligations(totalDebt, cash float64) float64 {
	return totalDebt - cash
}

func penmanDecomposition(nopat, netInterestAT, avgNOA, avgNFO, avgEquity float64) models.PenmanResult {
	rnoa := safeDiv(nopat, avgNOA)
	nbc := safeDiv(netInterestAT, avgNFO)
	flev := safeDiv(avgNFO, avgEquity)
	spread := rnoa - nbc
	return models.PenmanResult{
		RNOA:   rnoa,
		NBC:    nbc,
		FLEV:   flev,
		Spread: spread,
		ROCE:   rnoa + flev*spread,
	}
}

// altmanZScore computes the manufacturing-model Z-score. mve (market
// value of equity) must be supplied by the caller since it is not present
// in the statements themselves.
func altmanZScore(wc, re, ebit, mve, sales, ta, tl float64) float64 {
	if ta == 0 || tl == 0 {
		return 0
	}
	a := wc / ta
	b := re / ta
	c := ebit / ta
	dd := mve / tl
	e := sales / ta
	return 1.2*a + 1.4*b + 3.3*c + 0.6*dd + 1.0*e
}

// beneishMScore computes the 8-variable earnings-manipulation score,
// adapted from the teacher's CalculateBeneishMScore.
func beneishMScore(current, prior models.StatementSet) models.BeneishResult {
	recCurr := moneydec.F(current.Balance.AccountsReceivable)
	recPrior := moneydec.F(prior.Balance.AccountsReceivable)
	salesCurr := moneydec.F(current.Income.Revenue)
	salesPrior := moneydec.F(prior.Income.Revenue)

	dsri := safeDiv(safeDiv(recCurr, salesCurr), safeDiv(recPrior, salesPrior))

	gpCurr := salesCurr + moneydec.F(current.Income.CostOfGoodsSold)
	gpPrior := salesPrior + moneydec.F(prior.Income.CostOfGoodsSold)
	gmCurr := safeDiv(gpCurr, salesCurr)
	gmPrior := safeDiv(gpPrior, salesPrior)
	gmi := safeDiv(gmPrior, gmCurr)

	softAssetsRatio := func(s models.StatementSet) float64 {
		ta := moneydec.F(s.Balance.TotalAssets)
		ca := moneydec.F(s.Balance.TotalCurrentAssets)
		ppe := moneydec.F(s.Balance.PPENet)
		if ta == 0 {
			return 0
		}
		return 1.0 - (ca+ppe)/ta
	}
	aqi := safeDiv(softAssetsRatio(current), softAssetsRatio(prior))

	sgi := safeDiv(salesCurr, salesPrior)

	depRate := func(s models.StatementSet, dep float64) float64 {
		ppeNet := moneydec.F(s.Balance.PPENet)
		return safeDiv(dep, ppeNet+dep)
	}
	depCurr := moneydec.F(current.CashFlow.DepreciationAmortization)
	depPrior := moneydec.F(prior.CashFlow.DepreciationAmortization)
	depi := safeDiv(depRate(prior, depPrior), depRate(current, depCurr))

	sgaRatio := func(s models.StatementSet) float64 {
		return safeDiv(moneydec.F(s.Income.SGAExpense), moneydec.F(s.Income.Revenue))
	}
	sgai := safeDiv(sgaRatio(current), sgaRatio(prior))

	levRatio := func(s models.StatementSet) float64 {
		return safeDiv(moneydec.F(s.Balance.TotalLiabilities), moneydec.F(s.Balance.TotalAssets))
	}
	lvgi := safeDiv(levRatio(current), levRatio(prior))

	income := moneydec.F(current.Income.NetIncome)
	cfo := moneydec.F(current.CashFlow.CashFromOperations)
	taCurr := moneydec.F(current.Balance.TotalAssets)
	tata := safeDiv(income-cfo, taCurr)

	score := -4.84 + 0.92*dsri + 0.528*gmi + 0.404*aqi + 0.892*sgi + 0.115*depi - 0.172*sgai + 4.679*tata - 0.327*lvgi

	return models.BeneishResult{
		DSRI: dsri, GMI: gmi, AQI: aqi, SGI: sgi,
		DEPI: depi, SGAI: sgai, LVGI: lvgi, TATA: tata,
		Score:                  score,
		HighRiskOfManipulation: score > -1.78,
	}
}

func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
