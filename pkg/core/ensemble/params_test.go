package ensemble

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fundamentalengine/pkg/core/ratio"
	"fundamentalengine/pkg/models"
)

func testStatementInput() ratio.Input {
	periodEnd := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	income := &models.IncomeStatement{
		StatementKey:     models.StatementKey{CompanyID: "C1", PeriodEnd: periodEnd, PeriodKind: "annual"},
		Revenue:          decimal.NewFromInt(100_000_000_000),
		CostOfGoodsSold:  decimal.NewFromInt(-40_000_000_000),
		OperatingIncome:  decimal.NewFromInt(25_000_000_000),
		IncomeBeforeTax:  decimal.NewFromInt(24_000_000_000),
		IncomeTaxExpense: decimal.NewFromInt(-5_000_000_000),
		NetIncome:        decimal.NewFromInt(19_000_000_000),
		EPS:              decimal.NewFromFloat(6.5),
	}
	balance := &models.BalanceSheet{
		StatementKey:            models.StatementKey{CompanyID: "C1", PeriodEnd: periodEnd, PeriodKind: "annual"},
		Cash:                    decimal.NewFromInt(20_000_000_000),
		TotalCurrentAssets:      decimal.NewFromInt(60_000_000_000),
		TotalAssets:             decimal.NewFromInt(150_000_000_000),
		TotalCurrentLiabilities: decimal.NewFromInt(30_000_000_000),
		TotalLiabilities:        decimal.NewFromInt(70_000_000_000),
		LongTermDebt:            decimal.NewFromInt(30_000_000_000),
		TotalEquity:             decimal.NewFromInt(80_000_000_000),
	}
	cashflow := &models.CashFlowStatement{
		StatementKey:        models.StatementKey{CompanyID: "C1", PeriodEnd: periodEnd, PeriodKind: "annual"},
		CashFromOperations:  decimal.NewFromInt(22_000_000_000),
		Capex:               decimal.NewFromInt(-4_000_000_000),
		NetIncome:           decimal.NewFromInt(19_000_000_000),
	}

	return ratio.Input{
		CompanyID:         "C1",
		AsOf:              periodEnd,
		Current:           models.StatementSet{Income: income, Balance: balance, CashFlow: cashflow},
		SharesOutstanding: decimal.NewFromInt(1_000_000_000),
		MarketValueEquity: decimal.NewFromInt(300_000_000_000),
		LatestMarket:      &models.MarketDataPoint{CompanyID: "C1", Date: periodEnd, Close: decimal.NewFromFloat(120)},
		IndustryMedians:   map[string]float64{"PS": 3, "PCF": 12},
	}
}

func TestValueFromStatementsRunsRatioKernelThenEnsemble(t *testing.T) {
	in := testStatementInput()
	e := newTestEngine()
	company := models.Company{ID: "C1", Industry: "tech"}
	assumptions := Assumptions{
		UnleveredBeta:     1.0,
		RiskFreeRate:      0.04,
		MarketRiskPremium: 0.05,
		PreTaxCostOfDebt:  0.06,
		TerminalGrowth:    0.025,
		TaxRate:           0.21,
	}

	res, err := e.ValueFromStatements("T1", company, in, assumptions, Options{CurrentPrice: 120})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FinalFairValue <= 0 {
		t.Errorf("expected a positive fair value derived from statements, got %f", res.FinalFairValue)
	}
	if res.ValueRangeLow > res.FinalFairValue || res.FinalFairValue > res.ValueRangeHigh {
		t.Errorf("expected value_range_low <= final_fair_value <= value_range_high")
	}
}

func TestGrowthScheduleTapersFromStartToTerminal(t *testing.T) {
	schedule := growthSchedule(0.10, 0.02, 5)
	if len(schedule) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(schedule))
	}
	if schedule[0] != 0.10 {
		t.Errorf("expected first year at the start rate, got %f", schedule[0])
	}
	if schedule[len(schedule)-1] != 0.02 {
		t.Errorf("expected last year at the terminal rate, got %f", schedule[len(schedule)-1])
	}
	for i := 1; i < len(schedule); i++ {
		if schedule[i] > schedule[i-1] {
			t.Errorf("expected a monotonically non-increasing taper, got %v", schedule)
		}
	}
}
