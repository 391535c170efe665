package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementKey uniquely identifies a statement row: (company, period_end, period_kind).
type StatementKey struct {
	CompanyID  string
	PeriodEnd  time.Time
	PeriodKind PeriodKind
}

// IncomeStatement carries the canonical income-statement line items consumed
// by RatioKernel and the valuation models. Expense items are stored signed
// negative, mirroring the teacher's normalized-sign convention so downstream
// formulas can sum rather than branch on sign.
type IncomeStatement struct {
	StatementKey

	Revenue            decimal.Decimal
	CostOfGoodsSold    decimal.Decimal // negative
	GrossProfit        decimal.Decimal
	SGAExpense         decimal.Decimal // negative
	RDExpense          decimal.Decimal // negative
	OtherOperatingExp  decimal.Decimal // negative
	OperatingIncome    decimal.Decimal
	InterestIncome     decimal.Decimal
	InterestExpense    decimal.Decimal // negative
	OtherNonOperating  decimal.Decimal
	IncomeBeforeTax    decimal.Decimal
	IncomeTaxExpense   decimal.Decimal // negative
	NetIncome          decimal.Decimal
	DividendsPerShare  decimal.Decimal
	EPS                decimal.Decimal
}

// BalanceSheet carries the canonical balance-sheet line items.
type BalanceSheet struct {
	StatementKey

	Cash                    decimal.Decimal
	ShortTermInvestments    decimal.Decimal
	AccountsReceivable      decimal.Decimal
	Inventories             decimal.Decimal
	OtherCurrentAssets      decimal.Decimal
	TotalCurrentAssets      decimal.Decimal
	PPENet                  decimal.Decimal
	Goodwill                decimal.Decimal
	IntangibleAssets        decimal.Decimal
	OtherNonCurrentAssets   decimal.Decimal
	TotalAssets             decimal.Decimal
	AccountsPayable         decimal.Decimal
	ShortTermDebt           decimal.Decimal
	CurrentPortionLTDebt    decimal.Decimal
	OtherCurrentLiabilities decimal.Decimal
	TotalCurrentLiabilities decimal.Decimal
	LongTermDebt            decimal.Decimal
	OtherNonCurrentLiab     decimal.Decimal
	TotalLiabilities        decimal.Decimal
	RetainedEarnings        decimal.Decimal
	TotalEquity             decimal.Decimal
}

// CashFlowStatement carries the canonical cash-flow line items.
type CashFlowStatement struct {
	StatementKey

	NetIncome                decimal.Decimal
	DepreciationAmortization decimal.Decimal
	WorkingCapitalChanges    decimal.Decimal
	OtherOperating           decimal.Decimal
	CashFromOperations       decimal.Decimal
	Capex                    decimal.Decimal // negative
	Acquisitions             decimal.Decimal // negative
	OtherInvesting           decimal.Decimal
	CashFromInvesting        decimal.Decimal
	DebtProceeds             decimal.Decimal
	DebtRepayments           decimal.Decimal // negative
	DividendsPaid            decimal.Decimal // negative
	ShareRepurchases         decimal.Decimal // negative
	OtherFinancing           decimal.Decimal
	CashFromFinancing        decimal.Decimal
	NetChangeInCash          decimal.Decimal
}

// StatementSet bundles one period's three statements, which most operations
// consume together.
type StatementSet struct {
	Income    *IncomeStatement
	Balance   *BalanceSheet
	CashFlow  *CashFlowStatement
	NetDebt   decimal.Decimal
}

// MarketDataPoint is one OHLCV row, unique per (company, date).
type MarketDataPoint struct {
	CompanyID     string
	Date          time.Time
	Open          decimal.Decimal
	High          decimal.Decimal
	Low           decimal.Decimal
	Close         decimal.Decimal
	AdjustedClose decimal.Decimal
	Volume        int64
}

// IndustryMedian carries one external reference multiple, e.g. {industry: "Software", metric: "PS", value: 4.2}.
type IndustryMedian struct {
	Industry string
	Metric   string
	Value    float64
}

// MacroInputs carries the read-only rate inputs §6 lists.
type MacroInputs struct {
	Country           string
	AsOf              time.Time
	RiskFreeRate      float64
	EquityRiskPremium float64
	EffectiveTaxRate  float64
}
