// Package ratio implements RatioKernel (§4.A): ~50 deterministic ratios
// grouped into liquidity, profitability, leverage, efficiency,
// market-value, growth and cash-flow, plus the supplemented diagnostics
// (DuPont, Penman, Beneish, Altman Z, common-size) grounded in the
// teacher's pkg/core/calc package.
package ratio

import (
	"time"

	"github.com/shopspring/decimal"

	"fundamentalengine/pkg/models"
)

// Input bundles everything RatioKernel needs for one (company, as_of)
// computation: the current period's three statements, the prior period
// (for growth and Beneish), the latest market data at or before as_of,
// shares outstanding and the market value of equity (needed for Altman Z,
// which is not derivable from the 10-K alone).
type Input struct {
	CompanyID         string
	AsOf              time.Time
	Current           models.StatementSet
	// History holds prior periods, oldest first, mirroring the teacher's
	// AnalyzeFinancials(current, history []*FSAPDataResponse) shape. The
	// kernel looks up "one year back" and "three years back" by period_end
	// rather than assuming History[len-1] is exactly one year prior.
	History           []models.StatementSet
	LatestMarket      *models.MarketDataPoint
	SharesOutstanding decimal.Decimal
	MarketValueEquity decimal.Decimal // shares * price, precomputed by caller
	IndustryMedians   map[string]float64 // keyed by metric name: "PE","PB","PS","PCF","EV_EBITDA"
	StaleHorizon      time.Duration // §7 stale_inputs threshold
}

// priorByYearsBack returns the statement set whose period_end falls
// `years` years before the current period, or nil if no such period is in
// History.
func (in Input) priorByYearsBack(years int) *models.StatementSet {
	target := in.Current.Income.PeriodEnd.AddDate(-years, 0, 0).Year()
	for i := range in.History {
		if in.History[i].Income != nil && in.History[i].Income.PeriodEnd.Year() == target {
			return &in.History[i]
		}
	}
	return nil
}
