// Package models defines the entity types shared across the valuation and
// scoring engine. Money fields use decimal.Decimal end-to-end; ratios,
// weights, probabilities and other statistical outputs use float64.
package models

import "time"

// PeriodKind distinguishes annual and quarterly statement rows.
type PeriodKind string

const (
	PeriodAnnual    PeriodKind = "annual"
	PeriodQuarterly PeriodKind = "quarterly"
)

// Company is immutable after creation except for the cosmetic fields
// (Ticker display casing, Sector label).
type Company struct {
	ID                string
	Ticker            string
	Industry          string
	Sector            string
	SharesOutstanding float64 // millions, matches teacher's projection convention
	FiscalYearEnd     time.Time
}

// TenantScoped is embedded by every entity the core owns; statements and
// market data are external and do not carry this tag themselves.
type TenantScoped struct {
	TenantID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Scope identifies the granularity a WeightVector is trained at.
type Scope struct {
	Kind string // "global" | "industry" | "company"
	ID   string // industry name or company id; empty for global
}

func GlobalScope() Scope { return Scope{Kind: "global"} }

func IndustryScope(industry string) Scope { return Scope{Kind: "industry", ID: industry} }

func CompanyScope(companyID string) Scope { return Scope{Kind: "company", ID: companyID} }

func (s Scope) String() string {
	if s.ID == "" {
		return s.Kind
	}
	return s.Kind + ":" + s.ID
}
