package models

import "time"

// Prediction is the append-only record written on every ensemble
// valuation (§4.K). After issued_at + horizon_days, exactly one Outcome
// is written.
type Prediction struct {
	ID             string
	CompanyID      string
	TenantID       string
	IssuedAt       time.Time
	HorizonDays    int
	FairValue      float64
	Confidence     float64
	WeightsDigest  string
	OwnerScope     Scope
}

// Outcome is written once a Prediction's horizon has elapsed.
type Outcome struct {
	PredictionID       string
	ActualPrice        float64
	AbsPctError        float64
	ModelContributions map[ModelID]float64
	ReconciledAt       time.Time
}

// PredictionOutcomePair is returned by PredictionStore.Window, consumed by
// WeightTrainer and IndustryTrainer.
type PredictionOutcomePair struct {
	Prediction Prediction
	Outcome    Outcome
}

// Recommendation enumerates the ensemble's trade signal per §4.F step 8.
type Recommendation string

const (
	RecStrongBuy  Recommendation = "Strong Buy"
	RecBuy        Recommendation = "Buy"
	RecHold       Recommendation = "Hold"
	RecSell       Recommendation = "Sell"
	RecStrongSell Recommendation = "Strong Sell"
)

// Status enumerates the §7 user-visible result status.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusFailed   Status = "failed"
)

// EnsembleResult is the §6 output payload.
type EnsembleResult struct {
	AsOf             time.Time
	FinalFairValue   float64
	Confidence       float64
	ValueRangeLow    float64
	ValueRangeHigh   float64
	ModelWeights     map[ModelID]float64
	ScenarioWeights  map[Scenario]float64
	PerModelValues   []ValuationResult // 24 entries
	Recommendation   Recommendation
	Status           Status
	DegradedMetrics  []string
	PredictionID     string
}

// Dimension enumerates the five scored fundamental dimensions.
type Dimension string

const (
	DimValuation     Dimension = "valuation"
	DimProfitability Dimension = "profitability"
	DimGrowth        Dimension = "growth"
	DimHealth        Dimension = "health"
	DimRisk          Dimension = "risk"
)

var AllDimensions = []Dimension{DimValuation, DimProfitability, DimGrowth, DimHealth, DimRisk}

// DimensionScore is a per-(company, dimension, as_of) record.
type DimensionScore struct {
	CompanyID    string
	Dimension    Dimension
	AsOf         time.Time
	Value        float64 // clamped to [0,100]
	SubMetrics   map[string]float64
}

// Rating enumerates the letter bands §4.J assigns.
type Rating string

const (
	RatingAPlus Rating = "A+"
	RatingA     Rating = "A"
	RatingBPlus Rating = "B+"
	RatingB     Rating = "B"
	RatingCPlus Rating = "C+"
	RatingC     Rating = "C"
	RatingD     Rating = "D"
	RatingF     Rating = "F"
)

// ScoreSource enumerates whether dimension weights came from defaults or
// the ML optimiser.
type ScoreSource string

const (
	ScoreSourceDefault ScoreSource = "default"
	ScoreSourceML      ScoreSource = "ml"
)

// CompositeScore is the §3 composite fundamental score record.
type CompositeScore struct {
	CompanyID        string
	AsOf             time.Time
	Composite        float64
	Rating           Rating
	DimensionWeights map[Dimension]float64
	DimensionScores  map[Dimension]DimensionScore
	Source           ScoreSource
	MLConfidence     float64
}

// DefaultDimensionWeights is §4.J's default weight table.
var DefaultDimensionWeights = map[Dimension]float64{
	DimValuation:     0.25,
	DimProfitability: 0.20,
	DimGrowth:        0.20,
	DimHealth:        0.20,
	DimRisk:          0.15,
}

// RatingForComposite maps a composite score to its letter band (§4.J),
// a non-decreasing step function of composite (Testable Property 9).
func RatingForComposite(composite float64) Rating {
	switch {
	case composite >= 90:
		return RatingAPlus
	case composite >= 80:
		return RatingA
	case composite >= 70:
		return RatingBPlus
	case composite >= 60:
		return RatingB
	case composite >= 50:
		return RatingCPlus
	case composite >= 40:
		return RatingC
	case composite >= 30:
		return RatingD
	default:
		return RatingF
	}
}

// RankingRow is one row of a ranking page.
type RankingRow struct {
	CompanyID string
	Ticker    string
	Composite float64
	Rating    Rating
}
