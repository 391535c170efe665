// Package valuation implements ValuationModels (§4.C): eight pure
// fair-value estimators sharing one result shape. Grounded in the
// teacher's pkg/core/valuation package (WACC/DCF/RIM discounting
// machinery), generalized from the teacher's projection.ProjectedFinancials
// input shape to the spec's plain growth-schedule/statement inputs.
package valuation

import "fundamentalengine/pkg/models"

// Params bundles the inputs every model contract draws from; not every
// model consumes every field (Graham only needs EPS/BVPS, for instance).
type Params struct {
	GrowthSchedule    []float64 // per-year FCF/earnings growth, length = horizon
	WACC              float64
	CostOfEquity      float64
	TerminalGrowth    float64
	TaxRate           float64
	SharesOutstanding float64
	NetDebt           float64
	InvestedCapital   float64

	CurrentFCF       float64
	CurrentEarnings  float64
	CurrentBookValue float64
	CurrentRevenue   float64
	CurrentOperCF    float64
	NOPAT            float64

	EPS              float64
	BVPS             float64
	DividendYieldPct float64
	CurrentGrowthPct float64
	PE               float64

	CurrentAssets    float64
	TotalLiabilities float64

	IndustryMedianPS  float64
	IndustryMedianPCF float64

	// DataCompleteness in [0,1] scales confidence_base per §4.C.
	DataCompleteness float64
}

// defaultConfidence is the per-model intrinsic-reliability scalar table
// from §4.C, in models.AllModels order.
var defaultConfidence = map[models.ModelID]float64{
	models.ModelDCF:    0.75,
	models.ModelRIM:    0.72,
	models.ModelEVA:    0.70,
	models.ModelGraham: 0.68,
	models.ModelLynch:  0.65,
	models.ModelNCAV:   0.60,
	models.ModelPS:      0.62,
	models.ModelPCF:     0.64,
}

func confidence(id models.ModelID, completeness float64) float64 {
	if completeness < 0 {
		completeness = 0
	}
	if completeness > 1 {
		completeness = 1
	}
	return defaultConfidence[id] * completeness
}

// nullResult builds the null-with-reason result §4.C's DCF/Graham
// failure contracts require.
func nullResult(id models.ModelID, reason string) models.ValuationResult {
	return models.ValuationResult{ModelID: id, Reason: reason}
}
