package models

import "time"

// WeightSource enumerates how a WeightVector was produced.
type WeightSource string

const (
	SourceDefault     WeightSource = "default"
	SourceTrained     WeightSource = "trained"
	SourceTransferred WeightSource = "transferred"
	SourceMeta        WeightSource = "meta"
	SourceSmoothed    WeightSource = "smoothed"
)

// DeployState enumerates the lifecycle stage of a WeightVector.
type DeployState string

const (
	DeployCandidate DeployState = "candidate"
	DeployShadow    DeployState = "shadow"
	DeployActive    DeployState = "active"
	DeployRetired   DeployState = "retired"
)

// TrainMetrics is the audit payload attached to every trained WeightVector.
type TrainMetrics struct {
	TrainMAPE    float64
	BacktestMAPE float64
	CVStd        float64
	SampleCount  int
}

// WeightVector is append-only: transitions are new rows with
// effective-date bounds, never in-place mutation. At most one active
// vector exists per owner at any instant (§3 invariant iii).
type WeightVector struct {
	ID             string
	OwnerScope     Scope
	EffectiveFrom  time.Time
	EffectiveTo    *time.Time
	ModelWeights   [8]float64 // indexed by position in models.AllModels, sums to 1 +/- 1e-6
	Source         WeightSource
	Metrics        TrainMetrics
	Deployed       DeployState
	RejectedReason string // set for rejected candidates (S5)
}

// WeightFor returns the weight assigned to a model by position in AllModels.
func (w *WeightVector) WeightFor(id ModelID) float64 {
	for i, m := range AllModels {
		if m == id {
			return w.ModelWeights[i]
		}
	}
	return 0
}

// Sum returns the sum of all eight weights, used to validate the simplex
// invariant (Testable Property 2).
func (w *WeightVector) Sum() float64 {
	var s float64
	for _, v := range w.ModelWeights {
		s += v
	}
	return s
}

// DefaultWeightTable is the glossary's default weight table, used whenever
// no trained vector applies.
var DefaultWeightTable = [8]float64{
	0.20, // DCF
	0.15, // RIM
	0.15, // EVA
	0.12, // Graham
	0.10, // Lynch
	0.08, // NCAV
	0.10, // P/S
	0.10, // P/CF
}

// NewDefaultWeightVector builds the unowned default vector used when no
// trained vector precedence level applies.
func NewDefaultWeightVector() *WeightVector {
	return &WeightVector{
		ModelWeights: DefaultWeightTable,
		Source:       SourceDefault,
		Deployed:     DeployActive,
	}
}

// IndustryProfile is the per-industry training/transfer metadata of §3.
type IndustryProfile struct {
	Industry             string
	SampleCount          int
	CentroidFeatureVector []float64
	BestModels           []ModelID
	LastTrained          time.Time

	// CompanyCount, AvgAccuracy, VolatilityScore and AvgModelWeights feed
	// the global meta-learner's industry-descriptor input (§4.H); distinct
	// from CentroidFeatureVector, which drives similarity-transfer cosine
	// matching instead.
	CompanyCount     int
	AvgAccuracy      float64
	VolatilityScore  float64
	AvgModelWeights  [8]float64
}
