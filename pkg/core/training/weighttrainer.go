// Package training implements WeightTrainer and IndustryTrainer (§4.G,
// §4.H): the scheduled jobs that fit a new per-scope WeightVector from
// recent Prediction/Outcome pairs, gate it against the currently active
// vector, and persist a winner. Grounded on the teacher's pkg/core/agent
// package for the "collect evidence, score candidates, persist a decision"
// shape (the teacher scores LLM-proposed assumptions the same way this
// trainer scores gradient-descent candidates), and on gonum/stat for the
// statistics (mean, std, the paired t-test) the same way pkg/core/trend
// already does.
package training

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"fundamentalengine/pkg/core/lock"
	"fundamentalengine/pkg/core/logging"
	"fundamentalengine/pkg/core/registry"
	"fundamentalengine/pkg/models"
)

var log = logging.For("training")

const (
	// MinSamplesGlobal and MinSamplesIndustry are §4.G step 1's per-scope
	// sample-size floors.
	MinSamplesGlobal   = 100
	MinSamplesIndustry = 30

	windowDays = 180

	cvFolds      = 5
	cvStdGateFraction = 0.2

	holdoutFraction = 0.20

	abGateAlpha = 0.05

	// mapeNoiseFloor is the smallest holdout MAPE gain counted as an
	// improvement; smaller gaps are floating-point rounding in the blend.
	mapeNoiseFloor = 1e-9

	smoothingAlpha = 0.3

	learningRate  = 0.05
	gradientSteps = 500
)

// Sample is one (feature vector, per-model error, actual price) training
// row extracted from a Prediction/Outcome pair (§4.G step 2).
type Sample struct {
	Features        []float64
	PerModelValues  [8]float64 // blended fair value each model proposed
	ActualPrice     float64
}

// Result is the audit payload a training run produces, whether or not the
// candidate was deployed.
type Result struct {
	Candidate      models.WeightVector
	Deployed       bool
	RejectedReason string
}

// Trainer runs WeightTrainer for a single scope against an injected
// registry and lock, so tests can use isolated instances instead of the
// process singletons.
type Trainer struct {
	Registry *registry.Registry
	Locks    *lock.Registry
	// Seed fixes the fold assignment and gradient-descent initialization so
	// repeated runs on the same input are idempotent (§4.G's determinism
	// requirement), without reaching for a package-level RNG singleton.
	Seed int64
}

// NewTrainer builds a Trainer against the process-wide registry and lock
// singletons.
func NewTrainer(seed int64) *Trainer {
	return &Trainer{Registry: registry.Default, Locks: lock.Default, Seed: seed}
}

// Train implements §4.G's eight steps for one (scope) at the given
// as-of time, given the already-extracted sample set (step 1's windowing
// and step 2's extraction are the caller's responsibility — see
// SamplesFromPairs — so this function stays a pure, testable candidate
// fit plus gate).
func (t *Trainer) Train(scope models.Scope, samples []Sample, now time.Time) Result {
	minSamples := MinSamplesGlobal
	if scope.Kind == "industry" {
		minSamples = MinSamplesIndustry
	}
	if len(samples) < minSamples {
		return Result{RejectedReason: "insufficient_samples"}
	}

	release := t.Locks.Acquire(scope.String())
	defer release()

	train, holdout := splitHoldout(samples)

	candidateWeights, cvMean, cvStd := fitWithCV(train, t.Seed)
	if cvMean > 0 && cvStd > cvStdGateFraction*cvMean {
		return Result{
			Candidate:      models.WeightVector{OwnerScope: scope, ModelWeights: candidateWeights, Source: models.SourceTrained, Deployed: models.DeployCandidate},
			RejectedReason: "cv_std_above_threshold",
		}
	}

	active := t.Registry.ActiveWeight(scope)
	activeWeights := models.DefaultWeightTable
	if active != nil {
		activeWeights = active.ModelWeights
	}

	candidateErrors := perSampleErrors(holdout, candidateWeights)
	activeErrors := perSampleErrors(holdout, activeWeights)

	candidateMAPE := mean(candidateErrors)
	activeMAPE := mean(activeErrors)

	improved, _ := pairedTTestImproved(activeErrors, candidateErrors)

	candidate := models.WeightVector{
		OwnerScope: scope,
		ModelWeights: candidateWeights,
		Source:     models.SourceTrained,
		Metrics: models.TrainMetrics{
			TrainMAPE:    mean(perSampleErrors(train, candidateWeights)),
			BacktestMAPE: candidateMAPE,
			CVStd:        cvStd,
			SampleCount:  len(samples),
		},
		Deployed: models.DeployCandidate,
	}

	if !improved || activeMAPE-candidateMAPE <= mapeNoiseFloor {
		candidate.RejectedReason = "insufficient improvement"
		return Result{Candidate: candidate, RejectedReason: "insufficient improvement"}
	}

	smoothed := smooth(candidateWeights, activeWeights, smoothingAlpha)
	deployed := models.WeightVector{
		ID:            scope.String() + "@" + now.UTC().Format(time.RFC3339),
		OwnerScope:    scope,
		EffectiveFrom: now,
		ModelWeights:  smoothed,
		Source:        models.SourceSmoothed,
		Metrics:       candidate.Metrics,
		Deployed:      models.DeployActive,
	}
	deployed.Metrics.TrainMAPE = candidate.Metrics.TrainMAPE

	if active != nil {
		retiredAt := now
		active.EffectiveTo = &retiredAt
		active.Deployed = models.DeployRetired
		t.Registry.SetActiveWeight(active)
	}
	t.Registry.SetActiveWeight(&deployed)

	log.Info().Str("scope", scope.String()).Float64("candidate_mape", candidateMAPE).Float64("active_mape", activeMAPE).Msg("weight vector deployed")

	return Result{Candidate: deployed, Deployed: true}
}

// SamplesFromPairs implements §4.G step 1+2: window to the last 180 days,
// require the per-scope minimum, and extract (feature, per-model value,
// actual price) rows.
func SamplesFromPairs(pairs []models.PredictionOutcomePair, asOf time.Time, featuresFor func(models.Prediction) ([]float64, [8]float64)) []Sample {
	cutoff := asOf.AddDate(0, 0, -windowDays)
	samples := make([]Sample, 0, len(pairs))
	for _, pair := range pairs {
		if pair.Prediction.IssuedAt.Before(cutoff) {
			continue
		}
		features, perModel := featuresFor(pair.Prediction)
		samples = append(samples, Sample{
			Features:       features,
			PerModelValues: perModel,
			ActualPrice:    pair.Outcome.ActualPrice,
		})
	}
	return samples
}

// fitWithCV implements §4.G step 3: gradient-descent fit on the full
// training set, cv_std measured across cvFolds folds built from a fold
// assignment derived deterministically from seed (no time-based shuffling,
// so the trainer is idempotent on repeated runs per §4.G's determinism
// clause).
func fitWithCV(samples []Sample, seed int64) (weights [8]float64, cvMean, cvStd float64) {
	weights = gradientDescent(samples, initialWeights())

	folds := assignFolds(len(samples), cvFolds, seed)
	foldMAPEs := make([]float64, 0, cvFolds)
	for f := 0; f < cvFolds; f++ {
		var foldSamples []Sample
		for i, fold := range folds {
			if fold == f {
				foldSamples = append(foldSamples, samples[i])
			}
		}
		if len(foldSamples) == 0 {
			continue
		}
		foldWeights := gradientDescent(foldSamples, initialWeights())
		foldMAPEs = append(foldMAPEs, mean(perSampleErrors(foldSamples, foldWeights)))
	}
	cvMean = mean(foldMAPEs)
	cvStd = stat.StdDev(foldMAPEs, nil)
	return weights, cvMean, cvStd
}

// gradientDescent minimises MAPE of Σ w_m·v_m versus actual_price by
// projected gradient descent onto the probability simplex, reusing
// net.NewZeroParams' shape convention (8 model weights in models.AllModels
// order) without depending on the net package's Forward pass — the
// trainer fits a linear blend, not the neural feature-to-weight function
// EnsembleNet itself learns.
func gradientDescent(samples []Sample, start [8]float64) [8]float64 {
	w := start
	n := float64(len(samples))
	if n == 0 {
		return w
	}
	for step := 0; step < gradientSteps; step++ {
		var grad [8]float64
		for _, s := range samples {
			predicted := dot(w, s.PerModelValues)
			if s.ActualPrice == 0 {
				continue
			}
			sign := 1.0
			if predicted < s.ActualPrice {
				sign = -1.0
			}
			for i := range grad {
				grad[i] += sign * s.PerModelValues[i] / (s.ActualPrice * n)
			}
		}
		for i := range w {
			w[i] -= learningRate * grad[i]
		}
		w = projectSimplex(w)
	}
	return w
}

func initialWeights() [8]float64 { return models.DefaultWeightTable }

func dot(w, v [8]float64) float64 {
	var s float64
	for i := range w {
		s += w[i] * v[i]
	}
	return s
}

// projectSimplex clips negative weights to zero and renormalises to sum
// 1, keeping every gradient step inside the simplex Testable Property 2
// requires of any stored WeightVector.
func projectSimplex(w [8]float64) [8]float64 {
	var sum float64
	for i := range w {
		if w[i] < 0 {
			w[i] = 0
		}
		sum += w[i]
	}
	if sum == 0 {
		return models.DefaultWeightTable
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

func perSampleErrors(samples []Sample, weights [8]float64) []float64 {
	errors := make([]float64, len(samples))
	for i, s := range samples {
		predicted := dot(weights, s.PerModelValues)
		if s.ActualPrice == 0 {
			errors[i] = 0
			continue
		}
		errors[i] = math.Abs(predicted-s.ActualPrice) / math.Abs(s.ActualPrice)
	}
	return errors
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// splitHoldout implements §4.G step 4: the last holdoutFraction of the
// window (by issue order) is held out for backtesting rather than a
// random split, so the trainer backtests on genuinely unseen, chronologically
// later predictions.
func splitHoldout(samples []Sample) (train, holdout []Sample) {
	n := len(samples)
	cut := n - int(float64(n)*holdoutFraction)
	if cut <= 0 {
		cut = n
	}
	return samples[:cut], samples[cut:]
}

// assignFolds deterministically assigns each sample index to one of k
// folds via seeded round-robin, avoiding a global RNG so that two runs on
// identical input produce identical folds.
func assignFolds(n, k int, seed int64) []int {
	folds := make([]int, n)
	offset := int(seed % int64(k))
	if offset < 0 {
		offset += k
	}
	for i := range folds {
		folds[i] = (i + offset) % k
	}
	return folds
}

// pairedTTestImproved implements §4.G step 5: a paired t-test of
// per-sample errors, significant at p<0.05, one-sided (candidate < active).
func pairedTTestImproved(activeErrors, candidateErrors []float64) (improved bool, pValue float64) {
	n := len(activeErrors)
	if n == 0 || n != len(candidateErrors) {
		return false, 1.0
	}
	diffs := make([]float64, n)
	for i := range diffs {
		diffs[i] = activeErrors[i] - candidateErrors[i] // positive when candidate is better
	}
	meanDiff := stat.Mean(diffs, nil)
	if meanDiff <= 0 {
		return false, 1.0
	}
	sd := stat.StdDev(diffs, nil)
	if sd == 0 {
		return meanDiff > 0, 0
	}
	tStat := meanDiff / (sd / math.Sqrt(float64(n)))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	pValue = 1 - dist.CDF(tStat)
	return pValue < abGateAlpha, pValue
}

// smooth implements §4.G step 6's exponential smoothing, renormalised so
// the deployed vector still sums to 1 (Testable Property 6).
func smooth(candidate, active [8]float64, alpha float64) [8]float64 {
	var out [8]float64
	var sum float64
	for i := range out {
		out[i] = alpha*candidate[i] + (1-alpha)*active[i]
		sum += out[i]
	}
	if sum == 0 {
		return models.DefaultWeightTable
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// MLConfidence implements §4.G step 8, harmonising the two slightly
// different penalty formulas the original documentation gave (see
// DESIGN.md's open-question decision) on a single
// `f(R²) - min(0.2, cv_std*0.5)` shape, further scaled down below
// 1.5x the scope's minimum sample count.
func MLConfidence(rSquared, cvStd float64, sampleCount, minSamples int) float64 {
	conf := rSquared - math.Min(0.2, cvStd*0.5)
	if sampleCount < int(float64(minSamples)*1.5) {
		conf *= float64(sampleCount) / (float64(minSamples) * 1.5)
	}
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return conf
}

// R² for the linear blend itself is computed by callers that want an
// R²-based confidence (IndustryTrainer, the meta-learner) against their
// own (predicted, actual) pairs using gonum/stat.RSquared, the same
// primitive pkg/core/trend already uses — WeightTrainer's candidate is a
// fixed linear combination, not a fitted regression with its own R².
