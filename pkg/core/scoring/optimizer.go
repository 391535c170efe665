package scoring

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"fundamentalengine/pkg/core/training"
	"fundamentalengine/pkg/models"
)

// MinTrainingSamples is §4.J's MIN_TRAINING_SAMPLES floor; below it the
// optimiser is not run and default weights apply.
const MinTrainingSamples = 100

const dimensionCVFolds = 5

// TrainingSample is one (dimension_scores, forward_return) row the ML
// dimension-weight optimiser trains on.
type TrainingSample struct {
	Scores        map[models.Dimension]float64
	ForwardReturn float64
}

// OptimizerResult is the optimiser's output: either a fresh ml-sourced
// weight vector or a default fallback with a rejection reason.
type OptimizerResult struct {
	Weights        map[models.Dimension]float64
	Source         models.ScoreSource
	MLConfidence   float64
	RejectedReason string
}

// OptimizeDimensionWeights implements §4.J's ML optimiser: fit
// forward_return against the five dimension scores, take each
// coefficient's magnitude as its feature importance, normalise to sum 1,
// and derive ml_confidence with the same formula §4.G's WeightTrainer
// uses (training.MLConfidence), rather than a second, divergent formula.
//
// The importance extraction is a multilinear least-squares fit via
// gonum/mat (no random-forest-ensemble library exists anywhere in the
// example corpus to ground a literal forest regressor on; see DESIGN.md).
func OptimizeDimensionWeights(samples []TrainingSample) OptimizerResult {
	if len(samples) < MinTrainingSamples {
		return OptimizerResult{
			Weights:        models.DefaultDimensionWeights,
			Source:         models.ScoreSourceDefault,
			RejectedReason: "insufficient_samples",
		}
	}

	beta, rSquared := fitLinear(samples)
	if beta == nil {
		return OptimizerResult{
			Weights:        models.DefaultDimensionWeights,
			Source:         models.ScoreSourceDefault,
			RejectedReason: "fit_failed",
		}
	}

	cvStd := crossValidationStd(samples, dimensionCVFolds)
	confidence := training.MLConfidence(rSquared, cvStd, len(samples), MinTrainingSamples)

	return OptimizerResult{
		Weights:      importanceWeights(beta),
		Source:       models.ScoreSourceML,
		MLConfidence: confidence,
	}
}

// fitLinear fits forward_return = beta0 + Σ beta_d * dimension_score_d by
// ordinary least squares, returning the fitted coefficients (intercept
// first, then models.AllDimensions order) and the fit's R².
func fitLinear(samples []TrainingSample) ([]float64, float64) {
	n := len(samples)
	p := len(models.AllDimensions) + 1
	if n < p+1 {
		return nil, 0
	}

	xData := make([]float64, 0, n*p)
	yData := make([]float64, 0, n)
	for _, s := range samples {
		xData = append(xData, 1)
		for _, d := range models.AllDimensions {
			xData = append(xData, s.Scores[d])
		}
		yData = append(yData, s.ForwardReturn)
	}

	x := mat.NewDense(n, p, xData)
	y := mat.NewDense(n, 1, yData)

	var beta mat.Dense
	if err := beta.Solve(x, y); err != nil {
		return nil, 0
	}

	var fitted mat.Dense
	fitted.Mul(x, &beta)
	fittedSlice := make([]float64, n)
	for i := 0; i < n; i++ {
		fittedSlice[i] = fitted.At(i, 0)
	}

	betaSlice := make([]float64, p)
	for i := 0; i < p; i++ {
		betaSlice[i] = beta.At(i, 0)
	}
	return betaSlice, stat.RSquared(fittedSlice, yData, nil, 0, 1)
}

// importanceWeights takes |coefficient| (skipping the intercept) as each
// dimension's feature importance and normalises to sum 1.
func importanceWeights(beta []float64) map[models.Dimension]float64 {
	weights := make(map[models.Dimension]float64, len(models.AllDimensions))
	var sum float64
	for i, d := range models.AllDimensions {
		w := math.Abs(beta[i+1])
		weights[d] = w
		sum += w
	}
	if sum == 0 {
		return models.DefaultDimensionWeights
	}
	for d := range weights {
		weights[d] /= sum
	}
	return weights
}

// crossValidationStd measures R² stability across folds the same way
// §4.G's WeightTrainer measures MAPE stability, using a deterministic
// round-robin fold assignment (no RNG needed; sample order is already
// the caller's, and round-robin spreads it evenly across folds).
func crossValidationStd(samples []TrainingSample, folds int) float64 {
	assigned := make([]int, len(samples))
	for i := range assigned {
		assigned[i] = i % folds
	}

	r2s := make([]float64, 0, folds)
	minFoldSize := len(models.AllDimensions) + 2
	for f := 0; f < folds; f++ {
		var subset []TrainingSample
		for i, fo := range assigned {
			if fo == f {
				subset = append(subset, samples[i])
			}
		}
		if len(subset) < minFoldSize {
			continue
		}
		_, r2 := fitLinear(subset)
		r2s = append(r2s, r2)
	}
	if len(r2s) < 2 {
		return 0
	}
	return stat.StdDev(r2s, nil)
}
