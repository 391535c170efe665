// Package net implements EnsembleNet (§4.E): the small feed-forward
// network that turns a model-suite feature vector into an 8-way softmax
// weight distribution. Grounded in gonum/mat, the matrix library
// other_examples/aristath-sentinel__risk.go reaches for when it needs
// dense linear algebra (there, a covariance matrix; here, dense layers).
// Inference only runs in eval mode: batch-norm uses its stored running
// statistics and dropout is the identity, so Forward is a pure,
// deterministic function of (Params, input).
package net

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"fundamentalengine/pkg/core/errs"
)

// FeatureSize is the dimensionality of the assembled input vector: 8
// per-model coherence scores, 3 dispersion statistics, 1 mean
// confidence_base, 8 recent per-model accuracy scores.
const FeatureSize = 20

// MetaFeatureSize is the dimensionality of the industry-descriptor input
// the global meta-learner consumes: company_count, avg_accuracy,
// volatility_score, plus the industry's 8 averaged model weights, with
// the remaining 14 positions zero-padded.
const MetaFeatureSize = 25

const (
	hidden1 = 64
	hidden2 = 32
	outputs = 8
	bnEpsilon = 1e-5
)

// DenseLayer is a fully-connected layer's weight matrix and bias vector.
type DenseLayer struct {
	W *mat.Dense // out x in
	B []float64  // out
}

// BatchNorm holds the running statistics and learned scale/shift a
// trained batch-norm layer uses in eval mode.
type BatchNorm struct {
	Gamma, Beta       []float64
	RunningMean, RunningVar []float64
}

// Params is the full set of trained weights, laid out in the order
// Forward consumes them.
type Params struct {
	Dense1 DenseLayer
	BN1    BatchNorm
	Dense2 DenseLayer
	BN2    BatchNorm
	Dense3 DenseLayer
}

// NewZeroParams builds a Params of the right shapes with all weights
// zeroed. WeightTrainer does not start from it: its gradient descent fits
// a linear blend starting from models.DefaultWeightTable.
func NewZeroParams() Params {
	return newZeroParamsFor(FeatureSize)
}

// NewZeroMetaParams builds a Params sized for MetaFeatureSize, the
// global meta-learner's own network, distinct from the per-request/
// per-industry network NewZeroParams sizes.
func NewZeroMetaParams() Params {
	return newZeroParamsFor(MetaFeatureSize)
}

func newZeroParamsFor(featureSize int) Params {
	return Params{
		Dense1: zeroDense(hidden1, featureSize),
		BN1:    identityBN(hidden1),
		Dense2: zeroDense(hidden2, hidden1),
		BN2:    identityBN(hidden2),
		Dense3: zeroDense(outputs, hidden2),
	}
}

func zeroDense(out, in int) DenseLayer {
	return DenseLayer{W: mat.NewDense(out, in, nil), B: make([]float64, out)}
}

func identityBN(size int) BatchNorm {
	gamma := make([]float64, size)
	variance := make([]float64, size)
	for i := range gamma {
		gamma[i] = 1
		variance[i] = 1
	}
	return BatchNorm{Gamma: gamma, Beta: make([]float64, size), RunningMean: make([]float64, size), RunningVar: variance}
}

// Forward runs the network in eval mode: Dense->BN->ReLU twice, then a
// final Dense->Softmax. Returns the 8-way weight vector, which always
// sums to 1.
func Forward(p Params, input []float64) ([]float64, error) {
	_, want := p.Dense1.W.Dims()
	if len(input) != want {
		return nil, errs.New(errs.InsufficientData, "ensemble net feature vector has the wrong dimension")
	}

	x := mat.NewVecDense(want, input)

	h1 := denseForward(p.Dense1, x)
	h1 = batchNormEval(p.BN1, h1)
	relu(h1)

	h2 := denseForward(p.Dense2, mat.NewVecDense(len(h1), h1))
	h2 = batchNormEval(p.BN2, h2)
	relu(h2)

	logits := denseForward(p.Dense3, mat.NewVecDense(len(h2), h2))
	return softmax(logits), nil
}

func denseForward(layer DenseLayer, x *mat.VecDense) []float64 {
	out, _ := layer.W.Dims()
	y := mat.NewVecDense(out, nil)
	y.MulVec(layer.W, x)
	result := make([]float64, out)
	for i := 0; i < out; i++ {
		result[i] = y.AtVec(i) + layer.B[i]
	}
	return result
}

func batchNormEval(bn BatchNorm, x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		normalized := (v - bn.RunningMean[i]) / math.Sqrt(bn.RunningVar[i]+bnEpsilon)
		out[i] = normalized*bn.Gamma[i] + bn.Beta[i]
	}
	return out
}

func relu(x []float64) {
	for i, v := range x {
		if v < 0 {
			x[i] = 0
		}
	}
}

func softmax(logits []float64) []float64 {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	sum := 0.0
	out := make([]float64, len(logits))
	for i, v := range logits {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
