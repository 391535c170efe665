package net

import (
	"math"
	"testing"

	"fundamentalengine/pkg/models"
)

func TestForwardRejectsWrongFeatureSize(t *testing.T) {
	_, err := Forward(NewZeroParams(), []float64{1, 2, 3})
	if err == nil {
		t.Fatal("expected an error for a mis-sized feature vector")
	}
}

func TestForwardOutputsSumToOne(t *testing.T) {
	input := make([]float64, FeatureSize)
	for i := range input {
		input[i] = float64(i) / float64(FeatureSize)
	}

	out, err := Forward(NewZeroParams(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != outputs {
		t.Fatalf("expected %d outputs, got %d", outputs, len(out))
	}
	sum := 0.0
	for _, v := range out {
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("expected softmax outputs to sum to 1, got %f", sum)
	}
}

func TestForwardIsDeterministic(t *testing.T) {
	input := make([]float64, FeatureSize)
	for i := range input {
		input[i] = float64(i%5) - 2
	}
	params := NewZeroParams()

	first, err := Forward(params, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Forward(params, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("expected identical inference on identical input, index %d: %f vs %f", i, first[i], second[i])
		}
	}
}

func TestForwardAcceptsMetaFeatureSizeAgainstMetaParams(t *testing.T) {
	input := make([]float64, MetaFeatureSize)
	for i := range input {
		input[i] = float64(i) / float64(MetaFeatureSize)
	}

	out, err := Forward(NewZeroMetaParams(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != outputs {
		t.Fatalf("expected %d outputs, got %d", outputs, len(out))
	}

	if _, err := Forward(NewZeroMetaParams(), make([]float64, FeatureSize)); err == nil {
		t.Error("expected the meta network to reject a request-sized (20-feature) input")
	}
}

func TestAssembleFeaturesProducesCorrectDimension(t *testing.T) {
	coherence := map[models.ModelID]models.Metric{
		models.ModelDCF: models.M(0.9),
	}
	values := []models.ValuationResult{
		{ModelID: models.ModelDCF, FairValue: ptr(100), ConfidenceBase: 0.6},
		{ModelID: models.ModelRIM, FairValue: ptr(110), ConfidenceBase: 0.5},
	}
	accuracy := map[models.ModelID]float64{models.ModelDCF: 0.8}

	f := AssembleFeatures(coherence, values, accuracy)
	if len(f) != FeatureSize {
		t.Fatalf("expected %d features, got %d", FeatureSize, len(f))
	}
}

func ptr(v float64) *float64 { return &v }
