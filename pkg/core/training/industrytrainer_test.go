package training

import (
	"testing"
	"time"

	"fundamentalengine/pkg/core/ensemble/net"
	"fundamentalengine/pkg/models"
)

func unanimousSamples(n int) []Sample {
	samples := make([]Sample, n)
	for i := 0; i < n; i++ {
		price := 100.0 + float64(i%5)
		var values [8]float64
		for m := range values {
			values[m] = price
		}
		samples[i] = Sample{PerModelValues: values, ActualPrice: price}
	}
	return samples
}

func TestRunTransfersFromMostSimilarPeer(t *testing.T) {
	tr := newTestTrainer(7)
	it := NewIndustryTrainer(tr)

	softwareActive := &models.WeightVector{
		OwnerScope:   models.IndustryScope("software"),
		ModelWeights: [8]float64{0.3, 0.2, 0.1, 0.1, 0.1, 0.1, 0.05, 0.05},
		Source:       models.SourceTrained,
		Deployed:     models.DeployActive,
	}
	tr.Registry.SetActiveWeight(softwareActive)

	contexts := []IndustryContext{
		// Every model agrees exactly with the actual price, so no candidate
		// can improve on the active vector: training for "software" is
		// rejected and its active vector stays exactly softwareActive,
		// making this peer's transfer outcome deterministic.
		{Profile: models.IndustryProfile{Industry: "software", CentroidFeatureVector: []float64{1, 0, 0}}, Samples: unanimousSamples(50)},
		{Profile: models.IndustryProfile{Industry: "saas-thin", CentroidFeatureVector: []float64{0.99, 0.01, 0}}, Samples: syntheticSamples(5, 0)},
	}

	results := it.Run(contexts, time.Now())

	thin := results["saas-thin"]
	if !thin.Deployed {
		t.Fatalf("expected the thin industry to receive a transferred vector, got rejection %q", thin.RejectedReason)
	}
	if thin.Candidate.Source != models.SourceTransferred {
		t.Errorf("expected source=transferred, got %s", thin.Candidate.Source)
	}
	if thin.Candidate.ModelWeights != softwareActive.ModelWeights {
		t.Errorf("expected the transferred vector to match the peer's active vector verbatim")
	}
}

func TestRunFallsBackToMetaLearnerWithoutSimilarPeer(t *testing.T) {
	tr := newTestTrainer(7)
	it := NewIndustryTrainer(tr)
	zero := net.NewZeroMetaParams()
	it.MetaNet = &zero

	contexts := []IndustryContext{
		{Profile: models.IndustryProfile{Industry: "unrelated-peer", CentroidFeatureVector: []float64{1, 0, 0}}, Samples: syntheticSamples(50, 0)},
		{Profile: models.IndustryProfile{Industry: "niche", CentroidFeatureVector: []float64{0, 0, 1}}, Samples: syntheticSamples(3, 0)},
	}

	results := it.Run(contexts, time.Now())

	niche := results["niche"]
	if !niche.Deployed {
		t.Fatalf("expected the meta-learner fallback to deploy a vector, got rejection %q", niche.RejectedReason)
	}
	if niche.Candidate.Source != models.SourceMeta {
		t.Errorf("expected source=meta, got %s", niche.Candidate.Source)
	}
	var sum float64
	for _, w := range niche.Candidate.ModelWeights {
		sum += w
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("expected the meta-learner's softmax output to sum to 1, got %f", sum)
	}
}

func TestRunRejectsThinIndustryWithNoSimilarPeerAndNoMetaLearner(t *testing.T) {
	tr := newTestTrainer(7)
	it := NewIndustryTrainer(tr)

	contexts := []IndustryContext{
		{Profile: models.IndustryProfile{Industry: "niche", CentroidFeatureVector: []float64{0, 0, 1}}, Samples: syntheticSamples(3, 0)},
	}

	results := it.Run(contexts, time.Now())
	niche := results["niche"]
	if niche.Deployed {
		t.Fatal("expected rejection with no trainable peer and no meta-learner loaded")
	}
	if niche.RejectedReason != "no_similar_peer_and_no_meta_learner" {
		t.Errorf("expected the no-peer-no-meta rejection reason, got %q", niche.RejectedReason)
	}
}

func TestCosineSimilarityIdenticalVectorsIsOne(t *testing.T) {
	v := []float64{0.5, 0.3, 0.2}
	if s := cosineSimilarity(v, v); s < 0.9999 {
		t.Errorf("expected cosine similarity of a vector with itself to be 1, got %f", s)
	}
}
