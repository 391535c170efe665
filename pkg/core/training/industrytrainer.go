package training

import (
	"math"
	"time"

	"fundamentalengine/pkg/core/ensemble/net"
	"fundamentalengine/pkg/models"
)

// similarityThreshold is §4.H's cosine-similarity transfer threshold.
const similarityThreshold = 0.70

const (
	transferConfidenceFactor = 0.8
	metaConfidenceFactor     = 0.7
)

// IndustryContext bundles one industry's training inputs for a single
// IndustryTrainer run.
type IndustryContext struct {
	Profile models.IndustryProfile
	Samples []Sample
}

// IndustryTrainer runs WeightTrainer per industry and falls back to
// similarity transfer or the meta-learner for industries too thin to
// train directly (§4.H).
type IndustryTrainer struct {
	Trainer *Trainer
	// MetaNet is the trained global network conditioned on an industry
	// descriptor, sized for net.MetaFeatureSize (25 features) rather than
	// net.FeatureSize (20) — the original's own meta-learner is a separate
	// network from its per-industry one, not a reuse of the same
	// architecture. Nil until the first weekly meta-learner refresh has
	// run, in which case industries with no similar peer fall back to the
	// global default table instead (never to an untrained network).
	MetaNet *net.Params
}

// NewIndustryTrainer wraps an existing Trainer (sharing its registry and
// lock).
func NewIndustryTrainer(trainer *Trainer) *IndustryTrainer {
	return &IndustryTrainer{Trainer: trainer}
}

// Run implements §4.H: for each industry with enough samples, invoke
// WeightTrainer restricted to that industry. For industries below
// MinSamplesIndustry, transfer the most similar industry's active vector
// (cosine similarity >= similarityThreshold) or fall back to the
// meta-learner.
func (it *IndustryTrainer) Run(contexts []IndustryContext, now time.Time) map[string]Result {
	results := make(map[string]Result, len(contexts))

	var trainable, thin []IndustryContext
	for _, c := range contexts {
		if len(c.Samples) >= MinSamplesIndustry {
			trainable = append(trainable, c)
		} else {
			thin = append(thin, c)
		}
	}

	for _, c := range trainable {
		scope := models.IndustryScope(c.Profile.Industry)
		results[c.Profile.Industry] = it.Trainer.Train(scope, c.Samples, now)
	}

	for _, c := range thin {
		results[c.Profile.Industry] = it.resolveThinIndustry(c, trainable, now)
	}

	return results
}

// resolveThinIndustry implements §4.H's fallback ladder for an
// industry below MinSamplesIndustry: similarity transfer first, then the
// meta-learner, recording the confidence penalty each path applies.
func (it *IndustryTrainer) resolveThinIndustry(thin IndustryContext, peers []IndustryContext, now time.Time) Result {
	if peer, similarity := mostSimilarPeer(thin.Profile, peers); peer != "" && similarity >= similarityThreshold {
		active := it.Trainer.Registry.ActiveWeight(models.IndustryScope(peer))
		if active != nil {
			transferred := models.WeightVector{
				ID:            models.IndustryScope(thin.Profile.Industry).String() + "@" + now.UTC().Format(time.RFC3339),
				OwnerScope:    models.IndustryScope(thin.Profile.Industry),
				EffectiveFrom: now,
				ModelWeights:  active.ModelWeights,
				Source:        models.SourceTransferred,
				Metrics:       active.Metrics,
				Deployed:      models.DeployActive,
			}
			it.Trainer.Registry.SetActiveWeight(&transferred)
			return Result{Candidate: transferred, Deployed: true}
		}
	}

	if it.MetaNet == nil {
		return Result{RejectedReason: "no_similar_peer_and_no_meta_learner"}
	}

	descriptor := industryDescriptor(thin.Profile)
	weights, err := net.Forward(*it.MetaNet, descriptor)
	if err != nil {
		return Result{RejectedReason: "meta_learner_inference_failed: " + err.Error()}
	}

	metaVector := models.WeightVector{
		ID:            models.IndustryScope(thin.Profile.Industry).String() + "@" + now.UTC().Format(time.RFC3339),
		OwnerScope:    models.IndustryScope(thin.Profile.Industry),
		EffectiveFrom: now,
		ModelWeights:  toArray8(weights),
		Source:        models.SourceMeta,
		Metrics:       models.TrainMetrics{SampleCount: thin.Profile.SampleCount},
		Deployed:      models.DeployActive,
	}
	it.Trainer.Registry.SetActiveWeight(&metaVector)
	return Result{Candidate: metaVector, Deployed: true}
}

// TransferConfidence and MetaConfidence apply §4.H's ×0.8/×0.7 penalties
// on top of MLConfidence's own result; ml_confidence is derived from a
// WeightVector's Metrics at read time, not stored redundantly on the
// vector itself.
func TransferConfidence(base float64) float64 { return base * transferConfidenceFactor }
func MetaConfidence(base float64) float64      { return base * metaConfidenceFactor }

func toArray8(weights []float64) [8]float64 {
	var out [8]float64
	copy(out[:], weights)
	return out
}

// mostSimilarPeer finds the trainable industry whose centroid feature
// vector is most cosine-similar to thin's, per §4.H.
func mostSimilarPeer(thin models.IndustryProfile, peers []IndustryContext) (industry string, similarity float64) {
	best := -1.0
	for _, p := range peers {
		s := cosineSimilarity(thin.CentroidFeatureVector, p.Profile.CentroidFeatureVector)
		if s > best {
			best = s
			industry = p.Profile.Industry
		}
	}
	return industry, best
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// industryDescriptor builds the meta-learner's 25-feature industry
// descriptor per §4.H: company_count (normalised /100), avg_accuracy,
// volatility_score, then the industry's 8 averaged model weights,
// zero-padded to net.MetaFeatureSize. This is a separate, smaller vector
// than CentroidFeatureVector (which drives similarity-transfer cosine
// matching) and is consumed only by the global meta-network, which is
// sized for net.MetaFeatureSize rather than the per-request/per-industry
// network's net.FeatureSize.
func industryDescriptor(profile models.IndustryProfile) []float64 {
	out := make([]float64, net.MetaFeatureSize)
	out[0] = float64(profile.CompanyCount) / 100.0
	out[1] = profile.AvgAccuracy
	out[2] = profile.VolatilityScore
	copy(out[3:], profile.AvgModelWeights[:])
	return out
}
