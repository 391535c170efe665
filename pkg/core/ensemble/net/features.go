package net

import (
	"math"
	"sort"

	"fundamentalengine/pkg/models"
)

// AssembleFeatures builds the 20-dimensional input vector §4.E
// specifies: 8 per-model coherence scores, 3 dispersion statistics over
// the 24 scenario values, 1 mean confidence_base, 8 recent per-model
// accuracy scores. Undefined coherence scores and missing accuracy
// history contribute 0, matching the "engine falls back to the default
// weight table" posture when data is too thin to trust the network.
func AssembleFeatures(coherence map[models.ModelID]models.Metric, scenarioValues []models.ValuationResult, recentAccuracy map[models.ModelID]float64) []float64 {
	f := make([]float64, 0, FeatureSize)

	for _, id := range models.AllModels {
		f = append(f, coherence[id].Float(0))
	}

	f = append(f, dispersionStats(scenarioValues)...)
	f = append(f, meanConfidence(scenarioValues))

	for _, id := range models.AllModels {
		f = append(f, recentAccuracy[id])
	}

	return f
}

// dispersionStats returns std/mean, (max-min)/mean, median-mean over the
// defined fair values in scenarioValues, each 0 when undefined (empty
// set or zero mean).
func dispersionStats(results []models.ValuationResult) []float64 {
	var vals []float64
	for _, r := range results {
		if r.FairValue != nil {
			vals = append(vals, *r.FairValue)
		}
	}
	if len(vals) == 0 {
		return []float64{0, 0, 0}
	}

	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	if mean == 0 {
		return []float64{0, 0, 0}
	}

	variance := 0.0
	min, max := vals[0], vals[0]
	for _, v := range vals {
		d := v - mean
		variance += d * d
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	variance /= float64(len(vals))
	std := math.Sqrt(variance)

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}

	return []float64{std / mean, (max - min) / mean, (median - mean) / mean}
}

func meanConfidence(results []models.ValuationResult) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.ConfidenceBase
	}
	return sum / float64(len(results))
}
