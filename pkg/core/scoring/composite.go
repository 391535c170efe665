package scoring

import (
	"sort"
	"time"

	"fundamentalengine/pkg/models"
)

// Composite implements §4.J's weighted sum across the five scored
// dimensions, renormalizing over whichever dimensions the caller
// actually supplied (mirrors §4.F's undefined-model renormalization).
func Composite(companyID string, asOf time.Time, scores map[models.Dimension]models.DimensionScore, weights map[models.Dimension]float64, source models.ScoreSource, mlConfidence float64) models.CompositeScore {
	var weighted, weightSum float64
	for dim, score := range scores {
		w := weights[dim]
		weighted += w * score.Value
		weightSum += w
	}
	composite := 0.0
	if weightSum > 0 {
		composite = weighted / weightSum
	}
	return models.CompositeScore{
		CompanyID:        companyID,
		AsOf:             asOf,
		Composite:        composite,
		Rating:           models.RatingForComposite(composite),
		DimensionWeights: weights,
		DimensionScores:  scores,
		Source:           source,
		MLConfidence:     mlConfidence,
	}
}

// RankInput bundles one company's composite score with the ticker a
// ranking page displays; CompositeScore itself carries no ticker.
type RankInput struct {
	CompanyID string
	Ticker    string
	Score     models.CompositeScore
}

// Rank implements §4.J's rank operation: descending by composite, stable
// tie-break by ticker ascending, filtered to min_score when given.
func Rank(inputs []RankInput, minScore *float64) []models.RankingRow {
	filtered := make([]RankInput, 0, len(inputs))
	for _, in := range inputs {
		if minScore != nil && in.Score.Composite < *minScore {
			continue
		}
		filtered = append(filtered, in)
	}

	sort.Slice(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if a.Score.Composite != b.Score.Composite {
			return a.Score.Composite > b.Score.Composite
		}
		return a.Ticker < b.Ticker
	})

	rows := make([]models.RankingRow, len(filtered))
	for i, in := range filtered {
		rows[i] = models.RankingRow{
			CompanyID: in.CompanyID,
			Ticker:    in.Ticker,
			Composite: in.Score.Composite,
			Rating:    in.Score.Rating,
		}
	}
	return rows
}
