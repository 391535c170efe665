package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fundamentalengine/pkg/models"
)

// TestCompositeScoreShapeAcrossAllDimensions asserts on the whole
// CompositeScore struct together rather than field-by-field, the way the
// pack's integration-shaped tests do for structured outputs.
func TestCompositeScoreShapeAcrossAllDimensions(t *testing.T) {
	asOf := time.Now()
	scores := map[models.Dimension]models.DimensionScore{
		models.DimValuation:     {CompanyID: "C1", Dimension: models.DimValuation, AsOf: asOf, Value: 80},
		models.DimProfitability: {CompanyID: "C1", Dimension: models.DimProfitability, AsOf: asOf, Value: 70},
		models.DimGrowth:        {CompanyID: "C1", Dimension: models.DimGrowth, AsOf: asOf, Value: 60},
		models.DimHealth:        {CompanyID: "C1", Dimension: models.DimHealth, AsOf: asOf, Value: 90},
		models.DimRisk:          {CompanyID: "C1", Dimension: models.DimRisk, AsOf: asOf, Value: 50},
	}

	composite := Composite("C1", asOf, scores, models.DefaultDimensionWeights, models.ScoreSourceDefault, 0.0)

	require.Equal(t, "C1", composite.CompanyID)
	require.Equal(t, models.ScoreSourceDefault, composite.Source)
	require.Len(t, composite.DimensionScores, 5)
	require.InDelta(t, 1.0, sumDimensionWeights(composite.DimensionWeights), 1e-9)
	require.GreaterOrEqual(t, composite.Composite, 0.0)
	require.LessOrEqual(t, composite.Composite, 100.0)
	require.Equal(t, models.RatingForComposite(composite.Composite), composite.Rating)
}

func TestRankIntegrationOrdersDescendingAndRespectsFloor(t *testing.T) {
	asOf := time.Now()
	mk := func(id, ticker string, v float64) RankInput {
		return RankInput{CompanyID: id, Ticker: ticker, Score: models.CompositeScore{Composite: v, Rating: models.RatingForComposite(v), AsOf: asOf}}
	}
	inputs := []RankInput{mk("a", "AAA", 42), mk("b", "BBB", 91), mk("c", "CCC", 15)}

	floor := 20.0
	rows := Rank(inputs, &floor)

	require.Len(t, rows, 2)
	require.Equal(t, "BBB", rows[0].Ticker)
	require.Equal(t, "AAA", rows[1].Ticker)
}

func sumDimensionWeights(w map[models.Dimension]float64) float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	return sum
}
