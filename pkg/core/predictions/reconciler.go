package predictions

import (
	"context"
	"fmt"
	"math"
	"time"

	"fundamentalengine/pkg/models"
)

// PriceLookup resolves the realised market close for a company on a
// given (already business-day-snapped) date.
type PriceLookup func(ctx context.Context, companyID string, date time.Time) (float64, error)

// HorizonDate implements §4.K's "issued_at + horizon_days (business-day
// snapped)": advance by horizon_days calendar days, then roll forward
// past any weekend.
func HorizonDate(issuedAt time.Time, horizonDays int) time.Time {
	return nextBusinessDay(issuedAt.AddDate(0, 0, horizonDays))
}

func nextBusinessDay(t time.Time) time.Time {
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func dueBy(p models.Prediction, asOf time.Time) bool {
	return !HorizonDate(p.IssuedAt, p.HorizonDays).After(asOf)
}

// Reconcile implements §4.K's daily reconciler: for every Prediction due
// by asOf with no Outcome yet, fetch the realised price at its snapped
// horizon date and write exactly one Outcome.
func Reconcile(ctx context.Context, store *Store, asOf time.Time, lookup PriceLookup) (int, error) {
	pending, err := store.Unreconciled(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("predictions: reconcile: %w", err)
	}

	reconciled := 0
	for _, p := range pending {
		horizonDate := HorizonDate(p.IssuedAt, p.HorizonDays)
		price, err := lookup(ctx, p.CompanyID, horizonDate)
		if err != nil {
			log.Warn().Err(err).Str("prediction_id", p.ID).Msg("price lookup failed, leaving prediction unreconciled")
			continue
		}

		outcome := models.Outcome{
			PredictionID: p.ID,
			ActualPrice:  price,
			AbsPctError:  absPctError(p.FairValue, price),
			ReconciledAt: asOf,
		}
		if err := store.RecordOutcome(ctx, outcome); err != nil {
			return reconciled, fmt.Errorf("predictions: reconcile prediction %s: %w", p.ID, err)
		}
		reconciled++
	}
	return reconciled, nil
}

func absPctError(predicted, actual float64) float64 {
	if actual == 0 {
		return 0
	}
	return math.Abs(predicted-actual) / math.Abs(actual)
}
