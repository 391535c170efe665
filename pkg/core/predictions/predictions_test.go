package predictions

import (
	"context"
	"testing"
	"time"

	"fundamentalengine/pkg/models"
)

func newFileStore(t *testing.T) *Store {
	t.Helper()
	return New(nil, t.TempDir())
}

func TestAppendAndWindowRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)

	scope := models.CompanyScope("co-1")
	p := models.Prediction{
		ID: "pred-1", CompanyID: "co-1", TenantID: "tenant-a",
		IssuedAt: time.Now().AddDate(0, 0, -5), HorizonDays: 30,
		FairValue: 100, Confidence: 0.8, OwnerScope: scope,
	}
	if err := s.Append(ctx, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pairs, err := s.Window(ctx, "tenant-a", scope, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Prediction.ID != "pred-1" {
		t.Fatalf("expected the appended prediction in the window, got %d pairs", len(pairs))
	}
	if pairs[0].Outcome.PredictionID != "" {
		t.Errorf("expected no outcome yet for an unreconciled prediction")
	}
}

func TestWindowExcludesOtherTenantsAndScopes(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)

	base := models.Prediction{IssuedAt: time.Now(), HorizonDays: 30, FairValue: 50}

	mine := base
	mine.ID, mine.TenantID, mine.OwnerScope = "mine", "tenant-a", models.CompanyScope("co-1")
	other := base
	other.ID, other.TenantID, other.OwnerScope = "other-tenant", "tenant-b", models.CompanyScope("co-1")
	otherScope := base
	otherScope.ID, otherScope.TenantID, otherScope.OwnerScope = "other-scope", "tenant-a", models.CompanyScope("co-2")

	for _, p := range []models.Prediction{mine, other, otherScope} {
		if err := s.Append(ctx, p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	pairs, err := s.Window(ctx, "tenant-a", models.CompanyScope("co-1"), 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Prediction.ID != "mine" {
		t.Fatalf("expected exactly the matching tenant+scope prediction, got %d", len(pairs))
	}
}

func TestWindowExcludesPredictionsOlderThanDays(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)
	scope := models.CompanyScope("co-1")

	old := models.Prediction{ID: "old", TenantID: "t", IssuedAt: time.Now().AddDate(0, 0, -200), HorizonDays: 30, OwnerScope: scope}
	recent := models.Prediction{ID: "recent", TenantID: "t", IssuedAt: time.Now().AddDate(0, 0, -10), HorizonDays: 30, OwnerScope: scope}
	if err := s.Append(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(ctx, recent); err != nil {
		t.Fatal(err)
	}

	pairs, err := s.Window(ctx, "t", scope, 180)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Prediction.ID != "recent" {
		t.Fatalf("expected only the prediction inside the window, got %d", len(pairs))
	}
}

func TestHorizonDateSnapsPastWeekend(t *testing.T) {
	// 2026-08-06 is a Thursday; +2 days lands on Saturday 2026-08-08,
	// which should snap to Monday 2026-08-10.
	issued := time.Date(2026, 8, 6, 0, 0, 0, 0, time.UTC)
	got := HorizonDate(issued, 2)
	want := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected horizon date to snap to the following Monday, got %v want %v", got, want)
	}
}

func TestReconcileWritesExactlyOneOutcomePerDuePrediction(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)

	issued := time.Now().AddDate(0, 0, -40)
	p := models.Prediction{ID: "pred-due", TenantID: "t", CompanyID: "co-1", IssuedAt: issued, HorizonDays: 30, FairValue: 100, OwnerScope: models.CompanyScope("co-1")}
	notDue := models.Prediction{ID: "pred-not-due", TenantID: "t", CompanyID: "co-1", IssuedAt: time.Now(), HorizonDays: 30, FairValue: 100, OwnerScope: models.CompanyScope("co-1")}
	if err := s.Append(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(ctx, notDue); err != nil {
		t.Fatal(err)
	}

	lookup := func(ctx context.Context, companyID string, date time.Time) (float64, error) {
		return 110, nil
	}

	n, err := Reconcile(ctx, s, time.Now(), lookup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly one prediction reconciled, got %d", n)
	}

	pending, err := s.Unreconciled(ctx, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, pp := range pending {
		if pp.ID == "pred-due" {
			t.Error("expected the due prediction to no longer be unreconciled after Reconcile")
		}
	}

	// Reconciling again must not write a second outcome for the same prediction.
	n2, err := Reconcile(ctx, s, time.Now(), lookup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n2 != 0 {
		t.Errorf("expected reconciling again to be a no-op, got %d new outcomes", n2)
	}
}
