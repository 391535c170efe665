// Package predictions implements PredictionStore (§4.K): an append-only
// log of every ensemble valuation's Prediction, reconciled against
// realised market prices into Outcomes, windowed for WeightTrainer and
// IndustryTrainer. Grounded on the teacher's pkg/core/store.FSAPCache
// hybrid-vault shape (pgx primary, filesystem fallback for local/offline
// operation) generalized from filing extractions to predictions.
package predictions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fundamentalengine/pkg/core/logging"
	"fundamentalengine/pkg/models"
)

var log = logging.For("predictions")

// Store is PredictionStore: DB-primary with a file-backed fallback,
// mirroring FSAPCache's hybrid vault.
type Store struct {
	pool    *pgxpool.Pool
	fileDir string
}

// New builds a Store. If pool is nil, dir defaults to a local cache
// directory so the store still works offline.
func New(pool *pgxpool.Pool, dir string) *Store {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "predictions")
	}
	if dir != "" {
		if err := os.MkdirAll(filepath.Join(dir, "predictions"), 0o755); err != nil {
			log.Warn().Err(err).Msg("could not create prediction cache dir")
		}
		if err := os.MkdirAll(filepath.Join(dir, "outcomes"), 0o755); err != nil {
			log.Warn().Err(err).Msg("could not create outcome cache dir")
		}
	}
	return &Store{pool: pool, fileDir: dir}
}

// Append implements §4.K's write-on-every-valuation: a Prediction is
// immutable once written (Testable Property 8, prediction/outcome
// integrity).
func (s *Store) Append(ctx context.Context, p models.Prediction) error {
	if s.pool != nil {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO predictions (
				id, company_id, tenant_id, issued_at, horizon_days,
				fair_value, confidence, weights_digest, owner_scope_kind, owner_scope_id
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			ON CONFLICT (id) DO NOTHING
		`, p.ID, p.CompanyID, p.TenantID, p.IssuedAt, p.HorizonDays,
			p.FairValue, p.Confidence, p.WeightsDigest, p.OwnerScope.Kind, p.OwnerScope.ID)
		if err != nil {
			return fmt.Errorf("predictions: append to db: %w", err)
		}
	}
	if s.fileDir != "" {
		if err := writeJSON(s.predictionPath(p.ID), p); err != nil {
			return fmt.Errorf("predictions: append to file cache: %w", err)
		}
	}
	return nil
}

// RecordOutcome writes the single Outcome a Prediction ever gets, once
// its horizon has elapsed (§4.K, §5 ordering guarantee ii).
func (s *Store) RecordOutcome(ctx context.Context, o models.Outcome) error {
	if s.pool != nil {
		contributions, err := json.Marshal(o.ModelContributions)
		if err != nil {
			return fmt.Errorf("predictions: marshal model contributions: %w", err)
		}
		_, err = s.pool.Exec(ctx, `
			INSERT INTO outcomes (prediction_id, actual_price, abs_pct_error, model_contributions, reconciled_at)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (prediction_id) DO NOTHING
		`, o.PredictionID, o.ActualPrice, o.AbsPctError, contributions, o.ReconciledAt)
		if err != nil {
			return fmt.Errorf("predictions: record outcome in db: %w", err)
		}
	}
	if s.fileDir != "" {
		if err := writeJSON(s.outcomePath(o.PredictionID), o); err != nil {
			return fmt.Errorf("predictions: record outcome in file cache: %w", err)
		}
	}
	return nil
}

// Window implements §4.K's query: predictions for the given tenant and
// scope issued within the last days, paired with their outcome (when
// reconciled). Consumed directly by SamplesFromPairs in pkg/core/training.
func (s *Store) Window(ctx context.Context, tenantID string, scope models.Scope, days int) ([]models.PredictionOutcomePair, error) {
	cutoff := time.Now().AddDate(0, 0, -days)

	if s.pool != nil {
		return s.windowFromDB(ctx, tenantID, scope, cutoff)
	}
	if s.fileDir != "" {
		return s.windowFromFiles(tenantID, scope, cutoff)
	}
	return nil, nil
}

func (s *Store) windowFromDB(ctx context.Context, tenantID string, scope models.Scope, cutoff time.Time) ([]models.PredictionOutcomePair, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.company_id, p.tenant_id, p.issued_at, p.horizon_days,
		       p.fair_value, p.confidence, p.weights_digest, p.owner_scope_kind, p.owner_scope_id,
		       o.actual_price, o.abs_pct_error, o.model_contributions, o.reconciled_at
		FROM predictions p
		LEFT JOIN outcomes o ON o.prediction_id = p.id
		WHERE p.tenant_id = $1 AND p.owner_scope_kind = $2 AND p.owner_scope_id = $3 AND p.issued_at >= $4
		ORDER BY p.issued_at ASC
	`, tenantID, scope.Kind, scope.ID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("predictions: window query: %w", err)
	}
	defer rows.Close()

	var pairs []models.PredictionOutcomePair
	for rows.Next() {
		var p models.Prediction
		var actualPrice, absPctError *float64
		var contributionsJSON []byte
		var reconciledAt *time.Time
		if err := rows.Scan(
			&p.ID, &p.CompanyID, &p.TenantID, &p.IssuedAt, &p.HorizonDays,
			&p.FairValue, &p.Confidence, &p.WeightsDigest, &p.OwnerScope.Kind, &p.OwnerScope.ID,
			&actualPrice, &absPctError, &contributionsJSON, &reconciledAt,
		); err != nil {
			return nil, fmt.Errorf("predictions: scan window row: %w", err)
		}
		pair := models.PredictionOutcomePair{Prediction: p}
		if actualPrice != nil {
			pair.Outcome = models.Outcome{
				PredictionID: p.ID,
				ActualPrice:  *actualPrice,
				AbsPctError:  derefOr(absPctError, 0),
				ReconciledAt: derefTimeOr(reconciledAt, time.Time{}),
			}
			if len(contributionsJSON) > 0 {
				_ = json.Unmarshal(contributionsJSON, &pair.Outcome.ModelContributions)
			}
		}
		pairs = append(pairs, pair)
	}
	return pairs, rows.Err()
}

func (s *Store) windowFromFiles(tenantID string, scope models.Scope, cutoff time.Time) ([]models.PredictionOutcomePair, error) {
	entries, err := os.ReadDir(filepath.Join(s.fileDir, "predictions"))
	if err != nil {
		return nil, nil
	}

	var pairs []models.PredictionOutcomePair
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		var p models.Prediction
		if err := readJSON(filepath.Join(s.fileDir, "predictions", e.Name()), &p); err != nil {
			continue
		}
		if p.TenantID != tenantID || p.OwnerScope != scope || p.IssuedAt.Before(cutoff) {
			continue
		}
		pair := models.PredictionOutcomePair{Prediction: p}
		var o models.Outcome
		if err := readJSON(s.outcomePath(p.ID), &o); err == nil {
			pair.Outcome = o
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// Unreconciled returns every Prediction whose business-day-snapped
// horizon has elapsed by asOf and which has no Outcome yet, for the
// daily reconciler to process.
func (s *Store) Unreconciled(ctx context.Context, asOf time.Time) ([]models.Prediction, error) {
	if s.pool != nil {
		rows, err := s.pool.Query(ctx, `
			SELECT p.id, p.company_id, p.tenant_id, p.issued_at, p.horizon_days,
			       p.fair_value, p.confidence, p.weights_digest, p.owner_scope_kind, p.owner_scope_id
			FROM predictions p
			LEFT JOIN outcomes o ON o.prediction_id = p.id
			WHERE o.prediction_id IS NULL
		`)
		if err != nil {
			return nil, fmt.Errorf("predictions: unreconciled query: %w", err)
		}
		defer rows.Close()

		var pending []models.Prediction
		for rows.Next() {
			var p models.Prediction
			if err := rows.Scan(&p.ID, &p.CompanyID, &p.TenantID, &p.IssuedAt, &p.HorizonDays,
				&p.FairValue, &p.Confidence, &p.WeightsDigest, &p.OwnerScope.Kind, &p.OwnerScope.ID); err != nil {
				return nil, fmt.Errorf("predictions: scan unreconciled row: %w", err)
			}
			if !dueBy(p, asOf) {
				continue
			}
			pending = append(pending, p)
		}
		return pending, rows.Err()
	}

	if s.fileDir != "" {
		entries, err := os.ReadDir(filepath.Join(s.fileDir, "predictions"))
		if err != nil {
			return nil, nil
		}
		var pending []models.Prediction
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
				continue
			}
			var p models.Prediction
			if err := readJSON(filepath.Join(s.fileDir, "predictions", e.Name()), &p); err != nil {
				continue
			}
			if _, err := os.Stat(s.outcomePath(p.ID)); err == nil {
				continue // already reconciled
			}
			if !dueBy(p, asOf) {
				continue
			}
			pending = append(pending, p)
		}
		return pending, nil
	}

	return nil, nil
}

func (s *Store) predictionPath(id string) string {
	return filepath.Join(s.fileDir, "predictions", sanitize(id)+".json")
}

func (s *Store) outcomePath(predictionID string) string {
	return filepath.Join(s.fileDir, "outcomes", sanitize(predictionID)+".json")
}

func sanitize(id string) string {
	return strings.NewReplacer("/", "_", ":", "_").Replace(id)
}

func writeJSON(path string, v interface{}) error {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, bytes, 0o644)
}

func readJSON(path string, v interface{}) error {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, v)
}

func derefOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}

func derefTimeOr(p *time.Time, fallback time.Time) time.Time {
	if p == nil {
		return fallback
	}
	return *p
}
