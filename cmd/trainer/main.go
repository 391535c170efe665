// Command trainer runs WeightTrainer (§4.G) for one scope (global, an
// industry, or a company) against a tenant's prediction/outcome window,
// and optionally runs the daily PredictionStore reconciler (§4.K) first so
// the window it trains on is up to date. IndustryTrainer's transfer and
// meta-learner fallbacks (§4.H) are not run by this command.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"fundamentalengine/pkg/core/lock"
	"fundamentalengine/pkg/core/logging"
	"fundamentalengine/pkg/core/predictions"
	"fundamentalengine/pkg/core/registry"
	"fundamentalengine/pkg/core/training"
	"fundamentalengine/pkg/models"
)

var log = logging.For("trainer")

const windowDays = 180

func main() {
	_ = godotenv.Load()

	var (
		dbURL     = flag.String("db-url", os.Getenv("DATABASE_URL"), "postgres connection string; empty falls back to the file cache")
		cacheDir  = flag.String("cache-dir", "", "file cache directory, used when -db-url is empty")
		tenantID  = flag.String("tenant", "", "tenant id to train for")
		scopeKind = flag.String("scope", "global", "global | industry | company")
		scopeID   = flag.String("scope-id", "", "industry name or company id; ignored for -scope=global")
		seed      = flag.Int64("seed", 1, "deterministic seed for fold assignment and gradient descent init")
		reconcile = flag.Bool("reconcile", false, "run the daily reconciler against the window before training")
	)
	flag.Parse()

	if *tenantID == "" {
		fmt.Fprintln(os.Stderr, "usage: trainer -tenant=<id> -scope=global|industry|company [-scope-id=...] [-db-url=...|-cache-dir=...]")
		os.Exit(2)
	}

	scope := resolveScope(*scopeKind, *scopeID)
	ctx := context.Background()

	var pool *pgxpool.Pool
	if *dbURL != "" {
		p, err := pgxpool.New(ctx, *dbURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer p.Close()
		pool = p
	}

	store := predictions.New(pool, *cacheDir)

	if *reconcile {
		n, err := predictions.Reconcile(ctx, store, time.Now(), unavailablePriceLookup)
		if err != nil {
			log.Error().Err(err).Msg("reconciliation pass failed")
		} else {
			log.Info().Int("reconciled", n).Msg("reconciliation pass complete")
		}
	}

	pairs, err := store.Window(ctx, *tenantID, scope, windowDays)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load the training window")
	}

	samples := training.SamplesFromPairs(pairs, time.Now(), featuresFromPrediction)

	trainer := &training.Trainer{Registry: registry.Default, Locks: lock.Default, Seed: *seed}
	result := trainer.Train(scope, samples, time.Now())

	if !result.Deployed {
		log.Info().Str("scope", scope.String()).Str("reason", result.RejectedReason).Msg("candidate rejected")
		os.Exit(1)
	}
	log.Info().Str("scope", scope.String()).Interface("weights", result.Candidate.ModelWeights).Msg("new weight vector deployed")
}

func resolveScope(kind, id string) models.Scope {
	switch kind {
	case "industry":
		return models.IndustryScope(id)
	case "company":
		return models.CompanyScope(id)
	default:
		return models.GlobalScope()
	}
}

// featuresFromPrediction supplies SamplesFromPairs' per-model vector. A
// stored Prediction only carries the already-blended fair value, not the
// 8 individual model outputs that produced it, so every entry takes the
// same value. fitWithCV then gives every model the same gradient, so the
// fit has nothing to tell the models apart by; the candidate does not stay
// at its starting weights, since the simplex re-projection after each
// uniform step shifts weight between models.
func featuresFromPrediction(p models.Prediction) ([]float64, [8]float64) {
	var values [8]float64
	for i := range values {
		values[i] = p.FairValue
	}
	return nil, values
}

func unavailablePriceLookup(ctx context.Context, companyID string, date time.Time) (float64, error) {
	return 0, fmt.Errorf("trainer: no live market data source configured for %s at %s", companyID, date.Format("2006-01-02"))
}
