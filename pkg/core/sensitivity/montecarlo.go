package sensitivity

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"fundamentalengine/pkg/core/valuation"
)

const (
	monteCarloBatchSize      = 500
	monteCarloMaxConcurrency = 8
)

// Distribution draws one sample given a private RNG; each Monte Carlo
// sample gets its own *rand.Rand (seeded deterministically from the
// run's master seed) so draws are reproducible independent of
// goroutine scheduling order.
type Distribution interface {
	sample(rng *rand.Rand) float64
}

// Normal, Uniform and Triangular are §4.I's three per-variable
// distribution shapes, each a thin wrapper over the matching
// gonum/stat/distuv type.
type Normal struct{ Mean, StdDev float64 }

func (n Normal) sample(rng *rand.Rand) float64 {
	return distuv.Normal{Mu: n.Mean, Sigma: n.StdDev, Src: rng}.Rand()
}

type Uniform struct{ Min, Max float64 }

func (u Uniform) sample(rng *rand.Rand) float64 {
	return distuv.Uniform{Min: u.Min, Max: u.Max, Src: rng}.Rand()
}

type Triangular struct{ Min, Mode, Max float64 }

func (t Triangular) sample(rng *rand.Rand) float64 {
	return distuv.NewTriangle(t.Min, t.Max, t.Mode, rng).Rand()
}

// VariableDistribution binds one named Params variable to the
// distribution monte_carlo should sample it from.
type VariableDistribution struct {
	Variable string
	Dist     Distribution
}

// Result is monte_carlo's stats payload (§4.I): mean/median/std, the
// seven named percentiles, and the empirical 80%/90% confidence
// intervals.
type Result struct {
	N           int
	Mean        float64
	Median      float64
	StdDev      float64
	Percentiles map[int]float64
	CI80        [2]float64
	CI90        [2]float64
}

// MonteCarlo implements §4.I's monte_carlo: independently sample every
// variable's distribution, rerun value, and summarize N outcomes. Batches
// of monteCarloBatchSize run on a semaphore-bounded worker pool, and ctx
// is checked for cancellation between batches.
func MonteCarlo(ctx context.Context, base valuation.Params, specs []VariableDistribution, n int, seed int64, value ValueFunc) (*Result, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sensitivity: monte_carlo n must be > 0, got %d", n)
	}

	resolved := make([]Variable, len(specs))
	for i, s := range specs {
		v, ok := Lookup(s.Variable)
		if !ok {
			return nil, fmt.Errorf("sensitivity: unknown variable %q", s.Variable)
		}
		resolved[i] = v
	}

	// Every sample's randomness derives only from its own index-seeded
	// RNG, not from draw order, so the result is identical regardless of
	// how the batches are scheduled across workers.
	master := rand.New(rand.NewSource(seed))
	subSeeds := make([]int64, n)
	for i := range subSeeds {
		subSeeds[i] = master.Int63()
	}

	values := make([]float64, n)
	failed := make([]error, n)
	sem := semaphore.NewWeighted(monteCarloMaxConcurrency)

	for start := 0; start < n; start += monteCarloBatchSize {
		end := start + monteCarloBatchSize
		if end > n {
			end = n
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil, err
			}
			g.Go(func() error {
				defer sem.Release(1)
				rng := rand.New(rand.NewSource(subSeeds[i]))
				p := base
				p.GrowthSchedule = append([]float64(nil), base.GrowthSchedule...)
				for j, v := range resolved {
					v.Set(&p, specs[j].Dist.sample(rng))
				}
				fv, err := value(p)
				if err != nil {
					failed[i] = err
					return nil
				}
				values[i] = fv
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}

	clean := make([]float64, 0, n)
	var firstErr error
	for i, v := range values {
		if failed[i] != nil {
			if firstErr == nil {
				firstErr = failed[i]
			}
			continue
		}
		clean = append(clean, v)
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("sensitivity: monte_carlo: every sample failed: %w", firstErr)
	}

	sorted := append([]float64(nil), clean...)
	sort.Float64s(sorted)

	res := &Result{
		N:           len(clean),
		Mean:        stat.Mean(clean, nil),
		StdDev:      stat.StdDev(clean, nil),
		Percentiles: make(map[int]float64, 7),
	}
	res.Median = quantile(sorted, 0.5)
	for _, p := range []int{5, 10, 25, 50, 75, 90, 95} {
		res.Percentiles[p] = quantile(sorted, float64(p)/100)
	}
	res.CI80 = [2]float64{quantile(sorted, 0.10), quantile(sorted, 0.90)}
	res.CI90 = [2]float64{quantile(sorted, 0.05), quantile(sorted, 0.95)}
	return res, nil
}

func quantile(sorted []float64, p float64) float64 {
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}
