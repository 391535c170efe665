// Package breaker wraps sony/gobreaker for upstream collaborator calls,
// with bounded retry and exponential backoff ahead of the breaker per §5
// and §7 ("upstream_unavailable triggers the circuit breaker and a
// fallback to the last cached input").
package breaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"fundamentalengine/pkg/core/errs"
	"fundamentalengine/pkg/core/logging"
)

const maxAttempts = 3

var log = logging.For("breaker")

// Upstream wraps one external collaborator (a data feed, a pricing
// service) with retries, backoff and a circuit breaker.
type Upstream struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// New builds an Upstream named name. coolingPeriod is how long the breaker
// stays open after tripping before allowing a probe request through.
func New(name string, coolingPeriod time.Duration) *Upstream {
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: coolingPeriod,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxAttempts
		},
	}
	return &Upstream{
		name:    name,
		cb:      gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 1),
	}
}

// Call executes fn up to maxAttempts times in total, with exponential
// backoff between attempts, all guarded by the circuit breaker. If the breaker is open, or
// every attempt fails, it returns an *errs.Error with Kind
// UpstreamUnavailable so callers can fall back to cached/default inputs.
func (u *Upstream) Call(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	result, err := u.cb.Execute(func() (interface{}, error) {
		var lastErr error
		backoff := 100 * time.Millisecond
		for attempt := 0; attempt < maxAttempts; attempt++ {
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
			}
			if err := u.limiter.Wait(ctx); err != nil {
				return nil, err
			}
			val, callErr := fn(ctx)
			if callErr == nil {
				return val, nil
			}
			lastErr = callErr
			log.Warn().Str("upstream", u.name).Int("attempt", attempt+1).Err(callErr).Msg("upstream call failed")
		}
		return nil, lastErr
	})
	if err != nil {
		return nil, errs.Wrap(errs.UpstreamUnavailable, "upstream "+u.name+" unavailable after retries", err)
	}
	return result, nil
}

// State reports the breaker's current state (closed/half-open/open), used
// for health reporting.
func (u *Upstream) State() gobreaker.State {
	return u.cb.State()
}
