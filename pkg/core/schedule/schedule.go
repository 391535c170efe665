// Package schedule maps the §9 task-runner interface (cron schedule,
// jitter_seconds, lock_key) onto robfig/cron, the cron engine the pack
// reaches for (ternarybob-quaero). There is no separate scope option: a
// job's scope is whatever its Run closure and LockKey are built for.
package schedule

import (
	"context"
	"math/rand"
	"time"

	"github.com/robfig/cron/v3"

	"fundamentalengine/pkg/core/lock"
	"fundamentalengine/pkg/core/logging"
)

var log = logging.For("schedule")

// JobSpec is the option set for a scheduled task: name, cron expression,
// lock key, jitter and the job body. It has no scope field.
type JobSpec struct {
	Name          string
	CronExpr      string
	LockKey       string
	JitterSeconds int
	Run           func(ctx context.Context) error
}

// Runner owns a cron engine and the lock registry jobs acquire before
// running, so two overlapping firings of the same job never race on a
// deployment.
type Runner struct {
	cron  *cron.Cron
	locks *lock.Registry
	rng   *rand.Rand
}

func NewRunner(locks *lock.Registry) *Runner {
	return &Runner{
		cron:  cron.New(),
		locks: locks,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Schedule registers spec with the cron engine. The job body acquires
// spec.LockKey before invoking spec.Run and releases it through a deferred
// call on every return path; a panic in spec.Run is not recovered here.
func (r *Runner) Schedule(spec JobSpec) (cron.EntryID, error) {
	return r.cron.AddFunc(spec.CronExpr, func() {
		if spec.JitterSeconds > 0 {
			time.Sleep(time.Duration(r.rng.Intn(spec.JitterSeconds)) * time.Second)
		}
		release, ok := r.locks.TryAcquire(spec.LockKey)
		if !ok {
			log.Warn().Str("job", spec.Name).Str("lock_key", spec.LockKey).Msg("skipped: lock held by concurrent run")
			return
		}
		defer release()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()

		if err := spec.Run(ctx); err != nil {
			log.Error().Str("job", spec.Name).Err(err).Msg("scheduled job failed")
		}
	})
}

func (r *Runner) Start() { r.cron.Start() }

func (r *Runner) Stop() context.Context { return r.cron.Stop() }
