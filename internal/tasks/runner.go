// Package tasks is the deferred work facility: fan-out is scheduled here
// after an action is durably committed and delivered at-least-once to the
// fan-out engine. The engine's idempotent batches turn that into
// effectively-once materialization.
package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openfeedhq/feedengine/internal/fanout"
)

// FanoutEngine is the work the runner delivers. Satisfied by *fanout.Engine.
type FanoutEngine interface {
	Fanout(ctx context.Context, actionID uint, batchSize int) (int64, error)
}

// Scheduler accepts fan-out work for an already-committed action. Callers
// must only schedule after the action write is durable; scheduling first
// risks fanning out an action a surrounding transaction later aborts.
type Scheduler interface {
	Schedule(actionID uint)
}

type job struct {
	id       string
	actionID uint
}

// Runner is an in-process Scheduler: a worker pool draining a buffered
// queue. Delivery is at-least-once with bounded retries; ordering between
// jobs is not guaranteed.
type Runner struct {
	engine      FanoutEngine
	batchSize   int
	maxAttempts int
	retryDelay  time.Duration
	jobs        chan job
	wg          sync.WaitGroup
	log         zerolog.Logger

	mu      sync.Mutex
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRunner starts a runner with the given worker count.
func NewRunner(engine FanoutEngine, workers, batchSize int, logger zerolog.Logger) *Runner {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		engine:      engine,
		batchSize:   batchSize,
		maxAttempts: 3,
		retryDelay:  100 * time.Millisecond,
		jobs:        make(chan job, 256),
		log:         logger,
		ctx:         ctx,
		cancel:      cancel,
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

// Schedule enqueues fan-out for the action. Safe from any goroutine; a call
// after Stop is dropped with a warning instead of panicking.
func (r *Runner) Schedule(actionID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		r.log.Warn().Uint("action_id", actionID).Msg("scheduler stopped, dropping fan-out job")
		return
	}
	r.jobs <- job{id: uuid.NewString(), actionID: actionID}
}

// Stop drains queued jobs, waits for in-flight work and releases workers.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	close(r.jobs)
	r.mu.Unlock()

	r.wg.Wait()
	r.cancel()
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for j := range r.jobs {
		r.process(j)
	}
}

func (r *Runner) process(j job) {
	log := r.log.With().Str("job_id", j.id).Uint("action_id", j.actionID).Logger()
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		_, err := r.engine.Fanout(r.ctx, j.actionID, r.batchSize)
		if err == nil {
			return
		}
		if errors.Is(err, fanout.ErrPrivacyViolation) {
			// Fatal to this job, never retried.
			log.Error().Err(err).Msg("fan-out rejected")
			return
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("fan-out failed")
		select {
		case <-r.ctx.Done():
			return
		case <-time.After(r.retryDelay):
		}
	}
	log.Error().Int("attempts", r.maxAttempts).Msg("giving up on fan-out job")
}
