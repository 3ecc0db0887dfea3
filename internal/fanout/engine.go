// Package fanout turns one committed action into per-user stream rows. It is
// invoked by the deferred task runner, possibly more than once per action;
// the unique (user, action) index plus insert-ignore batches make repeated
// runs converge on the same row set.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/openfeedhq/feedengine/internal/models"
	"github.com/openfeedhq/feedengine/internal/registry"
	"github.com/openfeedhq/feedengine/internal/repositories"
)

// ErrPrivacyViolation is returned when fan-out is attempted on a non-public
// action. Private actions must never reach this stage; failing loudly here
// flags the upstream bug instead of silently skipping.
var ErrPrivacyViolation = errors.New("cannot fan-out private action")

// DefaultBatchSize bounds how many stream rows one insert writes.
const DefaultBatchSize = 500

// GlobalMode selects what a global action does to per-user streams.
type GlobalMode string

const (
	// GlobalBroadcast materializes a stream row for every known user.
	GlobalBroadcast GlobalMode = "broadcast"
	// GlobalSkip leaves streams untouched; global actions are then only
	// reachable through the public feed.
	GlobalSkip GlobalMode = "skip"
)

// Hooks bracket the batch-write phase so collaborators can attach pre/post
// processing without being part of the engine.
type Hooks struct {
	BeforeFanout func(action *models.Action)
	AfterFanout  func(action *models.Action)
}

// Options configure an Engine.
type Options struct {
	GlobalMode GlobalMode
	Hooks      Hooks
	Logger     zerolog.Logger
}

// Engine computes the target user set for an action and materializes the
// corresponding stream rows in bounded, idempotent batches.
type Engine struct {
	actions  repositories.ActionRepository
	follows  repositories.FollowRepository
	streams  repositories.StreamRepository
	users    repositories.UserRepository
	registry *registry.Registry
	mode     GlobalMode
	hooks    Hooks
	log      zerolog.Logger
}

// New creates a fan-out engine.
func New(
	actions repositories.ActionRepository,
	follows repositories.FollowRepository,
	streams repositories.StreamRepository,
	users repositories.UserRepository,
	reg *registry.Registry,
	opts Options,
) *Engine {
	mode := opts.GlobalMode
	if mode == "" {
		mode = GlobalBroadcast
	}
	return &Engine{
		actions:  actions,
		follows:  follows,
		streams:  streams,
		users:    users,
		registry: reg,
		mode:     mode,
		hooks:    opts.Hooks,
		log:      opts.Logger,
	}
}

// Fanout materializes stream rows for the action and returns how many rows
// were newly written.
//
// A missing action is a successful no-op so at-least-once task delivery does
// not retry forever. A non-public action fails with ErrPrivacyViolation and
// writes nothing. A failed batch aborts the run with the batch's error;
// rows written by earlier batches stay, and re-running resumes safely.
func (e *Engine) Fanout(ctx context.Context, actionID uint, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	action, err := e.actions.GetActionByID(actionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		e.log.Warn().Uint("action_id", actionID).Msg("action does not exist, skipping fan-out")
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("loading action %d: %w", actionID, err)
	}

	if !action.Public {
		return 0, fmt.Errorf("%w: action %d", ErrPrivacyViolation, action.ID)
	}

	if e.hooks.BeforeFanout != nil {
		e.hooks.BeforeFanout(action)
	}

	var written int64
	if action.IsGlobal {
		if e.mode == GlobalSkip {
			e.log.Info().Uint("action_id", action.ID).Msg("global action, skipping stream population")
		} else {
			written, err = e.broadcast(ctx, action, batchSize)
		}
	} else {
		targets, terr := e.targetSet(action)
		if terr != nil {
			return 0, terr
		}
		written, err = e.writeBatches(ctx, action, targets, batchSize)
	}
	if err != nil {
		return written, err
	}

	if e.hooks.AfterFanout != nil {
		e.hooks.AfterFanout(action)
	}

	e.log.Info().
		Uint("action_id", action.ID).
		Int64("rows", written).
		Msg("stream population completed")
	return written, nil
}

// targetSet computes the deduplicated target users for a non-global action:
// actor-only followers of the actor plus the handler's extra targets.
// Unresolvable targets (zero ids from stale edges) are skipped, not fatal.
func (e *Engine) targetSet(action *models.Action) ([]uint, error) {
	followerIDs, err := e.follows.FollowersOf(action.Actor, true)
	if err != nil {
		return nil, fmt.Errorf("resolving followers of %s: %w", action.Actor, err)
	}

	seen := make(map[uint]struct{}, len(followerIDs))
	for _, id := range followerIDs {
		if id == 0 {
			continue
		}
		seen[id] = struct{}{}
	}
	for _, id := range e.registry.ExtraTargets(action) {
		if id == 0 {
			continue
		}
		seen[id] = struct{}{}
	}

	targets := make([]uint, 0, len(seen))
	for id := range seen {
		targets = append(targets, id)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	return targets, nil
}

// writeBatches inserts one stream row per target in batchSize chunks. Each
// batch is its own unit of atomicity; duplicates are absorbed by the unique
// index, so a retried or concurrent run never double-writes.
func (e *Engine) writeBatches(ctx context.Context, action *models.Action, targets []uint, batchSize int) (int64, error) {
	var written int64
	for start := 0; start < len(targets); start += batchSize {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		end := start + batchSize
		if end > len(targets) {
			end = len(targets)
		}
		rows := make([]models.Stream, 0, end-start)
		for _, userID := range targets[start:end] {
			rows = append(rows, models.Stream{UserID: userID, ActionID: action.ID})
		}
		n, err := e.streams.CreateBatch(rows)
		if err != nil {
			return written, fmt.Errorf("writing stream batch for action %d: %w", action.ID, err)
		}
		written += n
	}
	return written, nil
}

// broadcast fans a global action out to the entire user population, paging
// by user id so the full id list is never held in memory and no long-lived
// lock is taken. Interruption leaves a resumable partial state.
func (e *Engine) broadcast(ctx context.Context, action *models.Action, batchSize int) (int64, error) {
	var written int64
	var afterID uint
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		ids, err := e.users.UserIDsAfter(afterID, batchSize)
		if err != nil {
			return written, fmt.Errorf("paging users for action %d: %w", action.ID, err)
		}
		if len(ids) == 0 {
			return written, nil
		}
		rows := make([]models.Stream, 0, len(ids))
		for _, userID := range ids {
			rows = append(rows, models.Stream{UserID: userID, ActionID: action.ID})
		}
		n, err := e.streams.CreateBatch(rows)
		if err != nil {
			return written, fmt.Errorf("writing stream batch for action %d: %w", action.ID, err)
		}
		written += n
		afterID = ids[len(ids)-1]
		if len(ids) < batchSize {
			return written, nil
		}
	}
}
