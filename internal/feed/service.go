// Package feed reconstructs timelines: a user's personalized feed from the
// materialized stream, global public/private feeds, an entity's activity
// history, and the follow-graph fallback that works without materialization.
package feed

import (
	"fmt"

	"github.com/openfeedhq/feedengine/internal/models"
	"github.com/openfeedhq/feedengine/internal/registry"
	"github.com/openfeedhq/feedengine/internal/repositories"
)

// Entity roles an activity query can filter by.
const (
	RoleActor        = "actor"
	RoleTarget       = "target"
	RoleActionObject = "action_object"
)

// Service is the feed query engine.
type Service struct {
	actions  repositories.ActionRepository
	streams  repositories.StreamRepository
	follows  repositories.FollowRepository
	registry *registry.Registry
}

// NewService creates a feed query service.
func NewService(
	actions repositories.ActionRepository,
	streams repositories.StreamRepository,
	follows repositories.FollowRepository,
	reg *registry.Registry,
) *Service {
	return &Service{actions: actions, streams: streams, follows: follows, registry: reg}
}

// Personalized returns the user's materialized feed, newest first. This is
// the primary read path: one indexed stream scan, no follow-graph work.
// Non-public actions are filtered out even though fan-out never writes them.
func (s *Service) Personalized(userID uint, limit int) ([]models.Action, error) {
	rows, err := s.streams.GetUserStream(userID, limit)
	if err != nil {
		return nil, err
	}
	actions := make([]models.Action, 0, len(rows))
	for i := range rows {
		if !rows[i].Action.Public {
			continue
		}
		actions = append(actions, rows[i].Action)
	}
	return actions, nil
}

// Following computes the user's feed directly from the action log and the
// follow graph, without touching the materialized stream. It serves as the
// fallback when fan-out lags and as the reference for what the stream should
// contain.
func (s *Service) Following(userID uint, limit int) ([]models.Action, error) {
	follows, err := s.follows.FollowedBy(userID)
	if err != nil {
		return nil, err
	}
	return s.actions.Query().Public().ForUser(follows).Limit(limit).Find()
}

// Public returns the most recent public actions across all users.
func (s *Service) Public(limit int) ([]models.Action, error) {
	return s.actions.Query().Public().Limit(limit).Find()
}

// Private returns the most recent non-public actions.
func (s *Service) Private(limit int) ([]models.Action, error) {
	return s.actions.Query().Private().Limit(limit).Find()
}

// EntityActivity returns public actions where the entity played the given
// role.
func (s *Service) EntityActivity(entity models.EntityRef, role string, limit int) ([]models.Action, error) {
	q := s.actions.Query().Public()
	switch role {
	case RoleActor:
		q = q.Actor(entity)
	case RoleTarget:
		q = q.Target(entity)
	case RoleActionObject:
		q = q.ActionObject(entity)
	default:
		return nil, fmt.Errorf("unknown entity role %q", role)
	}
	return q.Limit(limit).Find()
}

// Render attaches the registry-resolved verb to an action, the minimal
// contract a display layer needs.
func (s *Service) Render(action models.Action) models.RenderedAction {
	return models.RenderedAction{Action: action, Verb: s.registry.Verb(&action)}
}

// RenderAll renders a slice of actions.
func (s *Service) RenderAll(actions []models.Action) []models.RenderedAction {
	rendered := make([]models.RenderedAction, len(actions))
	for i, a := range actions {
		rendered[i] = s.Render(a)
	}
	return rendered
}
