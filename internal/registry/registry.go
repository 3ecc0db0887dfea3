// Package registry maps an action's handler key to the descriptor that
// resolves its verb and any extra fan-out targets. The registry is populated
// once during startup and read-only afterwards; it is injected into the
// fan-out and feed components rather than accessed as ambient global state.
package registry

import (
	"errors"
	"fmt"

	"github.com/openfeedhq/feedengine/internal/models"
)

var (
	// ErrAlreadyRegistered is returned when a handler key is registered twice.
	// Duplicate registration is a configuration error, not a silent overwrite.
	ErrAlreadyRegistered = errors.New("handler already registered")

	// ErrUnknownHandler is returned when resolving a key nobody registered.
	ErrUnknownHandler = errors.New("unknown handler")
)

// PlaceholderVerb is used when an action references an unregistered handler.
// Read paths degrade to it instead of failing the whole feed.
const PlaceholderVerb = "did something"

// ExtraTargetsFunc computes user ids that should receive an action in
// addition to the followers yielded by the follow graph.
type ExtraTargetsFunc func(action *models.Action) []uint

// Handler describes one action type: a display verb and an optional
// extra-target computation for fan-out.
type Handler struct {
	Verb         string
	ExtraTargets ExtraTargetsFunc
}

// Registry is the process-wide handler table.
type Registry struct {
	handlers map[string]Handler
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds key to handler. Registration is first-write-wins; a second
// registration for the same key fails with ErrAlreadyRegistered.
func (r *Registry) Register(key string, handler Handler) error {
	if _, ok := r.handlers[key]; ok {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, key)
	}
	r.handlers[key] = handler
	return nil
}

// MustRegister is Register for startup wiring, where a duplicate key is fatal.
func (r *Registry) MustRegister(key string, handler Handler) {
	if err := r.Register(key, handler); err != nil {
		panic(err)
	}
}

// Resolve returns the handler bound to key, or ErrUnknownHandler.
func (r *Registry) Resolve(key string) (Handler, error) {
	handler, ok := r.handlers[key]
	if !ok {
		return Handler{}, fmt.Errorf("%w: %q", ErrUnknownHandler, key)
	}
	return handler, nil
}

// Verb resolves the display verb for an action, degrading to PlaceholderVerb
// when the handler is unregistered.
func (r *Registry) Verb(action *models.Action) string {
	handler, err := r.Resolve(action.Handler)
	if err != nil || handler.Verb == "" {
		return PlaceholderVerb
	}
	return handler.Verb
}

// ExtraTargets resolves the extra fan-out targets for an action. Unregistered
// handlers and handlers without an extra-target function yield an empty set.
func (r *Registry) ExtraTargets(action *models.Action) []uint {
	handler, err := r.Resolve(action.Handler)
	if err != nil || handler.ExtraTargets == nil {
		return nil
	}
	return handler.ExtraTargets(action)
}
