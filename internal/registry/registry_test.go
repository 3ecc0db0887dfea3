package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfeedhq/feedengine/internal/models"
)

func TestRegisterAndResolve(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("post.created", Handler{Verb: "posted"}))

	h, err := r.Resolve("post.created")
	require.NoError(t, err)
	assert.Equal(t, "posted", h.Verb)
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("post.created", Handler{Verb: "posted"}))

	err := r.Register("post.created", Handler{Verb: "re-posted"})
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	// first registration wins
	h, err := r.Resolve("post.created")
	require.NoError(t, err)
	assert.Equal(t, "posted", h.Verb)
}

func TestResolveUnknown(t *testing.T) {
	r := New()
	_, err := r.Resolve("nope")
	assert.ErrorIs(t, err, ErrUnknownHandler)
}

func TestVerbDegradesToPlaceholder(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("comment.created", Handler{Verb: "commented on"}))

	known := &models.Action{Handler: "comment.created"}
	unknown := &models.Action{Handler: "never.registered"}

	assert.Equal(t, "commented on", r.Verb(known))
	assert.Equal(t, PlaceholderVerb, r.Verb(unknown))
}

func TestExtraTargets(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("announcement", Handler{
		Verb: "announced",
		ExtraTargets: func(a *models.Action) []uint {
			return []uint{7, 8}
		},
	}))
	require.NoError(t, r.Register("plain", Handler{Verb: "did"}))

	assert.Equal(t, []uint{7, 8}, r.ExtraTargets(&models.Action{Handler: "announcement"}))
	assert.Empty(t, r.ExtraTargets(&models.Action{Handler: "plain"}))
	assert.Empty(t, r.ExtraTargets(&models.Action{Handler: "unregistered"}))
}
