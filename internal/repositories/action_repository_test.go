package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/openfeedhq/feedengine/internal/models"
)

func seedAction(t *testing.T, repo *PostgresActionRepository, action models.Action) models.Action {
	t.Helper()
	require.NoError(t, repo.CreateAction(&action))
	return action
}

func actionIDs(actions []models.Action) []uint {
	ids := make([]uint, len(actions))
	for i, a := range actions {
		ids[i] = a.ID
	}
	return ids
}

func TestGetActionByID(t *testing.T) {
	repo := NewPostgresActionRepository(newTestDB(t))

	created := seedAction(t, repo, models.Action{
		Handler: "post.created",
		Actor:   models.EntityRef{Type: "user", ID: "1"},
		Public:  true,
	})

	got, err := repo.GetActionByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "post.created", got.Handler)
	assert.Equal(t, models.EntityRef{Type: "user", ID: "1"}, got.Actor)

	_, err = repo.GetActionByID(9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestQueryPublicPrivate(t *testing.T) {
	repo := NewPostgresActionRepository(newTestDB(t))

	pub := seedAction(t, repo, models.Action{Handler: "h", Actor: models.EntityRef{Type: "user", ID: "1"}, Public: true})
	priv := seedAction(t, repo, models.Action{Handler: "h", Actor: models.EntityRef{Type: "user", ID: "1"}, Public: false})

	got, err := repo.Query().Public().Find()
	require.NoError(t, err)
	assert.Equal(t, []uint{pub.ID}, actionIDs(got))

	got, err = repo.Query().Private().Find()
	require.NoError(t, err)
	assert.Equal(t, []uint{priv.ID}, actionIDs(got))
}

func TestQueryByRole(t *testing.T) {
	repo := NewPostgresActionRepository(newTestDB(t))
	e := models.EntityRef{Type: "project", ID: "7"}

	asActor := seedAction(t, repo, models.Action{Handler: "h", Actor: e, Public: true})
	asTarget := seedAction(t, repo, models.Action{
		Handler: "h", Actor: models.EntityRef{Type: "user", ID: "1"}, Target: e, Public: true,
	})
	asObject := seedAction(t, repo, models.Action{
		Handler: "h", Actor: models.EntityRef{Type: "user", ID: "1"}, ActionObject: e, Public: true,
	})
	// same id, different type must never match
	seedAction(t, repo, models.Action{Handler: "h", Actor: models.EntityRef{Type: "user", ID: "7"}, Public: true})

	got, err := repo.Query().Actor(e).Find()
	require.NoError(t, err)
	assert.Equal(t, []uint{asActor.ID}, actionIDs(got))

	got, err = repo.Query().Target(e).Find()
	require.NoError(t, err)
	assert.Equal(t, []uint{asTarget.ID}, actionIDs(got))

	got, err = repo.Query().ActionObject(e).Find()
	require.NoError(t, err)
	assert.Equal(t, []uint{asObject.ID}, actionIDs(got))
}

func TestQueryOrderingNewestFirst(t *testing.T) {
	repo := NewPostgresActionRepository(newTestDB(t))

	first := seedAction(t, repo, models.Action{Handler: "h", Actor: models.EntityRef{Type: "user", ID: "1"}, Public: true})
	second := seedAction(t, repo, models.Action{Handler: "h", Actor: models.EntityRef{Type: "user", ID: "1"}, Public: true})
	third := seedAction(t, repo, models.Action{Handler: "h", Actor: models.EntityRef{Type: "user", ID: "1"}, Public: true})

	got, err := repo.Query().Public().Find()
	require.NoError(t, err)
	assert.Equal(t, []uint{third.ID, second.ID, first.ID}, actionIDs(got))

	limited, err := repo.Query().Public().Limit(2).Find()
	require.NoError(t, err)
	assert.Equal(t, []uint{third.ID, second.ID}, actionIDs(limited))
}

func TestQueryForUser(t *testing.T) {
	repo := NewPostgresActionRepository(newTestDB(t))
	followed := models.EntityRef{Type: "user", ID: "5"}

	byFollowed := seedAction(t, repo, models.Action{Handler: "h", Actor: followed, Public: true})
	onFollowed := seedAction(t, repo, models.Action{
		Handler: "h", Actor: models.EntityRef{Type: "user", ID: "9"}, Target: followed, Public: true,
	})
	withFollowed := seedAction(t, repo, models.Action{
		Handler: "h", Actor: models.EntityRef{Type: "user", ID: "9"}, ActionObject: followed, Public: true,
	})
	seedAction(t, repo, models.Action{Handler: "h", Actor: models.EntityRef{Type: "user", ID: "9"}, Public: true})

	actorOnlyEdge := []models.Follow{{UserID: 1, EntityType: followed.Type, EntityID: followed.ID, ActorOnly: true}}
	fullEdge := []models.Follow{{UserID: 2, EntityType: followed.Type, EntityID: followed.ID, ActorOnly: false}}

	// actor-only edge matches actor actions and nothing else
	got, err := repo.Query().Public().ForUser(actorOnlyEdge).Find()
	require.NoError(t, err)
	assert.Equal(t, []uint{byFollowed.ID}, actionIDs(got))

	// full edge matches actor, target and action-object actions
	got, err = repo.Query().Public().ForUser(fullEdge).Find()
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{byFollowed.ID, onFollowed.ID, withFollowed.ID}, actionIDs(got))
}

func TestQueryForUserNoFollowsShortCircuits(t *testing.T) {
	repo := NewPostgresActionRepository(newTestDB(t))
	seedAction(t, repo, models.Action{Handler: "h", Actor: models.EntityRef{Type: "user", ID: "1"}, Public: true})

	got, err := repo.Query().Public().ForUser(nil).Find()
	require.NoError(t, err)
	assert.Empty(t, got)
}
