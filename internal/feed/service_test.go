package feed

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openfeedhq/feedengine/internal/fanout"
	"github.com/openfeedhq/feedengine/internal/models"
	"github.com/openfeedhq/feedengine/internal/registry"
	"github.com/openfeedhq/feedengine/internal/repositories"
)

type testEnv struct {
	actions  *repositories.PostgresActionRepository
	follows  *repositories.PostgresFollowRepository
	streams  *repositories.PostgresStreamRepository
	users    *repositories.PostgresUserRepository
	registry *registry.Registry
	service  *Service
	engine   *fanout.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Action{},
		&models.Follow{},
		&models.Stream{},
	))

	env := &testEnv{
		actions:  repositories.NewPostgresActionRepository(db),
		follows:  repositories.NewPostgresFollowRepository(db),
		streams:  repositories.NewPostgresStreamRepository(db),
		users:    repositories.NewPostgresUserRepository(db),
		registry: registry.New(),
	}
	env.service = NewService(env.actions, env.streams, env.follows, env.registry)
	env.engine = fanout.New(env.actions, env.follows, env.streams, env.users, env.registry, fanout.Options{
		Logger: zerolog.Nop(),
	})
	return env
}

func (env *testEnv) addAction(t *testing.T, action models.Action) models.Action {
	t.Helper()
	require.NoError(t, env.actions.CreateAction(&action))
	return action
}

func (env *testEnv) follow(t *testing.T, userID uint, entity models.EntityRef, actorOnly bool) {
	t.Helper()
	require.NoError(t, env.follows.CreateFollow(&models.Follow{
		UserID: userID, EntityType: entity.Type, EntityID: entity.ID, ActorOnly: actorOnly,
	}))
}

func (env *testEnv) fanout(t *testing.T, actionID uint) {
	t.Helper()
	_, err := env.engine.Fanout(context.Background(), actionID, 0)
	require.NoError(t, err)
}

func actionIDs(actions []models.Action) []uint {
	ids := make([]uint, len(actions))
	for i, a := range actions {
		ids[i] = a.ID
	}
	return ids
}

// U1 follows E actor-only: actions by E show up, actions on E do not.
// U2 follows E full-object: both show up in the log-based feed.
func TestFollowingFeedMatchingRules(t *testing.T) {
	env := newTestEnv(t)
	e := models.EntityRef{Type: "user", ID: "E"}
	f := models.EntityRef{Type: "project", ID: "F"}
	g := models.EntityRef{Type: "user", ID: "G"}

	env.follow(t, 1, e, true)
	env.follow(t, 2, e, false)

	byE := env.addAction(t, models.Action{Handler: "h", Actor: e, Target: f, Public: true})
	onE := env.addAction(t, models.Action{Handler: "h", Actor: g, Target: e, Public: true})

	u1Feed, err := env.service.Following(1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{byE.ID}, actionIDs(u1Feed))

	u2Feed, err := env.service.Following(2, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{byE.ID, onE.ID}, actionIDs(u2Feed))
}

func TestFollowingFeedExcludesPrivateActions(t *testing.T) {
	env := newTestEnv(t)
	e := models.EntityRef{Type: "user", ID: "E"}
	env.follow(t, 1, e, true)

	pub := env.addAction(t, models.Action{Handler: "h", Actor: e, Public: true})
	env.addAction(t, models.Action{Handler: "h", Actor: e, Public: false})

	got, err := env.service.Following(1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{pub.ID}, actionIDs(got))
}

func TestFollowingFeedEmptyWithoutFollows(t *testing.T) {
	env := newTestEnv(t)
	env.addAction(t, models.Action{Handler: "h", Actor: models.EntityRef{Type: "user", ID: "E"}, Public: true})

	got, err := env.service.Following(1, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPersonalizedFeedAfterFanout(t *testing.T) {
	env := newTestEnv(t)
	e := models.EntityRef{Type: "user", ID: "E"}
	env.follow(t, 1, e, true)

	first := env.addAction(t, models.Action{Handler: "h", Actor: e, Public: true})
	second := env.addAction(t, models.Action{Handler: "h", Actor: e, Public: true})
	env.fanout(t, first.ID)
	env.fanout(t, second.ID)

	got, err := env.service.Personalized(1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{second.ID, first.ID}, actionIDs(got))

	// an uninvolved user sees nothing
	got, err = env.service.Personalized(99, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// Even if a private action somehow lands in a stream, reads filter it out.
func TestPersonalizedFeedFiltersPrivateDefenseInDepth(t *testing.T) {
	env := newTestEnv(t)
	private := env.addAction(t, models.Action{
		Handler: "h", Actor: models.EntityRef{Type: "user", ID: "E"}, Public: false,
	})
	_, err := env.streams.CreateBatch([]models.Stream{{UserID: 1, ActionID: private.ID}})
	require.NoError(t, err)

	got, err := env.service.Personalized(1, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPublicAndPrivateFeeds(t *testing.T) {
	env := newTestEnv(t)
	e := models.EntityRef{Type: "user", ID: "E"}

	pub := env.addAction(t, models.Action{Handler: "h", Actor: e, Public: true})
	priv := env.addAction(t, models.Action{Handler: "h", Actor: e, Public: false})

	got, err := env.service.Public(10)
	require.NoError(t, err)
	assert.Equal(t, []uint{pub.ID}, actionIDs(got))

	got, err = env.service.Private(10)
	require.NoError(t, err)
	assert.Equal(t, []uint{priv.ID}, actionIDs(got))
}

func TestEntityActivity(t *testing.T) {
	env := newTestEnv(t)
	e := models.EntityRef{Type: "project", ID: "7"}

	asActor := env.addAction(t, models.Action{Handler: "h", Actor: e, Public: true})
	asTarget := env.addAction(t, models.Action{
		Handler: "h", Actor: models.EntityRef{Type: "user", ID: "1"}, Target: e, Public: true,
	})
	asObject := env.addAction(t, models.Action{
		Handler: "h", Actor: models.EntityRef{Type: "user", ID: "1"}, ActionObject: e, Public: true,
	})

	got, err := env.service.EntityActivity(e, RoleActor, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{asActor.ID}, actionIDs(got))

	got, err = env.service.EntityActivity(e, RoleTarget, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{asTarget.ID}, actionIDs(got))

	got, err = env.service.EntityActivity(e, RoleActionObject, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{asObject.ID}, actionIDs(got))

	_, err = env.service.EntityActivity(e, "owner", 10)
	assert.Error(t, err)
}

func TestRenderResolvesVerb(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.registry.Register("post.created", registry.Handler{Verb: "posted"}))

	known := models.Action{Handler: "post.created", Actor: models.EntityRef{Type: "user", ID: "1"}}
	unknown := models.Action{Handler: "mystery", Actor: models.EntityRef{Type: "user", ID: "1"}}

	assert.Equal(t, "posted", env.service.Render(known).Verb)
	assert.Equal(t, registry.PlaceholderVerb, env.service.Render(unknown).Verb)
}
