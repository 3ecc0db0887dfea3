package repositories

import (
	"strings"

	"github.com/openfeedhq/feedengine/internal/models"
	"gorm.io/gorm"
)

// ActionRepository defines the interface for the append-only action log
type ActionRepository interface {
	CreateAction(action *models.Action) error
	GetActionByID(id uint) (*models.Action, error)
	Query() *ActionQuery
}

// PostgresActionRepository implements ActionRepository for PostgreSQL
type PostgresActionRepository struct {
	db *gorm.DB
}

// NewPostgresActionRepository creates a new PostgresActionRepository
func NewPostgresActionRepository(db *gorm.DB) *PostgresActionRepository {
	return &PostgresActionRepository{db: db}
}

// CreateAction appends an action to the log
func (r *PostgresActionRepository) CreateAction(action *models.Action) error {
	return r.db.Create(action).Error
}

// GetActionByID retrieves an action by ID
func (r *PostgresActionRepository) GetActionByID(id uint) (*models.Action, error) {
	var action models.Action
	if err := r.db.First(&action, id).Error; err != nil {
		return nil, err
	}
	return &action, nil
}

// Query starts a new action query, ordered newest first.
func (r *PostgresActionRepository) Query() *ActionQuery {
	return &ActionQuery{db: r.db.Model(&models.Action{}).Order("created DESC, id DESC")}
}

// ActionQuery composes filter predicates over the action log through named
// methods. Each method narrows the query and returns the same builder, so
// filters chain: Query().Public().Actor(e).Limit(10).Find().
type ActionQuery struct {
	db   *gorm.DB
	none bool
}

// Public keeps only public actions
func (q *ActionQuery) Public() *ActionQuery {
	q.db = q.db.Where("public = ?", true)
	return q
}

// Private keeps only private actions
func (q *ActionQuery) Private() *ActionQuery {
	q.db = q.db.Where("public = ?", false)
	return q
}

// Actor keeps actions where the given entity is the actor
func (q *ActionQuery) Actor(entity models.EntityRef) *ActionQuery {
	q.db = q.db.Where("actor_type = ? AND actor_id = ?", entity.Type, entity.ID)
	return q
}

// Target keeps actions where the given entity is the target
func (q *ActionQuery) Target(entity models.EntityRef) *ActionQuery {
	q.db = q.db.Where("target_type = ? AND target_id = ?", entity.Type, entity.ID)
	return q
}

// ActionObject keeps actions where the given entity is the action object
func (q *ActionQuery) ActionObject(entity models.EntityRef) *ActionQuery {
	q.db = q.db.Where("action_object_type = ? AND action_object_id = ?", entity.Type, entity.ID)
	return q
}

// ForUser keeps actions from entities the given follow edges subscribe to.
// Every edge matches on the actor; edges without actor_only additionally
// match on the target and the action object. The whole disjunction runs as
// one filter so an actor-only edge can never match through a target clause.
// With no edges the query short-circuits to empty without hitting the store.
func (q *ActionQuery) ForUser(follows []models.Follow) *ActionQuery {
	if len(follows) == 0 {
		q.none = true
		return q
	}

	var conds []string
	var args []interface{}
	for i := range follows {
		f := &follows[i]
		conds = append(conds, "(actor_type = ? AND actor_id = ?)")
		args = append(args, f.EntityType, f.EntityID)
		if !f.ActorOnly {
			conds = append(conds,
				"(target_type = ? AND target_id = ?)",
				"(action_object_type = ? AND action_object_id = ?)")
			args = append(args, f.EntityType, f.EntityID, f.EntityType, f.EntityID)
		}
	}
	q.db = q.db.Where(strings.Join(conds, " OR "), args...)
	return q
}

// Limit caps the number of returned actions
func (q *ActionQuery) Limit(n int) *ActionQuery {
	q.db = q.db.Limit(n)
	return q
}

// Find executes the query
func (q *ActionQuery) Find() ([]models.Action, error) {
	if q.none {
		return nil, nil
	}
	var actions []models.Action
	if err := q.db.Find(&actions).Error; err != nil {
		return nil, err
	}
	return actions, nil
}
