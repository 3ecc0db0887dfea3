package repositories

import (
	"fmt"

	"github.com/openfeedhq/feedengine/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAlreadyFollowing is returned when the follow edge already exists.
var ErrAlreadyFollowing = fmt.Errorf("already following this entity")

// FollowRepository defines the interface for the follow graph
type FollowRepository interface {
	CreateFollow(follow *models.Follow) error
	DeleteFollow(userID uint, entity models.EntityRef) error
	IsFollowing(userID uint, entity models.EntityRef) (bool, error)
	FollowersOf(entity models.EntityRef, actorOnly bool) ([]uint, error)
	FollowedBy(userID uint, entityTypes ...string) ([]models.Follow, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

// CreateFollow inserts the edge if absent. Concurrent attempts race on the
// (user, entity) unique index; the loser gets ErrAlreadyFollowing.
func (r *PostgresFollowRepository) CreateFollow(follow *models.Follow) error {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(follow)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyFollowing
	}
	return nil
}

// DeleteFollow removes the edge
func (r *PostgresFollowRepository) DeleteFollow(userID uint, entity models.EntityRef) error {
	res := r.db.Where("user_id = ? AND entity_type = ? AND entity_id = ?",
		userID, entity.Type, entity.ID).Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("follow relationship not found")
	}
	return nil
}

// IsFollowing reports whether the user follows the entity. An absent or
// anonymous user (id 0) never follows anything.
func (r *PostgresFollowRepository) IsFollowing(userID uint, entity models.EntityRef) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var count int64
	err := r.db.Model(&models.Follow{}).
		Where("user_id = ? AND entity_type = ? AND entity_id = ?", userID, entity.Type, entity.ID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FollowersOf returns ids of users following the entity. With actorOnly set
// the result is restricted to actor-only edges, the set fan-out targets.
func (r *PostgresFollowRepository) FollowersOf(entity models.EntityRef, actorOnly bool) ([]uint, error) {
	q := r.db.Model(&models.Follow{}).
		Where("entity_type = ? AND entity_id = ?", entity.Type, entity.ID)
	if actorOnly {
		q = q.Where("actor_only = ?", true)
	}
	var ids []uint
	if err := q.Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// FollowedBy returns the user's follow edges, optionally restricted to the
// given entity types.
func (r *PostgresFollowRepository) FollowedBy(userID uint, entityTypes ...string) ([]models.Follow, error) {
	q := r.db.Where("user_id = ?", userID)
	if len(entityTypes) > 0 {
		q = q.Where("entity_type IN ?", entityTypes)
	}
	var follows []models.Follow
	if err := q.Find(&follows).Error; err != nil {
		return nil, err
	}
	return follows, nil
}
