package repositories

import (
	"github.com/openfeedhq/feedengine/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StreamRepository defines the interface for materialized per-user feeds
type StreamRepository interface {
	CreateBatch(rows []models.Stream) (int64, error)
	GetUserStream(userID uint, limit int) ([]models.Stream, error)
	CountForAction(actionID uint) (int64, error)
}

// PostgresStreamRepository implements StreamRepository for PostgreSQL
type PostgresStreamRepository struct {
	db *gorm.DB
}

// NewPostgresStreamRepository creates a new PostgresStreamRepository
func NewPostgresStreamRepository(db *gorm.DB) *PostgresStreamRepository {
	return &PostgresStreamRepository{db: db}
}

// CreateBatch inserts stream rows, silently skipping (user, action) pairs
// that already exist. Returns the number of rows actually written. The
// insert-ignore semantics make repeated fan-out runs converge on the same
// row set instead of failing on the unique index.
func (r *PostgresStreamRepository) CreateBatch(rows []models.Stream) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// GetUserStream returns the user's most recent stream rows with their
// actions, newest action first.
func (r *PostgresStreamRepository) GetUserStream(userID uint, limit int) ([]models.Stream, error) {
	var rows []models.Stream
	err := r.db.
		Select("streams.*").
		Joins("JOIN actions ON actions.id = streams.action_id").
		Where("streams.user_id = ?", userID).
		Order("actions.created DESC, actions.id DESC").
		Limit(limit).
		Preload("Action").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountForAction returns how many users have the action in their stream
func (r *PostgresStreamRepository) CountForAction(actionID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Stream{}).Where("action_id = ?", actionID).Count(&count).Error
	return count, err
}
