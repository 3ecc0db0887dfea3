package models

import "time"

// Stream is one user's materialized feed entry. Rows are pre-populated by the
// fan-out engine so feed reads never scan the actions table. The composite
// unique index makes duplicate fan-out runs a no-op per (user, action) pair.
type Stream struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:ux_streams_user_action"`
	ActionID  uint      `json:"action_id" gorm:"uniqueIndex:ux_streams_user_action"`
	CreatedAt time.Time `json:"created_at"`

	Action Action `json:"action" gorm:"foreignKey:ActionID"`
}
