package models

import "time"

// Follow lets a user follow activities of any entity, including another user.
//
// ActorOnly controls matching: when true the edge only matches actions where
// the followed entity is the actor; when false it also matches actions where
// the entity is the target or the action object.
type Follow struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"index;uniqueIndex:ux_follows_user_entity"`
	EntityType string    `json:"entity_type" gorm:"size:100;uniqueIndex:ux_follows_user_entity"`
	EntityID   string    `json:"entity_id" gorm:"size:255;uniqueIndex:ux_follows_user_entity"`
	ActorOnly  bool      `json:"actor_only"`
	Started    time.Time `json:"started" gorm:"autoCreateTime"`
}

// Entity returns the followed entity as a polymorphic reference.
func (f *Follow) Entity() EntityRef {
	return EntityRef{Type: f.EntityType, ID: f.EntityID}
}

// CreateFollowRequest defines the request body for following an entity.
type CreateFollowRequest struct {
	Entity    EntityRefRequest `json:"entity" validate:"required"`
	ActorOnly *bool            `json:"actor_only,omitempty"`
}
