package models

import "time"

// Action describes a single event: an actor did something, optionally with
// an action object, optionally on a target.
//
// Naming convention from http://activitystrea.ms/specs/atom/1.0/
type Action struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Handler string `json:"handler" gorm:"size:255;index"`

	Actor        EntityRef `json:"actor" gorm:"embedded;embeddedPrefix:actor_"`
	ActionObject EntityRef `json:"action_object" gorm:"embedded;embeddedPrefix:action_object_"`
	Target       EntityRef `json:"target" gorm:"embedded;embeddedPrefix:target_"`

	Created  time.Time `json:"created" gorm:"index;autoCreateTime"`
	Public   bool      `json:"public"`
	IsGlobal bool      `json:"is_global"`
}

// EntityRefRequest is the wire form of an entity reference.
type EntityRefRequest struct {
	Type string `json:"type" validate:"required,max=100"`
	ID   string `json:"id" validate:"required,max=255"`
}

func (r EntityRefRequest) Ref() EntityRef {
	return EntityRef{Type: r.Type, ID: r.ID}
}

// CreateActionRequest defines the request body for recording an action.
type CreateActionRequest struct {
	Handler      string            `json:"handler" validate:"required,max=255"`
	Actor        EntityRefRequest  `json:"actor" validate:"required"`
	ActionObject *EntityRefRequest `json:"action_object,omitempty"`
	Target       *EntityRefRequest `json:"target,omitempty"`
	Public       *bool             `json:"public,omitempty"`
	IsGlobal     bool              `json:"is_global,omitempty"`
}

// RenderedAction is the minimal contract a rendering collaborator needs:
// the raw action fields plus the registry-resolved verb.
type RenderedAction struct {
	Action
	Verb string `json:"verb"`
}
