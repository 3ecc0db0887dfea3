package models

// EntityRef is a polymorphic reference to any entity in the system.
// Actions and follows never point at a single table; they carry a type
// discriminator plus an opaque id, and equality always compares both.
type EntityRef struct {
	Type string `json:"type" gorm:"size:100"`
	ID   string `json:"id" gorm:"size:255"`
}

// IsZero reports whether the reference is unset.
func (e EntityRef) IsZero() bool {
	return e.Type == "" && e.ID == ""
}

func (e EntityRef) String() string {
	if e.IsZero() {
		return ""
	}
	return e.Type + ":" + e.ID
}
