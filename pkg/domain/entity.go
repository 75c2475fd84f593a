package domain

import (
	"time"

	"github.com/google/uuid"
)

// Entity is the header every stored document carries.
type Entity struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Version   int       `json:"version" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Base exposes the header so generic stores can stamp ids and versions.
func (e *Entity) Base() *Entity { return e }

// Stamp assigns a fresh id and initial version.
func (e *Entity) Stamp(now time.Time) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.Version = 1
	e.CreatedAt = now
	e.UpdatedAt = now
}

// Document is implemented by every type that embeds Entity.
type Document interface {
	Base() *Entity
}
