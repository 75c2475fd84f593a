// Package repository defines the record store contract: typed collections
// with an explicit schema enforced at the store boundary.
package repository

import (
	"context"

	"github.com/google/uuid"
)

// Filter selects documents by exact match on filterable fields, keyed by
// their JSON name.
type Filter map[string]string

// Patch is a partial update keyed by JSON field name.
type Patch map[string]any

// Collection provides type-safe CRUD over one named collection.
type Collection[T any] interface {
	// Schema describes the collection's mutable, filterable and unique fields.
	Schema() Schema
	// Add stamps id, version and timestamps, validates and inserts doc.
	Add(ctx context.Context, doc *T) error
	// Get returns the document or domain.ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*T, error)
	// List returns documents matching every filter entry, oldest first.
	List(ctx context.Context, filter Filter) ([]*T, error)
	// Update applies an admin patch limited to the schema's mutable fields.
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*T, error)
	// Save writes doc if its version still matches the stored one and bumps
	// the version. A stale version yields domain.ErrConflict.
	Save(ctx context.Context, doc *T) error
	// Delete removes the document. References to it are not checked.
	Delete(ctx context.Context, id uuid.UUID) error
}
