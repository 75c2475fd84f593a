// Package records serves the admin-managed entities: beneficiaries,
// volunteers, media, assessments, sessions and skills.
package records

import (
	"context"
	"log/slog"

	"github.com/amirasaad/charity/pkg/repository"
	"github.com/google/uuid"
)

// Resource is CRUD over one collection. The collection enforces the schema.
type Resource[T any] struct {
	col    repository.Collection[T]
	logger *slog.Logger
}

// NewResource wraps col.
func NewResource[T any](col repository.Collection[T], logger *slog.Logger) *Resource[T] {
	return &Resource[T]{col: col, logger: logger.With("service", "records", "collection", col.Schema().Name)}
}

// Name is the collection name.
func (r *Resource[T]) Name() string { return r.col.Schema().Name }

func (r *Resource[T]) Create(ctx context.Context, doc *T) (*T, error) {
	if err := r.col.Add(ctx, doc); err != nil {
		return nil, err
	}
	r.logger.Info("Document created", "id", repository.Entity(doc).ID)
	return doc, nil
}

func (r *Resource[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	return r.col.Get(ctx, id)
}

func (r *Resource[T]) List(ctx context.Context, filter repository.Filter) ([]*T, error) {
	return r.col.List(ctx, filter)
}

func (r *Resource[T]) Update(ctx context.Context, id uuid.UUID, patch repository.Patch) (*T, error) {
	doc, err := r.col.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Document updated", "id", id)
	return doc, nil
}

func (r *Resource[T]) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.col.Delete(ctx, id); err != nil {
		return err
	}
	r.logger.Info("Document deleted", "id", id)
	return nil
}
