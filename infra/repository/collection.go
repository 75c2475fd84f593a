package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Collection implements repository.Collection on top of GORM. Every write
// is checked against the schema and the document's version.
type Collection[T any] struct {
	db     *gorm.DB
	schema repository.Schema
	now    func() time.Time
}

// NewCollection creates a GORM-backed collection.
func NewCollection[T any](db *gorm.DB, schema repository.Schema) *Collection[T] {
	return &Collection[T]{
		db:     db,
		schema: schema,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (c *Collection[T]) Schema() repository.Schema { return c.schema }

// Add validates and inserts doc.
func (c *Collection[T]) Add(ctx context.Context, doc *T) error {
	repository.Entity(doc).Stamp(c.now())
	if err := repository.Validate(doc); err != nil {
		return err
	}
	return c.mapErr("add", c.db.WithContext(ctx).Create(doc).Error)
}

// Get retrieves a document by ID.
func (c *Collection[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	var doc T
	err := c.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if err != nil {
		return nil, c.mapErr("get", err)
	}
	return &doc, nil
}

// List retrieves documents matching filter, oldest first.
func (c *Collection[T]) List(ctx context.Context, filter repository.Filter) ([]*T, error) {
	if err := c.schema.CheckFilter(filter); err != nil {
		return nil, err
	}
	q := c.db.WithContext(ctx)
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		col, err := c.column(k)
		if err != nil {
			return nil, err
		}
		q = q.Where(fmt.Sprintf("%q = ?", col), filter[k])
	}
	var docs []*T
	if err := q.Order("created_at asc").Find(&docs).Error; err != nil {
		return nil, c.mapErr("list", err)
	}
	return docs, nil
}

// Update applies an admin patch and saves the result.
func (c *Collection[T]) Update(ctx context.Context, id uuid.UUID, patch repository.Patch) (*T, error) {
	doc, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := repository.ApplyPatch(c.schema, doc, patch); err != nil {
		return nil, err
	}
	if err := c.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Save writes doc only when the stored version still matches.
func (c *Collection[T]) Save(ctx context.Context, doc *T) error {
	if err := repository.Validate(doc); err != nil {
		return err
	}
	e := repository.Entity(doc)
	prev, prevUpdated := e.Version, e.UpdatedAt
	e.Version = prev + 1
	e.UpdatedAt = c.now()

	res := c.db.WithContext(ctx).
		Model(doc).
		Where("version = ?", prev).
		Select("*").
		Omit("id", "created_at").
		Updates(doc)
	if res.Error != nil {
		e.Version, e.UpdatedAt = prev, prevUpdated
		return c.mapErr("save", res.Error)
	}
	if res.RowsAffected == 0 {
		e.Version, e.UpdatedAt = prev, prevUpdated
		if _, err := c.Get(ctx, e.ID); err != nil {
			return err
		}
		return fmt.Errorf("%s %s version %d: %w", c.schema.Name, e.ID, prev, domain.ErrConflict)
	}
	return nil
}

// Delete removes a document by ID.
func (c *Collection[T]) Delete(ctx context.Context, id uuid.UUID) error {
	res := c.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return c.mapErr("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (c *Collection[T]) column(key string) (string, error) {
	name, ok := repository.GoField(reflect.TypeOf((*T)(nil)), key)
	if !ok {
		return "", domain.NewValidationError(key, "is not a field of "+c.schema.Name)
	}
	return c.db.NamingStrategy.ColumnName("", name), nil
}

func (c *Collection[T]) mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrValidation) {
		return err
	}
	return MapGormErrorToDomain(op, c.schema.Name, err)
}
