// Package memory is an in-process record store used for local runs without
// a database and in tests. It enforces the same schema, uniqueness and
// version rules as the GORM store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/repository"
	"github.com/google/uuid"
)

// Collection stores documents in a map guarded by a RWMutex. Documents are
// copied on the way in and out so callers never share memory with the store.
type Collection[T any] struct {
	mu     sync.RWMutex
	docs   map[uuid.UUID]*T
	schema repository.Schema
	now    func() time.Time
}

// NewCollection creates an empty in-memory collection.
func NewCollection[T any](schema repository.Schema) *Collection[T] {
	return &Collection[T]{
		docs:   make(map[uuid.UUID]*T),
		schema: schema,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (c *Collection[T]) Schema() repository.Schema { return c.schema }

func (c *Collection[T]) Add(_ context.Context, doc *T) error {
	repository.Entity(doc).Stamp(c.now())
	if err := repository.Validate(doc); err != nil {
		return err
	}
	stored, err := repository.Clone(doc)
	if err != nil {
		return c.storeErr("add", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	id := repository.Entity(doc).ID
	if _, exists := c.docs[id]; exists {
		return domain.ErrAlreadyExists
	}
	if err := c.checkUnique(stored, id); err != nil {
		return err
	}
	c.docs[id] = stored
	return nil
}

func (c *Collection[T]) Get(_ context.Context, id uuid.UUID) (*T, error) {
	c.mu.RLock()
	doc, ok := c.docs[id]
	c.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	out, err := repository.Clone(doc)
	if err != nil {
		return nil, c.storeErr("get", err)
	}
	return out, nil
}

func (c *Collection[T]) List(_ context.Context, filter repository.Filter) ([]*T, error) {
	if err := c.schema.CheckFilter(filter); err != nil {
		return nil, err
	}
	c.mu.RLock()
	matched := make([]*T, 0, len(c.docs))
	for _, doc := range c.docs {
		if repository.Matches(doc, filter) {
			matched = append(matched, doc)
		}
	}
	c.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := repository.Entity(matched[i]), repository.Entity(matched[j])
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID.String() < b.ID.String()
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	out := make([]*T, 0, len(matched))
	for _, doc := range matched {
		cp, err := repository.Clone(doc)
		if err != nil {
			return nil, c.storeErr("list", err)
		}
		out = append(out, cp)
	}
	return out, nil
}

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

func (c *Collection[T]) Save(_ context.Context, doc *T) error {
	if err := repository.Validate(doc); err != nil {
		return err
	}
	e := repository.Entity(doc)

	c.mu.Lock()
	defer c.mu.Unlock()
	current, ok := c.docs[e.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if repository.Entity(current).Version != e.Version {
		return fmt.Errorf("%s %s version %d: %w", c.schema.Name, e.ID, e.Version, domain.ErrConflict)
	}
	next, err := repository.Clone(doc)
	if err != nil {
		return c.storeErr("save", err)
	}
	if err := c.checkUnique(next, e.ID); err != nil {
		return err
	}
	ne := repository.Entity(next)
	ne.Version = e.Version + 1
	ne.UpdatedAt = c.now()
	ne.CreatedAt = repository.Entity(current).CreatedAt
	c.docs[e.ID] = next

	e.Version = ne.Version
	e.UpdatedAt = ne.UpdatedAt
	return nil
}

func (c *Collection[T]) Delete(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(c.docs, id)
	return nil
}

// checkUnique must be called with the write lock held.
func (c *Collection[T]) checkUnique(doc *T, self uuid.UUID) error {
	for _, key := range c.schema.Unique {
		want, ok := repository.FieldString(doc, key)
		if !ok || want == "" {
			continue
		}
		for id, other := range c.docs {
			if id == self {
				continue
			}
			if got, ok := repository.FieldString(other, key); ok && got == want {
				return fmt.Errorf("%s.%s %q: %w", c.schema.Name, key, want, domain.ErrAlreadyExists)
			}
		}
	}
	return nil
}

func (c *Collection[T]) storeErr(op string, err error) error {
	return &domain.StoreError{Op: op, Collection: c.schema.Name, Err: err}
}
