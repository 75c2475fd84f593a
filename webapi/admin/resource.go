package admin

import (
	"context"

	"github.com/amirasaad/charity/pkg/repository"
	"github.com/amirasaad/charity/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// resource is CRUD over one admin-managed collection.
type resource[T any] interface {
	Name() string
	Create(ctx context.Context, doc *T) (*T, error)
	Get(ctx context.Context, id uuid.UUID) (*T, error)
	List(ctx context.Context, filter repository.Filter) ([]*T, error)
	Update(ctx context.Context, id uuid.UUID, patch repository.Patch) (*T, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// mount registers list, create, get, update and delete under path. A nil
// create uses the plain resource create.
func mount[T any](r fiber.Router, path string, res resource[T], create fiber.Handler) {
	if create == nil {
		create = Create(res)
	}
	r.Get(path, List(res))
	r.Post(path, create)
	r.Get(path+"/:id", Get(res))
	r.Put(path+"/:id", Update(res))
	r.Delete(path+"/:id", Delete(res))
}

func List[T any](res resource[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := res.List(c.Context(), common.QueryFilter(c))
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		if docs == nil {
			docs = []*T{}
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, res.Name()+" fetched", docs)
	}
}

func Create[T any](res resource[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc := new(T)
		if err := c.BodyParser(doc); err != nil {
			return common.ProblemDetailsJSON(c, "Invalid request body", err, fiber.StatusBadRequest)
		}
		created, err := res.Create(c.Context(), doc)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, res.Name()+" created", created)
	}
}

func Get[T any](res resource[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		doc, err := res.Get(c.Context(), id)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, res.Name()+" fetched", doc)
	}
}

func Update[T any](res resource[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		var patch repository.Patch
		if err := c.BodyParser(&patch); err != nil {
			return common.ProblemDetailsJSON(c, "Invalid request body", err, fiber.StatusBadRequest)
		}
		doc, err := res.Update(c.Context(), id, patch)
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, res.Name()+" updated", doc)
	}
}

func Delete[T any](res resource[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ErrorJSON(c, err)
		}
		if err := res.Delete(c.Context(), id); err != nil {
			return common.ErrorJSON(c, err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, res.Name()+" deleted", nil)
	}
}
