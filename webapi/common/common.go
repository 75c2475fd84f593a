// Package common holds the response envelope, RFC 9457 problem details and
// request binding shared by every route package.
package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/repository"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`         // HTTP status code
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`     // A URI reference that identifies the problem type
	Title    string `json:"title"`              // Short, human-readable summary
	Status   int    `json:"status"`             // HTTP status code
	Detail   string `json:"detail,omitempty"`   // Human-readable explanation
	Instance string `json:"instance,omitempty"` // URI reference that identifies the specific occurrence
	Errors   any    `json:"errors,omitempty"`   // Optional: additional error details
}

// ProblemDetailsJSON writes a problem response. The status comes from an int
// in args, else from err. A string in args replaces the detail. A 500 never
// carries the error message.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, args ...any) error {
	status := fiber.StatusInternalServerError
	if err != nil {
		status = ErrorToStatusCode(err)
	}
	var detail string
	for _, a := range args {
		switch v := a.(type) {
		case int:
			status = v
		case string:
			detail = v
		}
	}
	if detail == "" && err != nil && status != fiber.StatusInternalServerError {
		detail = err.Error()
	}

	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.OriginalURL(),
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) && verr.Field != "" {
		pd.Errors = map[string]string{verr.Field: verr.Reason}
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			out[lowerFirst(fe.Field())] = fe.Tag()
		}
		pd.Errors = out
	}
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(status).JSON(pd)
}

// SuccessResponseJSON writes the standard success envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{Status: status, Message: message, Data: data})
}

// ErrorToStatusCode maps domain errors to appropriate HTTP status codes.
func ErrorToStatusCode(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrProvider):
		return fiber.StatusBadGateway
	case errors.Is(err, domain.ErrProviderUnavailable),
		errors.Is(err, domain.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorJSON writes err with a title derived from its status.
func ErrorJSON(c *fiber.Ctx, err error) error {
	status := ErrorToStatusCode(err)
	return ProblemDetailsJSON(c, titleFor(status), err, status)
}

func titleFor(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "Invalid request"
	case fiber.StatusConflict:
		return "Conflict"
	case fiber.StatusBadGateway:
		return "Payment provider error"
	default:
		return fiber.ErrInternalServerError.Message
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// BindAndValidate parses the request body and validates it using go-playground/validator.
// Returns a pointer to the struct (populated), or writes an error response and returns nil.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, ProblemDetailsJSON(c, "Invalid request body", err, fiber.StatusBadRequest)
	}
	if err := validate.Struct(input); err != nil {
		return nil, ProblemDetailsJSON(c, "Validation failed", err, fiber.StatusBadRequest)
	}
	return &input, nil
}

// ParseID reads a uuid route parameter.
func ParseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, domain.NewValidationError(param, fmt.Sprintf("%q is not a valid id", c.Params(param)))
	}
	return id, nil
}

// QueryFilter turns the query string into an equality filter. Unknown keys
// are rejected by the collection.
func QueryFilter(c *fiber.Ctx) repository.Filter {
	q := c.Queries()
	if len(q) == 0 {
		return nil
	}
	f := make(repository.Filter, len(q))
	for k, v := range q {
		if v != "" {
			f[k] = v
		}
	}
	return f
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
