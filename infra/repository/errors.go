package repository

import (
	"errors"

	"github.com/amirasaad/charity/pkg/domain"
	"gorm.io/gorm"
)

// MapGormErrorToDomain converts GORM errors to domain errors.
// Traverses the error chain; anything it does not recognise becomes a
// domain.StoreError so persistence failures are never mistaken for input errors.
func MapGormErrorToDomain(op, collection string, err error) error {
	if err == nil {
		return nil
	}

	currentErr := err
	for currentErr != nil {
		switch {
		case errors.Is(currentErr, gorm.ErrDuplicatedKey):
			return domain.ErrAlreadyExists
		case errors.Is(currentErr, gorm.ErrRecordNotFound):
			return domain.ErrNotFound
		case errors.Is(currentErr, domain.ErrConflict),
			errors.Is(currentErr, domain.ErrValidation):
			return currentErr
		}
		currentErr = errors.Unwrap(currentErr)
	}

	return &domain.StoreError{Op: op, Collection: collection, Err: err}
}
