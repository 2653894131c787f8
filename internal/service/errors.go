package service

import (
	"errors"
	"strings"

	"go-utang-ledger/internal/repository"
	"go-utang-ledger/pkg/validator"
)

var (
	ErrUnknownResource = errors.New("unknown resource")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = repository.ErrNotFound
	ErrConflict        = repository.ErrConflict
	ErrInvalidBody     = errors.New("invalid request body")
)

// ValidationError is a rejected payload. Fields is empty when the failure is
// not tied to a single field.
type ValidationError struct {
	Message string
	Fields  []*validator.ErrorResponse
}

func (e *ValidationError) Error() string { return e.Message }

func validationFailed(errs []*validator.ErrorResponse) error {
	return &ValidationError{Message: validator.Message(errs), Fields: errs}
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// fromRepo turns a dangling reference into a validation failure; every other
// error passes through.
func fromRepo(err error) error {
	if errors.Is(err, repository.ErrInvalidReference) {
		return invalid(strings.TrimPrefix(err.Error(), repository.ErrInvalidReference.Error()+": "))
	}
	return err
}
