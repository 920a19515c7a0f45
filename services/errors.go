package services

import (
	"errors"
	"fmt"

	"github.com/cppla/inkpost/repository"
)

// Outcomes every handler maps to a fixed HTTP status.
var (
	ErrUnauthenticated = errors.New("could not validate credentials")
	ErrForbidden       = errors.New("not allowed to modify this resource")
	ErrNotFound        = errors.New("resource not found")
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("request conflicts with existing data")
	ErrUnavailable     = errors.New("storage unavailable")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// fromStorage folds repository errors into the service taxonomy. Errors already
// in the taxonomy pass through.
func fromStorage(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrForbidden),
		errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation),
		errors.Is(err, ErrConflict), errors.Is(err, ErrUnavailable):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, repository.ErrImmutableField):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
