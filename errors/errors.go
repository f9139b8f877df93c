package errors

import (
	stderrors "errors"
	"fmt"
)

// Taxonomy shared by the store, the services and the HTTP surface.
// Callers wrap them with %w and test with errors.Is.
var (
	ErrBadRequest      = fmt.Errorf("bad request")
	ErrNotFound        = fmt.Errorf("not found")
	ErrStorage         = fmt.Errorf("storage failure")
	ErrUnauthenticated = fmt.Errorf("unauthenticated")
	ErrTransport       = fmt.Errorf("transport failure")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// IsClassified reports whether err already belongs to the taxonomy above.
func IsClassified(err error) bool {
	for _, known := range []error{ErrBadRequest, ErrNotFound, ErrStorage, ErrUnauthenticated, ErrTransport} {
		if stderrors.Is(err, known) {
			return true
		}
	}
	return false
}
