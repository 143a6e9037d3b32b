package dberror

import (
	"errors"
	"fmt"

	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

// BusinessQueryError is a failed data operation on the backend picked by the
// router. It is returned to the caller, never swallowed.
type BusinessQueryError struct {
	Backend models.Backend
	Op      string
	Err     error
}

func (e *BusinessQueryError) Error() string {
	return fmt.Sprintf("%s on %s backend: %v", e.Op, e.Backend, e.Err)
}

func (e *BusinessQueryError) Unwrap() error {
	return e.Err
}

func NewBusinessQueryError(backend models.Backend, op string, err error) error {
	if err == nil {
		return nil
	}
	return &BusinessQueryError{Backend: backend, Op: op, Err: err}
}

func AsBusinessQueryError(err error) (*BusinessQueryError, bool) {
	var bqErr *BusinessQueryError
	if errors.As(err, &bqErr) {
		return bqErr, true
	}
	return nil, false
}
