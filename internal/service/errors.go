package service

import (
	"errors"
	"fmt"

	"github.com/pathik-bd/pathik-api/internal/model"
	"github.com/pathik-bd/pathik-api/internal/store"
)

var (
	// ErrNotFound means a referenced user, record, tour or guide is absent.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyProcessed means a one-shot transition (approve, reject,
	// convert) was attempted on something that already went through it.
	ErrAlreadyProcessed = errors.New("already processed")
	// ErrForbidden means the acting user may not touch the resource.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports a missing or invalid input.  It is always returned
// before anything is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// PersistenceError wraps an opaque failure from the store.  It is surfaced
// as-is; nothing in this layer retries.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// translate maps store and model errors onto the service taxonomy.  Errors
// that already belong to the taxonomy pass through unchanged.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		ve *ValidationError
		fe *model.FieldError
		pe *PersistenceError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &pe),
		errors.Is(err, ErrNotFound), errors.Is(err, ErrAlreadyProcessed), errors.Is(err, ErrForbidden):
		return err
	case errors.As(err, &fe):
		return &ValidationError{Field: fe.Field, Reason: fe.Reason}
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrContributionNotFound),
		errors.Is(err, store.ErrTourNotFound),
		errors.Is(err, store.ErrGuideNotFound):
		return fmt.Errorf("%s: %w: %v", op, ErrNotFound, err)
	case errors.Is(err, store.ErrNotPending), errors.Is(err, store.ErrAlreadyConverted):
		return fmt.Errorf("%s: %w: %v", op, ErrAlreadyProcessed, err)
	}
	return &PersistenceError{Op: op, Err: err}
}
