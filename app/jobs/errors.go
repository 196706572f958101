package jobs

import (
	"errors"
	"fmt"

	"github.com/jmbouzan/ardora/app/store"
)

// ErrDuplicate is returned in strict mode for an already recorded job
var ErrDuplicate = store.ErrDuplicate

// ValidationError is returned for malformed or out of range input
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg) }

// NotFoundError is returned when a referenced activity or job doesn't exist
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Kind, e.Key) }

// AuthorizationError is returned when the caller lacks the rights for an action
type AuthorizationError struct {
	UserID int64
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %d is not allowed to %s", e.UserID, e.Action)
}

// StoreError wraps an unexpected storage failure
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store failed to %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

// storeErr classifies a store error, kind and key describe the record for not-found reporting
func storeErr(op, kind, key string, err error) error {
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, store.ErrNotFound):
		return &NotFoundError{Kind: kind, Key: key}
	case errors.Is(err, store.ErrInvalidRecord), errors.Is(err, store.ErrBadCriteria):
		return &ValidationError{Field: kind, Msg: err.Error()}
	}
	return &StoreError{Op: op, Err: err}
}
