package engagement

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for rejected input. No state was changed.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when an entry does not exist or belongs to another user.
	ErrNotFound = errors.New("entry not found")

	// ErrStorage is returned when the store or its transaction failed. The
	// operation had no effect and may be retried by the caller.
	ErrStorage = errors.New("storage unavailable")

	// ErrConsistency marks a ledger counter that would have gone negative.
	// It is logged and clamped, never returned from Service methods.
	ErrConsistency = errors.New("ledger consistency violation")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both ErrStorage and the underlying driver error.
func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

type ConsistencyError struct {
	UserID    int64
	Field     string
	Have      int
	Decrement int
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("ledger %d: %s would drop below zero (have %d, decrement %d)",
		e.UserID, e.Field, e.Have, e.Decrement)
}

func (e *ConsistencyError) Unwrap() error { return ErrConsistency }

func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable reports whether err came from the store rather than the request.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorage)
}
