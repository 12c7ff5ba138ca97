package tracker

import "fmt"

// ValidationError rejects bad input before any write; the caller surfaces it
// inline for correction.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError means a session was already running when Start was called.
// Switch resolves it internally via orphan cleanup; it is not a user-facing
// failure.
type ConflictError struct {
	ActiveTagID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("a session is already running (tag %s)", e.ActiveTagID)
}

// StoreError wraps a backend failure at the operation boundary.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
