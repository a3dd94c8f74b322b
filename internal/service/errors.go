package service

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	ErrIDRequired       = errors.New("id is required")
	ErrNotFound         = errors.New("not found")
	ErrReaderNil        = errors.New("reader is nil")
	ErrValidation       = errors.New("validation failed")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrPartialFailure   = errors.New("partial failure")
)

// ValidationError lists the fields that failed validation.
// errors.Is(err, ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, f+": "+e.Fields[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// PartialFailureError reports a two-step operation that completed its first
// step but not its second. Key is the object left behind (or at risk) in storage.
type PartialFailureError struct {
	Op  string
	Key string
	Err error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: partial failure, orphan object %q: %v", e.Op, e.Key, e.Err)
}

func (e *PartialFailureError) Is(target error) bool { return target == ErrPartialFailure }

func (e *PartialFailureError) Unwrap() error { return e.Err }

// storeError marks err as a failure of the database or the blob store.
func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
