package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrVersionConflict   = errors.New("version conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrRepository        = errors.New("repository error")

	// ErrInvalidRange is returned when a date range ends before it starts.
	ErrInvalidRange = &ValidationError{Field: "end_date", Reason: "must not be before start_date"}
)

// ValidationError reports a malformed or missing input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// TransitionError reports a status edge that is not in the lifecycle table.
type TransitionError struct {
	From LoadStatus
	To   LoadStatus
}

func (e *TransitionError) Error() string {
	if e.From == e.To {
		return fmt.Sprintf("load is already %s", e.From)
	}
	if e.To.Ordinal() > e.From.Ordinal() {
		return fmt.Sprintf("cannot move from %s directly to %s", e.From, e.To)
	}
	return fmt.Sprintf("cannot move from %s back to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// VersionConflictError reports a write carrying a stale version.
type VersionConflictError struct {
	LoadID   string
	Expected int64
	Actual   int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("load %s: expected version %d, current version is %d", e.LoadID, e.Expected, e.Actual)
}

func (e *VersionConflictError) Is(target error) bool { return target == ErrVersionConflict }

// RepositoryError wraps a transport or storage failure of a data source.
// It is the only error class a caller should retry.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository: %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

func (e *RepositoryError) Is(target error) bool { return target == ErrRepository }

func (e *RepositoryError) Retryable() bool { return true }

// NewRepositoryError wraps err unless it already carries a domain meaning.
func NewRepositoryError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrRepository) {
		return err
	}
	return &RepositoryError{Op: op, Err: err}
}

// IsRetryable reports whether err is worth retrying with backoff.
func IsRetryable(err error) bool {
	var re *RepositoryError
	return errors.As(err, &re) && re.Retryable()
}
