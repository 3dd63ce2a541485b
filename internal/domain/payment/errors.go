package payment

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNotFound          = errors.New("payment not found")
	ErrAlreadyExists     = errors.New("payment already exists")
	ErrVersionConflict   = errors.New("payment set version conflict")
)

// ValidationError is returned when an amount/method combination is rejected
// by a method policy or a settlement rule.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func rejectf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError is returned when a status change is not in the
// transition table, or when an update is attempted outside Registered.
// To is empty for the update case.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("status %s does not allow updates", e.From.Description())
	}
	return fmt.Sprintf("status %s does not allow transition to %s", e.From.Description(), e.To.Description())
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
