package firm

import (
	"errors"
	"fmt"
)

// ErrPeriodUnavailable is returned when the requested fiscal period is not
// among the reported statement columns.
var ErrPeriodUnavailable = errors.New("period not available in statements")

// ErrMissingField reports a statement or market field that strict mode needs.
type ErrMissingField struct {
	Field string
}

func (e *ErrMissingField) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

// SkipError marks a ticker that the batch extractor skips rather than fails.
type SkipError struct {
	Reason string
	Err    error
}

func (e *SkipError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("skipped: %s: %v", e.Reason, e.Err)
	}
	return "skipped: " + e.Reason
}

func (e *SkipError) Unwrap() error { return e.Err }

func skip(reason string) error { return &SkipError{Reason: reason} }
