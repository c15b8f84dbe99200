package report

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned for any requested status change not
// in the lifecycle table, e.g. archived back to draft.
var ErrInvalidTransition = errors.New("invalid report status transition")

// ValidationError reports a missing or malformed field on a report
// operation. It is distinct from ErrDuplicatePeriod so callers can tell
// "fix your input" apart from "the period is taken".
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
