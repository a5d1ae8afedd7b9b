package walkforward

import (
	"errors"
	"fmt"
)

// ErrAborted is returned when cancellation is observed at a yield point.
// An aborted run produces no analysis object; already-computed periods
// are discarded.
var ErrAborted = errors.New("walk-forward analysis aborted")

// ValidationError reports malformed run input. No evaluation work is
// performed once one is detected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid walk-forward config: %s: %s", e.Field, e.Reason)
}

func validationErrorf(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
