package agent

import "fmt"

// ValidationError reports a malformed instruction, response or state
// field. The offending item is skipped; the batch continues.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}
