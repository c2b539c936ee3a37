package credential

import "fmt"

// ValidationError reports a pre-persistence validation failure. Field names
// the offending input ("secret" or "confirmation") so callers can attribute
// the failure for form re-display.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Msg)
}
