// Package normalize provides validation and canonicalization for candidate
// profiles and job postings before matching and composition.
package normalize

import "fmt"

// ValidationError represents a malformed or incomplete input entity.
// Always recoverable by re-prompting the caller with corrected input.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}
