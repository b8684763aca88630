package compose

import "fmt"

// TokenResolutionError reports a template token that could not be filled from
// the request data. Drafts never ship with literal unresolved tokens.
type TokenResolutionError struct {
	Token string
}

func (e *TokenResolutionError) Error() string {
	return fmt.Sprintf("unresolved template token {%s}", e.Token)
}

// MalformedDraftError reports a generated body that did not parse into the
// required paragraph structure after all regeneration attempts.
type MalformedDraftError struct {
	Got     int
	Want    int
	Attempt int
}

func (e *MalformedDraftError) Error() string {
	return fmt.Sprintf("draft has %d paragraphs, want %d (after %d attempts)", e.Got, e.Want, e.Attempt)
}
