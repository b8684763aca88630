package types

import (
	"strings"
	"time"
)

// EmailDraft is a generated outreach email. Immutable once returned by the
// composer.
type EmailDraft struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Body        []string  `json:"body"` // ordered paragraphs
	WordCount   int       `json:"word_count"`
	EmailType   EmailType `json:"email_type"`
	Tone        Tone      `json:"tone"`
	Warnings    []string  `json:"warnings,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// BodyText returns the body paragraphs joined with blank lines.
func (d *EmailDraft) BodyText() string {
	return strings.Join(d.Body, "\n\n")
}

// TalkingPoint is a scored pairing of a candidate fragment with the job
// requirement fragment it supports.
type TalkingPoint struct {
	CandidateFragment   string  `json:"candidate_fragment"`
	RequirementFragment string  `json:"requirement_fragment"`
	Score               float64 `json:"score"`
	TokenOverlap        float64 `json:"token_overlap"`
	Recency             float64 `json:"recency"`
	Specificity         float64 `json:"specificity"`
	Quantified          bool    `json:"quantified"`
	Source              string  `json:"source"` // skill, experience, project, context
}

// RankedTalkingPoints is the matcher output, sorted by descending score.
type RankedTalkingPoints struct {
	Points []TalkingPoint `json:"points"`
}

// Top returns up to n highest-ranked points.
func (r *RankedTalkingPoints) Top(n int) []TalkingPoint {
	if n > len(r.Points) {
		n = len(r.Points)
	}
	return r.Points[:n]
}
