package db

import (
	"time"

	"github.com/google/uuid"
)

// Run is one persisted generation run.
type Run struct {
	ID           uuid.UUID  `json:"id"`
	Company      string     `json:"company"`
	JobTitle     string     `json:"job_title"`
	EmailType    string     `json:"email_type"`
	Tone         string     `json:"tone"`
	VariantCount int        `json:"variant_count"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// DraftRecord is one persisted email draft variant.
type DraftRecord struct {
	ID           string    `json:"id"`
	RunID        uuid.UUID `json:"run_id"`
	VariantIndex int       `json:"variant_index"`
	Subject      string    `json:"subject"`
	Body         string    `json:"body"`
	WordCount    int       `json:"word_count"`
	EmailType    string    `json:"email_type"`
	Tone         string    `json:"tone"`
	Warnings     []string  `json:"warnings,omitempty"`
	GeneratedAt  time.Time `json:"generated_at"`
}
