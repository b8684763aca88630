package types

import "strings"

// EmailType selects the generation strategy for one request.
type EmailType string

// Supported email types.
const (
	EmailTypeSimple       EmailType = "simple"
	EmailTypePersonalized EmailType = "personalized"
	EmailTypeContextual   EmailType = "contextual"
)

// Tone selects the lexical register for one request.
type Tone string

// Supported tones.
const (
	ToneFormal       Tone = "formal"
	ToneFriendly     Tone = "friendly"
	ToneConcise      Tone = "concise"
	ToneEnthusiastic Tone = "enthusiastic"
)

// EmailRequest is the unit of work for one generation call. It owns copies
// of the profile/posting/contact data for the duration of the call and does
// not mutate them. The JSON shape matches the sample fixture files, with the
// type/tone selectors and optional contextual payload added on top.
type EmailRequest struct {
	Receiver ReceiverContact  `json:"receiver_details"`
	Sender   CandidateProfile `json:"sender_details"`
	Job      JobPosting       `json:"job_information"`

	EmailType EmailType        `json:"email_type,omitempty"`
	Tone      Tone             `json:"tone,omitempty"`
	Context   *ExternalContext `json:"contextual_data,omitempty"`
}

// ApplyDefaults fills unset selectors with the defaults the original
// workflow used: simple type, friendly tone.
func (r *EmailRequest) ApplyDefaults() {
	if r.EmailType == "" {
		r.EmailType = EmailTypeSimple
	}
	if r.Tone == "" {
		r.Tone = ToneFriendly
	}
}

// ExternalContext carries optional, best-effort enrichment data supplied by
// external collaborators. Absent or empty context never fails a request.
type ExternalContext struct {
	CompanyNews       []string `json:"company_news,omitempty"`
	GitHubSummary     string   `json:"github_summary,omitempty"`
	SharedConnections []string `json:"shared_connections,omitempty"`
}

// IsEmpty reports whether no enrichment data is present.
func (c *ExternalContext) IsEmpty() bool {
	if c == nil {
		return true
	}
	return len(c.CompanyNews) == 0 &&
		strings.TrimSpace(c.GitHubSummary) == "" &&
		len(c.SharedConnections) == 0
}

// Snippets returns all enrichment fragments as flat free-text snippets.
func (c *ExternalContext) Snippets() []string {
	if c == nil {
		return nil
	}
	var out []string
	out = append(out, c.CompanyNews...)
	if strings.TrimSpace(c.GitHubSummary) != "" {
		out = append(out, c.GitHubSummary)
	}
	out = append(out, c.SharedConnections...)
	return out
}
