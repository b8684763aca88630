package types

import (
	"encoding/json"
	"strings"
)

// JobPosting represents a structured job posting as produced by the upstream
// posting parser. The JSON shape mirrors the sample fixture files exactly
// ("job_information"). Free-text fields stay free text; fields the source
// supplies as sequences stay sequences (see TextOrList).
type JobPosting struct {
	JobTitle          string     `json:"job_title" validate:"required"`
	Company           string     `json:"company" validate:"required"`
	JobURL            string     `json:"job_url,omitempty"`
	YearsOfExperience string     `json:"years_of_experience,omitempty"`
	Location          string     `json:"location,omitempty"`
	JobType           string     `json:"job_type,omitempty"`
	Department        string     `json:"department,omitempty"`
	RequiredSkills    TextOrList `json:"required_skills,omitempty"`
	PreferredSkills   TextOrList `json:"preferred_skills,omitempty"`
	JobDescription    string     `json:"job_description,omitempty"`
	ExperienceLevel   string     `json:"experience_level,omitempty"`
	SalaryRange       string     `json:"salary_range,omitempty"`
	Responsibilities  TextOrList `json:"responsibilities,omitempty"`
	Benefits          TextOrList `json:"benefits,omitempty"`
	RemotePolicy      string     `json:"remote_policy,omitempty"`
}

// ReceiverContact represents the primary outreach contact for a posting.
// The JSON shape mirrors the sample fixture files exactly ("receiver_details").
type ReceiverContact struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	JobTitle string `json:"job_title,omitempty"`
	Company  string `json:"company,omitempty"`
}

// TextOrList holds a field that upstream parsers emit either as free text or
// as a sequence of strings. The source shape is preserved through
// marshal/unmarshal round trips.
type TextOrList struct {
	Text   string
	List   []string
	IsList bool
}

// UnmarshalJSON accepts a JSON string, a JSON array of strings, or null.
func (t *TextOrList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*t = TextOrList{}
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*t = TextOrList{List: list, IsList: true}
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	*t = TextOrList{Text: text}
	return nil
}

// MarshalJSON emits the same shape the value was decoded from.
func (t TextOrList) MarshalJSON() ([]byte, error) {
	if t.IsList {
		return json.Marshal(t.List)
	}
	return json.Marshal(t.Text)
}

// IsEmpty reports whether the field carries no content in either shape.
func (t TextOrList) IsEmpty() bool {
	if t.IsList {
		for _, item := range t.List {
			if strings.TrimSpace(item) != "" {
				return false
			}
		}
		return true
	}
	return strings.TrimSpace(t.Text) == ""
}

// Fragments returns the field content as individual fragments: list items
// as-is, or free text split on sentence/line delimiters.
func (t TextOrList) Fragments() []string {
	if t.IsList {
		var out []string
		for _, item := range t.List {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	var out []string
	for _, part := range strings.FieldsFunc(t.Text, func(r rune) bool {
		return r == '\n' || r == ';' || r == '.' || r == '•'
	}) {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// String returns a single-string rendering of the field.
func (t TextOrList) String() string {
	if t.IsList {
		return strings.Join(t.List, ", ")
	}
	return t.Text
}
