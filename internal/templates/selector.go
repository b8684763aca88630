// Package templates provides the static structural templates that constrain
// draft composition: per-section word-count bands and tone-specific lexical
// guidance. The lookup table is process-wide read-only configuration.
package templates

import (
	"fmt"

	"github.com/jonathan/icebreaker-agent/internal/types"
)

// Section is one of the four letter parts with its word-count band.
type Section struct {
	Name     string
	MinWords int
	MaxWords int
}

// ToneGuidance captures the lexical rules a tone imposes on generated prose.
type ToneGuidance struct {
	AllowContractions bool
	MaxExclamations   int
	Notes             []string
}

// StructuralTemplate is the full set of constraints for one type/tone pair.
type StructuralTemplate struct {
	EmailType types.EmailType
	Tone      types.Tone
	Sections  []Section
	Guidance  ToneGuidance
}

// UnsupportedTemplateError reports an unknown email type or tone. Unknown
// values fail explicitly, never silently default.
type UnsupportedTemplateError struct {
	EmailType types.EmailType
	Tone      types.Tone
}

func (e *UnsupportedTemplateError) Error() string {
	return fmt.Sprintf("unsupported template: email_type=%q tone=%q", e.EmailType, e.Tone)
}

// sections is the four-part letter structure shared by all templates:
// 150-200 words total.
var sections = []Section{
	{Name: "Opening", MinWords: 30, MaxWords: 40},
	{Name: "Value Proposition", MinWords: 50, MaxWords: 60},
	{Name: "Call-to-Action", MinWords: 30, MaxWords: 40},
	{Name: "Closing", MinWords: 10, MaxWords: 20},
}

var toneTable = map[types.Tone]ToneGuidance{
	types.ToneFormal: {
		AllowContractions: false,
		MaxExclamations:   0,
		Notes: []string{
			"Do not use contractions.",
			"Address the recipient respectfully and keep sentences measured.",
		},
	},
	types.ToneFriendly: {
		AllowContractions: true,
		MaxExclamations:   0,
		Notes: []string{
			"Contractions are fine; write like a warm colleague.",
			"Stay professional but approachable.",
		},
	},
	types.ToneConcise: {
		AllowContractions: true,
		MaxExclamations:   0,
		Notes: []string{
			"Aim for the lower end of each section's word band.",
			"Prefer short declarative sentences; cut qualifiers.",
		},
	},
	types.ToneEnthusiastic: {
		AllowContractions: true,
		MaxExclamations:   1,
		Notes: []string{
			"Energy is welcome, but use at most one exclamation mark in the whole email.",
			"Show genuine excitement about the company and role.",
		},
	},
}

var typeSet = map[types.EmailType]struct{}{
	types.EmailTypeSimple:       {},
	types.EmailTypePersonalized: {},
	types.EmailTypeContextual:   {},
}

// Select returns the structural template for the given email type and tone.
func Select(emailType types.EmailType, tone types.Tone) (*StructuralTemplate, error) {
	if _, ok := typeSet[emailType]; !ok {
		return nil, &UnsupportedTemplateError{EmailType: emailType, Tone: tone}
	}
	guidance, ok := toneTable[tone]
	if !ok {
		return nil, &UnsupportedTemplateError{EmailType: emailType, Tone: tone}
	}

	secs := make([]Section, len(sections))
	copy(secs, sections)

	return &StructuralTemplate{
		EmailType: emailType,
		Tone:      tone,
		Sections:  secs,
		Guidance:  guidance,
	}, nil
}

// Targets returns the midpoint word count of each section band, used for
// tolerance checks on composed drafts.
func (t *StructuralTemplate) Targets() []int {
	targets := make([]int, len(t.Sections))
	for i, s := range t.Sections {
		targets[i] = (s.MinWords + s.MaxWords) / 2
	}
	return targets
}
