package compose

import (
	"fmt"
	"strings"

	"github.com/jonathan/icebreaker-agent/internal/templates"
)

// wordTolerance is the allowed relative deviation from a section's target
// word count before a draft is sent back for regeneration.
const wordTolerance = 0.20

// countWords counts whitespace-separated words.
func countWords(s string) int {
	return len(strings.Fields(s))
}

// splitParagraphs splits generated text into trimmed, non-empty paragraphs.
// Paragraphs are separated by one or more blank lines.
func splitParagraphs(text string) []string {
	var out []string
	for _, block := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			out = append(out, block)
		}
	}
	return out
}

// deviation describes one section whose word count fell outside tolerance.
type deviation struct {
	Section string
	Got     int
	Target  int
}

func (d deviation) String() string {
	return fmt.Sprintf("- %s: %d words, target %d (±%d%%)", d.Section, d.Got, d.Target, int(wordTolerance*100))
}

// checkWordBands compares each paragraph against its section's target
// midpoint, returning every section outside the tolerance window.
func checkWordBands(paragraphs []string, tmpl *templates.StructuralTemplate) []deviation {
	targets := tmpl.Targets()
	var out []deviation
	for i, p := range paragraphs {
		if i >= len(targets) {
			break
		}
		got := countWords(p)
		target := targets[i]
		slack := float64(target) * wordTolerance
		if float64(got) < float64(target)-slack || float64(got) > float64(target)+slack {
			out = append(out, deviation{Section: tmpl.Sections[i].Name, Got: got, Target: target})
		}
	}
	return out
}

// totalDeviation sums absolute distance from targets, used to pick the best
// draft when every attempt missed the bands.
func totalDeviation(paragraphs []string, tmpl *templates.StructuralTemplate) int {
	targets := tmpl.Targets()
	total := 0
	for i, p := range paragraphs {
		if i >= len(targets) {
			break
		}
		diff := countWords(p) - targets[i]
		if diff < 0 {
			diff = -diff
		}
		total += diff
	}
	return total
}
