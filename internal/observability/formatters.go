// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/icebreaker-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRequest outputs a human-readable summary of the normalized request.
func (p *Printer) PrintRequest(req *types.EmailRequest) {
	if req == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Receiver: %s (%s at %s)\n", req.Receiver.Name, req.Receiver.JobTitle, req.Receiver.Company))
	sb.WriteString(fmt.Sprintf("Sender:   %s <%s>\n", req.Sender.Name, req.Sender.Email))
	sb.WriteString(fmt.Sprintf("Job:      %s at %s\n", req.Job.JobTitle, req.Job.Company))
	sb.WriteString(fmt.Sprintf("Type:     %s, tone: %s", req.EmailType, req.Tone))

	p.printBox("GENERATION REQUEST", sb.String())
}

// PrintTalkingPoints outputs the top ranked talking points with scores.
func (p *Printer) PrintTalkingPoints(points *types.RankedTalkingPoints) {
	if points == nil || len(points.Points) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total candidate/requirement pairs: %d\n\n", len(points.Points)))

	count := min(len(points.Points), maxItemsToShow)
	for i := 0; i < count; i++ {
		pt := points.Points[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, truncate(pt.CandidateFragment, boxWidth-12)))
		sb.WriteString(fmt.Sprintf("    Score: %.2f (overlap %.2f, recency %.2f, specificity %.2f)\n",
			pt.Score, pt.TokenOverlap, pt.Recency, pt.Specificity))
		sb.WriteString(fmt.Sprintf("    Supports: %s\n", truncate(pt.RequirementFragment, boxWidth-16)))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("RANKED TALKING POINTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDraft outputs one composed draft with its per-paragraph word counts.
func (p *Printer) PrintDraft(variant int, draft *types.EmailDraft) {
	if draft == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Subject: %s\n", draft.Subject))
	sb.WriteString(fmt.Sprintf("Words:   %d total\n\n", draft.WordCount))

	for i, para := range draft.Body {
		sb.WriteString(fmt.Sprintf("[%d] (%d words)\n", i+1, len(strings.Fields(para))))
		sb.WriteString(wrap(para, boxWidth-6))
		sb.WriteString("\n")
		if i < len(draft.Body)-1 {
			sb.WriteString("\n")
		}
	}

	for _, w := range draft.Warnings {
		sb.WriteString(fmt.Sprintf("\n⚠ %s", w))
	}

	p.printBox(fmt.Sprintf("DRAFT VARIANT %d", variant+1), strings.TrimSuffix(sb.String(), "\n"))
}

// truncate shortens s to n runes. Slicing on runes keeps multi-byte input
// from being cut mid-character.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// wrap breaks text into lines no longer than width.
func wrap(s string, width int) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var sb strings.Builder
	lineLen := 0
	for i, w := range words {
		if lineLen > 0 && lineLen+1+len(w) > width {
			sb.WriteString("\n")
			lineLen = 0
		} else if i > 0 {
			sb.WriteString(" ")
			lineLen++
		}
		sb.WriteString(w)
		lineLen += len(w)
	}
	return sb.String()
}
