// Package compose turns a request, its ranked talking points, and a
// structural template into a finished email draft. Composition is two LLM
// sub-steps: the body (with a bounded regeneration loop for word-band
// misses) and the subject line.
package compose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/icebreaker-agent/internal/llm"
	"github.com/jonathan/icebreaker-agent/internal/prompts"
	"github.com/jonathan/icebreaker-agent/internal/templates"
	"github.com/jonathan/icebreaker-agent/internal/types"
)

const (
	// regenBudget is how many extra body generations a draft gets when it
	// misses paragraph structure or word bands. After the budget the best
	// attempt ships with a warning.
	regenBudget = 2

	// maxSubjectLen bounds the subject line in characters.
	maxSubjectLen = 60

	requiredParagraphs = 4
	maxPromptPoints    = 3
)

// Composer generates email drafts through an LLM client.
type Composer struct {
	client llm.Client
}

// NewComposer returns a Composer backed by the given client.
func NewComposer(client llm.Client) *Composer {
	return &Composer{client: client}
}

// Compose generates one draft for the request. points may be nil or empty
// for simple emails. The returned draft always has exactly four body
// paragraphs; a word-band miss after the regeneration budget is reported as
// a warning, not an error.
func (c *Composer) Compose(ctx context.Context, req *types.EmailRequest, points *types.RankedTalkingPoints, tmpl *templates.StructuralTemplate) (*types.EmailDraft, error) {
	return c.ComposeWithHint(ctx, req, points, tmpl, "")
}

// ComposeWithHint is Compose with an extra free-text steering hint appended
// to the body prompt. Variant generation uses distinct hints so sibling
// drafts diverge beyond what sampling temperature alone provides.
func (c *Composer) ComposeWithHint(ctx context.Context, req *types.EmailRequest, points *types.RankedTalkingPoints, tmpl *templates.StructuralTemplate, hint string) (*types.EmailDraft, error) {
	top := topPoints(points)

	prompt, err := c.buildBodyPrompt(req, top, tmpl)
	if err != nil {
		return nil, err
	}
	if hint != "" {
		prompt += "\n\n" + hint
	}

	paragraphs, warnings, err := c.generateBody(ctx, prompt, tmpl)
	if err != nil {
		return nil, err
	}

	subject, subjectWarnings, err := c.generateSubject(ctx, req)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, subjectWarnings...)

	total := 0
	for _, p := range paragraphs {
		total += countWords(p)
	}

	return &types.EmailDraft{
		ID:          uuid.NewString(),
		Subject:     subject,
		Body:        paragraphs,
		WordCount:   total,
		EmailType:   tmpl.EmailType,
		Tone:        tmpl.Tone,
		Warnings:    warnings,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// generateBody runs the generate/check/regenerate loop. It returns the first
// attempt that lands inside every word band, or the closest attempt plus a
// warning once the budget is spent. The returned prose is re-checked for
// echoed {Token} placeholders; a draft that still carries one after the
// budget fails outright and is never shipped.
func (c *Composer) generateBody(ctx context.Context, prompt string, tmpl *templates.StructuralTemplate) ([]string, []string, error) {
	var (
		best          []string
		bestDeviation = -1
		lastParaCount = 0
		leaked        string
	)

	currentPrompt := prompt
	for attempt := 0; attempt <= regenBudget; attempt++ {
		text, err := c.client.GenerateContent(ctx, currentPrompt, llm.TierStandard)
		if err != nil {
			return nil, nil, fmt.Errorf("body generation failed: %w", err)
		}

		paragraphs := splitParagraphs(text)
		lastParaCount = len(paragraphs)
		if len(paragraphs) != requiredParagraphs {
			currentPrompt = prompt + fmt.Sprintf(
				"\n\nYour previous draft had %d paragraphs. Return exactly %d paragraphs separated by blank lines.",
				len(paragraphs), requiredParagraphs)
			continue
		}

		if tok := leakedToken(paragraphs); tok != "" {
			leaked = tok
			currentPrompt = prompt + fmt.Sprintf(
				"\n\nYour previous draft contained the literal placeholder {%s}. Write out the real value for every {...} placeholder and return the full email again.",
				tok)
			continue
		}

		deviations := checkWordBands(paragraphs, tmpl)
		if len(deviations) == 0 {
			return paragraphs, nil, nil
		}

		if d := totalDeviation(paragraphs, tmpl); bestDeviation < 0 || d < bestDeviation {
			best = paragraphs
			bestDeviation = d
		}

		lines := make([]string, len(deviations))
		for i, d := range deviations {
			lines[i] = d.String()
		}
		currentPrompt = prompt + "\n\n" + prompts.Format(
			prompts.MustGet(prompts.ComposingFile, "regenerate-word-bands"),
			map[string]string{"Deviations": strings.Join(lines, "\n")},
		)
	}

	if best == nil {
		if leaked != "" {
			return nil, nil, &TokenResolutionError{Token: leaked}
		}
		return nil, nil, &MalformedDraftError{Got: lastParaCount, Want: requiredParagraphs, Attempt: regenBudget + 1}
	}
	warning := fmt.Sprintf("word-count tolerance exceeded after %d regeneration attempts; returning closest draft", regenBudget)
	return best, []string{warning}, nil
}

// generateSubject runs the subject sub-step. An unusable subject after one
// retry falls back to a deterministic line so the draft still ships.
func (c *Composer) generateSubject(ctx context.Context, req *types.EmailRequest) (string, []string, error) {
	prompt := prompts.Format(prompts.MustGet(prompts.ComposingFile, "subject-line"), map[string]string{
		"JobTitle":   req.Job.JobTitle,
		"Company":    req.Job.Company,
		"SenderName": req.Sender.Name,
		"Tone":       string(req.Tone),
	})

	for attempt := 0; attempt < 2; attempt++ {
		text, err := c.client.GenerateContent(ctx, prompt, llm.TierLite)
		if err != nil {
			return "", nil, fmt.Errorf("subject generation failed: %w", err)
		}
		subject := cleanSubject(text)
		if subjectAcceptable(subject, req) {
			return subject, nil, nil
		}
	}

	fallback := truncateSubject(fmt.Sprintf("%s at %s", req.Job.JobTitle, req.Job.Company))
	return fallback, []string{"generated subject line rejected; using fallback"}, nil
}

func (c *Composer) buildBodyPrompt(req *types.EmailRequest, points []types.TalkingPoint, tmpl *templates.StructuralTemplate) (string, error) {
	targets := tmpl.Targets()
	data := map[string]string{
		"Context":       buildContextBlock(req),
		"ReceiverTitle": valueOr(req.Receiver.JobTitle, "N/A"),
		"SenderName":    req.Sender.Name,
		"SenderEmail":   valueOr(req.Sender.Email, "N/A"),
		"JobTitle":      req.Job.JobTitle,
		"Tone":          string(tmpl.Tone),
		"ToneClause":    prompts.MustGet(prompts.ComposingFile, "tone-"+string(tmpl.Tone)),
		"OpeningWords":  fmt.Sprint(targets[0]),
		"ValueWords":    fmt.Sprint(targets[1]),
		"CallWords":     fmt.Sprint(targets[2]),
		"ClosingWords":  fmt.Sprint(targets[3]),
	}

	switch tmpl.EmailType {
	case types.EmailTypePersonalized:
		data["TalkingPoints"] = talkingPointsBlock(points)
	case types.EmailTypeContextual:
		data["TalkingPoints"] = talkingPointsBlock(points)
		data["ExternalContext"] = externalContextBlock(req.Context)
	}

	system := prompts.MustGet(prompts.ComposingFile, "system-"+string(tmpl.EmailType))
	body := prompts.Format(prompts.MustGet(prompts.ComposingFile, "body-"+string(tmpl.EmailType)), data)

	resolved, err := resolveTokens(body, req, points)
	if err != nil {
		return "", err
	}
	return system + "\n\n" + resolved, nil
}

// buildContextBlock summarizes the job and sender for the model, mirroring
// the context message sent alongside every generation request.
func buildContextBlock(req *types.EmailRequest) string {
	var b strings.Builder
	b.WriteString("Job Information:\n")
	fmt.Fprintf(&b, "- Title: %s\n", valueOr(req.Job.JobTitle, "N/A"))
	fmt.Fprintf(&b, "- Company: %s\n", valueOr(req.Job.Company, "N/A"))
	fmt.Fprintf(&b, "- Location: %s\n", valueOr(req.Job.Location, "N/A"))
	fmt.Fprintf(&b, "- Department: %s\n", valueOr(req.Job.Department, "N/A"))
	fmt.Fprintf(&b, "- Experience Level: %s\n", valueOr(req.Job.ExperienceLevel, "N/A"))
	b.WriteString("\nSender Information:\n")
	fmt.Fprintf(&b, "- Name: %s\n", valueOr(req.Sender.Name, "N/A"))
	fmt.Fprintf(&b, "- Email: %s\n", valueOr(req.Sender.Email, "N/A"))
	fmt.Fprintf(&b, "- Phone: %s\n", valueOr(req.Sender.Phone, "N/A"))
	fmt.Fprintf(&b, "- Key Accomplishments: %s", valueOr(req.Sender.KeyAccomplishments, "N/A"))
	return b.String()
}

func talkingPointsBlock(points []types.TalkingPoint) string {
	if len(points) == 0 {
		return "(none)"
	}
	lines := make([]string, len(points))
	for i, p := range points {
		lines[i] = fmt.Sprintf("%d. %s (supports requirement: %s)", i+1, p.CandidateFragment, p.RequirementFragment)
	}
	return strings.Join(lines, "\n")
}

func externalContextBlock(ctx *types.ExternalContext) string {
	snippets := ctx.Snippets()
	if len(snippets) == 0 {
		return "(none available)"
	}
	lines := make([]string, len(snippets))
	for i, s := range snippets {
		lines[i] = "- " + s
	}
	return strings.Join(lines, "\n")
}

func topPoints(points *types.RankedTalkingPoints) []types.TalkingPoint {
	if points == nil {
		return nil
	}
	return points.Top(maxPromptPoints)
}

func cleanSubject(text string) string {
	subject := strings.TrimSpace(text)
	if i := strings.IndexByte(subject, '\n'); i >= 0 {
		subject = strings.TrimSpace(subject[:i])
	}
	subject = strings.Trim(subject, `"'`)
	subject = strings.TrimPrefix(subject, "Subject:")
	return strings.TrimSpace(subject)
}

// subjectAcceptable enforces the subject contract: non-empty, within the
// length bound, and anchored to the job title or company name.
func subjectAcceptable(subject string, req *types.EmailRequest) bool {
	if subject == "" || len([]rune(subject)) > maxSubjectLen {
		return false
	}
	lower := strings.ToLower(subject)
	return strings.Contains(lower, strings.ToLower(req.Job.JobTitle)) ||
		strings.Contains(lower, strings.ToLower(req.Job.Company))
}

func truncateSubject(s string) string {
	runes := []rune(s)
	if len(runes) <= maxSubjectLen {
		return s
	}
	return strings.TrimSpace(string(runes[:maxSubjectLen]))
}

func valueOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
