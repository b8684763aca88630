package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/icebreaker-agent/internal/llm"
	"github.com/jonathan/icebreaker-agent/internal/templates"
	"github.com/jonathan/icebreaker-agent/internal/types"
)

// promptAwareClient answers subject prompts with a subject line and body
// prompts with a well-formed four-paragraph body. Bodies are unique per
// call so variant de-duplication stays quiet.
type promptAwareClient struct {
	mu     sync.Mutex
	bodies int
}

func paragraph(n int, salt string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%s%d", salt, i)
	}
	return strings.Join(parts, " ")
}

func (c *promptAwareClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	if strings.Contains(prompt, "Generate a subject line") {
		// Echo the job line back so the subject anchors to the request's
		// actual title and company.
		for _, line := range strings.Split(prompt, "\n") {
			if after, ok := strings.CutPrefix(line, "Job: "); ok {
				return after, nil
			}
		}
		return "Quick introduction", nil
	}
	c.mu.Lock()
	c.bodies++
	salt := fmt.Sprintf("v%d", c.bodies)
	c.mu.Unlock()
	return strings.Join([]string{
		paragraph(35, salt), paragraph(55, salt), paragraph(35, salt), paragraph(15, salt),
	}, "\n\n"), nil
}

func (c *promptAwareClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return c.GenerateContent(ctx, prompt, tier)
}

func (c *promptAwareClient) GetModel(tier llm.ModelTier) string { return "test-" + string(tier) }
func (c *promptAwareClient) Close() error                       { return nil }

func matchableRequest() *types.EmailRequest {
	return &types.EmailRequest{
		Receiver: types.ReceiverContact{
			Name:     "Sarah Johnson",
			JobTitle: "Engineering Manager",
			Company:  "Uber",
		},
		Sender: types.CandidateProfile{
			Name:  "Abhishek Prusty",
			Email: "abhishek@example.com",
			TechnicalSkills: map[string][]string{
				"ml": {"Python", "TensorFlow"},
			},
			Experience: []types.Experience{
				{
					Company:     "Quadeye",
					Title:       "ML Engineer",
					Description: "Built a real-time feature pipeline handling 3000 signals/min in Python",
					StartDate:   "2022-01",
					EndDate:     "Present",
				},
			},
		},
		Job: types.JobPosting{
			JobTitle:       "Machine Learning Engineer",
			Company:        "Uber",
			RequiredSkills: types.TextOrList{List: []string{"Python", "TensorFlow", "real-time pipelines"}, IsList: true},
		},
		EmailType: types.EmailTypePersonalized,
		Tone:      types.ToneFriendly,
	}
}

func TestRun_PersonalizedEndToEnd(t *testing.T) {
	var events []ProgressEvent
	var mu sync.Mutex

	result, err := Run(context.Background(), RunOptions{
		Request:      matchableRequest(),
		VariantCount: 2,
		Client:       &promptAwareClient{},
		OnProgress: func(e ProgressEvent) {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Drafts, 2)
	assert.NotEmpty(t, result.RunID)
	assert.NotEmpty(t, result.TalkingPoints.Points)
	assert.Empty(t, result.VariantErrors)

	for _, draft := range result.Drafts {
		assert.Len(t, draft.Body, 4)
		assert.Equal(t, types.EmailTypePersonalized, draft.EmailType)
		assert.Equal(t, types.ToneFriendly, draft.Tone)
		assert.LessOrEqual(t, len([]rune(draft.Subject)), 60)
		assert.Empty(t, draft.Warnings)
	}

	steps := make(map[string]int)
	for _, e := range events {
		steps[e.Step]++
		assert.Equal(t, result.RunID, e.RunID)
	}
	assert.Equal(t, 1, steps[StepNormalized])
	assert.Equal(t, 1, steps[StepMatched])
	assert.Equal(t, 1, steps[StepTemplate])
	assert.Equal(t, 2, steps[StepDraft])
}

func TestRun_DraftsAreDistinct(t *testing.T) {
	result, err := Run(context.Background(), RunOptions{
		Request:      matchableRequest(),
		VariantCount: 3,
		Client:       &promptAwareClient{},
	})
	require.NoError(t, err)

	bodies := make(map[string]struct{})
	for _, d := range result.Drafts {
		bodies[d.BodyText()] = struct{}{}
	}
	assert.Len(t, bodies, 3)
}

func TestRun_NoOverlapFallsBackToSimpleStructure(t *testing.T) {
	req := matchableRequest()
	req.Sender.TechnicalSkills = map[string][]string{"culinary": {"baking", "pastry"}}
	req.Sender.Experience = []types.Experience{
		{Company: "Bakery", Title: "Chef", Description: "Perfected sourdough fermentation"},
	}
	req.Job.RequiredSkills = types.TextOrList{List: []string{"Kubernetes", "Terraform"}, IsList: true}

	result, err := Run(context.Background(), RunOptions{
		Request:      req,
		VariantCount: 1,
		Client:       &promptAwareClient{},
	})
	require.NoError(t, err)
	require.Len(t, result.Drafts, 1)

	draft := result.Drafts[0]
	// declared type preserved, fallback recorded
	assert.Equal(t, types.EmailTypePersonalized, draft.EmailType)
	require.NotEmpty(t, draft.Warnings)
	assert.Contains(t, draft.Warnings[0], "fell back to simple")
}

func TestRun_UnsupportedToneFailsBeforeGeneration(t *testing.T) {
	req := matchableRequest()
	req.Tone = types.Tone("sarcastic")

	_, err := Run(context.Background(), RunOptions{
		Request: req,
		Client:  &promptAwareClient{},
	})
	require.Error(t, err)

	var uerr *templates.UnsupportedTemplateError
	assert.ErrorAs(t, err, &uerr)
}

func TestRun_InvalidSenderRejected(t *testing.T) {
	req := matchableRequest()
	req.Sender.Name = ""

	_, err := Run(context.Background(), RunOptions{
		Request: req,
		Client:  &promptAwareClient{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sender profile rejected")
}

func TestRun_DefaultsApplied(t *testing.T) {
	req := matchableRequest()
	req.EmailType = ""
	req.Tone = ""

	result, err := Run(context.Background(), RunOptions{
		Request:      req,
		VariantCount: 1,
		Client:       &promptAwareClient{},
	})
	require.NoError(t, err)
	require.Len(t, result.Drafts, 1)
	assert.Equal(t, types.EmailTypeSimple, result.Drafts[0].EmailType)
	assert.Equal(t, types.ToneFriendly, result.Drafts[0].Tone)
}

func TestRun_LogsTruncatedBodyPreview(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	_, err := Run(context.Background(), RunOptions{
		Request:      matchableRequest(),
		VariantCount: 1,
		Client:       &promptAwareClient{},
		Logger:       zap.New(core),
	})
	require.NoError(t, err)

	entries := logs.FilterMessage("draft composed").All()
	require.Len(t, entries, 1)

	preview, ok := entries[0].ContextMap()["body_preview"].(string)
	require.True(t, ok)
	// full bodies never reach log lines
	assert.True(t, strings.HasSuffix(preview, "..."))
	assert.LessOrEqual(t, len([]rune(preview)), 83)
}

func TestRun_OnDraftStreamsResults(t *testing.T) {
	var streamed int
	var mu sync.Mutex

	result, err := Run(context.Background(), RunOptions{
		Request:      matchableRequest(),
		VariantCount: 2,
		Client:       &promptAwareClient{},
		OnDraft: func(_ int, draft *types.EmailDraft) {
			mu.Lock()
			streamed++
			mu.Unlock()
			assert.NotNil(t, draft)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, len(result.Drafts), streamed)
}
