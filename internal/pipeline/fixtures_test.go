package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/icebreaker-agent/internal/schemas"
	"github.com/jonathan/icebreaker-agent/internal/types"
)

func loadFixture(t *testing.T, name string) *types.EmailRequest {
	t.Helper()

	raw, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	require.NoError(t, schemas.ValidateEmailRequest(raw))

	var req types.EmailRequest
	require.NoError(t, json.Unmarshal(raw, &req))
	return &req
}

func TestRun_SimpleFixture(t *testing.T) {
	req := loadFixture(t, "sample_ip_email_gen_swe.json")
	assert.Equal(t, types.EmailTypeSimple, req.EmailType)
	assert.Equal(t, types.ToneFriendly, req.Tone)

	result, err := Run(context.Background(), RunOptions{
		Request:      req,
		VariantCount: 1,
		Client:       &promptAwareClient{},
	})
	require.NoError(t, err)
	require.Len(t, result.Drafts, 1)

	draft := result.Drafts[0]
	assert.Equal(t, types.EmailTypeSimple, draft.EmailType)
	assert.Len(t, draft.Body, 4)
	assert.Contains(t, draft.Subject, "Microsoft")
	assert.Empty(t, draft.Warnings)
	// simple emails carry no algorithmic talking points
	assert.Empty(t, result.TalkingPoints.Points)
}

func TestRun_ContextualFixtureWithoutContextData(t *testing.T) {
	req := loadFixture(t, "sample_ip_email_gen_mle.json")
	req.Context = nil

	result, err := Run(context.Background(), RunOptions{
		Request:      req,
		VariantCount: 1,
		Client:       &promptAwareClient{},
	})
	require.NoError(t, err)
	require.Len(t, result.Drafts, 1)

	// With no supplied context and no enrichment service, the contextual
	// draft still ships on the matcher's algorithmic points alone.
	draft := result.Drafts[0]
	assert.Equal(t, types.EmailTypeContextual, draft.EmailType)
	assert.NotContains(t, draft.Warnings, fallbackWarning)

	require.NotEmpty(t, result.TalkingPoints.Points)
	var quantified bool
	for _, p := range result.TalkingPoints.Points {
		assert.NotEqual(t, "context", p.Source)
		if strings.Contains(p.CandidateFragment, "3000 signals/min") {
			quantified = true
		}
	}
	assert.True(t, quantified)
}

func TestRun_ContextualFixture(t *testing.T) {
	req := loadFixture(t, "sample_ip_email_gen_mle.json")
	assert.Equal(t, types.EmailTypeContextual, req.EmailType)
	require.NotNil(t, req.Context)
	assert.False(t, req.Context.IsEmpty())

	result, err := Run(context.Background(), RunOptions{
		Request:      req,
		VariantCount: 2,
		Client:       &promptAwareClient{},
	})
	require.NoError(t, err)
	require.Len(t, result.Drafts, 2)

	// supplied context merges into the ranked points
	var contextPoints int
	for _, p := range result.TalkingPoints.Points {
		if p.Source == "context" {
			contextPoints++
		}
	}
	assert.Equal(t, len(req.Context.Snippets()), contextPoints)

	for _, draft := range result.Drafts {
		assert.Equal(t, types.EmailTypeContextual, draft.EmailType)
		assert.Equal(t, types.ToneEnthusiastic, draft.Tone)
	}
}

func TestFixtures_ShapePreservedOnRoundTrip(t *testing.T) {
	for _, name := range []string{"sample_ip_email_gen_swe.json", "sample_ip_email_gen_mle.json"} {
		raw, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
		require.NoError(t, err)

		var req types.EmailRequest
		require.NoError(t, json.Unmarshal(raw, &req))

		out, err := json.Marshal(&req)
		require.NoError(t, err)

		// required_skills keeps its source shape: list stays list, free
		// text stays a string
		var original, round map[string]any
		require.NoError(t, json.Unmarshal(raw, &original))
		require.NoError(t, json.Unmarshal(out, &round))

		origJob := original["job_information"].(map[string]any)
		roundJob := round["job_information"].(map[string]any)
		assert.IsType(t, origJob["required_skills"], roundJob["required_skills"], name)
		if _, isList := origJob["preferred_skills"].([]any); isList {
			assert.IsType(t, []any{}, roundJob["preferred_skills"], name)
		} else if origJob["preferred_skills"] != nil {
			assert.IsType(t, "", roundJob["preferred_skills"], name)
		}
	}
}
