package compose

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/icebreaker-agent/internal/llm"
	"github.com/jonathan/icebreaker-agent/internal/templates"
	"github.com/jonathan/icebreaker-agent/internal/types"
)

func testRequest() *types.EmailRequest {
	return &types.EmailRequest{
		Receiver: types.ReceiverContact{
			Name:     "Sarah Johnson",
			Email:    "sarah.johnson@uber.com",
			JobTitle: "Engineering Manager",
			Company:  "Uber",
		},
		Sender: types.CandidateProfile{
			Name:  "Abhishek Prusty",
			Email: "abhishek@example.com",
			Experience: []types.Experience{
				{
					Company:     "Quadeye",
					Title:       "ML Engineer",
					Description: "Built a real-time feature pipeline handling 3000 signals/min",
					StartDate:   "2022-01",
					EndDate:     "Present",
				},
			},
		},
		Job: types.JobPosting{
			JobTitle: "Machine Learning Engineer",
			Company:  "Uber",
		},
		EmailType: types.EmailTypePersonalized,
		Tone:      types.ToneFriendly,
	}
}

func testPoints() *types.RankedTalkingPoints {
	return &types.RankedTalkingPoints{Points: []types.TalkingPoint{
		{
			CandidateFragment:   "Built a real-time feature pipeline handling 3000 signals/min",
			RequirementFragment: "Experience with real-time ML systems",
			Score:               0.9,
		},
	}}
}

// words builds a paragraph of exactly n words.
func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("word%d", i)
	}
	return strings.Join(parts, " ")
}

// goodBody hits the midpoint of every section band.
func goodBody() string {
	return strings.Join([]string{words(35), words(55), words(35), words(15)}, "\n\n")
}

func mustTemplate(t *testing.T, et types.EmailType, tone types.Tone) *templates.StructuralTemplate {
	t.Helper()
	tmpl, err := templates.Select(et, tone)
	require.NoError(t, err)
	return tmpl
}

func TestCompose_HappyPath(t *testing.T) {
	fake := llm.NewFakeClient().
		Respond(goodBody()).
		Respond("Machine Learning Engineer intro — Abhishek")

	req := testRequest()
	tmpl := mustTemplate(t, types.EmailTypePersonalized, types.ToneFriendly)

	draft, err := NewComposer(fake).Compose(context.Background(), req, testPoints(), tmpl)
	require.NoError(t, err)

	assert.Len(t, draft.Body, 4)
	assert.Empty(t, draft.Warnings)
	assert.Equal(t, 140, draft.WordCount)
	assert.Equal(t, types.EmailTypePersonalized, draft.EmailType)
	assert.Equal(t, types.ToneFriendly, draft.Tone)
	assert.NotEmpty(t, draft.ID)
	assert.False(t, draft.GeneratedAt.IsZero())
	assert.LessOrEqual(t, len([]rune(draft.Subject)), 60)

	// body prompt then subject prompt
	require.Equal(t, 2, fake.Calls())
	assert.Contains(t, fake.Prompts[0], "Sarah Johnson")
	assert.Contains(t, fake.Prompts[0], "3000 signals/min")
	assert.NotContains(t, fake.Prompts[0], "{Recipient_Name}")
	assert.NotContains(t, fake.Prompts[0], "{Recent_Achievement}")
}

func TestCompose_RegeneratesOnWordBandMiss(t *testing.T) {
	short := strings.Join([]string{words(5), words(55), words(35), words(15)}, "\n\n")
	fake := llm.NewFakeClient().
		Respond(short).
		Respond(goodBody()).
		Respond("Quick hello about the Machine Learning Engineer role")

	tmpl := mustTemplate(t, types.EmailTypePersonalized, types.ToneFriendly)
	draft, err := NewComposer(fake).Compose(context.Background(), testRequest(), testPoints(), tmpl)
	require.NoError(t, err)

	assert.Empty(t, draft.Warnings)
	assert.Equal(t, 3, fake.Calls())
	// the regeneration prompt names the section that missed
	assert.Contains(t, fake.Prompts[1], "Opening")
}

func TestCompose_BudgetExhaustedReturnsBestWithWarning(t *testing.T) {
	near := strings.Join([]string{words(25), words(55), words(35), words(15)}, "\n\n")
	far := strings.Join([]string{words(5), words(10), words(8), words(3)}, "\n\n")
	fake := llm.NewFakeClient().
		Respond(far).
		Respond(near).
		Respond(far).
		Respond("Machine Learning Engineer at Uber")

	tmpl := mustTemplate(t, types.EmailTypePersonalized, types.ToneFriendly)
	draft, err := NewComposer(fake).Compose(context.Background(), testRequest(), testPoints(), tmpl)
	require.NoError(t, err)

	require.Len(t, draft.Warnings, 1)
	assert.Contains(t, draft.Warnings[0], "tolerance exceeded")
	// closest attempt wins
	assert.Equal(t, 25, len(strings.Fields(draft.Body[0])))
}

func TestCompose_MalformedStructureFails(t *testing.T) {
	fake := llm.NewFakeClient().Respond("just one paragraph")

	tmpl := mustTemplate(t, types.EmailTypePersonalized, types.ToneFriendly)
	_, err := NewComposer(fake).Compose(context.Background(), testRequest(), testPoints(), tmpl)
	require.Error(t, err)

	var merr *MalformedDraftError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, 1, merr.Got)
	assert.Equal(t, 3, fake.Calls())
}

func TestCompose_UnresolvedTokenFailsBeforeGeneration(t *testing.T) {
	fake := llm.NewFakeClient().Respond(goodBody())
	req := testRequest()
	req.Receiver.Name = ""

	tmpl := mustTemplate(t, types.EmailTypePersonalized, types.ToneFriendly)
	_, err := NewComposer(fake).Compose(context.Background(), req, testPoints(), tmpl)
	require.Error(t, err)

	var terr *TokenResolutionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "Recipient_Name", terr.Token)
	assert.Equal(t, 0, fake.Calls())
}

func TestCompose_EchoedPlaceholderNeverShips(t *testing.T) {
	// Well-formed four paragraphs, but the backend parrots the placeholder
	// back instead of the receiver's name, on every attempt.
	leaky := strings.Join([]string{"{Recipient_Name} " + words(34), words(55), words(35), words(15)}, "\n\n")
	fake := llm.NewFakeClient().Respond(leaky)

	tmpl := mustTemplate(t, types.EmailTypePersonalized, types.ToneFriendly)
	_, err := NewComposer(fake).Compose(context.Background(), testRequest(), testPoints(), tmpl)
	require.Error(t, err)

	var terr *TokenResolutionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "Recipient_Name", terr.Token)
	assert.Equal(t, 3, fake.Calls())
}

func TestCompose_RegeneratesOnEchoedPlaceholder(t *testing.T) {
	leaky := strings.Join([]string{"{Recipient_Name} " + words(34), words(55), words(35), words(15)}, "\n\n")
	fake := llm.NewFakeClient().
		Respond(leaky).
		Respond(goodBody()).
		Respond("Machine Learning Engineer at Uber")

	tmpl := mustTemplate(t, types.EmailTypePersonalized, types.ToneFriendly)
	draft, err := NewComposer(fake).Compose(context.Background(), testRequest(), testPoints(), tmpl)
	require.NoError(t, err)

	assert.Empty(t, draft.Warnings)
	assert.NotContains(t, draft.BodyText(), "{Recipient_Name}")
	assert.Equal(t, 3, fake.Calls())
	// the corrective prompt names the offending placeholder
	assert.Contains(t, fake.Prompts[1], "{Recipient_Name}")
}

func TestCompose_SubjectFallbackOnBadSubject(t *testing.T) {
	tooLong := strings.Repeat("Exciting opportunity ahead ", 5)
	fake := llm.NewFakeClient().
		Respond(goodBody()).
		Respond(tooLong)

	tmpl := mustTemplate(t, types.EmailTypePersonalized, types.ToneFriendly)
	draft, err := NewComposer(fake).Compose(context.Background(), testRequest(), testPoints(), tmpl)
	require.NoError(t, err)

	assert.LessOrEqual(t, len([]rune(draft.Subject)), 60)
	assert.Contains(t, draft.Subject, "Machine Learning Engineer")
	require.Len(t, draft.Warnings, 1)
	assert.Contains(t, draft.Warnings[0], "subject")
	// one body call, two subject attempts
	assert.Equal(t, 3, fake.Calls())
}

func TestCompose_SimpleTypeSkipsTalkingPoints(t *testing.T) {
	fake := llm.NewFakeClient().
		Respond(goodBody()).
		Respond("Hello from Abhishek — Machine Learning Engineer")

	req := testRequest()
	req.EmailType = types.EmailTypeSimple
	tmpl := mustTemplate(t, types.EmailTypeSimple, types.ToneFriendly)

	draft, err := NewComposer(fake).Compose(context.Background(), req, nil, tmpl)
	require.NoError(t, err)
	assert.Len(t, draft.Body, 4)
	assert.NotContains(t, fake.Prompts[0], "Talking points")
}

func TestCompose_ContextualIncludesExternalContext(t *testing.T) {
	fake := llm.NewFakeClient().
		Respond(goodBody()).
		Respond("Uber's ML platform caught my eye")

	req := testRequest()
	req.EmailType = types.EmailTypeContextual
	req.Context = &types.ExternalContext{
		CompanyNews: []string{"Uber open-sourced its feature store"},
	}
	tmpl := mustTemplate(t, types.EmailTypeContextual, types.ToneFriendly)

	_, err := NewComposer(fake).Compose(context.Background(), req, testPoints(), tmpl)
	require.NoError(t, err)
	assert.Contains(t, fake.Prompts[0], "Uber open-sourced its feature store")
}

func TestCompose_BackendErrorPropagates(t *testing.T) {
	fake := llm.NewFakeClient().Fail(&llm.BackendError{Kind: llm.KindUnavailable, Message: "503"})

	tmpl := mustTemplate(t, types.EmailTypePersonalized, types.ToneFriendly)
	_, err := NewComposer(fake).Compose(context.Background(), testRequest(), testPoints(), tmpl)
	require.Error(t, err)

	var berr *llm.BackendError
	assert.ErrorAs(t, err, &berr)
}

func TestSubjectAcceptable(t *testing.T) {
	req := testRequest()
	assert.True(t, subjectAcceptable("Machine Learning Engineer — quick intro", req))
	assert.True(t, subjectAcceptable("A question about Uber", req))
	assert.False(t, subjectAcceptable("", req))
	assert.False(t, subjectAcceptable(strings.Repeat("x", 61), req))
	assert.False(t, subjectAcceptable("Completely unrelated line", req))
}

func TestSplitParagraphs(t *testing.T) {
	text := "one\n\ntwo\r\n\r\nthree\n\n\n\nfour"
	assert.Equal(t, []string{"one", "two", "three", "four"}, splitParagraphs(text))
}
