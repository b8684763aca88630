package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/icebreaker-agent/internal/types"
)

func mlProfile() *types.CandidateProfile {
	return &types.CandidateProfile{
		Name: "Abhishek Prusty",
		TechnicalSkills: map[string][]string{
			"programming_languages": {"Python", "C++"},
			"skills":                {"Machine Learning", "Deep Learning"},
		},
		Experience: []types.Experience{
			{
				Company:     "Quadeye",
				Title:       "ML Engineer",
				Description: "Built a realtime machine learning inference pipeline processing 3000 signals/min with Python",
				StartDate:   "2023-07",
				EndDate:     "Present",
			},
			{
				Company:     "Old Corp",
				Title:       "Intern",
				Description: "Wrote machine learning data tooling",
				StartDate:   "2019-05",
				EndDate:     "2019-08",
			},
		},
		Projects: []string{"Image classification service with PyTorch"},
	}
}

func uberPosting() *types.JobPosting {
	return &types.JobPosting{
		JobTitle:       "ML Engineer",
		Company:        "Uber",
		RequiredSkills: types.TextOrList{List: []string{"Python", "Machine Learning", "Deep Learning"}, IsList: true},
		JobDescription: "Develop and deploy machine learning models at scale.",
	}
}

func TestMatch_SimpleNeedsNoPoints(t *testing.T) {
	ranked, err := Match(mlProfile(), uberPosting(), types.EmailTypeSimple, nil)
	require.NoError(t, err)
	assert.Empty(t, ranked.Points)
}

func TestMatch_PersonalizedReturnsTopPoints(t *testing.T) {
	ranked, err := Match(mlProfile(), uberPosting(), types.EmailTypePersonalized, nil)
	require.NoError(t, err)

	require.NotEmpty(t, ranked.Points)
	assert.LessOrEqual(t, len(ranked.Points), 2)

	// Scores are sorted descending.
	for i := 1; i < len(ranked.Points); i++ {
		assert.GreaterOrEqual(t, ranked.Points[i-1].Score, ranked.Points[i].Score)
	}
}

func TestMatch_QuantifiedRecentExperienceWins(t *testing.T) {
	ranked, err := Match(mlProfile(), uberPosting(), types.EmailTypePersonalized, nil)
	require.NoError(t, err)
	require.NotEmpty(t, ranked.Points)

	top := ranked.Points[0]
	assert.Equal(t, "experience", top.Source)
	assert.True(t, top.Quantified)
	assert.Contains(t, top.CandidateFragment, "3000 signals/min")
}

func TestMatch_NoOverlapIsExplicit(t *testing.T) {
	profile := &types.CandidateProfile{
		Name:            "Chef",
		TechnicalSkills: map[string][]string{"skills": {"Sourdough", "Plating"}},
	}
	posting := &types.JobPosting{
		JobTitle:       "Kernel Engineer",
		Company:        "Initech",
		RequiredSkills: types.TextOrList{List: []string{"Rust", "eBPF"}, IsList: true},
	}

	_, err := Match(profile, posting, types.EmailTypePersonalized, nil)
	require.ErrorIs(t, err, ErrNoRelevantOverlap)
}

func TestMatch_ContextualMergesExternalContext(t *testing.T) {
	extCtx := &types.ExternalContext{
		CompanyNews: []string{"Uber open-sourced its feature store last month"},
	}

	ranked, err := Match(mlProfile(), uberPosting(), types.EmailTypeContextual, extCtx)
	require.NoError(t, err)

	var contextCount int
	for _, p := range ranked.Points {
		if p.Source == "context" {
			contextCount++
		}
	}
	assert.Equal(t, 1, contextCount)
	// Context extends algorithmic points, never replaces them.
	assert.Greater(t, len(ranked.Points), 1)
}

func TestMatch_ContextualWithoutContextStillMatches(t *testing.T) {
	ranked, err := Match(mlProfile(), uberPosting(), types.EmailTypeContextual, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, ranked.Points)
	assert.LessOrEqual(t, len(ranked.Points), 3)
	for _, p := range ranked.Points {
		assert.NotEqual(t, "context", p.Source)
	}
}
