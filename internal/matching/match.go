package matching

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/icebreaker-agent/internal/types"
)

// ErrNoRelevantOverlap signals that the matcher found nothing to personalize.
// The composer must fall back to the simple template rather than fabricate a
// match.
var ErrNoRelevantOverlap = errors.New("no relevant overlap between candidate profile and job posting")

// Point budgets per email type.
const (
	personalizedMaxPoints = 2
	contextualMaxPoints   = 3
	contextPointScore     = 0.5
)

// candidateFragment is one piece of profile evidence offered for pairing.
type candidateFragment struct {
	text    string
	source  string
	recency float64
}

// Match cross-references a normalized profile against a normalized posting
// and returns ranked talking points for the requested email type. Simple
// emails need no algorithmic points and always succeed with an empty set.
// External context, when supplied, is merged for contextual emails only.
func Match(profile *types.CandidateProfile, posting *types.JobPosting, emailType types.EmailType, extCtx *types.ExternalContext) (*types.RankedTalkingPoints, error) {
	if emailType == types.EmailTypeSimple {
		return &types.RankedTalkingPoints{}, nil
	}

	requirements := requirementFragments(posting)
	candidates := profileFragments(profile)

	points := scorePairs(candidates, requirements)
	if len(points) == 0 {
		return nil, fmt.Errorf("matching %s against %s: %w", profile.Name, posting.Company, ErrNoRelevantOverlap)
	}

	budget := personalizedMaxPoints
	if emailType == types.EmailTypeContextual {
		budget = contextualMaxPoints
	}
	if len(points) > budget {
		points = points[:budget]
	}

	if emailType == types.EmailTypeContextual && !extCtx.IsEmpty() {
		points = append(points, contextPoints(extCtx)...)
	}

	return &types.RankedTalkingPoints{Points: points}, nil
}

// requirementFragments collects matchable fragments from required skills,
// responsibilities, and the job description.
func requirementFragments(posting *types.JobPosting) []string {
	var frags []string
	frags = append(frags, posting.RequiredSkills.Fragments()...)
	frags = append(frags, posting.Responsibilities.Fragments()...)
	frags = append(frags, types.TextOrList{Text: posting.JobDescription}.Fragments()...)
	return frags
}

// profileFragments collects candidate evidence: skills, experience entries,
// and projects. Experience recency follows the reverse-chronological
// convention, refined by parseable start dates.
func profileFragments(profile *types.CandidateProfile) []candidateFragment {
	var frags []candidateFragment

	for _, skill := range profile.AllSkills() {
		frags = append(frags, candidateFragment{text: skill, source: "skill", recency: 0.5})
	}

	total := len(profile.Experience)
	for i, exp := range profile.Experience {
		text := strings.TrimSpace(exp.Title + " at " + exp.Company + ". " + exp.Description)
		frags = append(frags, candidateFragment{
			text:    text,
			source:  "experience",
			recency: computeRecency(i, total, exp.StartDate),
		})
	}

	for _, project := range profile.Projects {
		frags = append(frags, candidateFragment{text: project, source: "project", recency: 0.4})
	}

	return frags
}

// scorePairs scores every (candidate, requirement) pair with lexical
// overlap, keeps the best requirement per candidate fragment, and sorts by
// score. Ties prefer the more recent entry, then the quantified one.
func scorePairs(candidates []candidateFragment, requirements []string) []types.TalkingPoint {
	var points []types.TalkingPoint

	for _, cand := range candidates {
		best := types.TalkingPoint{}
		found := false
		for _, req := range requirements {
			overlap := computeTokenOverlap(cand.text, req)
			if overlap == 0 {
				continue
			}
			specificity, quantified := computeSpecificity(cand.text)
			score := tokenOverlapWeight*overlap +
				recencyWeight*cand.recency +
				specificityWeight*specificity
			if score > 1.0 {
				score = 1.0
			}
			if !found || score > best.Score {
				best = types.TalkingPoint{
					CandidateFragment:   cand.text,
					RequirementFragment: req,
					Score:               score,
					TokenOverlap:        overlap,
					Recency:             cand.recency,
					Specificity:         specificity,
					Quantified:          quantified,
					Source:              cand.source,
				}
				found = true
			}
		}
		if found {
			points = append(points, best)
		}
	}

	sort.SliceStable(points, func(i, j int) bool {
		if points[i].Score != points[j].Score {
			return points[i].Score > points[j].Score
		}
		if points[i].Recency != points[j].Recency {
			return points[i].Recency > points[j].Recency
		}
		return points[i].Quantified && !points[j].Quantified
	})

	return points
}

// contextPoints wraps external-context snippets as extra talking points.
// They never replace algorithmic points, only extend them.
func contextPoints(extCtx *types.ExternalContext) []types.TalkingPoint {
	snippets := extCtx.Snippets()
	points := make([]types.TalkingPoint, 0, len(snippets))
	for _, snippet := range snippets {
		points = append(points, types.TalkingPoint{
			CandidateFragment: snippet,
			Score:             contextPointScore,
			Source:            "context",
		})
	}
	return points
}
