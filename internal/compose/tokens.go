package compose

import (
	"regexp"
	"strings"

	"github.com/jonathan/icebreaker-agent/internal/types"
)

// tokenPattern matches structural template tokens such as {Recipient_Name}.
// {{.Key}} prompt placeholders do not match: their brace is followed by
// another brace, not a letter.
var tokenPattern = regexp.MustCompile(`\{([A-Za-z][A-Za-z0-9_]*)\}`)

// resolveTokens substitutes every template token with a value derived from
// the request. An unknown token, or a token whose source field is empty,
// fails with TokenResolutionError.
func resolveTokens(text string, req *types.EmailRequest, points []types.TalkingPoint) (string, error) {
	var resolveErr error
	out := tokenPattern.ReplaceAllStringFunc(text, func(match string) string {
		if resolveErr != nil {
			return match
		}
		token := strings.Trim(match, "{}")
		value := tokenValue(token, req, points)
		if strings.TrimSpace(value) == "" {
			resolveErr = &TokenResolutionError{Token: token}
			return match
		}
		return value
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return out, nil
}

// leakedToken returns the first template token echoed verbatim in generated
// paragraphs, or "" when the prose is clean. Backends occasionally parrot a
// placeholder back instead of the substituted value.
func leakedToken(paragraphs []string) string {
	for _, p := range paragraphs {
		if m := tokenPattern.FindStringSubmatch(p); m != nil {
			return m[1]
		}
	}
	return ""
}

func tokenValue(token string, req *types.EmailRequest, points []types.TalkingPoint) string {
	switch token {
	case "Recipient_Name":
		return req.Receiver.Name
	case "Company_Name":
		return req.Job.Company
	case "Job_Title":
		return req.Job.JobTitle
	case "Sender_Name":
		return req.Sender.Name
	case "Recent_Achievement":
		return recentAchievement(req, points)
	default:
		return ""
	}
}

// recentAchievement picks the strongest concrete fragment available: the top
// talking point first, then the most recent experience description.
func recentAchievement(req *types.EmailRequest, points []types.TalkingPoint) string {
	if len(points) > 0 {
		return points[0].CandidateFragment
	}
	for _, exp := range req.Sender.Experience {
		if strings.TrimSpace(exp.Description) != "" {
			return exp.Description
		}
	}
	return ""
}
