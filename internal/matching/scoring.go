// Package matching cross-references candidate profiles against job postings
// to produce ranked talking points for email personalization.
package matching

import (
	"regexp"
	"strings"
	"time"
)

// Default weights for scoring components
const (
	tokenOverlapWeight = 0.5
	recencyWeight      = 0.2
	specificityWeight  = 0.3
)

// quantifiedPattern matches measured outcomes: percentages, throughput
// figures, latency numbers, multipliers, magnitudes.
var quantifiedPattern = regexp.MustCompile(`(?i)\d[\d,.]*\s*(%|percent|x\b|ms\b|qps|rps|tps|/\s*(min|sec|s|day)\b|million|billion|[kmb]\+?\b|users|requests|signals)`)

var digitPattern = regexp.MustCompile(`\d`)

// stopwords excluded from token overlap so that glue words never count as a match.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "in": {}, "is": {}, "it": {}, "of": {},
	"on": {}, "or": {}, "our": {}, "such": {}, "the": {}, "their": {},
	"to": {}, "with": {}, "you": {}, "your": {}, "we": {}, "will": {},
	"have": {}, "has": {}, "using": {}, "etc": {},
}

// tokenize lowercases text and splits it into content tokens, dropping
// punctuation and stopwords.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r == '+' || r == '#' || r == '.')
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".")
		if f == "" {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// computeTokenOverlap scores exact token overlap between a candidate fragment
// and a requirement fragment, normalized by the requirement's token count.
func computeTokenOverlap(candidateFragment, requirementFragment string) float64 {
	reqTokens := tokenize(requirementFragment)
	if len(reqTokens) == 0 {
		return 0.0
	}

	candidateSet := make(map[string]struct{})
	for _, tok := range tokenize(candidateFragment) {
		candidateSet[tok] = struct{}{}
	}
	if len(candidateSet) == 0 {
		return 0.0
	}

	matches := 0
	seen := make(map[string]struct{})
	for _, tok := range reqTokens {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if _, found := candidateSet[tok]; found {
			matches++
		}
	}

	score := float64(matches) / float64(len(seen))
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// computeSpecificity favors fragments carrying measured outcomes over
// generic skill mentions.
func computeSpecificity(fragment string) (float64, bool) {
	if quantifiedPattern.MatchString(fragment) {
		return 1.0, true
	}
	if digitPattern.MatchString(fragment) {
		return 0.5, false
	}
	return 0.2, false
}

// computeRecency scores an experience entry by position (entries are
// reverse-chronological by convention) and refines with the start date when
// it parses. Returns 0.5 as a neutral score when nothing is known.
func computeRecency(position, total int, startDate string) float64 {
	score := 0.5
	if total > 1 {
		score = 1.0 - float64(position)/float64(total)
	} else if total == 1 {
		score = 1.0
	}

	if startDate == "" {
		return score
	}
	date, err := time.Parse("2006-01", startDate)
	if err != nil {
		return score
	}

	// Linear decay over ten years, blended with the positional score.
	yearsSince := time.Since(date).Hours() / (24 * 365.25)
	dateScore := 1.0 - yearsSince/10.0
	if dateScore < 0 {
		dateScore = 0
	}
	if dateScore > 1.0 {
		dateScore = 1.0
	}
	return (score + dateScore) / 2.0
}
