package normalize

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/icebreaker-agent/internal/types"
)

// presentToken is the literal end_date value for ongoing experience entries.
const presentToken = "Present"

var validate = validator.New(validator.WithRequiredStructEnabled())

// dateLayouts are the formats upstream parsers emit for experience dates.
var dateLayouts = []string{"2006-01", "2006-01-02", "Jan 2006", "January 2006", "2006"}

// Profile validates and canonicalizes a candidate profile. The input is not
// mutated; the returned profile is a canonical copy. Normalizing an already
// normalized profile returns it unchanged (fixed point).
func Profile(raw types.CandidateProfile) (types.CandidateProfile, error) {
	if err := validate.Struct(raw); err != nil {
		return types.CandidateProfile{}, &ValidationError{
			Field:   firstFailedField(err),
			Message: "candidate profile is missing required data",
			Cause:   err,
		}
	}

	p := raw
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.KeyAccomplishments = strings.TrimSpace(p.KeyAccomplishments)
	p.TechnicalSkills = dedupeSkills(raw.TechnicalSkills)
	p.Experience = normalizeExperience(raw.Experience)
	p.Projects = trimAll(raw.Projects)
	p.Certifications = trimAll(raw.Certifications)

	if !p.HasSubstance() {
		return types.CandidateProfile{}, &ValidationError{
			Message: "profile needs at least one of technical_skills, experience, or projects to ground personalization",
		}
	}

	for _, exp := range p.Experience {
		if err := checkDateRange(exp); err != nil {
			return types.CandidateProfile{}, err
		}
	}

	return p, nil
}

// dedupeSkills removes case-insensitive duplicates within each category,
// keeping the first-seen casing and order.
func dedupeSkills(skills map[string][]string) map[string][]string {
	if skills == nil {
		return nil
	}
	out := make(map[string][]string, len(skills))
	for category, list := range skills {
		seen := make(map[string]struct{}, len(list))
		deduped := make([]string, 0, len(list))
		for _, skill := range list {
			trimmed := strings.TrimSpace(skill)
			if trimmed == "" {
				continue
			}
			key := strings.ToLower(trimmed)
			if _, exists := seen[key]; exists {
				continue
			}
			seen[key] = struct{}{}
			deduped = append(deduped, trimmed)
		}
		out[category] = deduped
	}
	return out
}

func normalizeExperience(entries []types.Experience) []types.Experience {
	if entries == nil {
		return nil
	}
	out := make([]types.Experience, len(entries))
	for i, e := range entries {
		e.Company = strings.TrimSpace(e.Company)
		e.Title = strings.TrimSpace(e.Title)
		e.Description = strings.TrimSpace(e.Description)
		e.StartDate = strings.TrimSpace(e.StartDate)
		e.EndDate = canonicalEndDate(e.EndDate)
		out[i] = e
	}
	return out
}

// canonicalEndDate maps the various spellings of an ongoing role onto the
// single Present token.
func canonicalEndDate(endDate string) string {
	trimmed := strings.TrimSpace(endDate)
	switch strings.ToLower(trimmed) {
	case "present", "current", "now":
		return presentToken
	}
	return trimmed
}

// checkDateRange rejects experience entries whose dates imply a negative
// duration. Unparseable dates are tolerated; upstream extraction is best
// effort and prose dates vary widely.
func checkDateRange(exp types.Experience) error {
	if exp.StartDate == "" || exp.EndDate == "" || exp.EndDate == presentToken {
		return nil
	}
	start, okStart := parseDate(exp.StartDate)
	end, okEnd := parseDate(exp.EndDate)
	if !okStart || !okEnd {
		return nil
	}
	if end.Before(start) {
		return &ValidationError{
			Field:   "experience",
			Message: "entry for " + exp.Company + " ends before it starts (" + exp.StartDate + " to " + exp.EndDate + ")",
		}
	}
	return nil
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func trimAll(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// firstFailedField extracts the first failing field name from a validator error.
func firstFailedField(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fieldErrs[0].Field()
	}
	return ""
}
