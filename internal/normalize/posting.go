package normalize

import (
	"strings"

	"github.com/jonathan/icebreaker-agent/internal/types"
)

// NotSpecified is the default for optional posting fields the source left
// empty. Downstream prose generation must never silently reference an
// absent field, so empty scalars are made explicit rather than propagated.
const NotSpecified = "not specified"

// Posting validates and canonicalizes a job posting. Requires job_title and
// company; all other scalar fields default to "not specified". Free-text
// fields keep the shape the source supplied (text stays text, lists stay
// lists). The input is not mutated.
func Posting(raw types.JobPosting) (types.JobPosting, error) {
	if err := validate.Struct(raw); err != nil {
		return types.JobPosting{}, &ValidationError{
			Field:   firstFailedField(err),
			Message: "job posting requires job_title and company",
			Cause:   err,
		}
	}

	p := raw
	p.JobTitle = strings.TrimSpace(p.JobTitle)
	p.Company = strings.TrimSpace(p.Company)
	p.JobURL = strings.TrimSpace(p.JobURL)
	p.YearsOfExperience = defaultIfEmpty(p.YearsOfExperience)
	p.Location = defaultIfEmpty(p.Location)
	p.JobType = defaultIfEmpty(p.JobType)
	p.Department = defaultIfEmpty(p.Department)
	p.JobDescription = strings.TrimSpace(p.JobDescription)
	p.ExperienceLevel = defaultIfEmpty(p.ExperienceLevel)
	p.SalaryRange = defaultIfEmpty(p.SalaryRange)
	p.RemotePolicy = defaultIfEmpty(p.RemotePolicy)

	if p.JobTitle == "" || p.Company == "" {
		return types.JobPosting{}, &ValidationError{
			Message: "job posting requires non-blank job_title and company",
		}
	}

	return p, nil
}

// Contact validates and canonicalizes the primary outreach contact.
func Contact(raw types.ReceiverContact) (types.ReceiverContact, error) {
	if err := validate.Struct(raw); err != nil {
		return types.ReceiverContact{}, &ValidationError{
			Field:   firstFailedField(err),
			Message: "receiver contact requires a name",
			Cause:   err,
		}
	}

	c := raw
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.JobTitle = strings.TrimSpace(c.JobTitle)
	c.Company = strings.TrimSpace(c.Company)
	if c.Name == "" {
		return types.ReceiverContact{}, &ValidationError{Field: "Name", Message: "receiver contact requires a name"}
	}
	return c, nil
}

func defaultIfEmpty(s string) string {
	if trimmed := strings.TrimSpace(s); trimmed != "" {
		return trimmed
	}
	return NotSpecified
}
