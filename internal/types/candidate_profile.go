// Package types provides type definitions for structured data used throughout the icebreaker-agent system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// CandidateProfile represents the sender of an outreach email, extracted
// upstream from a resume. The JSON shape mirrors the sample fixture files
// exactly ("sender_details").
type CandidateProfile struct {
	Name               string              `json:"name" validate:"required"`
	Email              string              `json:"email" validate:"omitempty,email"`
	Phone              string              `json:"phone,omitempty"`
	TechnicalSkills    map[string][]string `json:"technical_skills,omitempty"`
	Experience         []Experience        `json:"experience,omitempty"`
	Projects           []string            `json:"projects,omitempty"`
	Education          []Education         `json:"education,omitempty"`
	Certifications     []string            `json:"certifications,omitempty"`
	KeyAccomplishments string              `json:"key_accomplishments,omitempty"`
}

// Experience represents one work experience entry, most recent first by convention.
type Experience struct {
	Company     string `json:"company"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"` // may be the literal "Present"
}

// Education represents one education entry.
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

// AllSkills returns every skill string across all categories, in category
// iteration order. Category names are not included.
func (p *CandidateProfile) AllSkills() []string {
	var skills []string
	for _, list := range p.TechnicalSkills {
		skills = append(skills, list...)
	}
	return skills
}

// HasSkill reports whether the profile lists the given skill in any
// category, compared case-insensitively.
func (p *CandidateProfile) HasSkill(skill string) bool {
	for _, list := range p.TechnicalSkills {
		for _, s := range list {
			if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(skill)) {
				return true
			}
		}
	}
	return false
}

// HasSubstance reports whether the profile has at least one substantive
// section (skills, experience, or projects) to ground personalization on.
func (p *CandidateProfile) HasSubstance() bool {
	if len(p.Experience) > 0 || len(p.Projects) > 0 {
		return true
	}
	for _, list := range p.TechnicalSkills {
		if len(list) > 0 {
			return true
		}
	}
	return false
}
