// Package models defines the onboarding records, their completeness rules and
// how a single named field is written into each of them.
package models

import (
	"fmt"
	"strconv"
)

// PresentEndDate is the end date shown for a role the user still holds.
const PresentEndDate = "Present"

// MaxProjectDescription caps project descriptions, in characters.
const MaxProjectDescription = 100

// ErrUnknownField is returned when a request names a field the record does not have.
type ErrUnknownField struct {
	Record string
	Field  string
}

func (e ErrUnknownField) Error() string {
	return fmt.Sprintf("unknown %s field %q", e.Record, e.Field)
}

// Experience is one work history entry.
type Experience struct {
	Company          string `json:"company"`
	Position         string `json:"position"`
	StartDate        string `json:"startDate"`
	EndDate          string `json:"endDate"`
	CurrentlyWorking bool   `json:"currentlyWorking"`
	Description      string `json:"description"`
}

// Experience field names as submitted by the form.
const (
	ExperienceCompany          = "company"
	ExperiencePosition         = "position"
	ExperienceStartDate        = "startDate"
	ExperienceEndDate          = "endDate"
	ExperienceCurrentlyWorking = "currentlyWorking"
	ExperienceDescription      = "description"
)

// ExperienceFields lists experience fields in the order a whole-record save
// applies them. The checkbox precedes the end date so unchecking it and
// entering a date in one save keeps the date.
var ExperienceFields = []string{
	ExperienceCompany,
	ExperiencePosition,
	ExperienceStartDate,
	ExperienceCurrentlyWorking,
	ExperienceEndDate,
	ExperienceDescription,
}

// NewExperience returns a blank experience entry.
func NewExperience() Experience { return Experience{} }

// ExperienceComplete reports whether another entry may follow e.
func ExperienceComplete(e Experience) bool {
	return e.Company != "" &&
		e.Position != "" &&
		e.StartDate != "" &&
		(e.CurrentlyWorking || e.EndDate != "")
}

// SetExperienceField returns a copy of e with field set to value.
// While CurrentlyWorking is set the end date stays pinned to PresentEndDate.
func SetExperienceField(e Experience, field, value string) (Experience, error) {
	switch field {
	case ExperienceCompany:
		e.Company = value
	case ExperiencePosition:
		e.Position = value
	case ExperienceStartDate:
		e.StartDate = value
	case ExperienceEndDate:
		if !e.CurrentlyWorking {
			e.EndDate = value
		}
	case ExperienceCurrentlyWorking:
		working, err := parseCheckbox(value)
		if err != nil {
			return e, fmt.Errorf("currentlyWorking: %w", err)
		}
		e.CurrentlyWorking = working
		if working {
			e.EndDate = PresentEndDate
		} else {
			e.EndDate = ""
		}
	case ExperienceDescription:
		e.Description = value
	default:
		return e, ErrUnknownField{Record: "experience", Field: field}
	}
	return e, nil
}

// Education is one education entry.
type Education struct {
	Institution string `json:"institution"`
	Course      string `json:"course"`
	Years       string `json:"years"`
	Outcome     string `json:"outcome"`
}

// Education field names as submitted by the form.
const (
	EducationInstitution = "institution"
	EducationCourse      = "course"
	EducationYears       = "years"
	EducationOutcome     = "outcome"
)

// EducationFields lists education fields in form order.
var EducationFields = []string{EducationInstitution, EducationCourse, EducationYears, EducationOutcome}

// NewEducation returns a blank education entry.
func NewEducation() Education { return Education{} }

// EducationComplete reports whether another entry may follow e.
func EducationComplete(e Education) bool {
	return e.Institution != "" && e.Course != "" && e.Years != ""
}

// SetEducationField returns a copy of e with field set to value.
func SetEducationField(e Education, field, value string) (Education, error) {
	switch field {
	case EducationInstitution:
		e.Institution = value
	case EducationCourse:
		e.Course = value
	case EducationYears:
		e.Years = value
	case EducationOutcome:
		e.Outcome = value
	default:
		return e, ErrUnknownField{Record: "education", Field: field}
	}
	return e, nil
}

// Project is one portfolio entry.
type Project struct {
	Name        string `json:"name"`
	LiveURL     string `json:"liveUrl"`
	SourceURL   string `json:"sourceUrl"`
	Description string `json:"description"`
}

// Project field names as submitted by the form.
const (
	ProjectName        = "name"
	ProjectLiveURL     = "liveUrl"
	ProjectSourceURL   = "sourceUrl"
	ProjectDescription = "description"
)

// ProjectFields lists project fields in form order.
var ProjectFields = []string{ProjectName, ProjectLiveURL, ProjectSourceURL, ProjectDescription}

// NewProject returns a blank project entry.
func NewProject() Project { return Project{} }

// ProjectComplete reports whether another entry may follow p.
func ProjectComplete(p Project) bool {
	return p.Name != "" && p.Description != ""
}

// SetProjectField returns a copy of p with field set to value. Descriptions
// longer than MaxProjectDescription characters are cut, not rejected.
func SetProjectField(p Project, field, value string) (Project, error) {
	switch field {
	case ProjectName:
		p.Name = value
	case ProjectLiveURL:
		p.LiveURL = value
	case ProjectSourceURL:
		p.SourceURL = value
	case ProjectDescription:
		p.Description = truncate(value, MaxProjectDescription)
	default:
		return p, ErrUnknownField{Record: "project", Field: field}
	}
	return p, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// parseCheckbox accepts HTML checkbox values ("on") as well as strconv booleans.
// An absent checkbox submits nothing, so "" means unchecked.
func parseCheckbox(value string) (bool, error) {
	switch value {
	case "on":
		return true, nil
	case "":
		return false, nil
	}
	return strconv.ParseBool(value)
}
