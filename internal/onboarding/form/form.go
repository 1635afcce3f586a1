// Package form is the onboarding form shell: it waits for the user's profile,
// seeds the editable fields from it, and owns every editor on the page.
package form

import (
	"context"
	"encoding/json"
	"fmt"

	"onboarding/internal/onboarding/disclosure"
	"onboarding/internal/onboarding/models"
	"onboarding/internal/onboarding/recordlist"
	"onboarding/internal/onboarding/skills"
	"onboarding/internal/onboarding/validation"
)

// Status is the shell's lifecycle state.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
)

// Section names one record list on the form.
type Section string

const (
	SectionExperience Section = "experience"
	SectionEducation  Section = "education"
	SectionProjects   Section = "projects"
)

// Sections lists every record section in display order.
var Sections = []Section{SectionExperience, SectionEducation, SectionProjects}

// ParseSection validates a section name from a request.
func ParseSection(s string) (Section, bool) {
	for _, sec := range Sections {
		if string(sec) == s {
			return sec, true
		}
	}
	return "", false
}

// Fields returns the editable record fields of section in save order.
func Fields(section Section) []string {
	switch section {
	case SectionExperience:
		return models.ExperienceFields
	case SectionEducation:
		return models.EducationFields
	case SectionProjects:
		return models.ProjectFields
	}
	return nil
}

// Options configures seeding behaviour.
type Options struct {
	// PrefillLinkedIn copies the provider's LinkedIn URL into the form.
	// Off by default: the provider field is not reliably populated.
	PrefillLinkedIn bool
}

var (
	experienceSchema = recordlist.Schema[models.Experience]{
		New:      models.NewExperience,
		Complete: models.ExperienceComplete,
		Set:      models.SetExperienceField,
	}
	educationSchema = recordlist.Schema[models.Education]{
		New:      models.NewEducation,
		Complete: models.EducationComplete,
		Set:      models.SetEducationField,
	}
	projectSchema = recordlist.Schema[models.Project]{
		New:      models.NewProject,
		Complete: models.ProjectComplete,
		Set:      models.SetProjectField,
	}
)

// Form is the whole onboarding page state for one session.
type Form struct {
	opts   Options
	status Status
	user   models.ExternalProfile

	Name        validation.Field
	Email       validation.Field
	LinkedInURL string
	OtherURLs   string

	Experience *recordlist.List[models.Experience]
	Education  *recordlist.List[models.Education]
	Projects   *recordlist.List[models.Project]
	Skills     *skills.Set
	Panels     *disclosure.Set
}

// New returns a form in the loading state with one blank record per section.
func New(opts Options) *Form {
	return &Form{
		opts:       opts,
		status:     StatusLoading,
		Experience: recordlist.New(experienceSchema),
		Education:  recordlist.New(educationSchema),
		Projects:   recordlist.New(projectSchema),
		Skills:     skills.NewSet(),
		Panels:     disclosure.NewSet(),
	}
}

// Status returns the lifecycle state.
func (f *Form) Status() Status { return f.status }

// Ready reports whether the profile has been seeded.
func (f *Form) Ready() bool { return f.status == StatusReady }

// User returns the profile the form was seeded from.
func (f *Form) User() models.ExternalProfile { return f.user }

// Mount waits on src and seeds the form once it resolves. A form that is
// already ready is left alone; if src never resolves the form stays loading.
func (f *Form) Mount(ctx context.Context, src ProfileSource) bool {
	if f.status == StatusReady {
		return false
	}
	p, ok := src.Resolve(ctx)
	if !ok {
		return false
	}
	return f.Seed(p)
}

// Seed performs the one-shot loading → ready transition. Later calls are no-ops.
func (f *Form) Seed(p models.ExternalProfile) bool {
	if f.status == StatusReady {
		return false
	}
	f.user = p
	f.Name.Seed(p.FullName())
	f.Email.Seed(p.Email)
	f.LinkedInURL = ""
	if f.opts.PrefillLinkedIn {
		f.LinkedInURL = p.LinkedInURL
	}
	f.status = StatusReady
	return true
}

// SetProfileField applies one edit to the profile inputs. Name and email are
// validated; the returned result is always valid for the URL fields.
func (f *Form) SetProfileField(field models.ProfileField, value string) (validation.Result, error) {
	switch field {
	case models.ProfileFieldName:
		return f.Name.Edit(value, validation.Name), nil
	case models.ProfileFieldEmail:
		return f.Email.Edit(value, validation.Email), nil
	case models.ProfileFieldLinkedInURL:
		f.LinkedInURL = value
	case models.ProfileFieldOtherURLs:
		f.OtherURLs = value
	default:
		return validation.Result{}, fmt.Errorf("unknown profile field %q", field)
	}
	return validation.Result{Valid: true}, nil
}

// Editor returns the record list behind a section.
func (f *Form) Editor(section Section) (recordlist.Editor, bool) {
	switch section {
	case SectionExperience:
		return f.Experience, true
	case SectionEducation:
		return f.Education, true
	case SectionProjects:
		return f.Projects, true
	}
	return nil, false
}

// snapshot is the stored shape of a Form.
type snapshot struct {
	Status      Status                              `json:"status"`
	User        models.ExternalProfile              `json:"user"`
	Name        validation.Field                    `json:"name"`
	Email       validation.Field                    `json:"email"`
	LinkedInURL string                              `json:"linkedinUrl"`
	OtherURLs   string                              `json:"otherUrls"`
	Experience  *recordlist.List[models.Experience] `json:"experience"`
	Education   *recordlist.List[models.Education]  `json:"education"`
	Projects    *recordlist.List[models.Project]    `json:"projects"`
	Skills      *skills.Set                         `json:"skills"`
	Panels      *disclosure.Set                     `json:"panels"`
}

// MarshalJSON encodes the full form state.
func (f *Form) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{
		Status:      f.status,
		User:        f.user,
		Name:        f.Name,
		Email:       f.Email,
		LinkedInURL: f.LinkedInURL,
		OtherURLs:   f.OtherURLs,
		Experience:  f.Experience,
		Education:   f.Education,
		Projects:    f.Projects,
		Skills:      f.Skills,
		Panels:      f.Panels,
	})
}

// Decode restores a form stored with MarshalJSON, binding opts.
func Decode(data []byte, opts Options) (*Form, error) {
	f := New(opts)
	snap := snapshot{
		Experience: f.Experience,
		Education:  f.Education,
		Projects:   f.Projects,
		Skills:     f.Skills,
		Panels:     f.Panels,
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode form: %w", err)
	}
	switch snap.Status {
	case StatusLoading, StatusReady:
		f.status = snap.Status
	default:
		return nil, fmt.Errorf("decode form: unknown status %q", snap.Status)
	}
	f.user = snap.User
	f.Name = snap.Name
	f.Email = snap.Email
	f.LinkedInURL = snap.LinkedInURL
	f.OtherURLs = snap.OtherURLs
	return f, nil
}
