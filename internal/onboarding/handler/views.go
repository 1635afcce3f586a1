package handler

import (
	"onboarding/internal/onboarding/disclosure"
	"onboarding/internal/onboarding/form"
	"onboarding/internal/onboarding/models"
	"onboarding/internal/onboarding/recordlist"
	"onboarding/internal/onboarding/skills"
	"onboarding/internal/onboarding/validation"
	"onboarding/internal/platform/i18n"
	authmw "onboarding/pkg/platform/middleware/auth"
)

// AvatarView is the header avatar. While the form is loading only a
// placeholder is shown.
type AvatarView struct {
	Loading bool   `json:"loading"`
	Picture string `json:"picture,omitempty"`
	Initial string `json:"initial,omitempty"`
	Alt     string `json:"alt,omitempty"`
}

// SectionState summarises one record section for clients.
type SectionState struct {
	Count     int  `json:"count"`
	CanAdd    bool `json:"canAdd"`
	CanDelete bool `json:"canDelete"`
	Expanded  bool `json:"expanded"`
}

// ValidationView reports the outcome of a profile edit.
type ValidationView struct {
	Field   string `json:"field"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// StateView is the JSON rendering of a session's form.
type StateView struct {
	Status     form.Status                   `json:"status"`
	Avatar     AvatarView                    `json:"avatar"`
	Draft      *form.Form                    `json:"draft,omitempty"`
	Sections   map[form.Section]SectionState `json:"sections,omitempty"`
	Errors     map[string]string             `json:"errors,omitempty"`
	Validation *ValidationView               `json:"validation,omitempty"`
}

func avatarFor(claims *authmw.SessionClaims, f *form.Form) AvatarView {
	if claims == nil || f == nil || !f.Ready() {
		return AvatarView{Loading: true}
	}
	user := f.User()
	alt := user.GivenName
	if alt == "" {
		alt = "User"
	}
	return AvatarView{
		Picture: user.Picture,
		Initial: user.Initial(),
		Alt:     alt,
	}
}

func sectionState(ed recordlist.Editor, expanded bool) SectionState {
	return SectionState{
		Count:     ed.Len(),
		CanAdd:    ed.CanAdd(),
		CanDelete: ed.CanDelete(),
		Expanded:  expanded,
	}
}

func buildState(tr *i18n.Translator, claims *authmw.SessionClaims, f *form.Form) StateView {
	view := StateView{
		Status: f.Status(),
		Avatar: avatarFor(claims, f),
	}
	if !f.Ready() {
		return view
	}
	view.Draft = f
	view.Sections = make(map[form.Section]SectionState, len(form.Sections))
	for _, sec := range form.Sections {
		ed, _ := f.Editor(sec)
		view.Sections[sec] = sectionState(ed, f.Panels.Expanded(disclosure.PanelID(sec)))
	}
	errs := map[string]string{}
	if f.Name.Invalid() {
		errs[string(models.ProfileFieldName)] = tr.T(f.Name.Error)
	}
	if f.Email.Invalid() {
		errs[string(models.ProfileFieldEmail)] = tr.T(f.Email.Error)
	}
	if len(errs) > 0 {
		view.Errors = errs
	}
	return view
}

func validationView(tr *i18n.Translator, field string, res validation.Result) *ValidationView {
	v := &ValidationView{Field: field, Valid: res.Valid}
	if !res.Valid && res.Message != "" {
		v.Message = tr.T(res.Message)
	}
	return v
}

// pageView feeds the HTML template.
type pageView struct {
	Tr     *i18n.Translator
	Lang   string
	Avatar AvatarView
	Ready  bool

	Name        validation.Field
	Email       validation.Field
	LinkedInURL string
	OtherURLs   string

	Experience      SectionState
	ExperienceItems []models.Experience
	Education       SectionState
	EducationItems  []models.Education
	Projects        SectionState
	ProjectItems    []models.Project

	SkillsExpanded bool
	Skills         []skills.Tag

	MaxProjectDescription int
	PresentEndDate        string
}

func buildPage(tr *i18n.Translator, claims *authmw.SessionClaims, f *form.Form) pageView {
	page := pageView{
		Tr:                    tr,
		Lang:                  tr.Tag().String(),
		Avatar:                avatarFor(claims, f),
		Ready:                 f.Ready(),
		MaxProjectDescription: models.MaxProjectDescription,
		PresentEndDate:        models.PresentEndDate,
	}
	if !page.Ready {
		return page
	}
	page.Name = f.Name
	page.Email = f.Email
	page.LinkedInURL = f.LinkedInURL
	page.OtherURLs = f.OtherURLs

	page.Experience = sectionState(f.Experience, f.Panels.Expanded(disclosure.PanelExperience))
	page.ExperienceItems = f.Experience.Items()
	page.Education = sectionState(f.Education, f.Panels.Expanded(disclosure.PanelEducation))
	page.EducationItems = f.Education.Items()
	page.Projects = sectionState(f.Projects, f.Panels.Expanded(disclosure.PanelProjects))
	page.ProjectItems = f.Projects.Items()

	page.SkillsExpanded = f.Panels.Expanded(disclosure.PanelSkills)
	page.Skills = f.Skills.Tags()
	return page
}
