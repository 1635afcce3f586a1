package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var english = map[string]string{
	"app.project_name": "Launchpad",

	"landing.main_heading":           "Your next role starts with a great profile",
	"landing.sub_heading":            "Sign in and we will pre-fill what we already know about you.",
	"landing.continue_with_linkedin": "Continue with LinkedIn",

	"nav.onboarding": "Onboarding",
	"nav.logout":     "Logout",

	"onboarding.loading":              "Loading your profile…",
	"onboarding.upload_resume":        "Upload Resume",
	"onboarding.import_data":          "Import Data",
	"onboarding.name":                 "Name",
	"onboarding.name_placeholder":     "Enter your full name",
	"onboarding.name_error":           "Name should only contain letters and spaces",
	"onboarding.email":                "Email ID",
	"onboarding.email_placeholder":    "Enter your email address",
	"onboarding.email_error":          "Please enter a valid email address",
	"onboarding.linkedin_url":         "LinkedIn URL",
	"onboarding.linkedin_placeholder": "https://linkedin.com/in/your-profile",
	"onboarding.other_urls":           "Other URLs",
	"onboarding.other_placeholder":    "Portfolio, GitHub, personal site",
	"onboarding.save":                 "Save",

	"section.experience": "Experience",
	"section.education":  "Education",
	"section.projects":   "Projects",
	"section.skills":     "Skills",
	"section.add":        "Add",
	"section.delete":     "Delete",

	"experience.company":           "Company",
	"experience.position":          "Position",
	"experience.start_date":        "Start date",
	"experience.end_date":          "End date",
	"experience.currently_working": "I currently work here",
	"experience.description":       "Description",
	"experience.present":           "Present",

	"education.institution": "Institution",
	"education.course":      "Course",
	"education.years":       "Years",
	"education.outcome":     "Outcome",

	"project.name":        "Project name",
	"project.live_url":    "Live URL",
	"project.source_url":  "Source URL",
	"project.description": "Description (max %d characters)",

	"skills.placeholder": "Add skills, separated by commas",
	"skills.add":         "Add skill",
	"skills.remove":      "Remove %s",
	"skills.empty":       "No skills added yet",
}

func init() {
	for key, msg := range english {
		if err := message.SetString(language.English, key, msg); err != nil {
			panic(err)
		}
	}
}
