package models

import "strings"

// ExternalProfile is what the identity provider knows about the signed-in
// user. The onboarding form only ever reads it.
type ExternalProfile struct {
	GivenName   string `json:"given_name"`
	FamilyName  string `json:"family_name"`
	Email       string `json:"email"`
	Picture     string `json:"picture,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
}

// FullName joins given and family name, or returns "" unless both are present.
func (p ExternalProfile) FullName() string {
	if p.GivenName == "" || p.FamilyName == "" {
		return ""
	}
	return p.GivenName + " " + p.FamilyName
}

// Initial is the avatar fallback when no picture is available.
func (p ExternalProfile) Initial() string {
	for _, r := range strings.TrimSpace(p.GivenName) {
		return string(r)
	}
	return "U"
}

// ProfileField names one editable profile input.
type ProfileField string

const (
	ProfileFieldName        ProfileField = "name"
	ProfileFieldEmail       ProfileField = "email"
	ProfileFieldLinkedInURL ProfileField = "linkedinUrl"
	ProfileFieldOtherURLs   ProfileField = "otherUrls"
)

// ParseProfileField validates a profile field name from a request.
func ParseProfileField(s string) (ProfileField, bool) {
	switch f := ProfileField(s); f {
	case ProfileFieldName, ProfileFieldEmail, ProfileFieldLinkedInURL, ProfileFieldOtherURLs:
		return f, true
	}
	return "", false
}
