package session

import (
	"onboarding/internal/onboarding/form"
	"onboarding/internal/onboarding/models"
	authmw "onboarding/pkg/platform/middleware/auth"
)

// ProfileFromClaims returns the profile the session vouches for.
func ProfileFromClaims(claims *authmw.SessionClaims) models.ExternalProfile {
	return models.ExternalProfile{
		GivenName:   claims.GivenName,
		FamilyName:  claims.FamilyName,
		Email:       claims.Email,
		Picture:     claims.Picture,
		LinkedInURL: claims.LinkedInURL,
	}
}

// Source resolves the form's profile from the request's session. Anonymous
// requests never resolve.
func Source(claims *authmw.SessionClaims) form.ProfileSource {
	if claims == nil {
		return form.Unavailable()
	}
	return form.Fixed(ProfileFromClaims(claims))
}
