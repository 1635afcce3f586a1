package form

import (
	"context"

	"onboarding/internal/onboarding/models"
)

// ProfileSource resolves the signed-in user's profile. Resolve may block until
// the profile is known; ok is false when none is available, including when ctx
// ends first.
type ProfileSource interface {
	Resolve(ctx context.Context) (profile models.ExternalProfile, ok bool)
}

// ProfileSourceFunc adapts a function to ProfileSource.
type ProfileSourceFunc func(ctx context.Context) (models.ExternalProfile, bool)

// Resolve calls f.
func (f ProfileSourceFunc) Resolve(ctx context.Context) (models.ExternalProfile, bool) {
	return f(ctx)
}

// Fixed is a source that resolves immediately to p.
func Fixed(p models.ExternalProfile) ProfileSource {
	return ProfileSourceFunc(func(context.Context) (models.ExternalProfile, bool) {
		return p, true
	})
}

// Pending is a source that never resolves on its own.
func Pending() ProfileSource {
	return ProfileSourceFunc(func(ctx context.Context) (models.ExternalProfile, bool) {
		<-ctx.Done()
		return models.ExternalProfile{}, false
	})
}

// Unavailable resolves at once with no profile, for anonymous visitors.
func Unavailable() ProfileSource {
	return ProfileSourceFunc(func(context.Context) (models.ExternalProfile, bool) {
		return models.ExternalProfile{}, false
	})
}
