package testutil

import (
	"context"
	"net/http"

	"onboarding/pkg/requestcontext"
)

// WithSessionID adds a session ID to the request context, simulating what the
// session middleware does for signed-in requests.
func WithSessionID(req *http.Request, sessionID string) *http.Request {
	if sessionID == "" {
		return req
	}
	return req.WithContext(requestcontext.WithSessionID(req.Context(), sessionID))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
