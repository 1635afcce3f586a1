package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"onboarding/pkg/platform/httputil"
	request "onboarding/pkg/platform/middleware/request"
	"onboarding/pkg/requestcontext"
)

// SessionValidator defines the interface for validating session cookies.
type SessionValidator interface {
	ValidateSession(token string) (*SessionClaims, error)
}

// SessionClaims is what the validator vouches for: the session id and the
// profile captured at login.
type SessionClaims struct {
	SessionID   string
	Subject     string
	GivenName   string
	FamilyName  string
	Email       string
	Picture     string
	LinkedInURL string
}

type contextKeyClaims struct{}

// ContextKeyClaims is exported for tests that build contexts by hand.
var ContextKeyClaims = contextKeyClaims{}

// GetClaims returns the session claims, or nil for anonymous requests.
func GetClaims(ctx context.Context) *SessionClaims {
	claims, ok := ctx.Value(ContextKeyClaims).(*SessionClaims)
	if !ok {
		return nil
	}
	return claims
}

// GetSessionID retrieves the session ID from the context.
func GetSessionID(ctx context.Context) string {
	return requestcontext.SessionID(ctx)
}

// WithClaims attaches claims and their session id to ctx.
func WithClaims(ctx context.Context, claims *SessionClaims) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClaims, claims)
	return requestcontext.WithSessionID(ctx, claims.SessionID)
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// LoadSession reads the session cookie and, when it validates, attaches the
// claims to the request context. Requests without a valid cookie continue
// anonymously; a stale cookie is cleared.
func LoadSession(cookieName string, validator SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			claims, err := validator.ValidateSession(cookie.Value)
			if err != nil {
				logger.WarnContext(ctx, "ignoring invalid session cookie",
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    "",
					Path:     "/",
					MaxAge:   -1,
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
		})
	}
}

// RequireSession rejects anonymous requests: JSON clients get 401, browsers
// are redirected to redirectTo.
func RequireSession(redirectTo string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetClaims(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			logger.InfoContext(ctx, "unauthenticated request",
				"path", r.URL.Path,
				"request_id", request.GetRequestID(ctx),
			)
			if httputil.WantsJSON(r) {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Sign in required")
				return
			}
			http.Redirect(w, r, redirectTo, http.StatusSeeOther)
		})
	}
}
