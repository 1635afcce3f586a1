// Package handler serves the login, callback and logout endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"onboarding/internal/identity/oauth"
	"onboarding/internal/identity/session"
	"onboarding/internal/platform/metrics"
	authmw "onboarding/pkg/platform/middleware/auth"
	"onboarding/pkg/platform/middleware/device"
	request "onboarding/pkg/platform/middleware/request"
)

// Provider is the identity provider client.
type Provider interface {
	AuthCodeURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error)
	FetchIdentity(ctx context.Context, tok *oauth2.Token) (oauth.Identity, error)
	EndSessionURL() string
}

// DraftDiscarder drops a session's onboarding draft.
type DraftDiscarder interface {
	Discard(ctx context.Context, sessionID string) error
}

// CookieConfig names and scopes the cookies this handler sets.
type CookieConfig struct {
	SessionName    string
	LoginStateName string
	Secure         bool
	LoginStateTTL  time.Duration
}

// Handler wires the login round trip.
type Handler struct {
	provider   Provider
	sessions   *session.Service
	drafts     DraftDiscarder
	cookies    CookieConfig
	afterLogin string
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// New constructs the identity handler. afterLogin is where a successful
// callback lands.
func New(provider Provider, sessions *session.Service, drafts DraftDiscarder, cookies CookieConfig, afterLogin string, logger *slog.Logger, m *metrics.Metrics) *Handler {
	if cookies.LoginStateTTL <= 0 {
		cookies.LoginStateTTL = 10 * time.Minute
	}
	return &Handler{
		provider:   provider,
		sessions:   sessions,
		drafts:     drafts,
		cookies:    cookies,
		afterLogin: afterLogin,
		logger:     logger,
		metrics:    m,
	}
}

// Register mounts the identity routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/login", h.HandleLogin)
	r.Get("/callback", h.HandleCallback)
	r.Get("/logout", h.HandleLogout)
	r.Post("/logout", h.HandleLogout)
}

// HandleLogin starts the authorization code flow.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	token, err := h.sessions.IssueLoginState(state, verifier, h.cookies.LoginStateTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue login state",
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
		http.Error(w, "failed to start login", http.StatusInternalServerError)
		return
	}
	h.setCookie(w, h.cookies.LoginStateName, token, h.cookies.LoginStateTTL)
	http.Redirect(w, r, h.provider.AuthCodeURL(state, verifier), http.StatusFound)
}

// HandleCallback finishes the flow and issues the session cookie.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	h.clearCookie(w, h.cookies.LoginStateName)

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.failLogin(ctx, w, "provider returned an error", http.StatusBadRequest,
			"error", errParam,
			"error_description", r.URL.Query().Get("error_description"),
		)
		return
	}

	code := r.URL.Query().Get("code")
	stateValue := r.URL.Query().Get("state")
	if code == "" || stateValue == "" {
		h.failLogin(ctx, w, "missing code or state", http.StatusBadRequest)
		return
	}

	cookie, err := r.Cookie(h.cookies.LoginStateName)
	if err != nil {
		h.failLogin(ctx, w, "missing login state", http.StatusBadRequest)
		return
	}
	loginState, err := h.sessions.ValidateLoginState(cookie.Value)
	if err != nil || loginState.State != stateValue {
		h.failLogin(ctx, w, "invalid state", http.StatusBadRequest)
		return
	}

	tok, err := h.provider.Exchange(ctx, code, loginState.Verifier)
	if err != nil {
		h.failLogin(ctx, w, "failed to exchange provider token", http.StatusBadGateway, "error", err)
		return
	}
	identity, err := h.provider.FetchIdentity(ctx, tok)
	if err != nil {
		h.failLogin(ctx, w, "failed to fetch provider profile", http.StatusBadGateway, "error", err)
		return
	}

	signed, claims, err := h.sessions.Issue(identity.Subject, identity.Profile)
	if err != nil {
		h.failLogin(ctx, w, "failed to issue session", http.StatusInternalServerError, "error", err)
		return
	}
	h.setCookie(w, h.cookies.SessionName, signed, h.sessions.TTL())

	h.metrics.ObserveLogin("success")
	h.logger.InfoContext(ctx, "user signed in",
		"subject", identity.Subject,
		"session_id", claims.SessionID,
		"device", device.GetDeviceLabel(ctx),
		"request_id", requestID,
	)
	http.Redirect(w, r, h.afterLogin, http.StatusSeeOther)
}

// HandleLogout discards the draft, clears the session cookie and hands the
// browser to the provider's logout endpoint.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if sid := authmw.GetSessionID(ctx); sid != "" {
		if err := h.drafts.Discard(ctx, sid); err != nil {
			h.logger.ErrorContext(ctx, "failed to discard draft on logout",
				"error", err,
				"session_id", sid,
				"request_id", request.GetRequestID(ctx),
			)
		}
		h.logger.InfoContext(ctx, "user signed out", "session_id", sid)
	}
	h.clearCookie(w, h.cookies.SessionName)
	http.Redirect(w, r, h.provider.EndSessionURL(), http.StatusSeeOther)
}

func (h *Handler) failLogin(ctx context.Context, w http.ResponseWriter, msg string, status int, attrs ...any) {
	h.metrics.ObserveLogin("failure")
	attrs = append(attrs,
		"device", device.GetDeviceLabel(ctx),
		"request_id", request.GetRequestID(ctx),
	)
	h.logger.WarnContext(ctx, "login failed: "+msg, attrs...)
	http.Error(w, msg, status)
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
