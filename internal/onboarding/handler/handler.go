// Package handler serves the onboarding page, its JSON state and the form
// operations.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"onboarding/internal/identity/session"
	"onboarding/internal/onboarding/form"
	"onboarding/internal/onboarding/service"
	"onboarding/internal/onboarding/validation"
	"onboarding/internal/platform/i18n"
	dErrors "onboarding/pkg/domain-errors"
	"onboarding/pkg/platform/httputil"
	authmw "onboarding/pkg/platform/middleware/auth"
	request "onboarding/pkg/platform/middleware/request"
)

// PagePath is where every HTML form post redirects.
const PagePath = "/onboarding"

// Service defines the onboarding operations the handler drives.
type Service interface {
	Open(ctx context.Context, sessionID string, src form.ProfileSource) (*form.Form, error)
	UpdateProfileField(ctx context.Context, sessionID, field, value string) (*form.Form, validation.Result, error)
	AddRecord(ctx context.Context, sessionID, section string) (*form.Form, error)
	DeleteRecord(ctx context.Context, sessionID, section string) (*form.Form, error)
	UpdateRecordFields(ctx context.Context, sessionID, section string, index int, values []service.FieldValue) (*form.Form, error)
	AddSkills(ctx context.Context, sessionID, names string) (*form.Form, error)
	RemoveSkill(ctx context.Context, sessionID, name string) (*form.Form, error)
	TogglePanel(ctx context.Context, sessionID, panel string) (*form.Form, error)
}

// Handler handles onboarding endpoints.
type Handler struct {
	onboarding Service
	logger     *slog.Logger
}

// New creates a new onboarding Handler.
func New(onboarding Service, logger *slog.Logger) *Handler {
	return &Handler{onboarding: onboarding, logger: logger}
}

// Register registers the onboarding routes. Callers mount it behind session
// middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get(PagePath, h.handlePage)
	r.Get(PagePath+"/state", h.handleState)
	r.Post(PagePath+"/profile", h.handleProfile)
	r.Post(PagePath+"/skills", h.handleSkills)
	r.Post(PagePath+"/panels/{panel}/toggle", h.handleTogglePanel)
	r.Post(PagePath+"/{section}/add", h.handleAddRecord)
	r.Post(PagePath+"/{section}/delete", h.handleDeleteRecord)
	r.Post(PagePath+"/{section}/{index}", h.handleUpdateRecord)
}

func (h *Handler) open(r *http.Request) (*form.Form, *authmw.SessionClaims, error) {
	ctx := r.Context()
	claims := authmw.GetClaims(ctx)
	f, err := h.onboarding.Open(ctx, authmw.GetSessionID(ctx), session.Source(claims))
	return f, claims, err
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	f, claims, err := h.open(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	tr := i18n.NewTranslator(i18n.ResolveTag(r))
	if err := renderPage(w, http.StatusOK, buildPage(tr, claims, f)); err != nil {
		ctx := r.Context()
		h.logger.ErrorContext(ctx, "failed to render onboarding page",
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	f, claims, err := h.open(r)
	if err != nil {
		h.writeJSONError(w, r, err)
		return
	}
	tr := i18n.NewTranslator(i18n.ResolveTag(r))
	httputil.WriteJSON(w, http.StatusOK, buildState(tr, claims, f))
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	field := r.FormValue("field")
	f, res, err := h.onboarding.UpdateProfileField(ctx, authmw.GetSessionID(ctx), field, r.FormValue("value"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if httputil.WantsJSON(r) {
		tr := i18n.NewTranslator(i18n.ResolveTag(r))
		view := buildState(tr, authmw.GetClaims(ctx), f)
		view.Validation = validationView(tr, field, res)
		httputil.WriteJSON(w, http.StatusOK, view)
		return
	}
	http.Redirect(w, r, PagePath, http.StatusSeeOther)
}

func (h *Handler) handleSkills(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := authmw.GetSessionID(ctx)
	name := r.FormValue("name")

	var (
		f   *form.Form
		err error
	)
	switch action := r.FormValue("action"); action {
	case "add", "":
		f, err = h.onboarding.AddSkills(ctx, sid, name)
	case "remove":
		f, err = h.onboarding.RemoveSkill(ctx, sid, name)
	default:
		err = dErrors.New(dErrors.CodeBadRequest, "unknown skills action: "+action)
	}
	h.respond(w, r, f, err, "skills")
}

func (h *Handler) handleTogglePanel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	panel := chi.URLParam(r, "panel")
	f, err := h.onboarding.TogglePanel(ctx, authmw.GetSessionID(ctx), panel)
	h.respond(w, r, f, err, panel)
}

func (h *Handler) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	section := chi.URLParam(r, "section")
	f, err := h.onboarding.AddRecord(ctx, authmw.GetSessionID(ctx), section)
	h.respond(w, r, f, err, section)
}

func (h *Handler) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	section := chi.URLParam(r, "section")
	f, err := h.onboarding.DeleteRecord(ctx, authmw.GetSessionID(ctx), section)
	h.respond(w, r, f, err, section)
}

// handleUpdateRecord accepts either one field/value pair or a whole record
// posted with one input per field.
func (h *Handler) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	section := chi.URLParam(r, "section")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "record index must be a number"))
		return
	}
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid form body"))
		return
	}

	var values []service.FieldValue
	if field := r.PostForm.Get("field"); field != "" {
		values = []service.FieldValue{{Field: field, Value: r.PostForm.Get("value")}}
	} else if sec, ok := form.ParseSection(section); ok {
		for _, field := range form.Fields(sec) {
			if submitted, ok := r.PostForm[field]; ok && len(submitted) > 0 {
				values = append(values, service.FieldValue{Field: field, Value: submitted[len(submitted)-1]})
			}
		}
	}

	f, err := h.onboarding.UpdateRecordFields(ctx, authmw.GetSessionID(ctx), section, index, values)
	h.respond(w, r, f, err, section)
}

// respond answers a form operation: JSON clients get the new state, browsers
// are sent back to the page.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, f *form.Form, err error, anchor string) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if httputil.WantsJSON(r) {
		tr := i18n.NewTranslator(i18n.ResolveTag(r))
		httputil.WriteJSON(w, http.StatusOK, buildState(tr, authmw.GetClaims(r.Context()), f))
		return
	}
	target := PagePath
	if _, ok := form.ParseSection(anchor); ok || anchor == "skills" {
		target += "#" + anchor
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if httputil.WantsJSON(r) {
		h.writeJSONError(w, r, err)
		return
	}
	h.logFailure(r, err)
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInvalidState || code == dErrors.CodeNotFound {
		http.Redirect(w, r, PagePath, http.StatusSeeOther)
		return
	}
	msg := "internal error"
	if code != dErrors.CodeInternal {
		msg = err.Error()
	}
	http.Error(w, msg, dErrors.ToHTTPStatus(code))
}

func (h *Handler) writeJSONError(w http.ResponseWriter, r *http.Request, err error) {
	h.logFailure(r, err)
	httputil.WriteError(w, err)
}

func (h *Handler) logFailure(r *http.Request, err error) {
	ctx := r.Context()
	attrs := []any{
		"error", err,
		"path", r.URL.Path,
		"request_id", request.GetRequestID(ctx),
	}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "onboarding request failed", attrs...)
		return
	}
	h.logger.WarnContext(ctx, "onboarding request rejected", attrs...)
}
