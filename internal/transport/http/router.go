// Package httptransport assembles the public router: shared middleware, the
// landing page, operator endpoints and the feature handlers.
package httptransport

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"onboarding/internal/platform/i18n"
	"onboarding/internal/platform/metrics"
	"onboarding/internal/platform/ratelimit"
	"onboarding/pkg/platform/httputil"
	"onboarding/pkg/platform/middleware/admin"
	authmw "onboarding/pkg/platform/middleware/auth"
	"onboarding/pkg/platform/middleware/device"
	"onboarding/pkg/platform/middleware/metadata"
	request "onboarding/pkg/platform/middleware/request"
	"onboarding/pkg/platform/middleware/requesttime"
)

//go:embed templates/*.html static
var assets embed.FS

var landingTemplate = template.Must(template.ParseFS(assets, "templates/landing.html"))

// Registrar mounts a feature's routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// RateLimits caps the sign-in round trip and the onboarding routes.
type RateLimits struct {
	Limiter *ratelimit.Limiter
	Login   ratelimit.Rule
	Form    ratelimit.Rule
}

// Config collects everything the router wires together. Identity, Health and
// the rate limiter are optional.
type Config struct {
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	AdminToken    string
	SessionCookie string
	Sessions      authmw.SessionValidator
	Identity      Registrar
	Onboarding    Registrar
	Health        HealthChecker
	RateLimits    RateLimits
}

// NewRouter builds the application's HTTP handler. Every request except the
// operator endpoints gets a server span.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(device.Middleware)
	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(request.Latency(cfg.Metrics))
	}
	r.Use(nameSpan)
	r.Use(authmw.LoadSession(cfg.SessionCookie, cfg.Sessions, cfg.Logger))

	r.Get("/", handleLanding(cfg.Logger))
	r.Get("/healthz", handleHealth(cfg.Health))

	static, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(static)))

	if cfg.Gatherer != nil {
		r.With(admin.RequireAdminToken(cfg.AdminToken, cfg.Logger)).
			Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	limits := cfg.RateLimits
	if cfg.Identity != nil {
		r.Group(func(r chi.Router) {
			r.Use(limits.Limiter.Middleware(limits.Login))
			cfg.Identity.Register(r)
		})
	}
	if cfg.Onboarding != nil {
		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireSession("/", cfg.Logger))
			r.Use(limits.Limiter.Middleware(limits.Form))
			cfg.Onboarding.Register(r)
		})
	}
	return otelhttp.NewHandler(r, "http.server",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != "/metrics"
		}),
	)
}

// nameSpan renames the server span once routing has matched, so span names
// carry the route pattern rather than the raw path.
func nameSpan(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		rctx := chi.RouteContext(r.Context())
		if rctx == nil {
			return
		}
		if pattern := rctx.RoutePattern(); pattern != "" {
			span := trace.SpanFromContext(r.Context())
			span.SetName(r.Method + " " + pattern)
			span.SetAttributes(attribute.String("http.route", pattern))
		}
	})
}

type landingView struct {
	Tr       *i18n.Translator
	Lang     string
	SignedIn bool
}

func handleLanding(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tr := i18n.NewTranslator(i18n.ResolveTag(r))
		view := landingView{
			Tr:       tr,
			Lang:     tr.Tag().String(),
			SignedIn: authmw.GetClaims(r.Context()) != nil,
		}
		var buf bytes.Buffer
		if err := landingTemplate.Execute(&buf, view); err != nil {
			ctx := r.Context()
			logger.ErrorContext(ctx, "failed to render landing page",
				"error", err,
				"request_id", request.GetRequestID(ctx),
			)
			http.Error(w, "failed to render page", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = buf.WriteTo(w)
	}
}

func handleHealth(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.Health(r.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"error":  err.Error(),
				})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
