// Package service applies onboarding form operations to a session's stored
// draft. Every edit is one atomic read-modify-write against the draft store.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"onboarding/internal/onboarding/form"
	"onboarding/internal/onboarding/models"
	"onboarding/internal/onboarding/store/draft"
	"onboarding/internal/platform/metrics"
	dErrors "onboarding/pkg/domain-errors"
	"onboarding/pkg/platform/sentinel"
	"onboarding/pkg/requestcontext"
)

// DraftStore persists forms per session.
type DraftStore interface {
	Load(ctx context.Context, sessionID string) (*form.Form, error)
	Save(ctx context.Context, sessionID string, f *form.Form) error
	Update(ctx context.Context, sessionID string, fn draft.UpdateFunc) (*form.Form, error)
	Delete(ctx context.Context, sessionID string) error
}

const defaultResolveTimeout = 2 * time.Second

var tracer = otel.Tracer("onboarding/internal/onboarding/service")

// Service owns the onboarding use cases.
type Service struct {
	drafts         DraftStore
	formOptions    form.Options
	resolveTimeout time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithFormOptions sets the options new drafts are created with.
func WithFormOptions(opts form.Options) Option {
	return func(s *Service) {
		s.formOptions = opts
	}
}

// WithResolveTimeout bounds how long Open waits on the profile source.
func WithResolveTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.resolveTimeout = d
		}
	}
}

// New constructs the onboarding service.
func New(drafts DraftStore, opts ...Option) *Service {
	s := &Service{
		drafts:         drafts,
		resolveTimeout: defaultResolveTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

var errNotResolved = errors.New("profile not resolved")

// Open returns the session's draft, creating it on first visit and seeding it
// once src resolves. A draft whose profile is still unknown is returned in the
// loading state.
func (s *Service) Open(ctx context.Context, sessionID string, src form.ProfileSource) (*form.Form, error) {
	ctx, span := startSpan(ctx, "onboarding.open", sessionID)
	defer span.End()

	f, err := s.open(ctx, sessionID, src)
	endSpan(span, f, err)
	return f, err
}

func (s *Service) open(ctx context.Context, sessionID string, src form.ProfileSource) (*form.Form, error) {
	if sessionID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session required")
	}

	f, err := s.drafts.Load(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return s.create(ctx, sessionID, src)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load draft")
	}
	if f.Ready() {
		return f, nil
	}

	profile, ok := s.resolve(ctx, src)
	if !ok {
		return f, nil
	}
	updated, err := s.drafts.Update(ctx, sessionID, func(f *form.Form) error {
		if !f.Seed(profile) {
			return errNotResolved
		}
		return nil
	})
	if errors.Is(err, errNotResolved) {
		return s.Get(ctx, sessionID)
	}
	if err != nil {
		return nil, s.translate(err, "failed to seed draft")
	}
	s.markReady(ctx, sessionID)
	return updated, nil
}

func (s *Service) create(ctx context.Context, sessionID string, src form.ProfileSource) (*form.Form, error) {
	f := form.New(s.formOptions)
	mountCtx, cancel := context.WithTimeout(ctx, s.resolveTimeout)
	defer cancel()
	ready := f.Mount(mountCtx, src)

	if err := s.drafts.Save(ctx, sessionID, f); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save draft")
	}
	s.metrics.IncrementDraftsCreated()
	s.logger.InfoContext(ctx, "onboarding draft created",
		"session_id", sessionID,
		"request_id", requestcontext.RequestID(ctx),
	)
	if ready {
		s.markReady(ctx, sessionID)
	}
	return f, nil
}

func (s *Service) resolve(ctx context.Context, src form.ProfileSource) (models.ExternalProfile, bool) {
	if src == nil {
		return models.ExternalProfile{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, s.resolveTimeout)
	defer cancel()
	return src.Resolve(ctx)
}

func (s *Service) markReady(ctx context.Context, sessionID string) {
	s.metrics.IncrementFormsReady()
	s.logger.InfoContext(ctx, "onboarding form ready", "session_id", sessionID)
}

// Get returns the stored draft without creating or seeding it.
func (s *Service) Get(ctx context.Context, sessionID string) (*form.Form, error) {
	f, err := s.drafts.Load(ctx, sessionID)
	if err != nil {
		return nil, s.translate(err, "failed to load draft")
	}
	return f, nil
}

// Discard drops the session's draft, e.g. on logout.
func (s *Service) Discard(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.drafts.Delete(ctx, sessionID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to discard draft")
	}
	s.logger.InfoContext(ctx, "onboarding draft discarded", "session_id", sessionID)
	return nil
}

// mutate runs fn against a ready draft and persists the result.
func (s *Service) mutate(ctx context.Context, sessionID, operation string, fn func(*form.Form) error) (*form.Form, error) {
	ctx, span := startSpan(ctx, "onboarding."+operation, sessionID)
	defer span.End()

	f, err := s.drafts.Update(ctx, sessionID, func(f *form.Form) error {
		if !f.Ready() {
			return dErrors.New(dErrors.CodeInvalidState, "form is still loading")
		}
		return fn(f)
	})
	if err != nil {
		err = s.translate(err, "failed to update draft")
		endSpan(span, nil, err)
		s.metrics.ObserveOperation(operation, string(dErrors.CodeOf(err)))
		if dErrors.Is(err, dErrors.CodeInternal) {
			s.logger.ErrorContext(ctx, "draft update failed",
				"operation", operation,
				"session_id", sessionID,
				"error", err,
			)
		}
		return nil, err
	}
	s.metrics.ObserveOperation(operation, "ok")
	endSpan(span, f, nil)
	return f, nil
}

func startSpan(ctx context.Context, name, sessionID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("onboarding.session_id", sessionID),
	))
}

// endSpan records the outcome on span. Only internal failures mark the span
// as an error; rejected edits are expected traffic.
func endSpan(span trace.Span, f *form.Form, err error) {
	if err != nil {
		code := dErrors.CodeOf(err)
		span.SetAttributes(attribute.String("onboarding.error_code", string(code)))
		if code == dErrors.CodeInternal {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return
	}
	if f != nil {
		span.SetAttributes(attribute.String("onboarding.status", string(f.Status())))
	}
}

func (s *Service) translate(err error, msg string) error {
	switch {
	case dErrors.HasCode(err):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "onboarding draft not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "draft was modified concurrently")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
