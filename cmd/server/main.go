package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	identityhandler "onboarding/internal/identity/handler"
	"onboarding/internal/identity/oauth"
	"onboarding/internal/identity/session"
	"onboarding/internal/onboarding/form"
	onboardinghandler "onboarding/internal/onboarding/handler"
	"onboarding/internal/onboarding/service"
	"onboarding/internal/onboarding/store/draft"
	"onboarding/internal/platform/config"
	"onboarding/internal/platform/httpserver"
	"onboarding/internal/platform/logger"
	"onboarding/internal/platform/metrics"
	"onboarding/internal/platform/ratelimit"
	redisclient "onboarding/internal/platform/redis"
	"onboarding/internal/platform/tracing"
	httptransport "onboarding/internal/transport/http"
)

const sweepInterval = 5 * time.Minute

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("failed to flush traces", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	formOpts := form.Options{PrefillLinkedIn: cfg.Onboarding.PrefillLinkedIn}

	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}

	var (
		drafts service.DraftStore
		memory *draft.InMemoryStore
		health httptransport.HealthChecker
	)
	if rdb != nil {
		defer rdb.Close()
		drafts = draft.NewRedis(rdb.Client, draft.WithTTL(cfg.Onboarding.DraftTTL), draft.WithFormOptions(formOpts))
		health = rdb
		log.Info("draft store: redis")
	} else {
		memory = draft.NewInMemory(cfg.Onboarding.DraftTTL, formOpts)
		drafts = memory
		log.Info("draft store: in-memory")
	}

	onboarding := service.New(drafts,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithFormOptions(formOpts),
		service.WithResolveTimeout(cfg.Onboarding.ProfileTimeout),
	)
	sessions := session.NewService(cfg.Session.SigningKey, cfg.Session.Issuer, cfg.Session.TTL)

	limitStore := ratelimit.NewInMemoryStore()
	limiter := ratelimit.New(limitStore, log,
		ratelimit.WithDisabled(cfg.RateLimit.Disabled),
		ratelimit.WithObserver(m),
	)

	routes := httptransport.Config{
		Logger:        log,
		Metrics:       m,
		Gatherer:      reg,
		AdminToken:    cfg.AdminToken,
		SessionCookie: cfg.Session.CookieName,
		Sessions:      sessions,
		Onboarding:    onboardinghandler.New(onboarding, log),
		Health:        health,
		RateLimits: httptransport.RateLimits{
			Limiter: limiter,
			Login: ratelimit.Rule{
				Class:  "login",
				Limit:  cfg.RateLimit.LoginPerWindow,
				Window: cfg.RateLimit.Window,
				Key:    ratelimit.ByClientIP,
			},
			Form: ratelimit.Rule{
				Class:  "form",
				Limit:  cfg.RateLimit.FormPerWindow,
				Window: cfg.RateLimit.Window,
				Key:    ratelimit.BySession,
			},
		},
	}
	if cfg.LoginEnabled() {
		provider := oauth.NewProvider(oauth.Config{
			ClientID:              cfg.OAuth.ClientID,
			ClientSecret:          cfg.OAuth.ClientSecret,
			AuthURL:               cfg.OAuth.AuthURL,
			TokenURL:              cfg.OAuth.TokenURL,
			UserInfoURL:           cfg.OAuth.UserInfoURL,
			LogoutURL:             cfg.OAuth.LogoutURL,
			RedirectURL:           cfg.OAuth.RedirectURL,
			PostLogoutRedirectURL: cfg.OAuth.PostLogoutRedirectURL,
			Scopes:                cfg.OAuth.Scopes,
		})
		cookies := identityhandler.CookieConfig{
			SessionName:    cfg.Session.CookieName,
			LoginStateName: cfg.Session.LoginCookieName,
			Secure:         cfg.Session.SecureCookies,
			LoginStateTTL:  cfg.Session.LoginStateTTL,
		}
		routes.Identity = identityhandler.New(provider, sessions, onboarding, cookies, onboardinghandler.PagePath, log, m)
	} else {
		log.Warn("OAUTH_CLIENT_ID not set; sign-in is disabled")
	}

	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(routes))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, cfg.ShutdownTimeout, log)
	})
	g.Go(func() error {
		sweep(gctx, memory, limitStore, log)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// sweep evicts expired in-memory state until ctx is done. drafts is nil when
// drafts live in redis.
func sweep(ctx context.Context, drafts *draft.InMemoryStore, limits *ratelimit.InMemoryStore, log *slog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			limits.Sweep(now)
			if drafts == nil {
				continue
			}
			n, err := drafts.DeleteExpired(ctx, now)
			if err != nil {
				log.WarnContext(ctx, "draft sweep failed", "error", err)
				continue
			}
			if n > 0 {
				log.DebugContext(ctx, "expired drafts removed", "count", n)
			}
		}
	}
}
