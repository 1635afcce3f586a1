package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Server captures process level configuration.
type Server struct {
	Addr            string        `env:"ONBOARDING_ADDR"             envDefault:":8080"`
	BaseURL         string        `env:"ONBOARDING_BASE_URL"         envDefault:"http://localhost:8080"`
	LogLevel        string        `env:"LOG_LEVEL"                   envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT"                  envDefault:"json"`
	AdminToken      string        `env:"ADMIN_TOKEN"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"            envDefault:"10s"`

	Session    SessionConfig
	Redis      RedisConfig
	OAuth      OAuthConfig
	Onboarding OnboardingConfig
	RateLimit  RateLimitConfig
	Tracing    TracingConfig
}

// SessionConfig controls the signed session cookie.
type SessionConfig struct {
	SigningKey      string        `env:"SESSION_SIGNING_KEY"     envDefault:"dev-secret-key-change-in-production"`
	Issuer          string        `env:"SESSION_ISSUER"          envDefault:"onboarding"`
	CookieName      string        `env:"SESSION_COOKIE_NAME"     envDefault:"onboarding_session"`
	LoginCookieName string        `env:"LOGIN_STATE_COOKIE_NAME" envDefault:"onboarding_login"`
	TTL             time.Duration `env:"SESSION_TTL"             envDefault:"12h"`
	LoginStateTTL   time.Duration `env:"LOGIN_STATE_TTL"         envDefault:"10m"`
	SecureCookies   bool          `env:"SESSION_SECURE_COOKIES"  envDefault:"false"`
}

// RedisConfig configures the shared draft store. An empty URL keeps drafts
// in memory.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE"      envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT"   envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT"   envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT"  envDefault:"3s"`
}

// OAuthConfig describes the external identity provider.
type OAuthConfig struct {
	ClientID              string   `env:"OAUTH_CLIENT_ID"`
	ClientSecret          string   `env:"OAUTH_CLIENT_SECRET"`
	AuthURL               string   `env:"OAUTH_AUTH_URL"`
	TokenURL              string   `env:"OAUTH_TOKEN_URL"`
	UserInfoURL           string   `env:"OAUTH_USERINFO_URL"`
	LogoutURL             string   `env:"OAUTH_LOGOUT_URL"`
	RedirectURL           string   `env:"OAUTH_REDIRECT_URL"`
	PostLogoutRedirectURL string   `env:"OAUTH_POST_LOGOUT_REDIRECT_URL"`
	Scopes                []string `env:"OAUTH_SCOPES" envSeparator:"," envDefault:"openid,profile,email"`
}

// OnboardingConfig holds the form's feature flags.
type OnboardingConfig struct {
	PrefillLinkedIn bool          `env:"ONBOARDING_PREFILL_LINKEDIN" envDefault:"false"`
	DraftTTL        time.Duration `env:"ONBOARDING_DRAFT_TTL"        envDefault:"24h"`
	ProfileTimeout  time.Duration `env:"ONBOARDING_PROFILE_TIMEOUT"  envDefault:"2s"`
}

// RateLimitConfig caps requests per client. A zero limit disables that rule.
type RateLimitConfig struct {
	Disabled       bool          `env:"RATE_LIMIT_DISABLED"         envDefault:"false"`
	LoginPerWindow int           `env:"RATE_LIMIT_LOGIN_PER_WINDOW" envDefault:"20"`
	FormPerWindow  int           `env:"RATE_LIMIT_FORM_PER_WINDOW"  envDefault:"300"`
	Window         time.Duration `env:"RATE_LIMIT_WINDOW"           envDefault:"1m"`
}

// TracingConfig enables OTLP trace export. An empty endpoint keeps tracing off.
type TracingConfig struct {
	Enabled     bool   `env:"OTEL_ENABLED"                envDefault:"true"`
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME"           envDefault:"onboarding"`
}

// FromEnv reads an optional .env file and then the environment.
func FromEnv() (Server, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse builds a Server config from environment variables.
func Parse() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.OAuth.RedirectURL == "" {
		cfg.OAuth.RedirectURL = cfg.BaseURL + "/callback"
	}
	if cfg.OAuth.PostLogoutRedirectURL == "" {
		cfg.OAuth.PostLogoutRedirectURL = cfg.BaseURL + "/"
	}
	if err := cfg.validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (s Server) validate() error {
	var errs []error
	switch strings.ToLower(s.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", s.LogFormat))
	}
	if s.Session.SigningKey == "" {
		errs = append(errs, errors.New("SESSION_SIGNING_KEY is required"))
	}
	if s.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if !s.RateLimit.Disabled && s.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if s.OAuth.ClientID != "" && (s.OAuth.AuthURL == "" || s.OAuth.TokenURL == "" || s.OAuth.UserInfoURL == "") {
		errs = append(errs, errors.New("OAUTH_AUTH_URL, OAUTH_TOKEN_URL and OAUTH_USERINFO_URL are required with OAUTH_CLIENT_ID"))
	}
	return errors.Join(errs...)
}

// LoginEnabled reports whether an identity provider is configured.
func (s Server) LoginEnabled() bool {
	return s.OAuth.ClientID != ""
}
