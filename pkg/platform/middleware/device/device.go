package device

import (
	"context"
	"net/http"

	"github.com/mssola/useragent"
)

type contextKeyDeviceLabel struct{}

// GetDeviceLabel retrieves the human-readable device label from the context.
func GetDeviceLabel(ctx context.Context) string {
	if label, ok := ctx.Value(contextKeyDeviceLabel{}).(string); ok {
		return label
	}
	return ""
}

// WithDeviceLabel injects a device label into a context.
// Useful for handler tests that don't run the full HTTP middleware chain.
func WithDeviceLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, contextKeyDeviceLabel{}, label)
}

// Label turns a User-Agent header into "Browser on OS". Unknown parts are
// omitted; an empty header yields "unknown device".
func Label(userAgent string) string {
	if userAgent == "" {
		return "unknown device"
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		name, _ := ua.Browser()
		if name == "" {
			return "bot"
		}
		return name + " (bot)"
	}
	browser, _ := ua.Browser()
	osName := ua.OSInfo().Name
	switch {
	case browser != "" && osName != "":
		return browser + " on " + osName
	case browser != "":
		return browser
	case osName != "":
		return osName
	default:
		return "unknown device"
	}
}

// Middleware labels each request's device for logging.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithDeviceLabel(r.Context(), Label(r.UserAgent()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
