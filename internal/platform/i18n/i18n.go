// Package i18n holds the UI string table and picks a language per request.
package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// LangParam is the query parameter used to select a language.
const LangParam = "lang"

var (
	supported = []language.Tag{language.English}
	matcher   = language.NewMatcher(supported)
)

// SupportedTags returns the languages the string table covers.
func SupportedTags() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// DefaultTag returns the fallback language.
func DefaultTag() language.Tag {
	return supported[0]
}

// MatchTags picks the best supported language for the preferred tags.
func MatchTags(tags []language.Tag) language.Tag {
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

// ParseTag matches a single language value against the supported set.
func ParseTag(value string) (language.Tag, bool) {
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return language.Und, false
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.Und, false
	}
	return supported[idx], true
}

// ResolveTag determines the language for a request from the lang query
// parameter, then Accept-Language, then the default.
func ResolveTag(r *http.Request) language.Tag {
	if r == nil {
		return DefaultTag()
	}
	if v := r.URL.Query().Get(LangParam); v != "" {
		if tag, ok := ParseTag(v); ok {
			return tag
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			return MatchTags(tags)
		}
	}
	return DefaultTag()
}

// Translator renders message keys for one language.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// NewTranslator returns a Translator for tag.
func NewTranslator(tag language.Tag) *Translator {
	return &Translator{tag: tag, printer: message.NewPrinter(tag)}
}

// Tag returns the translator's language.
func (t *Translator) Tag() language.Tag { return t.tag }

// T renders key with args. Unknown keys render as the key itself.
func (t *Translator) T(key string, args ...any) string {
	return t.printer.Sprintf(key, args...)
}
