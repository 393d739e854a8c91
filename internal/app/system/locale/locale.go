// internal/app/system/locale/locale.go

// Package locale negotiates the content language of a request.
//
// Order: the lang query parameter (also persisted as a cookie), then the
// language cookie, then Accept-Language matched against the site
// languages, then English.
package locale

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/stratalaw/internal/domain/models"
	"golang.org/x/text/language"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// CookieName stores the visitor's language preference.
	CookieName = "stratalaw_lang"
)

var (
	supported = buildSupported()
	matcher   = language.NewMatcher(supported)
)

func buildSupported() []language.Tag {
	codes := models.SupportedLangCodes()
	tags := make([]language.Tag, len(codes))
	for i, c := range codes {
		tags[i] = language.MustParse(c)
	}
	return tags
}

// Supported returns the site language tags, default first.
func Supported() []language.Tag {
	out := make([]language.Tag, len(supported))
	copy(out, supported)
	return out
}

// parse accepts only exact site language codes, case-insensitively.
func parse(value string) (string, bool) {
	code := strings.ToLower(strings.TrimSpace(value))
	if models.IsSupportedLang(code) {
		return code, true
	}
	return "", false
}

// Match returns the best site language for an Accept-Language header,
// or the default when nothing matches.
func Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return models.DefaultLang
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return models.DefaultLang
	}
	return models.SupportedLangCodes()[idx]
}

// Resolve determines the request language. persist reports whether it came
// from the query parameter and should be saved as a cookie.
func Resolve(r *http.Request) (code string, persist bool) {
	if r == nil {
		return models.DefaultLang, false
	}

	if v := r.URL.Query().Get(LangParam); v != "" {
		if code, ok := parse(v); ok {
			return code, true
		}
	}

	if c, err := r.Cookie(CookieName); err == nil {
		if code, ok := parse(c.Value); ok {
			return code, false
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		return Match(accept), false
	}

	return models.DefaultLang, false
}

// SetCookie persists the selected language on the response.
func SetCookie(w http.ResponseWriter, code string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    code,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

type ctxKey struct{}

// Middleware resolves the language once per request and stores it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code, persist := Resolve(r)
		if persist {
			SetCookie(w, code)
		}
		next.ServeHTTP(w, r.WithContext(WithLang(r.Context(), code)))
	})
}

// WithLang returns a context carrying code.
func WithLang(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, ctxKey{}, code)
}

// FromContext returns the language stored by Middleware, or the default.
func FromContext(ctx context.Context) string {
	if code, ok := ctx.Value(ctxKey{}).(string); ok && code != "" {
		return code
	}
	return models.DefaultLang
}

// FromRequest returns the request language, resolving it when Middleware
// has not run.
func FromRequest(r *http.Request) string {
	if code, ok := r.Context().Value(ctxKey{}).(string); ok && code != "" {
		return code
	}
	code, _ := Resolve(r)
	return code
}
