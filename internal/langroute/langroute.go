// Package langroute maps the /{lang} URL prefix to a supported language and
// redirects requests that name anything else.
package langroute

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	lserrors "langsite/internal/errors"
	"langsite/internal/i18n"
	"langsite/internal/logger"
	"langsite/internal/storage"
)

// Redirect reasons reported to the RedirectObserver.
const (
	ReasonUnsupported = "unsupported"
	ReasonRoot        = "root"
)

// RedirectObserver is notified of every redirect the router issues.
type RedirectObserver interface {
	LanguageRedirect(reason string)
}

// Decision is the outcome of resolving a requested language.
type Decision struct {
	// Language is the language to render, or the fallback target of a redirect.
	Language i18n.Language
	// Redirect is the path to send the browser to; empty means render.
	Redirect string
}

// IsRedirect reports whether the request must be redirected.
func (d Decision) IsRedirect() bool {
	return d.Redirect != ""
}

// Router resolves URL language segments against a catalog.
type Router struct {
	catalog  *i18n.Catalog
	observer RedirectObserver
}

// New builds a router. The catalog default must itself be supported, which keeps
// every redirect target renderable.
func New(catalog *i18n.Catalog, observer RedirectObserver) (*Router, error) {
	if catalog == nil {
		return nil, lserrors.ErrNoLanguages
	}
	if _, ok := catalog.Parse(string(catalog.Default())); !ok {
		return nil, fmt.Errorf("%w: %q", lserrors.ErrInvalidDefaultLanguage, catalog.Default())
	}
	return &Router{catalog: catalog, observer: observer}, nil
}

// Catalog returns the catalog the router resolves against.
func (rt *Router) Catalog() *i18n.Catalog {
	return rt.catalog
}

// Resolve decides what to do with a request for /{requested}. A supported language
// is persisted and rendered; anything else redirects to the persisted language,
// or the default when none is stored.
func (rt *Router) Resolve(ctx context.Context, store storage.Store, requested string) Decision {
	if lang, ok := rt.catalog.Parse(requested); ok {
		if err := store.Set(ctx, storage.KeyLanguage, string(lang)); err != nil {
			logger.Get().Warn().Err(err).Str("language", string(lang)).Msg("failed to persist language")
		}
		return Decision{Language: lang}
	}
	fallback := rt.Persisted(ctx, store)
	rt.redirected(ReasonUnsupported)
	logger.LanguageEvent(requested, string(fallback), ReasonUnsupported).Msg("redirecting unsupported language")
	return Decision{Language: fallback, Redirect: "/" + string(fallback)}
}

// Persisted returns the stored language when it is still supported, else the default.
func (rt *Router) Persisted(ctx context.Context, store storage.Store) i18n.Language {
	value, found, err := store.Get(ctx, storage.KeyLanguage)
	if err != nil {
		logger.Get().Debug().Err(err).Msg("failed to read persisted language")
		return rt.catalog.Default()
	}
	if !found {
		return rt.catalog.Default()
	}
	if lang, ok := rt.catalog.Parse(value); ok {
		return lang
	}
	return rt.catalog.Default()
}

// RootTarget picks the language for a request to "/": the persisted language,
// then the best Accept-Language match, then the default.
func (rt *Router) RootTarget(ctx context.Context, store storage.Store, acceptLanguage string) i18n.Language {
	rt.redirected(ReasonRoot)
	if value, found, err := store.Get(ctx, storage.KeyLanguage); err == nil && found {
		if lang, ok := rt.catalog.Parse(value); ok {
			return lang
		}
	}
	if lang, ok := rt.catalog.FromAcceptLanguage(acceptLanguage); ok {
		return lang
	}
	return rt.catalog.Default()
}

// SwitchPath rewrites path from the from-language prefix to the to-language one.
// Paths outside the from prefix, or that are not local, land on /{to}.
func SwitchPath(path string, from, to i18n.Language) string {
	if !isLocalPath(path) {
		return "/" + string(to)
	}
	prefix := "/" + string(from)
	switch {
	case path == prefix:
		return "/" + string(to)
	case strings.HasPrefix(path, prefix+"/"):
		return "/" + string(to) + strings.TrimPrefix(path, prefix)
	default:
		return "/" + string(to)
	}
}

func isLocalPath(path string) bool {
	return strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "//") && !strings.ContainsAny(path, "\\\r\n")
}

// Middleware resolves the {lang} URL parameter. Supported languages are placed in the
// request context; anything else is redirected with 302. It expects storage.Middleware
// to run first.
func (rt *Router) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store, ok := storage.FromContext(r.Context())
		if !ok {
			http.Error(w, "storage unavailable", http.StatusInternalServerError)
			return
		}
		decision := rt.Resolve(r.Context(), store, chi.URLParam(r, "lang"))
		if decision.IsRedirect() {
			http.Redirect(w, r, decision.Redirect, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithLanguage(r.Context(), decision.Language)))
	})
}

func (rt *Router) redirected(reason string) {
	if rt.observer != nil {
		rt.observer.LanguageRedirect(reason)
	}
}

type contextKey struct{}

// WithLanguage returns a copy of ctx carrying lang.
func WithLanguage(ctx context.Context, lang i18n.Language) context.Context {
	return context.WithValue(ctx, contextKey{}, lang)
}

// FromContext returns the language set by Middleware, or the empty string.
func FromContext(ctx context.Context) i18n.Language {
	lang, _ := ctx.Value(contextKey{}).(i18n.Language)
	return lang
}
