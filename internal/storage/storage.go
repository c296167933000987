// Package storage is the key-value port behind the per-browser state of the site:
// the preferred language and the signed-in user.
package storage

import (
	"context"
	"net/http"
)

// Keys persisted per browser.
const (
	KeyLanguage = "language"
	KeyUser     = "user"
	// KeyFlash holds the translation key of a one-shot notice shown after a redirect.
	KeyFlash = "flash"
)

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is a string key-value store scoped to one browser.
type Store interface {
	// Get returns the value under key; the bool is false when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Provider hands out the Store of the browser behind a request.
type Provider interface {
	ForRequest(w http.ResponseWriter, r *http.Request) Store
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(w http.ResponseWriter, r *http.Request) Store

// ForRequest calls f(w, r).
func (f ProviderFunc) ForRequest(w http.ResponseWriter, r *http.Request) Store {
	return f(w, r)
}

type namespaced struct {
	store  Store
	prefix string
}

// Namespaced prefixes every key with namespace, so several browsers can share one backend.
func Namespaced(store Store, namespace string) Store {
	return &namespaced{store: store, prefix: namespace + ":"}
}

func (n *namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.store.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.store.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Remove(ctx context.Context, key string) error {
	return n.store.Remove(ctx, n.prefix+key)
}

type contextKey struct{}

// WithStore returns a copy of ctx carrying store.
func WithStore(ctx context.Context, store Store) context.Context {
	return context.WithValue(ctx, contextKey{}, store)
}

// FromContext returns the store attached by Middleware.
func FromContext(ctx context.Context) (Store, bool) {
	store, ok := ctx.Value(contextKey{}).(Store)
	return store, ok
}

// Middleware resolves the browser's store once per request and attaches it to the context,
// so every handler of the request reads its own pending writes.
func Middleware(provider Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := provider.ForRequest(w, r)
			next.ServeHTTP(w, r.WithContext(WithStore(r.Context(), store)))
		})
	}
}
