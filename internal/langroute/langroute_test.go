package langroute_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langsite/internal/i18n"
	"langsite/internal/langroute"
	"langsite/internal/storage"
)

type countingObserver map[string]int

func (c countingObserver) LanguageRedirect(reason string) { c[reason]++ }

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("backend down")
}
func (failingStore) Set(context.Context, string, string) error { return errors.New("backend down") }
func (failingStore) Remove(context.Context, string) error      { return errors.New("backend down") }

func newRouter(t *testing.T) (*langroute.Router, countingObserver) {
	t.Helper()
	catalog, err := i18n.Load(i18n.LanguageEnglish)
	require.NoError(t, err)
	observer := countingObserver{}
	router, err := langroute.New(catalog, observer)
	require.NoError(t, err)
	return router, observer
}

func TestNew_RequiresCatalog(t *testing.T) {
	_, err := langroute.New(nil, nil)
	assert.Error(t, err)
}

func TestResolve_SupportedLanguageRendersAndPersists(t *testing.T) {
	router, observer := newRouter(t)
	ctx := context.Background()

	for _, code := range []string{"en", "ro"} {
		store := storage.NewMemoryStore(0)
		decision := router.Resolve(ctx, store, code)

		assert.False(t, decision.IsRedirect())
		assert.Equal(t, i18n.Language(code), decision.Language)
		persisted, found, err := store.Get(ctx, storage.KeyLanguage)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, code, persisted)
	}
	assert.Empty(t, observer)
}

func TestResolve_UnsupportedLanguageRedirects(t *testing.T) {
	tests := []struct {
		name      string
		persisted string
		requested string
		want      string
	}{
		{name: "nothing stored falls back to default", requested: "fr", want: "/en"},
		{name: "stored language wins", persisted: "ro", requested: "fr", want: "/ro"},
		{name: "stale stored value ignored", persisted: "de", requested: "fr", want: "/en"},
		{name: "case mismatch is unsupported", persisted: "ro", requested: "EN", want: "/ro"},
		{name: "empty segment", requested: "", want: "/en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, observer := newRouter(t)
			ctx := context.Background()
			store := storage.NewMemoryStore(0)
			if tt.persisted != "" {
				require.NoError(t, store.Set(ctx, storage.KeyLanguage, tt.persisted))
			}

			decision := router.Resolve(ctx, store, tt.requested)

			assert.True(t, decision.IsRedirect())
			assert.Equal(t, tt.want, decision.Redirect)
			assert.Equal(t, 1, observer[langroute.ReasonUnsupported])

			// the redirect target always resolves to a render
			followUp := router.Resolve(ctx, store, string(decision.Language))
			assert.False(t, followUp.IsRedirect())
		})
	}
}

func TestResolve_StoreFailureStillRenders(t *testing.T) {
	router, _ := newRouter(t)

	decision := router.Resolve(context.Background(), failingStore{}, "ro")
	assert.Equal(t, langroute.Decision{Language: i18n.LanguageRomanian}, decision)

	decision = router.Resolve(context.Background(), failingStore{}, "xx")
	assert.Equal(t, "/en", decision.Redirect)
}

func TestRootTarget(t *testing.T) {
	tests := []struct {
		name           string
		persisted      string
		acceptLanguage string
		want           i18n.Language
	}{
		{name: "persisted language", persisted: "ro", acceptLanguage: "en-US", want: i18n.LanguageRomanian},
		{name: "accept-language match", acceptLanguage: "ro-RO,ro;q=0.9,en;q=0.5", want: i18n.LanguageRomanian},
		{name: "no match uses default", acceptLanguage: "ja-JP", want: i18n.LanguageEnglish},
		{name: "stale persisted value", persisted: "de", acceptLanguage: "ro", want: i18n.LanguageRomanian},
		{name: "nothing at all", want: i18n.LanguageEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, observer := newRouter(t)
			ctx := context.Background()
			store := storage.NewMemoryStore(0)
			if tt.persisted != "" {
				require.NoError(t, store.Set(ctx, storage.KeyLanguage, tt.persisted))
			}

			assert.Equal(t, tt.want, router.RootTarget(ctx, store, tt.acceptLanguage))
			assert.Equal(t, 1, observer[langroute.ReasonRoot])
		})
	}
}

func TestSwitchPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/en", want: "/ro"},
		{path: "/en/about", want: "/ro/about"},
		{path: "/en/login?next=x", want: "/ro/login?next=x"},
		{path: "/english/about", want: "/ro"},
		{path: "/ro/about", want: "/ro"},
		{path: "", want: "/ro"},
		{path: "//evil.example.com/en", want: "/ro"},
		{path: "https://evil.example.com/en/about", want: "/ro"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, langroute.SwitchPath(tt.path, i18n.LanguageEnglish, i18n.LanguageRomanian))
		})
	}
}

func TestMiddleware(t *testing.T) {
	router, _ := newRouter(t)
	memory := storage.NewMemoryStore(0)
	provider := storage.ProviderFunc(func(http.ResponseWriter, *http.Request) storage.Store { return memory })

	mux := chi.NewRouter()
	mux.Use(storage.Middleware(provider))
	mux.Route("/{lang}", func(r chi.Router) {
		r.Use(router.Middleware)
		r.Get("/about", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("about:" + string(langroute.FromContext(r.Context()))))
		})
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ro/about", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "about:ro", rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fr/about", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/ro", rec.Header().Get("Location"))
}

func TestMiddleware_WithoutStore(t *testing.T) {
	router, _ := newRouter(t)
	handler := router.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/en", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFromContext_Empty(t *testing.T) {
	assert.Equal(t, i18n.Language(""), langroute.FromContext(context.Background()))
}
