package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langsite/middleware"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSecurityHeaders(t *testing.T) {
	rec := serve(middleware.SecurityHeaders(okHandler), httptest.NewRequest(http.MethodGet, "/en", nil))

	tests := []struct {
		header   string
		expected string
	}{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"X-XSS-Protection", "1; mode=block"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"Cross-Origin-Opener-Policy", "same-origin"},
		{"Strict-Transport-Security", ""},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.expected, rec.Header().Get(tt.header))
		})
	}

	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "form-action 'self'")
	assert.NotContains(t, csp, "'unsafe-inline'")
}

func TestSecurityHeaders_HSTSBehindTLSProxy(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/en", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := serve(middleware.SecurityHeaders(okHandler), req)
	assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=")
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "generated when absent", incoming: "", keep: false},
		{name: "provided id kept", incoming: "test-request-id-123", keep: true},
		{name: "unsafe id replaced", incoming: "<script>", keep: false},
		{name: "oversized id replaced", incoming: strings.Repeat("a", 129), keep: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = middleware.GetRequestID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(middleware.RequestIDHeader, tt.incoming)
			}
			rec := serve(handler, req)

			got := rec.Header().Get(middleware.RequestIDHeader)
			assert.Equal(t, got, seen)
			if tt.keep {
				assert.Equal(t, tt.incoming, got)
				return
			}
			_, err := uuid.Parse(got)
			assert.NoError(t, err, "expected a generated UUID, got %q", got)
		})
	}
}

func TestRecoverer(t *testing.T) {
	rec := serve(middleware.Recoverer(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	panicking := middleware.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	}))
	rec = serve(panicking, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRecoverer_RepanicsAbort(t *testing.T) {
	aborting := middleware.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		serve(aborting, httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestCORS(t *testing.T) {
	restricted := middleware.DefaultCORSConfig()
	restricted.AllowedOrigins = []string{"https://app.example"}

	tests := []struct {
		name          string
		config        middleware.CORSConfig
		method        string
		origin        string
		expectedCode  int
		expectedAllow string
	}{
		{name: "no origin", config: middleware.DefaultCORSConfig(), method: http.MethodGet, expectedCode: http.StatusOK},
		{name: "any origin", config: middleware.DefaultCORSConfig(), method: http.MethodGet, origin: "http://example.com", expectedCode: http.StatusOK, expectedAllow: "http://example.com"},
		{name: "preflight", config: middleware.DefaultCORSConfig(), method: http.MethodOptions, origin: "http://example.com", expectedCode: http.StatusNoContent, expectedAllow: "http://example.com"},
		{name: "listed origin", config: restricted, method: http.MethodGet, origin: "https://app.example", expectedCode: http.StatusOK, expectedAllow: "https://app.example"},
		{name: "unlisted origin", config: restricted, method: http.MethodGet, origin: "https://evil.example", expectedCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/i18n", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := serve(middleware.CORS(tt.config)(okHandler), req)
			assert.Equal(t, tt.expectedCode, rec.Code)
			assert.Equal(t, tt.expectedAllow, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.method == http.MethodOptions {
				assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
			}
		})
	}
}

func TestLogger_PassesThrough(t *testing.T) {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Get("/{lang}/about", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, err := w.Write([]byte("response"))
		require.NoError(t, err)
	})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/ro/about", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "response", rec.Body.String())
}

func TestCSRFProtection(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		headers  map[string]string
		expected int
	}{
		{name: "safe method", method: http.MethodGet, headers: map[string]string{"Origin": "https://evil.example"}, expected: http.StatusOK},
		{name: "same origin", method: http.MethodPost, headers: map[string]string{"Origin": "https://example.com"}, expected: http.StatusOK},
		{name: "different origin", method: http.MethodPost, headers: map[string]string{"Origin": "https://evil.example"}, expected: http.StatusForbidden},
		{name: "cross-site fetch", method: http.MethodPost, headers: map[string]string{"Sec-Fetch-Site": "cross-site"}, expected: http.StatusForbidden},
		{name: "same-origin fetch", method: http.MethodPost, headers: map[string]string{"Sec-Fetch-Site": "same-origin", "Origin": "https://example.com"}, expected: http.StatusOK},
		{name: "same origin referer", method: http.MethodPost, headers: map[string]string{"Referer": "https://example.com/en/login"}, expected: http.StatusOK},
		{name: "foreign referer", method: http.MethodPost, headers: map[string]string{"Referer": "https://evil.example/form"}, expected: http.StatusForbidden},
		{name: "forwarded host", method: http.MethodPost, headers: map[string]string{"Origin": "https://www.example.org", "X-Forwarded-Host": "www.example.org"}, expected: http.StatusOK},
		{name: "no browser headers", method: http.MethodPost, expected: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "https://example.com/en/login", nil)
			for key, value := range tt.headers {
				req.Header.Set(key, value)
			}
			rec := serve(middleware.CSRFProtection(okHandler), req)
			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}

func TestBodyLimit(t *testing.T) {
	handler := middleware.BodyLimit(100)(okHandler)

	rec := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(handler, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small body")))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(handler, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", 200))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestNoStore(t *testing.T) {
	rec := serve(middleware.NoStore(okHandler), httptest.NewRequest(http.MethodGet, "/en/login", nil))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
}
