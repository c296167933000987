package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"langsite/internal/httputil"
	"langsite/internal/logger"
)

// RateLimitConfig bounds requests per client over a fixed window.
type RateLimitConfig struct {
	MaxRequests        int
	Window             time.Duration
	MaxEntries         int
	ExemptPaths        []string
	ExemptPathPrefixes []string
	// Methods restricts limiting to these methods; empty means every method but OPTIONS.
	Methods    []string
	TrustProxy bool
}

// DefaultRateLimitConfig is a loose site-wide limit.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{MaxRequests: 300, Window: time.Minute, MaxEntries: 10_000}
}

// AuthRateLimitConfig throttles sign-in and sign-up submissions.
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{MaxRequests: 20, Window: time.Minute, MaxEntries: 10_000, Methods: []string{http.MethodPost}}
}

type rateLimiterEntry struct {
	count   int
	resetAt time.Time
}

type rateLimiter struct {
	mu      sync.Mutex
	config  RateLimitConfig
	entries map[string]rateLimiterEntry
}

// RateLimit answers 429 with Retry-After once a client exceeds config.MaxRequests
// within config.Window. Clients are keyed by address.
func RateLimit(config RateLimitConfig) func(http.Handler) http.Handler {
	limiter := &rateLimiter{config: config, entries: make(map[string]rateLimiterEntry)}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || shouldSkipRateLimit(r, config) {
				next.ServeHTTP(w, r)
				return
			}
			client := httputil.ClientIP(r, config.TrustProxy)
			allowed, retryAfter := limiter.allow(time.Now(), client)
			if allowed {
				next.ServeHTTP(w, r)
				return
			}
			logger.HTTPEvent(r.Method, r.URL.Path, http.StatusTooManyRequests, 0).
				Str("request_id", GetRequestID(r.Context())).
				Str("client", client).
				Int("retry_after", retryAfter).
				Msg("rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		})
	}
}

func shouldSkipRateLimit(r *http.Request, config RateLimitConfig) bool {
	if len(config.Methods) > 0 && !slices.Contains(config.Methods, r.Method) {
		return true
	}
	if slices.Contains(config.ExemptPaths, r.URL.Path) {
		return true
	}
	return slices.ContainsFunc(config.ExemptPathPrefixes, func(prefix string) bool {
		return strings.HasPrefix(r.URL.Path, prefix)
	})
}

// allow counts one request of key and reports whether it fits, with the seconds left
// in the window otherwise.
func (l *rateLimiter) allow(now time.Time, key string) (bool, int) {
	if key == "" {
		return true, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(now)
	entry, found := l.entries[key]
	if !found || !now.Before(entry.resetAt) {
		entry = rateLimiterEntry{resetAt: now.Add(l.config.Window)}
	}
	entry.count++
	l.entries[key] = entry
	if entry.count <= l.config.MaxRequests {
		return true, 0
	}
	return false, int(entry.resetAt.Sub(now).Seconds())
}

// prune drops expired windows, then the windows closest to expiry while the table
// is above MaxEntries.
func (l *rateLimiter) prune(now time.Time) {
	for key, entry := range l.entries {
		if now.After(entry.resetAt) {
			delete(l.entries, key)
		}
	}
	excess := len(l.entries) - l.config.MaxEntries
	if l.config.MaxEntries <= 0 || excess <= 0 {
		return
	}
	keys := make([]string, 0, len(l.entries))
	for key := range l.entries {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return l.entries[a].resetAt.Compare(l.entries[b].resetAt)
	})
	for _, key := range keys[:excess] {
		delete(l.entries, key)
	}
}
