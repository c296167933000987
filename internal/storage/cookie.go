package storage

import (
	"context"
	"encoding/base64"
	"net/http"
	"sync"
	"time"
)

// CookiePrefix is prepended to every key stored in a browser cookie.
const CookiePrefix = "ls_"

// CookieOptions controls the attributes of the cookies written by CookieStore.
type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

// CookieStore keeps values in the browser itself, one cookie per key. It is bound
// to a single request/response pair; writes made during the request are visible
// to later reads of the same request.
type CookieStore struct {
	w       http.ResponseWriter
	r       *http.Request
	options CookieOptions

	mu      sync.Mutex
	pending map[string]*string
}

// NewCookieStore binds a store to one request.
func NewCookieStore(w http.ResponseWriter, r *http.Request, options CookieOptions) *CookieStore {
	return &CookieStore{w: w, r: r, options: options, pending: make(map[string]*string)}
}

// CookieProvider returns a Provider that stores everything in browser cookies.
// Each browser is also given a client ID, as with the server-side backends.
func CookieProvider(options CookieOptions) Provider {
	return ProviderFunc(func(w http.ResponseWriter, r *http.Request) Store {
		EnsureClientID(w, r, options)
		return NewCookieStore(w, r, options)
	})
}

func (s *CookieStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	value, written := s.pending[key]
	s.mu.Unlock()
	if written {
		if value == nil {
			return "", false, nil
		}
		return *value, true, nil
	}
	cookie, err := s.r.Cookie(CookiePrefix + key)
	if err != nil {
		return "", false, nil
	}
	decoded, decodeErr := base64.RawURLEncoding.DecodeString(cookie.Value)
	if decodeErr != nil {
		// Values not written by us are handed back untouched; callers decide whether they are usable.
		return cookie.Value, true, nil
	}
	return string(decoded), true, nil
}

func (s *CookieStore) Set(_ context.Context, key, value string) error {
	cookie := &http.Cookie{
		Name:     CookiePrefix + key,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(value)),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.options.Secure,
	}
	if s.options.MaxAge > 0 {
		cookie.MaxAge = int(s.options.MaxAge.Seconds())
		cookie.Expires = time.Now().Add(s.options.MaxAge)
	}
	http.SetCookie(s.w, cookie)
	s.mu.Lock()
	s.pending[key] = &value
	s.mu.Unlock()
	return nil
}

func (s *CookieStore) Remove(_ context.Context, key string) error {
	http.SetCookie(s.w, &http.Cookie{
		Name:     CookiePrefix + key,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.options.Secure,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
	s.mu.Lock()
	s.pending[key] = nil
	s.mu.Unlock()
	return nil
}
