package storage

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ClientCookieName carries the random ID that identifies one browser. Server-side
// backends namespace their keys with it.
const ClientCookieName = "ls_client"

// ClientIDFromRequest returns the first well-formed client ID sent with r.
func ClientIDFromRequest(r *http.Request) (string, bool) {
	for _, cookie := range r.Cookies() {
		if cookie.Name != ClientCookieName {
			continue
		}
		if parsed, err := uuid.Parse(strings.TrimSpace(cookie.Value)); err == nil {
			return parsed.String(), true
		}
	}
	return "", false
}

// EnsureClientID returns the client ID of the browser behind r, issuing a new one
// when none is present. A freshly issued ID is also added to r, so later lookups
// within the same request see it.
func EnsureClientID(w http.ResponseWriter, r *http.Request, options CookieOptions) string {
	if id, ok := ClientIDFromRequest(r); ok {
		return id
	}
	id := uuid.NewString()
	cookie := &http.Cookie{
		Name:     ClientCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   options.Secure,
	}
	if options.MaxAge > 0 {
		cookie.MaxAge = int(options.MaxAge.Seconds())
		cookie.Expires = time.Now().Add(options.MaxAge)
	}
	http.SetCookie(w, cookie)
	r.AddCookie(cookie)
	return id
}

// SharedProvider keeps the values of every browser in one server-side backend,
// namespaced by the client ID cookie.
type SharedProvider struct {
	backend Store
	options CookieOptions
}

// NewSharedProvider wraps a server-side backend (memory, Redis, SQLite).
func NewSharedProvider(backend Store, options CookieOptions) *SharedProvider {
	return &SharedProvider{backend: backend, options: options}
}

// ForRequest returns the namespaced store of the browser behind r.
func (p *SharedProvider) ForRequest(w http.ResponseWriter, r *http.Request) Store {
	return Namespaced(p.backend, EnsureClientID(w, r, p.options))
}
