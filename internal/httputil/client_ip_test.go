package httputil_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"langsite/internal/httputil"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		realIP     string
		remoteAddr string
		trustProxy bool
		expected   string
	}{
		{name: "forwarded chain trusted", forwarded: "10.0.0.1, 10.0.0.2", trustProxy: true, remoteAddr: "192.168.1.1:9999", expected: "10.0.0.1"},
		{name: "forwarded untrusted", forwarded: "10.0.0.1", remoteAddr: "192.168.1.1:9999", expected: "192.168.1.1"},
		{name: "forwarded with port", forwarded: "203.0.113.7:5123", trustProxy: true, remoteAddr: "10.0.0.9:80", expected: "203.0.113.7"},
		{name: "forwarded ipv6 with port", forwarded: "[2001:db8::1]:443", trustProxy: true, remoteAddr: "10.0.0.9:80", expected: "2001:db8::1"},
		{name: "forwarded garbage falls back to real ip", forwarded: "unknown", realIP: "10.0.0.3", trustProxy: true, remoteAddr: "192.168.1.1:9999", expected: "10.0.0.3"},
		{name: "real ip trusted", realIP: "10.0.0.3", trustProxy: true, remoteAddr: "192.168.1.1:9999", expected: "10.0.0.3"},
		{name: "real ip untrusted", realIP: "10.0.0.3", remoteAddr: "192.168.1.1:9999", expected: "192.168.1.1"},
		{name: "remote addr with port", remoteAddr: "203.0.113.5:4321", trustProxy: true, expected: "203.0.113.5"},
		{name: "remote addr without port", remoteAddr: "203.0.113.5", trustProxy: true, expected: "203.0.113.5"},
		{name: "blank forwarded falls through", forwarded: "  ", trustProxy: true, remoteAddr: "1.2.3.4:80", expected: "1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.expected, httputil.ClientIP(req, tt.trustProxy))
		})
	}
}
