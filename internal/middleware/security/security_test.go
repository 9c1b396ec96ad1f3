package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/families", nil))

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Cache-Control":           "no-store",
		"Referrer-Policy":         "no-referrer",
		"Content-Security-Policy": DefaultHeadersConfig().CSP,
	}
	for name, value := range want {
		if got := rec.Header().Get(name); got != value {
			t.Errorf("%s = %q, want %q", name, got, value)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("HSTS = %q", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"direct", "203.0.113.9:5000", "", "", "203.0.113.9"},
		{"untrusted peer ignores xff", "203.0.113.9:5000", "1.1.1.1", "", "203.0.113.9"},
		{"trusted proxy uses first xff", "10.0.0.2:80", "198.51.100.7, 10.0.0.1", "", "198.51.100.7"},
		{"trusted proxy falls back to x-real-ip", "127.0.0.1:80", "garbage", "198.51.100.8", "198.51.100.8"},
		{"trusted proxy without headers", "192.168.1.1:80", "", "", "192.168.1.1"},
		{"unparseable remote addr", "pipe", "", "", "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := NewClientIPResolver().ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientIP_CountsIgnoredHeaders(t *testing.T) {
	c := NewClientIPResolver()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:5000"
	req.Header.Set("X-Real-IP", "1.1.1.1")
	c.ClientIP(req)
	if got := c.IgnoredForwardHeaders(); got != 1 {
		t.Errorf("IgnoredForwardHeaders = %d, want 1", got)
	}
}

func TestAddTrustedProxy(t *testing.T) {
	c := NewClientIPResolver()
	if err := c.AddTrustedProxy("not-a-cidr"); err == nil {
		t.Fatal("expected error for invalid CIDR")
	}
	if err := c.AddTrustedProxy("203.0.113.0/24"); err != nil {
		t.Fatalf("AddTrustedProxy: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:5000"
	req.Header.Set("X-Forwarded-For", "198.51.100.7")
	if got := c.ClientIP(req); got != "198.51.100.7" {
		t.Errorf("ClientIP() = %q, want forwarded address", got)
	}
}
