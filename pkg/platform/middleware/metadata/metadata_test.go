package metadata

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reguard/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	t.Run("prefers first X-Forwarded-For entry", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		if got := ClientIPFromRequest(r); got != "203.0.113.9" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("falls back to X-Real-IP", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Real-IP", "198.51.100.4")
		if got := ClientIPFromRequest(r); got != "198.51.100.4" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("strips port from RemoteAddr", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "192.0.2.7:54321"
		if got := ClientIPFromRequest(r); got != "192.0.2.7" {
			t.Fatalf("got %q", got)
		}
	})
}

func TestNormalizeUserAgent(t *testing.T) {
	t.Run("browser becomes name/version (os)", func(t *testing.T) {
		raw := "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
		got := NormalizeUserAgent(raw)
		if !strings.HasPrefix(got, "Chrome/120") {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("tool keeps its product token", func(t *testing.T) {
		if got := NormalizeUserAgent("curl/8.5.0 extra"); !strings.HasPrefix(got, "curl") {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("empty stays empty", func(t *testing.T) {
		if got := NormalizeUserAgent(""); got != "" {
			t.Fatalf("got %q", got)
		}
	})
}

func TestClientMetadataMiddleware(t *testing.T) {
	var gotIP, gotLabel string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = requestcontext.ClientIP(r.Context())
		gotLabel = requestcontext.ClientLabel(r.Context())
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:1234"
	r.Header.Set("User-Agent", "curl/8.5.0")
	ClientMetadata(next).ServeHTTP(httptest.NewRecorder(), r)

	if gotIP != "192.0.2.7" {
		t.Fatalf("ip: got %q", gotIP)
	}
	if gotLabel == "" {
		t.Fatal("expected a derived client label")
	}
}
