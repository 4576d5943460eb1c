package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveSecurity(t *testing.T, opt SecurityOptions, pre gin.HandlerFunc, req *http.Request) http.Header {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if pre != nil {
		r.Use(pre)
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	h := serveSecurity(t, SecurityOptions{}, nil, httptest.NewRequest(http.MethodGet, "/ok", nil))

	if h.Get("X-Content-Type-Options") != "nosniff" ||
		h.Get("X-Frame-Options") != "DENY" ||
		h.Get("Referrer-Policy") != "no-referrer" ||
		h.Get("Cross-Origin-Resource-Policy") != "same-site" {
		t.Fatalf("baseline headers missing: %#v", h)
	}
	if h.Get("Permissions-Policy") != "" || h.Get("Cache-Control") != "" || h.Get("Strict-Transport-Security") != "" {
		t.Fatalf("unexpected optional headers: %#v", h)
	}
	if got := h.Get("Access-Control-Expose-Headers"); got != "X-Request-ID, ETag, Idempotency-Replayed, Retry-After" {
		t.Fatalf("expose headers = %q", got)
	}
}

func TestSecurityHeaders_ExposeMergesExisting(t *testing.T) {
	pre := func(c *gin.Context) {
		c.Header("Access-Control-Expose-Headers", "X-Custom, etag")
		c.Next()
	}
	h := serveSecurity(t, SecurityOptions{}, pre, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if got := h.Get("Access-Control-Expose-Headers"); got != "X-Custom, etag, X-Request-ID, Idempotency-Replayed, Retry-After" {
		t.Fatalf("expose headers = %q", got)
	}
}

func TestSecurityHeaders_Optional(t *testing.T) {
	opt := SecurityOptions{EnablePolicy: true, CacheControl: "private, no-cache"}
	h := serveSecurity(t, opt, nil, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if h.Get("Permissions-Policy") == "" || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("policy headers missing: %#v", h)
	}
	if h.Get("Cache-Control") != "private, no-cache" {
		t.Fatalf("cache-control = %q", h.Get("Cache-Control"))
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	t.Run("plain http never gets HSTS", func(t *testing.T) {
		h := serveSecurity(t, SecurityOptions{EnableHSTS: true}, nil, httptest.NewRequest(http.MethodGet, "/ok", nil))
		if h.Get("Strict-Transport-Security") != "" {
			t.Fatalf("unexpected HSTS on http")
		}
	})

	t.Run("tls request uses default max-age", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.TLS = &tls.ConnectionState{}
		h := serveSecurity(t, SecurityOptions{EnableHSTS: true}, nil, req)
		want := "max-age=" + strconv.Itoa(int((180 * 24 * time.Hour).Seconds())) + "; includeSubDomains"
		if got := h.Get("Strict-Transport-Security"); got != want {
			t.Fatalf("HSTS = %q; want %q", got, want)
		}
	})

	t.Run("forwarded proto with custom max-age", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set("X-Forwarded-Proto", "HTTPS")
		h := serveSecurity(t, SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour}, nil, req)
		if got := h.Get("Strict-Transport-Security"); got != "max-age=3600; includeSubDomains" {
			t.Fatalf("HSTS = %q", got)
		}
	})
}
