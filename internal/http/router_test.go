package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/anonote-backend/internal/auth"
	"github.com/tbourn/anonote-backend/internal/blob"
	"github.com/tbourn/anonote-backend/internal/config"
	"github.com/tbourn/anonote-backend/internal/feed"
	"github.com/tbourn/anonote-backend/internal/repo"
	"github.com/tbourn/anonote-backend/internal/services"
)

// --- test deps over a file-backed sqlite store (pure Go, no CGO) ---
func newTestDeps(t *testing.T) Deps {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "router.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	store := repo.NewStore(db)

	codec, err := auth.NewSessionCodec("0123456789abcdef0123", "anonote-test")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	blobs, err := blob.NewDiskStore(t.TempDir(), "/files")
	if err != nil {
		t.Fatalf("blobs: %v", err)
	}
	broker := feed.NewBroker(8)
	t.Cleanup(broker.Close)

	return Deps{
		Stores: services.Stores{
			Users:       store,
			Messages:    store,
			Chat:        store,
			Questions:   store,
			Idempotency: store,
		},
		Sessions: codec,
		Blobs:    blobs,
		Feed:     broker,
	}
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api",
		RateRPS:     100,
		RateBurst:   100,
		CORS:        config.CORSConfig{AllowedOrigins: nil}, // triggers AllowAllOrigins branch
		Security:    config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newTestRouter(t *testing.T, cfg config.Config, mutate ...func(*Deps)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	d := newTestDeps(t)
	for _, m := range mutate {
		m(&d)
	}
	r := gin.New()
	RegisterRoutes(r, d, cfg)
	return r
}

func serve(r *gin.Engine, method, path string, body io.Reader, setup ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, s := range setup {
		s(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r := newTestRouter(t, testConfig())

	// /health works
	w := serve(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = serve(r, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}
	if !strings.Contains(w.Body.String(), "anonote_http_requests_total") {
		t.Fatalf("HTTP metrics not exported")
	}

	// NoRoute → 404
	w = serve(r, http.MethodGet, "/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod → 405 (POST /health)
	w = serve(r, http.MethodPost, "/health", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r := newTestRouter(t, cfg)

	// Any request runs through CORS middleware; header should reflect origin.
	w := serve(r, http.MethodGet, "/health", nil, func(req *http.Request) {
		req.Header.Set("Origin", "http://example.com")
	})
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("session cookie needs credentials, got %q", got)
	}
}

func TestHealth_PingFailure(t *testing.T) {
	r := newTestRouter(t, testConfig(), func(d *Deps) {
		d.Ping = func(context.Context) error { return errors.New("store down") }
	})

	w := serve(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "store down") {
		t.Fatalf("health leaked error detail: %s", w.Body.String())
	}
}

func TestEndToEnd_AnonymousSessionAndInbox(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := serve(r, http.MethodPost, "/api/auth/anonymous", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous: %d %s", w.Code, w.Body.String())
	}
	var anon struct {
		Success bool   `json:"success"`
		UserID  string `json:"userId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &anon); err != nil || anon.UserID == "" {
		t.Fatalf("anonymous body: %s (%v)", w.Body.String(), err)
	}
	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	if session == nil {
		t.Fatalf("no session cookie")
	}
	withCookie := func(req *http.Request) { req.AddCookie(session) }

	// the cookie alone identifies the caller
	w = serve(r, http.MethodGet, "/api/auth/check", nil, withCookie)
	if !strings.Contains(w.Body.String(), `"authenticated":true`) || !strings.Contains(w.Body.String(), anon.UserID) {
		t.Fatalf("check: %s", w.Body.String())
	}

	// a visitor (no cookie) sends a note, retried with the same key
	for i := 0; i < 2; i++ {
		w = serve(r, http.MethodPost, "/api/messages/"+anon.UserID, strings.NewReader(`{"text":"hello there"}`),
			func(req *http.Request) { req.Header.Set("Idempotency-Key", "send-1") })
		if w.Code != http.StatusOK {
			t.Fatalf("send #%d: %d %s", i+1, w.Code, w.Body.String())
		}
	}
	if w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("retry was not replayed")
	}

	// visitors cannot read the inbox, the owner can
	if w = serve(r, http.MethodGet, "/api/messages/"+anon.UserID, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("visitor read inbox: %d", w.Code)
	}
	w = serve(r, http.MethodGet, "/api/messages/"+anon.UserID, nil, withCookie)
	if w.Code != http.StatusOK {
		t.Fatalf("owner inbox: %d", w.Code)
	}
	var inbox struct {
		Messages []map[string]any `json:"messages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &inbox); err != nil {
		t.Fatalf("inbox json: %v", err)
	}
	if len(inbox.Messages) != 1 || inbox.Messages[0]["content"] != "hello there" || inbox.Messages[0]["read"] != false {
		t.Fatalf("inbox: %+v", inbox.Messages)
	}
	if w.Header().Get("ETag") == "" || w.Header().Get("Cache-Control") != "private, no-cache" {
		t.Fatalf("caching headers: etag=%q cc=%q", w.Header().Get("ETag"), w.Header().Get("Cache-Control"))
	}
}

func TestRateLimiter_ExemptsHealth(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	r := newTestRouter(t, cfg)

	if w := serve(r, http.MethodGet, "/api/chat", nil); w.Code != http.StatusOK {
		t.Fatalf("first: %d", w.Code)
	}
	w := serve(r, http.MethodGet, "/api/chat", nil)
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
		t.Fatalf("second: %d retry-after=%q", w.Code, w.Header().Get("Retry-After"))
	}
	for i := 0; i < 3; i++ {
		if w := serve(r, http.MethodGet, "/health", nil); w.Code != http.StatusOK {
			t.Fatalf("health #%d: %d", i+1, w.Code)
		}
	}
}

func TestGzip_CompressesAPI(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/api/questions", nil, func(req *http.Request) {
		req.Header.Set("Accept-Encoding", "gzip")
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip, got %q", w.Header().Get("Content-Encoding"))
	}
}

func TestSwagger_OnlyWhenEnabled(t *testing.T) {
	r := newTestRouter(t, testConfig())
	if w := serve(r, http.MethodGet, "/swagger/index.html", nil); w.Code != http.StatusNotFound {
		t.Fatalf("disabled swagger served: %d", w.Code)
	}

	cfg := testConfig()
	cfg.SwaggerEnabled = true
	r = newTestRouter(t, cfg)
	if w := serve(r, http.MethodGet, "/swagger/doc.json", nil); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "AnoNote") {
		t.Fatalf("doc.json: %d", w.Code)
	}
}

func TestRequestTimeout_SkipsStreams(t *testing.T) {
	cfg := testConfig()
	cfg.RequestTimeout = 50 * time.Millisecond
	r := newTestRouter(t, cfg)

	// a normal route completes well inside the deadline
	if w := serve(r, http.MethodGet, "/api/chat", nil); w.Code != http.StatusOK {
		t.Fatalf("chat: %d", w.Code)
	}
}

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// slowBlobs takes longer than the request timeout and records whether the
// context it was handed carried a deadline.
type slowBlobs struct {
	delay       time.Duration
	hadDeadline bool
}

func (b *slowBlobs) Put(ctx context.Context, key, _ string, r io.Reader) (string, error) {
	_, b.hadDeadline = ctx.Deadline()
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	select {
	case <-time.After(b.delay):
		return "/files/" + key, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestRequestTimeout_SkipsUploads(t *testing.T) {
	cfg := testConfig()
	cfg.RequestTimeout = 50 * time.Millisecond
	slow := &slowBlobs{delay: 200 * time.Millisecond}
	r := newTestRouter(t, cfg, func(d *Deps) { d.Blobs = slow })

	w := serve(r, http.MethodPost, "/api/auth/anonymous", nil)
	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	if session == nil {
		t.Fatalf("no session cookie: %d", w.Code)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "p.png")
	_, _ = fw.Write(pngHeader)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload-profile", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(session)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", w.Code, w.Body.String())
	}
	if slow.hadDeadline {
		t.Fatalf("upload ran under the request deadline")
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// "/" and "" should mount at root
	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })

	// non-root prefix
	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

// Smoke test that a request traverses the session + idempotency + ratelimit + otel + security headers pipeline.
func TestPipeline_Smoke(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: time.Hour} // enabled (but only set on https)
	r := newTestRouter(t, cfg)

	w := serve(r, http.MethodGet, "/health", nil, func(req *http.Request) {
		req.Header.Set("X-Forwarded-Proto", "https")
	})
	if w.Code != http.StatusOK {
		t.Fatalf("pipeline GET /health = %d", w.Code)
	}
	// RequestID header should be present (from RequestID middleware)
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" || w.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("security headers missing: %v", w.Header())
	}
}
