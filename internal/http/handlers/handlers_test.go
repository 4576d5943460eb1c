package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/anonote-backend/internal/auth"
	"github.com/tbourn/anonote-backend/internal/blob"
	"github.com/tbourn/anonote-backend/internal/feed"
	"github.com/tbourn/anonote-backend/internal/http/middleware"
	"github.com/tbourn/anonote-backend/internal/repo"
	"github.com/tbourn/anonote-backend/internal/services"
)

// ---------- test environment ----------

type testEnv struct {
	store  *repo.Store
	codec  *auth.SessionCodec
	broker *feed.Broker
	h      *Handlers
	r      *gin.Engine
}

// newEnv wires real services over a file-backed SQLite store, mounted the
// way the router mounts them (without the ambient middleware).
func newEnv(t *testing.T, mutate ...func(*Deps)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	store := repo.NewStore(db)

	blobs, err := blob.NewDiskStore(t.TempDir(), "http://files.test")
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}
	codec, err := auth.NewSessionCodec("0123456789abcdef0123", "anonote-test")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	broker := feed.NewBroker(8)
	t.Cleanup(broker.Close)

	d := Deps{
		Profiles:    services.NewProfileService(store, blobs),
		Messages:    services.NewMessageService(store, store),
		Chat:        services.NewChatService(store, store, broker),
		Questions:   services.NewQuestionService(store, store, broker),
		Sessions:    codec,
		Idempotency: store,
		Feed:        broker,
	}
	for _, m := range mutate {
		m(&d)
	}
	h := New(d)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Session(codec))
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{
		Scope: IdempotencyScopes(""),
	}, ReplayLookup(store)))
	h.Register(r.Group(""))

	return &testEnv{store: store, codec: codec, broker: broker, h: h, r: r}
}

// cookie returns a session cookie for uid.
func (e *testEnv) cookie(t *testing.T, uid string) *http.Cookie {
	t.Helper()
	tok, _, err := e.codec.Issue(uid, "anonymous", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return &http.Cookie{Name: auth.CookieName, Value: tok}
}

// anonymous creates a profile through the API and returns its uid and cookie.
func (e *testEnv) anonymous(t *testing.T) (string, *http.Cookie) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/anonymous", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous: %d %s", w.Code, w.Body.String())
	}
	var resp AnonymousResponse
	decode(t, w, &resp)
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			return resp.UserID, c
		}
	}
	t.Fatalf("anonymous: no session cookie")
	return "", nil
}

// do sends a JSON request (body may be nil) with optional cookie and headers.
func (e *testEnv) do(t *testing.T, method, path string, body any, cookie *http.Cookie, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("json: %v (body=%s)", err, w.Body.String())
	}
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var er ErrorResponse
	decode(t, w, &er)
	if er.Message != er.Error {
		t.Fatalf("message and error differ: %+v", er)
	}
	return er.Code
}
