package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ayurclinic/clinic/internal/domain/loginlog"
	"github.com/ayurclinic/clinic/internal/platform/auth"
)

type memAuditRepo struct {
	mu      sync.Mutex
	entries []*loginlog.Entry
}

func (m *memAuditRepo) Append(_ context.Context, e *loginlog.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = int64(len(m.entries) + 1)
	e.LoginTime = time.Now()
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memAuditRepo) Query(_ context.Context, _ loginlog.Filter) ([]*loginlog.Entry, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*loginlog.Entry, len(m.entries))
	copy(out, m.entries)
	return out, int64(len(out)), nil
}

func (m *memAuditRepo) last(t *testing.T) *loginlog.Entry {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		t.Fatal("audit log is empty")
	}
	return m.entries[len(m.entries)-1]
}

type authFixture struct {
	handler  *AuthHandler
	users    *Service
	sessions auth.SessionStore
	audit    *memAuditRepo
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	users, _ := newTestService(true)
	sessions := auth.NewMemorySessionStore(time.Hour)
	audit := &memAuditRepo{}
	cfg := auth.SessionConfig{Store: sessions, Users: users, CookieName: "ayur_sid"}
	h := NewAuthHandler(users, sessions, loginlog.NewService(audit, zerolog.Nop()), auth.Disabled{}, cfg)
	return &authFixture{handler: h, users: users, sessions: sessions, audit: audit}
}

func authContext(sess *auth.Session, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if sess != nil {
		req = req.WithContext(auth.WithSession(req.Context(), sess))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestLoginSuccess(t *testing.T) {
	fx := newAuthFixture(t)
	if _, err := fx.users.Create(context.Background(), doctorParams()); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	c, rec := authContext(nil, http.MethodPost, "/api/auth/login",
		`{"username":"swilson","password":"long-enough-pw"}`)
	if err := fx.handler.Login(c); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Username != "swilson" {
		t.Fatalf("username = %q", got.Username)
	}
	if strings.Contains(rec.Body.String(), "long-enough-pw") {
		t.Fatal("response leaked the password")
	}

	cookie := rec.Header().Get("Set-Cookie")
	if !strings.Contains(cookie, "ayur_sid=") || !strings.Contains(cookie, "HttpOnly") {
		t.Fatalf("missing session cookie: %q", cookie)
	}

	entry := fx.audit.last(t)
	if entry.Status != loginlog.StatusSuccess || entry.SessionID == "" {
		t.Fatalf("audit entry = %+v", entry)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	fx := newAuthFixture(t)
	if _, err := fx.users.Create(context.Background(), doctorParams()); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	c, _ := authContext(nil, http.MethodPost, "/api/auth/login",
		`{"username":"swilson","password":"nope-nope"}`)
	err := fx.handler.Login(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
	if he.Message != "invalid username or password" {
		t.Fatalf("message = %v, leaks detail", he.Message)
	}
	if entry := fx.audit.last(t); entry.Status != loginlog.StatusFailed {
		t.Fatalf("audit status = %s, want failed", entry.Status)
	}
}

func TestLoginUnknownUserNoAuditRow(t *testing.T) {
	fx := newAuthFixture(t)

	c, _ := authContext(nil, http.MethodPost, "/api/auth/login",
		`{"username":"ghost","password":"whatever1"}`)
	err := fx.handler.Login(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
	if he.Message != "invalid username or password" {
		t.Fatalf("message = %v, want generic", he.Message)
	}
	if len(fx.audit.entries) != 0 {
		t.Fatalf("audit rows for unknown username: %d", len(fx.audit.entries))
	}
}

func TestLoginInactiveRecordsLocked(t *testing.T) {
	fx := newAuthFixture(t)
	u, err := fx.users.Create(context.Background(), doctorParams())
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, err := fx.users.SetActive(context.Background(), u.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	c, _ := authContext(nil, http.MethodPost, "/api/auth/login",
		`{"username":"swilson","password":"long-enough-pw"}`)
	err = fx.handler.Login(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
	if entry := fx.audit.last(t); entry.Status != loginlog.StatusLocked {
		t.Fatalf("audit status = %s, want locked", entry.Status)
	}
}

func TestLogoutDestroysSessionIdempotently(t *testing.T) {
	fx := newAuthFixture(t)
	u, err := fx.users.Create(context.Background(), doctorParams())
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	sess, err := fx.sessions.Create(context.Background(), u.ID, u.Role, u.FullName)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	c, rec := authContext(sess, http.MethodPost, "/api/auth/logout", "")
	if err := fx.handler.Logout(c); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, err := fx.sessions.Get(context.Background(), sess.SID); err == nil {
		t.Fatal("session survived logout")
	}

	// A second logout with the same, already destroyed session is a no-op.
	c, rec = authContext(sess, http.MethodPost, "/api/auth/logout", "")
	if err := fx.handler.Logout(c); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("second logout status = %d", rec.Code)
	}
}

func TestCurrentUser(t *testing.T) {
	fx := newAuthFixture(t)
	u, err := fx.users.Create(context.Background(), doctorParams())
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	sess, err := fx.sessions.Create(context.Background(), u.ID, u.Role, u.FullName)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	c, rec := authContext(sess, http.MethodGet, "/api/auth/user", "")
	if err := fx.handler.CurrentUser(c); err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	var got User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("id = %d, want %d", got.ID, u.ID)
	}

	// No session attached means 401.
	c, _ = authContext(nil, http.MethodGet, "/api/auth/user", "")
	err = fx.handler.CurrentUser(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
}

func TestCurrentUserStaleSessionDestroyed(t *testing.T) {
	fx := newAuthFixture(t)
	u, err := fx.users.Create(context.Background(), doctorParams())
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	sess, err := fx.sessions.Create(context.Background(), u.ID, u.Role, u.FullName)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := fx.users.Delete(context.Background(), u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	c, _ := authContext(sess, http.MethodGet, "/api/auth/user", "")
	err = fx.handler.CurrentUser(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
	if _, err := fx.sessions.Get(context.Background(), sess.SID); err == nil {
		t.Fatal("stale session not destroyed")
	}
}

func TestOAuthLoginDisabled(t *testing.T) {
	fx := newAuthFixture(t)
	c, _ := authContext(nil, http.MethodPost, "/api/auth/oauth", `{"idToken":"abc"}`)
	err := fx.handler.OAuthLogin(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404", err)
	}
}
