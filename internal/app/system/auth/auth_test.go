package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const testKey = "this-is-a-32-character-long-key!"

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	sm, err := NewSessionManager(testKey, "", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}
	return sm
}

func TestNewSessionManager(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		sessionKey string
		secure     bool
		wantErr    bool
	}{
		{"valid key dev mode", testKey, false, false},
		{"valid key prod mode", testKey, true, false},
		{"empty key", "", false, true},
		{"weak key dev mode", "short", false, false},
		{"weak key prod mode", "short", true, true},
		{"default key prod mode", "dev-only-session-key-not-for-production", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm, err := NewSessionManager(tt.sessionKey, "test-session", "", time.Hour, tt.secure, logger)
			if tt.wantErr {
				if err == nil {
					t.Error("NewSessionManager() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("NewSessionManager() error = %v", err)
			}
			if sm == nil {
				t.Error("NewSessionManager() returned nil")
			}
		})
	}
}

func TestSessionManager_DefaultName(t *testing.T) {
	sm := newTestManager(t)
	if sm.SessionName() != "stratalaw-session" {
		t.Errorf("SessionName() = %q, want %q", sm.SessionName(), "stratalaw-session")
	}
}

func TestSessionUser_UserID(t *testing.T) {
	oid := primitive.NewObjectID()
	if got := (&SessionUser{ID: oid.Hex()}).UserID(); got != oid {
		t.Errorf("UserID() = %v, want %v", got, oid)
	}
	if !(&SessionUser{ID: "invalid"}).UserID().IsZero() {
		t.Error("UserID() should return zero ObjectID for invalid ID")
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v (%q)", err, rec.Body.String())
	}
	return body["error"]
}

func TestSessionUser_IsAdmin(t *testing.T) {
	var none *SessionUser
	if none.IsAdmin() {
		t.Error("nil user reported as admin")
	}
	if !(&SessionUser{Role: "ADMIN"}).IsAdmin() {
		t.Error("role comparison should ignore case")
	}
	if (&SessionUser{Role: "user"}).IsAdmin() {
		t.Error("user role reported as admin")
	}
}

func TestRequireAdmin(t *testing.T) {
	sm := newTestManager(t)

	tests := []struct {
		name       string
		user       *SessionUser
		wantStatus int
		wantError  string
		wantCalled bool
	}{
		{"no session", nil, http.StatusUnauthorized, "unauthorized", false},
		{"user role", &SessionUser{ID: primitive.NewObjectID().Hex(), Role: "user"}, http.StatusForbidden, "forbidden", false},
		{"empty role", &SessionUser{ID: primitive.NewObjectID().Hex()}, http.StatusForbidden, "forbidden", false},
		{"admin", &SessionUser{ID: primitive.NewObjectID().Hex(), Role: "admin"}, http.StatusOK, "", true},
		{"admin mixed case", &SessionUser{ID: primitive.NewObjectID().Hex(), Role: " Admin "}, http.StatusOK, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := sm.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/admin/posts", nil)
			if tt.user != nil {
				req = WithTestUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if called != tt.wantCalled {
				t.Errorf("handler called = %v, want %v", called, tt.wantCalled)
			}
			if tt.wantError != "" {
				if got := decodeError(t, rec); got != tt.wantError {
					t.Errorf("error = %q, want %q", got, tt.wantError)
				}
			}
		})
	}
}

func TestRequireSignedIn(t *testing.T) {
	sm := newTestManager(t)
	h := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := WithTestUser(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), &SessionUser{ID: "x", Role: "user"})
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("signed-in status = %d, want 200", rec.Code)
	}
}

type stubFetcher struct {
	users map[string]*SessionUser
}

func (f stubFetcher) FetchUser(_ context.Context, userID string) *SessionUser {
	u, ok := f.users[userID]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

// signIn runs CreateSession and returns the cookies it set.
func signIn(t *testing.T, sm *SessionManager, userID primitive.ObjectID) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	if err := sm.CreateSession(rec, req, userID, "admin"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("CreateSession() set no cookie")
	}
	return cookies
}

func TestLoadSessionUser_RoundTrip(t *testing.T) {
	sm := newTestManager(t)
	adminID := primitive.NewObjectID()
	sm.SetUserFetcher(stubFetcher{users: map[string]*SessionUser{
		adminID.Hex(): {ID: adminID.Hex(), Name: "Wakili", Email: "wakili@example.com", Role: "admin"},
	}})

	cookies := signIn(t, sm, adminID)

	var got *SessionUser
	h := sm.LoadSessionUser(sm.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CurrentUser(r)
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/overview", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got == nil || got.ID != adminID.Hex() {
		t.Fatalf("CurrentUser = %+v, want admin %s", got, adminID.Hex())
	}
	if got.Token == "" {
		t.Error("session token should be loaded into the user")
	}
}

func TestLoadSessionUser_DisabledUserLosesSession(t *testing.T) {
	sm := newTestManager(t)
	userID := primitive.NewObjectID()
	// The fetcher knows nobody, as it would for a disabled or deleted user.
	sm.SetUserFetcher(stubFetcher{users: map[string]*SessionUser{}})

	cookies := signIn(t, sm, userID)

	h := sm.LoadSessionUser(sm.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/posts", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestDestroySession(t *testing.T) {
	sm := newTestManager(t)
	cookies := signIn(t, sm, primitive.NewObjectID())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	sm.DestroySession(rec, req)

	var expired bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == sm.SessionName() && c.MaxAge < 0 {
			expired = true
		}
	}
	if !expired {
		t.Error("DestroySession() should expire the session cookie")
	}
}

func TestBearerKey(t *testing.T) {
	logger := zap.NewNop()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		key        string
		header     string
		wantStatus int
	}{
		{"no key configured", "", "", http.StatusOK},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"wrong scheme", "s3cret", "Basic s3cret", http.StatusUnauthorized},
		{"wrong key", "s3cret", "Bearer nope", http.StatusUnauthorized},
		{"valid", "s3cret", "Bearer s3cret", http.StatusOK},
		{"scheme case", "s3cret", "bearer s3cret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/webhook", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			BearerKey(tt.key, logger)(ok).ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestIsDefaultKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"dev-only-key", true},
		{"change-me-please", true},
		{"placeholder-key", true},
		{"password123", true},
		{"xK8nP2mQ9rT5vW7yB3cF6hJ0lN4sU1wZ", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := isDefaultKey(tt.key); got != tt.want {
				t.Errorf("isDefaultKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestClassifySessionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want sessionFailure
	}{
		{"expired", mockSecureCookieError{msg: "expired timestamp", isDecode: true}, failExpired},
		{"mac invalid", mockSecureCookieError{msg: "the value is not valid: mac", isDecode: true}, failTampered},
		{"decrypt failed", mockSecureCookieError{msg: "decrypt error", isDecode: true}, failDecrypt},
		{"base64", mockSecureCookieError{msg: "base64 decode failed", isDecode: true}, failDecode},
		{"not decode", mockSecureCookieError{msg: "backend error"}, failBackend},
		{"plain error", errors.New("disk full"), failBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifySessionError(tt.err); got != tt.want {
				t.Errorf("classifySessionError() = %s, want %s", got.category, tt.want.category)
			}
		})
	}
}

// mockSecureCookieError implements securecookie.Error for testing
type mockSecureCookieError struct {
	msg      string
	isDecode bool
}

func (e mockSecureCookieError) Error() string    { return e.msg }
func (e mockSecureCookieError) IsDecode() bool   { return e.isDecode }
func (e mockSecureCookieError) IsUsage() bool    { return false }
func (e mockSecureCookieError) IsInternal() bool { return false }
func (e mockSecureCookieError) Cause() error     { return nil }
