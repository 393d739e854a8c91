package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
)

func body(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("response is not JSON: %v (%q)", err, rec.Body.String())
	}
	return m
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusAccepted, map[string]int{"n": 3})
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	if body(t, rec)["n"] != float64(3) {
		t.Errorf("body = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	JSON(rec, http.StatusOK, nil)
	if rec.Body.Len() != 0 {
		t.Errorf("nil data wrote %q", rec.Body.String())
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
		msg    string
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "bad") }, 400, "bad"},
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "unauthorized") }, 401, "unauthorized"},
		{"forbidden", func(w http.ResponseWriter) { Forbidden(w, "forbidden") }, 403, "forbidden"},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "post not found") }, 404, "post not found"},
		{"internal", func(w http.ResponseWriter) { InternalError(w, "internal error") }, 500, "internal error"},
		{"custom", func(w http.ResponseWriter) { Error(w, http.StatusTeapot, "short and stout") }, 418, "short and stout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := body(t, rec)["error"]; got != tt.msg {
				t.Errorf("error = %v, want %q", got, tt.msg)
			}
		})
	}
}

func TestOKCreatedNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, []string{})
	if rec.Code != 200 || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("OK = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	Created(rec, map[string]string{"id": "abc"})
	if rec.Code != 201 || body(t, rec)["id"] != "abc" {
		t.Errorf("Created = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	NoContent(rec)
	if rec.Code != 204 || rec.Body.Len() != 0 {
		t.Errorf("NoContent = %d %q", rec.Code, rec.Body.String())
	}
}

func TestValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidationError(rec, map[string]string{"email": "invalid email", "rating": "must be 1-5"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
	m := body(t, rec)
	fields, _ := m["fields"].(map[string]any)
	if m["error"] != "validation failed" || fields["rating"] != "must be 1-5" {
		t.Errorf("body = %s", rec.Body.String())
	}
}

type contactIn struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func TestDecodeStrict(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		max        int64
		wantErr    bool
		wantStatus int
	}{
		{"valid", `{"name":"Otieno","email":"o@example.com"}`, 1 << 10, false, 0},
		{"unknown field", `{"name":"Otieno","role":"admin"}`, 1 << 10, true, 400},
		{"malformed", `{"name":`, 1 << 10, true, 400},
		{"empty", ``, 1 << 10, true, 400},
		{"over the cap", `{"name":"` + strings.Repeat("x", 100) + `"}`, 32, true, 413},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			var in contactIn
			err := DecodeStrict(rec, req, &in, tt.max)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeStrict() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if in.Name != "Otieno" {
					t.Errorf("Name = %q", in.Name)
				}
				return
			}
			BodyError(rec, err)
			if rec.Code != tt.wantStatus {
				t.Errorf("BodyError status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestStoreError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"not found", fmt.Errorf("get post: %w", storeutil.ErrNotFound), 404, "not found"},
		{"duplicate", storeutil.Kind(storeutil.ErrDuplicate, "slug already in use"), 409, "slug already in use"},
		{"transition", storeutil.Kind(storeutil.ErrInvalidTransition, "responded cannot go back to read"), 409, "responded cannot go back to read"},
		{"invalid", storeutil.Kind(storeutil.ErrInvalidValue, "invalid priority"), 400, "invalid priority"},
		{"unknown", errors.New("connection reset by peer"), 500, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			StoreError(rec, tt.err)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := body(t, rec)["error"]; got != tt.msg {
				t.Errorf("error = %v, want %q", got, tt.msg)
			}
		})
	}
}
