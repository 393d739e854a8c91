package webhook

import (
	"net/http"
	"strings"
	"testing"

	"github.com/dalemusser/stratalaw/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestReceive(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := NewHandler(zap.New(core))

	tests := []struct {
		name       string
		key        string
		authHeader string
		wantStatus int
	}{
		{"open webhook", "", "", http.StatusOK},
		{"valid key", "hook-secret", "Bearer hook-secret", http.StatusOK},
		{"missing key", "hook-secret", "", http.StatusUnauthorized},
		{"wrong key", "hook-secret", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.JSONRequest(t, http.MethodPost, "/", map[string]string{"event": "ping"})
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := testutil.Serve(Routes(h, tt.key, nil), req)
			testutil.AssertStatus(t, rec, tt.wantStatus)
			if tt.wantStatus == http.StatusOK {
				if got := strings.TrimSpace(rec.Body.String()); got != `{"success":true}` {
					t.Errorf("body = %s", got)
				}
			}
		})
	}

	entries := logs.FilterMessage("webhook received").All()
	if len(entries) != 2 {
		t.Fatalf("logged %d deliveries, want 2", len(entries))
	}
	if body, ok := entries[0].ContextMap()["body"].(string); !ok || !strings.Contains(body, `"ping"`) {
		t.Errorf("logged body = %v", entries[0].ContextMap()["body"])
	}
}

func TestReceive_TooLarge(t *testing.T) {
	h := NewHandler(zap.NewNop())
	req := testutil.JSONRequest(t, http.MethodPost, "/", map[string]string{"blob": strings.Repeat("x", maxBody)})
	rec := testutil.Serve(Routes(h, "", nil), req)
	testutil.AssertStatus(t, rec, http.StatusRequestEntityTooLarge)
}
