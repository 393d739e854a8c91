package health

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dalemusser/stratalaw/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandler_Check(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db.Client(), nil, zap.NewNop())

	rec := testutil.Serve(Routes(h), httptest.NewRequest(http.MethodGet, "/", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var resp Response
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Status != "ok" || resp.Services["mongodb"] != "ok" {
		t.Errorf("resp = %+v", resp)
	}
	if _, present := resp.Services["redis"]; present {
		t.Error("redis reported although not configured")
	}
}

func TestHandler_CheckRedis(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	h := NewHandler(db.Client(), rc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var resp Response
	testutil.DecodeJSON(t, rec, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Services["redis"])

	mr.Close()
	rec = httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code, "a cache outage must not fail the check")
	resp = Response{}
	testutil.DecodeJSON(t, rec, &resp)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unavailable", resp.Services["redis"])
}

func TestHandler_Ready(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db.Client(), nil, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)
	if body := rec.Body.String(); body != "{\"status\":\"ready\"}\n" {
		t.Errorf("Ready() body = %q", body)
	}
}

func TestHandler_Live(t *testing.T) {
	// Live doesn't need DB - just check the handler works
	h := NewHandler(nil, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Live(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)
	if body := rec.Body.String(); body != "{\"status\":\"alive\"}\n" {
		t.Errorf("Live() body = %q", body)
	}
}

func TestHandler_API(t *testing.T) {
	h := NewHandler(nil, nil, zap.NewNop())
	h.now = func() time.Time { return time.Date(2026, 10, 18, 9, 30, 0, 0, time.FixedZone("EAT", 3*3600)) }

	rec := httptest.NewRecorder()
	h.API(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var out map[string]string
	testutil.DecodeJSON(t, rec, &out)
	if out["status"] != "healthy" || out["timestamp"] != "2026-10-18T06:30:00Z" {
		t.Errorf("API() = %v", out)
	}
}

func TestMountRootEndpoints(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db.Client(), nil, zap.NewNop())

	r := chi.NewRouter()
	MountRootEndpoints(r, h)

	for _, path := range []string{"/ready", "/readyz", "/livez"} {
		rec := testutil.Serve(r, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
}
