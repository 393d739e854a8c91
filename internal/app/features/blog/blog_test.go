package blog

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	errorsfeature "github.com/dalemusser/stratalaw/internal/app/features/errors"
	blogstore "github.com/dalemusser/stratalaw/internal/app/store/blog"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"github.com/dalemusser/stratalaw/internal/testutil"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(t *testing.T, db *mongo.Database, files storage.Store) *Handler {
	t.Helper()
	logger := zap.NewNop()
	return NewHandler(db, files, nil, nil, errorsfeature.NewErrorLogger(logger), logger, 0)
}

func createPost(t *testing.T, h *Handler, body any) string {
	t.Helper()
	rec := testutil.Serve(AdminRoutes(h), testutil.AdminRequest(t, http.MethodPost, "/", body))
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var out map[string]string
	testutil.DecodeJSON(t, rec, &out)
	return out["id"]
}

func TestPublicList_OnlyPublishedResolved(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db, nil)

	createPost(t, h, map[string]any{
		"title":     map[string]string{"en": "Land Law Basics", "sw": "Misingi ya Sheria ya Ardhi"},
		"content":   map[string]string{"en": "<p>Title deeds.</p><script>alert(1)</script>"},
		"published": true,
	})
	createPost(t, h, map[string]any{
		"title":   map[string]string{"en": "Draft Notes"},
		"content": map[string]string{"en": "wip"},
	})

	rec := testutil.Serve(Routes(h), testutil.JSONRequest(t, http.MethodGet, "/?lang=sw", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var views []models.BlogPostView
	testutil.DecodeJSON(t, rec, &views)
	if len(views) != 1 {
		t.Fatalf("len = %d, want 1 published post", len(views))
	}
	if views[0].Title != "Misingi ya Sheria ya Ardhi" {
		t.Errorf("Title = %q, want Swahili title", views[0].Title)
	}
	if views[0].Content != "<p>Title deeds.</p>" {
		t.Errorf("Content = %q, script should be stripped, en fallback used", views[0].Content)
	}
}

func TestPublicList_EmptyIsArray(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db, nil)

	rec := testutil.Serve(Routes(h), testutil.JSONRequest(t, http.MethodGet, "/", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestGetBySlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db, nil)

	createPost(t, h, map[string]any{
		"title":     map[string]string{"en": "Civil Litigation & Torts!"},
		"content":   map[string]string{"en": "body"},
		"published": true,
	})
	createPost(t, h, map[string]any{
		"title":   map[string]string{"en": "Hidden Draft"},
		"content": map[string]string{"en": "body"},
	})

	tests := []struct {
		path string
		want int
	}{
		{"/civil-litigation-torts", http.StatusOK},
		{"/hidden-draft", http.StatusNotFound},
		{"/no-such-post", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := testutil.Serve(Routes(h), testutil.JSONRequest(t, http.MethodGet, tt.path, nil))
			testutil.AssertStatus(t, rec, tt.want)
		})
	}

	p, err := blogstore.New(db).GetPublishedBySlug(t.Context(), "civil-litigation-torts")
	if err != nil {
		t.Fatalf("GetPublishedBySlug() error = %v", err)
	}
	if p.Title.EN != "Civil Litigation & Torts!" {
		t.Errorf("stored title = %q, want the text as typed", p.Title.EN)
	}
}

func TestCreate_ValidationAndDuplicateSlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db, nil)

	post := map[string]any{
		"title":   map[string]string{"en": "Succession Planning"},
		"content": map[string]string{"en": "Wills and estates."},
	}
	createPost(t, h, post)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"duplicate slug", post, http.StatusConflict},
		{"missing english title", map[string]any{
			"title":   map[string]string{"sw": "Urithi"},
			"content": map[string]string{"en": "x"},
		}, http.StatusBadRequest},
		{"unknown field", `{"title":{"en":"A"},"content":{"en":"B"},"author_id":"x"}`, http.StatusBadRequest},
		{"malformed", `{"title":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.Serve(AdminRoutes(h), testutil.AdminRequest(t, http.MethodPost, "/", tt.body))
			testutil.AssertStatus(t, rec, tt.want)
		})
	}
}

func TestPublishAndUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db, nil)

	id := createPost(t, h, map[string]any{
		"title":   map[string]string{"en": "Employment Contracts"},
		"content": map[string]string{"en": "Terms."},
	})

	rec := testutil.Serve(AdminRoutes(h), testutil.AdminRequest(t, http.MethodPost, "/"+id+"/publish", map[string]bool{"published": true}))
	testutil.AssertStatus(t, rec, http.StatusNoContent)

	rec = testutil.Serve(AdminRoutes(h), testutil.AdminRequest(t, http.MethodPatch, "/"+id, map[string]any{
		"excerpt": map[string]string{"en": "What a contract must say."},
	}))
	testutil.AssertStatus(t, rec, http.StatusNoContent)

	p, err := blogstore.New(db).GetPublishedBySlug(t.Context(), "employment-contracts")
	if err != nil {
		t.Fatalf("post should be public after publish: %v", err)
	}
	if p.Excerpt.EN != "What a contract must say." {
		t.Errorf("Excerpt = %q", p.Excerpt.EN)
	}

	rec = testutil.Serve(AdminRoutes(h), testutil.AdminRequest(t, http.MethodPost, "/"+id+"/publish", map[string]any{}))
	testutil.AssertStatus(t, rec, http.StatusBadRequest)

	rec = testutil.Serve(AdminRoutes(h), testutil.AdminRequest(t, http.MethodPatch, "/64b7f0c2a1b2c3d4e5f60718", map[string]any{"slug": "x"}))
	testutil.AssertStatus(t, rec, http.StatusNotFound)
}

func TestUploadImage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	files, err := storage.NewLocal(storage.LocalConfig{BasePath: t.TempDir(), BaseURL: "/uploads"})
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	h := newHandler(t, db, files)

	id := createPost(t, h, map[string]any{
		"title":   map[string]string{"en": "Court Fees"},
		"content": map[string]string{"en": "Schedule."},
	})

	upload := func(ct string, body []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="image"; filename="fees.png"`)
		hdr.Set("Content-Type", ct)
		part, _ := mw.CreatePart(hdr)
		_, _ = part.Write(body)
		_ = mw.Close()
		req := httptest.NewRequest(http.MethodPost, "/"+id+"/image", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return testutil.Serve(AdminRoutes(h), testutil.WithUser(req, testutil.AdminUser()))
	}

	rec := upload("image/png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	testutil.AssertStatus(t, rec, http.StatusOK)
	var out map[string]string
	testutil.DecodeJSON(t, rec, &out)
	if !strings.Contains(out["featured_image"], "blog/") {
		t.Errorf("featured_image = %q", out["featured_image"])
	}

	rec = upload("text/plain", []byte("not an image"))
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}
