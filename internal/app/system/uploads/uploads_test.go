package uploads

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestObjectPath(t *testing.T) {
	now := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	got := ObjectPath("/blog/", "Court Photo.JPG", now)
	if !regexp.MustCompile(`^blog/2024/03/[0-9a-f-]{8}\.jpg$`).MatchString(got) {
		t.Errorf("ObjectPath() = %q", got)
	}
	if ObjectPath("blog", "a.jpg", now) == ObjectPath("blog", "a.jpg", now) {
		t.Error("paths should not collide")
	}
}

// fileHeader round-trips one file part through a multipart request.
func fileHeader(t *testing.T, filename, ct string, body []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
	if ct != "" {
		h["Content-Type"] = []string{ct}
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write(body)
	_ = mw.Close()

	req := httptest.NewRequest("POST", "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	fh, err := FromRequest(httptest.NewRecorder(), req, "file", 1<<20)
	if err != nil {
		t.Fatalf("FromRequest() error = %v", err)
	}
	return fh
}

func localStore(t *testing.T) storage.Store {
	t.Helper()
	s, err := storage.NewLocal(storage.LocalConfig{BasePath: t.TempDir(), BaseURL: "/uploads"})
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	return s
}

func TestSave(t *testing.T) {
	store := localStore(t)
	ctx := context.Background()

	t.Run("sniffs octet-stream", func(t *testing.T) {
		fh := fileHeader(t, "photo.png", "application/octet-stream", pngHeader)
		saved, err := Save(ctx, store, fh, Policy{Prefix: "blog", MaxBytes: 1 << 20, Types: ImageTypes})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if saved.ContentType != "image/png" || saved.FileName != "photo.png" {
			t.Errorf("saved = %+v", saved)
		}
		rc, err := store.Get(ctx, saved.Path)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		defer rc.Close()
		got, _ := io.ReadAll(rc)
		if !bytes.Equal(got, pngHeader) {
			t.Error("stored bytes differ from upload")
		}
	})

	t.Run("rejects type", func(t *testing.T) {
		fh := fileHeader(t, "notes.txt", "text/plain", []byte("hello"))
		if _, err := Save(ctx, store, fh, Policy{Prefix: "blog", Types: ImageTypes}); !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("Save() err = %v, want ErrUnsupportedType", err)
		}
	})

	t.Run("rejects size", func(t *testing.T) {
		fh := fileHeader(t, "big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 100))
		if _, err := Save(ctx, store, fh, Policy{Prefix: "documents", MaxBytes: 10}); !errors.Is(err, ErrTooLarge) {
			t.Errorf("Save() err = %v, want ErrTooLarge", err)
		}
	})

	t.Run("nil header", func(t *testing.T) {
		if _, err := Save(ctx, store, nil, Policy{}); !errors.Is(err, ErrNoFile) {
			t.Errorf("Save() err = %v, want ErrNoFile", err)
		}
	})
}

func TestFromRequest_MissingField(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("notes", "no file here")
	_ = mw.Close()

	req := httptest.NewRequest("POST", "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if _, err := FromRequest(httptest.NewRecorder(), req, "file", 1<<20); !errors.Is(err, ErrNoFile) {
		t.Errorf("FromRequest() err = %v, want ErrNoFile", err)
	}
}
