// internal/app/system/uploads/uploads.go

// Package uploads stores multipart files in the configured storage backend
// under dated, collision-free object paths.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dalemusser/stratalaw/internal/app/system/jsonutil"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
)

var (
	ErrNoFile          = errors.New("no file was uploaded")
	ErrTooLarge        = errors.New("file is too large")
	ErrUnsupportedType = errors.New("file type is not allowed")
)

// ImageTypes are accepted for featured images.
var ImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// DocumentTypes are accepted for client documents.
var DocumentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"text/plain",
	"image/jpeg",
	"image/png",
}

// Policy limits what Save accepts. An empty Types list accepts anything.
type Policy struct {
	Prefix   string
	MaxBytes int64
	Types    []string
}

// Saved describes a stored object.
type Saved struct {
	Path        string
	FileName    string
	ContentType string
	Size        int64
}

// ObjectPath returns prefix/YYYY/MM/<8 hex chars><ext>.
func ObjectPath(prefix, filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	name := uuid.New().String()[:8] + ext
	return fmt.Sprintf("%s/%04d/%02d/%s", strings.Trim(prefix, "/"), now.Year(), int(now.Month()), name)
}

// contentType trusts the declared type when it is specific, else sniffs the
// first 512 bytes. The returned reader replays the sniffed bytes.
func contentType(declared string, f io.Reader) (string, io.Reader, error) {
	declared = strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
	if declared != "" && declared != "application/octet-stream" {
		return declared, f, nil
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	head = head[:n]
	sniffed := strings.Split(http.DetectContentType(head), ";")[0]
	return sniffed, io.MultiReader(strings.NewReader(string(head)), f), nil
}

func allowed(ct string, types []string) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if t == ct {
			return true
		}
	}
	return false
}

// Save validates fh against p and writes it to store.
func Save(ctx context.Context, store storage.Store, fh *multipart.FileHeader, p Policy) (Saved, error) {
	if fh == nil || fh.Size == 0 {
		return Saved{}, ErrNoFile
	}
	if p.MaxBytes > 0 && fh.Size > p.MaxBytes {
		return Saved{}, ErrTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return Saved{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	ct, body, err := contentType(fh.Header.Get("Content-Type"), f)
	if err != nil {
		return Saved{}, fmt.Errorf("read upload: %w", err)
	}
	if !allowed(ct, p.Types) {
		return Saved{}, ErrUnsupportedType
	}

	path := ObjectPath(p.Prefix, fh.Filename, time.Now().UTC())
	if err := store.Put(ctx, path, body, &storage.PutOptions{ContentType: ct}); err != nil {
		return Saved{}, fmt.Errorf("store upload: %w", err)
	}
	return Saved{
		Path:        path,
		FileName:    filepath.Base(fh.Filename),
		ContentType: ct,
		Size:        fh.Size,
	}, nil
}

// FromRequest parses a multipart request capped at maxBytes and returns the
// header of the named file field.
func FromRequest(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (*multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, ErrTooLarge
		}
		return nil, fmt.Errorf("parse multipart form: %w", err)
	}
	_, fh, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, ErrNoFile
	}
	return fh, err
}

// IsClientError reports whether err was caused by the uploaded file rather
// than by storage.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoFile) ||
		errors.Is(err, ErrTooLarge) ||
		errors.Is(err, ErrUnsupportedType)
}

// WriteError writes the JSON response for an upload error: 413 when too
// large, 400 for other client errors, 500 otherwise.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTooLarge):
		jsonutil.Error(w, http.StatusRequestEntityTooLarge, err.Error())
	case IsClientError(err):
		jsonutil.BadRequest(w, err.Error())
	default:
		jsonutil.InternalError(w, "internal error")
	}
}
