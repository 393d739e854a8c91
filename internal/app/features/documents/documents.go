// internal/app/features/documents/documents.go

// Package documents lets admins file client documents against a case and
// move them through review.
package documents

import (
	"io"
	"mime"
	"net/http"

	errorsfeature "github.com/dalemusser/stratalaw/internal/app/features/errors"
	auditstore "github.com/dalemusser/stratalaw/internal/app/store/audit"
	documentstore "github.com/dalemusser/stratalaw/internal/app/store/documents"
	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	"github.com/dalemusser/stratalaw/internal/app/system/auditlog"
	"github.com/dalemusser/stratalaw/internal/app/system/auth"
	"github.com/dalemusser/stratalaw/internal/app/system/inputval"
	"github.com/dalemusser/stratalaw/internal/app/system/jsonutil"
	"github.com/dalemusser/stratalaw/internal/app/system/uploads"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const storagePrefix = "documents"

type Handler struct {
	docs     *documentstore.Store
	files    storage.Store
	audit    *auditlog.Logger
	errLog   *errorsfeature.ErrorLogger
	logger   *zap.Logger
	maxBytes int64
}

// NewHandler creates a documents Handler. files may be nil, in which case
// uploads and downloads answer 503.
func NewHandler(db *mongo.Database, files storage.Store, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger, maxBytes int64) *Handler {
	return &Handler{
		docs:     documentstore.New(db),
		files:    files,
		audit:    audit,
		errLog:   errLog,
		logger:   logger,
		maxBytes: maxBytes,
	}
}

// AdminRoutes is mounted at /api/admin/documents.
func AdminRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.upload)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/download", h.download)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	docs, err := h.docs.List(r.Context(), documentstore.ListOptions{
		ClientEmail:   q.Get("client_email"),
		CaseReference: q.Get("case_reference"),
		Status:        q.Get("status"),
		Search:        q.Get("q"),
	})
	if err != nil {
		h.errLog.StoreError(w, r, "failed to list documents", err)
		return
	}
	jsonutil.OK(w, docs)
}

type uploadFields struct {
	ClientEmail   string `validate:"required,email" label:"Client email"`
	CaseReference string `validate:"max=64" label:"Case reference"`
	Notes         string `validate:"max=2000" label:"Notes"`
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.CurrentUser(r)

	if h.files == nil {
		jsonutil.Error(w, http.StatusServiceUnavailable, "file storage is not configured")
		return
	}

	fh, err := uploads.FromRequest(w, r, "file", h.maxBytes)
	if err != nil {
		uploads.WriteError(w, err)
		return
	}
	fields := uploadFields{
		ClientEmail:   r.FormValue("client_email"),
		CaseReference: r.FormValue("case_reference"),
		Notes:         r.FormValue("notes"),
	}
	if res := inputval.Validate(fields); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	saved, err := uploads.Save(ctx, h.files, fh, uploads.Policy{
		Prefix:   storagePrefix,
		MaxBytes: h.maxBytes,
		Types:    uploads.DocumentTypes,
	})
	if err != nil {
		if !uploads.IsClientError(err) {
			h.errLog.Log(r, "failed to store document", err)
		}
		uploads.WriteError(w, err)
		return
	}

	doc, err := h.docs.Create(ctx, documentstore.CreateInput{
		ClientEmail:   fields.ClientEmail,
		CaseReference: fields.CaseReference,
		FileName:      saved.FileName,
		StoragePath:   saved.Path,
		ContentType:   saved.ContentType,
		Size:          saved.Size,
		UploadedBy:    actor.Name,
		Notes:         fields.Notes,
	})
	if err != nil {
		if delErr := h.files.Delete(ctx, saved.Path); delErr != nil {
			h.logger.Warn("failed to remove orphaned upload", zap.String("path", saved.Path), zap.Error(delErr))
		}
		h.errLog.StoreError(w, r, "failed to record document", err)
		return
	}

	h.audit.Admin(r, actor.ID, auditstore.EventDocumentUploaded, map[string]string{
		"document_id":    doc.ID.Hex(),
		"case_reference": doc.CaseReference,
		"file_name":      doc.FileName,
	})
	jsonutil.Created(w, doc)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*models.ClientDocument, bool) {
	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.StoreError(w, err)
		return nil, false
	}
	doc, err := h.docs.GetByID(r.Context(), id)
	if err != nil {
		h.errLog.StoreError(w, r, "failed to load document", err)
		return nil, false
	}
	return doc, true
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	if doc, ok := h.load(w, r); ok {
		jsonutil.OK(w, doc)
	}
}

// update moves the review status forward and/or replaces the notes.
func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.StoreError(w, err)
		return
	}
	var in struct {
		Status *models.DocumentStatus `json:"status"`
		Notes  *string                `json:"notes"`
	}
	if err := jsonutil.DecodeStrict(w, r, &in, 8<<10); err != nil {
		jsonutil.BodyError(w, err)
		return
	}

	doc, err := h.docs.Update(r.Context(), id, documentstore.UpdateInput{Status: in.Status, Notes: in.Notes})
	if err != nil {
		h.errLog.StoreError(w, r, "failed to update document", err)
		return
	}
	h.audit.Admin(r, actor.ID, auditstore.EventDocumentUpdated, map[string]string{
		"document_id": doc.ID.Hex(),
		"status":      string(doc.Status),
	})
	jsonutil.OK(w, doc)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.CurrentUser(r)

	doc, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.docs.Delete(ctx, doc.ID); err != nil {
		h.errLog.StoreError(w, r, "failed to delete document", err)
		return
	}
	if h.files != nil {
		if err := h.files.Delete(ctx, doc.StoragePath); err != nil {
			h.logger.Warn("failed to delete document file", zap.String("path", doc.StoragePath), zap.Error(err))
		}
	}
	h.audit.Admin(r, actor.ID, auditstore.EventDocumentUpdated, map[string]string{
		"document_id": doc.ID.Hex(),
		"deleted":     "true",
	})
	jsonutil.NoContent(w)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	if h.files == nil {
		jsonutil.Error(w, http.StatusServiceUnavailable, "file storage is not configured")
		return
	}
	doc, ok := h.load(w, r)
	if !ok {
		return
	}

	reader, err := h.files.Get(r.Context(), doc.StoragePath)
	if err != nil {
		h.errLog.Log(r, "failed to get document from storage", err)
		jsonutil.NotFound(w, "not found")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", attachment(doc.FileName))
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("failed to stream document",
			zap.String("path", doc.StoragePath),
			zap.Error(err))
	}
}

// attachment builds a Content-Disposition value. Non-ASCII names use the
// RFC 2231 filename* form.
func attachment(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}
