// internal/app/features/contact/contact.go
package contact

import (
	"net/http"

	errorsfeature "github.com/dalemusser/stratalaw/internal/app/features/errors"
	auditstore "github.com/dalemusser/stratalaw/internal/app/store/audit"
	contactstore "github.com/dalemusser/stratalaw/internal/app/store/contact"
	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	"github.com/dalemusser/stratalaw/internal/app/system/auditlog"
	"github.com/dalemusser/stratalaw/internal/app/system/auth"
	"github.com/dalemusser/stratalaw/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratalaw/internal/app/system/inputval"
	"github.com/dalemusser/stratalaw/internal/app/system/jsonutil"
	"github.com/dalemusser/stratalaw/internal/app/system/notify"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const maxBodyBytes = 32 << 10

// Handler provides contact form handlers.
type Handler struct {
	store    *contactstore.Store
	notifier *notify.Service
	audit    *auditlog.Logger
	errLog   *errorsfeature.ErrorLogger
	logger   *zap.Logger
}

// NewHandler creates a contact Handler.
func NewHandler(db *mongo.Database, notifier *notify.Service, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		store:    contactstore.New(db),
		notifier: notifier,
		audit:    audit,
		errLog:   errLog,
		logger:   logger,
	}
}

// Routes returns the public router, mounted at /api/contact.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.submit)
	return r
}

// AdminRoutes returns the triage router, mounted at /api/admin/contact.
func AdminRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	return r
}

type submitInput struct {
	Name     string `json:"name" validate:"required,max=120" label:"Name"`
	Email    string `json:"email" validate:"required,email,max=254" label:"Email"`
	Phone    string `json:"phone" validate:"max=40" label:"Phone"`
	Subject  string `json:"subject" validate:"required,max=120" label:"Subject"`
	Message  string `json:"message" validate:"required,max=5000" label:"Message"`
	Language string `json:"language" validate:"required,lang" label:"Language"`
}

type submitResponse struct {
	ID string `json:"id"`
	notify.Links
}

// submit stores a contact request. The status and priority are always the
// initial ones; notification failures never fail the request.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in submitInput
	if err := jsonutil.DecodeStrict(w, r, &in, maxBodyBytes); err != nil {
		jsonutil.BodyError(w, err)
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	sub, err := h.store.Create(ctx, contactstore.CreateInput{
		Name:     htmlsanitize.Plain(in.Name),
		Email:    in.Email,
		Phone:    htmlsanitize.Plain(in.Phone),
		Subject:  htmlsanitize.Plain(in.Subject),
		Message:  htmlsanitize.Plain(in.Message),
		Language: in.Language,
	})
	if err != nil {
		h.errLog.StoreError(w, r, "failed to store contact submission", err)
		return
	}

	h.logger.Info("contact submission received",
		zap.String("submission_id", sub.ID.Hex()),
		zap.String("subject", sub.Subject),
		zap.String("language", sub.Language))

	jsonutil.Created(w, submitResponse{
		ID:    sub.ID.Hex(),
		Links: h.notifier.ContactReceived(ctx, sub),
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	status := models.ContactStatus(r.URL.Query().Get("status"))
	subs, err := h.store.List(r.Context(), status)
	if err != nil {
		h.errLog.StoreError(w, r, "failed to list contact submissions", err)
		return
	}
	jsonutil.OK(w, subs)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.StoreError(w, err)
		return
	}
	sub, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.errLog.StoreError(w, r, "failed to load contact submission", err)
		return
	}
	jsonutil.OK(w, sub)
}

// update applies a status and/or priority patch. Moving the status
// backwards is rejected by the store with a 409.
func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.CurrentUser(r)

	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.StoreError(w, err)
		return
	}
	var in struct {
		Status   *models.ContactStatus `json:"status"`
		Priority *models.Priority      `json:"priority"`
	}
	if err := jsonutil.DecodeStrict(w, r, &in, 1<<10); err != nil {
		jsonutil.BodyError(w, err)
		return
	}

	sub, err := h.store.Update(ctx, id, contactstore.UpdateInput{Status: in.Status, Priority: in.Priority})
	if err != nil {
		h.errLog.StoreError(w, r, "failed to update contact submission", err)
		return
	}

	h.audit.Admin(r, actor.ID, auditstore.EventContactUpdated, map[string]string{
		"submission_id": id.Hex(),
		"status":        string(sub.Status),
		"priority":      string(sub.Priority),
	})
	jsonutil.NoContent(w)
}
