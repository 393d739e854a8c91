// internal/app/features/practiceareas/practiceareas.go
package practiceareas

import (
	"net/http"

	errorsfeature "github.com/dalemusser/stratalaw/internal/app/features/errors"
	auditstore "github.com/dalemusser/stratalaw/internal/app/store/audit"
	practicestore "github.com/dalemusser/stratalaw/internal/app/store/practice"
	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	"github.com/dalemusser/stratalaw/internal/app/system/auditlog"
	"github.com/dalemusser/stratalaw/internal/app/system/auth"
	"github.com/dalemusser/stratalaw/internal/app/system/cache"
	"github.com/dalemusser/stratalaw/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratalaw/internal/app/system/inputval"
	"github.com/dalemusser/stratalaw/internal/app/system/jsonutil"
	"github.com/dalemusser/stratalaw/internal/app/system/locale"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

// Handler provides practice area handlers.
type Handler struct {
	areas  *practicestore.Store
	cache  cache.Cache
	audit  *auditlog.Logger
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger
}

// NewHandler creates a practice area Handler. A nil cache disables caching.
func NewHandler(db *mongo.Database, c cache.Cache, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	if c == nil {
		c = cache.Nop{}
	}
	return &Handler{
		areas:  practicestore.New(db),
		cache:  c,
		audit:  audit,
		errLog: errLog,
		logger: logger,
	}
}

// Routes returns the public router, mounted at /api/practice-areas.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.listActive)
	return r
}

// AdminRoutes returns the admin router, mounted at /api/admin/practice-areas.
func AdminRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.listAll)
	r.Post("/", h.create)
	r.Patch("/{id}", h.update)
	return r
}

func (h *Handler) listActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := locale.FromRequest(r)

	views, err := cache.Fetch(ctx, h.cache, h.logger, cache.NSPracticeAreas, "active:"+lang, func() ([]models.PracticeAreaView, error) {
		areas, err := h.areas.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]models.PracticeAreaView, 0, len(areas))
		for _, a := range areas {
			out = append(out, a.Resolve(lang))
		}
		return out, nil
	})
	if err != nil {
		h.errLog.StoreError(w, r, "failed to list practice areas", err)
		return
	}
	jsonutil.OK(w, views)
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	areas, err := h.areas.ListAll(r.Context())
	if err != nil {
		h.errLog.StoreError(w, r, "failed to list practice areas", err)
		return
	}
	jsonutil.OK(w, areas)
}

type createInput struct {
	Title       models.LocalizedText `json:"title" validate:"localized" label:"Title"`
	Description models.LocalizedText `json:"description" validate:"localized" label:"Description"`
	Icon        string               `json:"icon" validate:"max=32" label:"Icon"`
	Order       int                  `json:"order" validate:"min=0" label:"Order"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.CurrentUser(r)

	var in createInput
	if err := jsonutil.DecodeStrict(w, r, &in, maxBodyBytes); err != nil {
		jsonutil.BodyError(w, err)
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	a, err := h.areas.Create(ctx, practicestore.CreateInput{
		Title:       htmlsanitize.PlainText(in.Title),
		Description: htmlsanitize.PlainText(in.Description),
		Icon:        in.Icon,
		Order:       in.Order,
	})
	if err != nil {
		h.errLog.StoreError(w, r, "failed to create practice area", err)
		return
	}

	cache.Invalidate(ctx, h.cache, h.logger, cache.NSPracticeAreas)
	h.audit.Admin(r, actor.ID, auditstore.EventPracticeAreaCreated, map[string]string{"practice_area_id": a.ID.Hex(), "title": a.Title.EN})
	jsonutil.Created(w, map[string]string{"id": a.ID.Hex()})
}

type updateInput struct {
	Title       *models.LocalizedText `json:"title"`
	Description *models.LocalizedText `json:"description"`
	Icon        *string               `json:"icon"`
	Order       *int                  `json:"order"`
	Active      *bool                 `json:"active"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.CurrentUser(r)

	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.StoreError(w, err)
		return
	}
	var in updateInput
	if err := jsonutil.DecodeStrict(w, r, &in, maxBodyBytes); err != nil {
		jsonutil.BodyError(w, err)
		return
	}
	if in.Order != nil && *in.Order < 0 {
		jsonutil.ValidationError(w, map[string]string{"order": "Order must be zero or more."})
		return
	}

	patch := practicestore.UpdateInput{Icon: in.Icon, Order: in.Order, Active: in.Active}
	if in.Title != nil {
		t := htmlsanitize.PlainText(*in.Title)
		patch.Title = &t
	}
	if in.Description != nil {
		d := htmlsanitize.PlainText(*in.Description)
		patch.Description = &d
	}

	if err := h.areas.Update(ctx, id, patch); err != nil {
		h.errLog.StoreError(w, r, "failed to update practice area", err)
		return
	}

	cache.Invalidate(ctx, h.cache, h.logger, cache.NSPracticeAreas)
	h.audit.Admin(r, actor.ID, auditstore.EventPracticeAreaUpdated, map[string]string{"practice_area_id": id.Hex()})
	jsonutil.NoContent(w)
}
