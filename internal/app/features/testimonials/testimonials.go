// internal/app/features/testimonials/testimonials.go
package testimonials

import (
	"net/http"
	"strconv"

	errorsfeature "github.com/dalemusser/stratalaw/internal/app/features/errors"
	auditstore "github.com/dalemusser/stratalaw/internal/app/store/audit"
	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	testimonialstore "github.com/dalemusser/stratalaw/internal/app/store/testimonials"
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

const maxBodyBytes = 16 << 10

// Handler provides testimonial handlers.
type Handler struct {
	store  *testimonialstore.Store
	cache  cache.Cache
	audit  *auditlog.Logger
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger
}

// NewHandler creates a testimonial Handler. A nil cache disables caching.
func NewHandler(db *mongo.Database, c cache.Cache, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	if c == nil {
		c = cache.Nop{}
	}
	return &Handler{
		store:  testimonialstore.New(db),
		cache:  c,
		audit:  audit,
		errLog: errLog,
		logger: logger,
	}
}

// Routes returns the public router, mounted at /api/testimonials.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.listApproved)
	r.Post("/", h.submit)
	return r
}

// AdminRoutes returns the moderation router, mounted at
// /api/admin/testimonials.
func AdminRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.listAll)
	r.Post("/{id}/approve", h.approve)
	return r
}

func (h *Handler) listApproved(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := locale.FromRequest(r)
	featured, _ := strconv.ParseBool(r.URL.Query().Get("featured"))

	key := "visible:" + lang
	if featured {
		key = "featured:" + lang
	}
	views, err := cache.Fetch(ctx, h.cache, h.logger, cache.NSTestimonials, key, func() ([]models.TestimonialView, error) {
		ts, err := h.store.ListVisible(ctx, featured)
		if err != nil {
			return nil, err
		}
		out := make([]models.TestimonialView, 0, len(ts))
		for _, t := range ts {
			out = append(out, t.Resolve(lang))
		}
		return out, nil
	})
	if err != nil {
		h.errLog.StoreError(w, r, "failed to list testimonials", err)
		return
	}
	jsonutil.OK(w, views)
}

type submitInput struct {
	ClientName string `json:"client_name" validate:"required,max=120" label:"Name"`
	Content    string `json:"content" validate:"required,max=4000" label:"Testimonial"`
	Rating     int    `json:"rating" validate:"required,rating" label:"Rating"`
	CaseType   string `json:"case_type" validate:"max=120" label:"Case type"`
	Language   string `json:"language" validate:"required,lang" label:"Language"`
}

// submit accepts a public testimonial. It is stored pending and is not
// visible until an admin approves it, so the cache is left alone.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var in submitInput
	if err := jsonutil.DecodeStrict(w, r, &in, maxBodyBytes); err != nil {
		jsonutil.BodyError(w, err)
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	t, err := h.store.Submit(r.Context(), testimonialstore.SubmitInput{
		ClientName: htmlsanitize.Plain(in.ClientName),
		CaseType:   htmlsanitize.Plain(in.CaseType),
		Content:    htmlsanitize.Plain(in.Content),
		Rating:     in.Rating,
		Language:   in.Language,
	})
	if err != nil {
		h.errLog.StoreError(w, r, "failed to store testimonial", err)
		return
	}
	jsonutil.Created(w, map[string]string{"id": t.ID.Hex()})
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	state := models.TestimonialState(r.URL.Query().Get("state"))
	if state != "" && !state.Valid() {
		jsonutil.BadRequest(w, "unknown testimonial state")
		return
	}
	ts, err := h.store.ListAll(r.Context(), state)
	if err != nil {
		h.errLog.StoreError(w, r, "failed to list testimonials", err)
		return
	}
	out := make([]models.TestimonialAdminView, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.AdminView())
	}
	jsonutil.OK(w, out)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.CurrentUser(r)

	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.StoreError(w, err)
		return
	}
	var in struct {
		Featured bool `json:"featured"`
	}
	if r.ContentLength != 0 {
		if err := jsonutil.DecodeStrict(w, r, &in, 1<<10); err != nil {
			jsonutil.BodyError(w, err)
			return
		}
	}

	if err := h.store.Approve(ctx, id, in.Featured); err != nil {
		h.errLog.StoreError(w, r, "failed to approve testimonial", err)
		return
	}

	cache.Invalidate(ctx, h.cache, h.logger, cache.NSTestimonials)
	h.audit.Admin(r, actor.ID, auditstore.EventTestimonialApproved, map[string]string{
		"testimonial_id": id.Hex(),
		"featured":       strconv.FormatBool(in.Featured),
	})
	jsonutil.NoContent(w)
}
