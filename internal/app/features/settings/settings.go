// internal/app/features/settings/settings.go
package settings

import (
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/stratalaw/internal/app/features/errors"
	auditstore "github.com/dalemusser/stratalaw/internal/app/store/audit"
	settingsstore "github.com/dalemusser/stratalaw/internal/app/store/settings"
	"github.com/dalemusser/stratalaw/internal/app/system/auditlog"
	"github.com/dalemusser/stratalaw/internal/app/system/auth"
	"github.com/dalemusser/stratalaw/internal/app/system/cache"
	"github.com/dalemusser/stratalaw/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const maxBodyBytes = 16 << 10

// Handler provides site setting handlers.
type Handler struct {
	settingsStore *settingsstore.Store
	cache         cache.Cache
	audit         *auditlog.Logger
	errLog        *errorsfeature.ErrorLogger
	logger        *zap.Logger
}

// NewHandler creates a settings Handler. A nil cache disables caching.
func NewHandler(db *mongo.Database, c cache.Cache, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	if c == nil {
		c = cache.Nop{}
	}
	return &Handler{
		settingsStore: settingsstore.New(db),
		cache:         c,
		audit:         audit,
		errLog:        errLog,
		logger:        logger,
	}
}

// Routes returns the public router, mounted at /api/settings.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/{key}", h.get)
	return r
}

// AdminRoutes returns the admin router, mounted at /api/admin/settings.
func AdminRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.all)
	r.Get("/list", h.list)
	r.Put("/{key}", h.put)
	return r
}

type settingView struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// get returns {key, value}; value is null when the key was never set.
func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := chi.URLParam(r, "key")

	view, err := cache.Fetch(ctx, h.cache, h.logger, cache.NSSettings, "key:"+key, func() (settingView, error) {
		v, err := h.settingsStore.Value(ctx, key)
		return settingView{Key: key, Value: v}, err
	})
	if err != nil {
		h.errLog.StoreError(w, r, "failed to read setting", err)
		return
	}
	jsonutil.OK(w, view)
}

func (h *Handler) all(w http.ResponseWriter, r *http.Request) {
	values, err := h.settingsStore.All(r.Context())
	if err != nil {
		h.errLog.StoreError(w, r, "failed to read settings", err)
		return
	}
	jsonutil.OK(w, values)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsStore.List(r.Context())
	if err != nil {
		h.errLog.StoreError(w, r, "failed to list settings", err)
		return
	}
	jsonutil.OK(w, settings)
}

func (h *Handler) put(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.CurrentUser(r)
	key := strings.TrimSpace(chi.URLParam(r, "key"))

	var in struct {
		Value       any     `json:"value"`
		Description *string `json:"description"`
	}
	if err := jsonutil.DecodeStrict(w, r, &in, maxBodyBytes); err != nil {
		jsonutil.BodyError(w, err)
		return
	}

	actorID := actor.UserID()
	id, err := h.settingsStore.Upsert(ctx, settingsstore.UpsertInput{
		Key:           key,
		Value:         in.Value,
		Description:   in.Description,
		UpdatedByID:   &actorID,
		UpdatedByName: actor.Name,
	})
	if err != nil {
		h.errLog.StoreError(w, r, "failed to update setting", err)
		return
	}

	cache.Invalidate(ctx, h.cache, h.logger, cache.NSSettings)
	h.audit.Admin(r, actor.ID, auditstore.EventSettingUpdated, map[string]string{"key": key})
	jsonutil.OK(w, map[string]string{"id": id.Hex()})
}
