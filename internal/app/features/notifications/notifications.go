// internal/app/features/notifications/notifications.go
package notifications

import (
	"net/http"
	"slices"
	"strconv"

	errorsfeature "github.com/dalemusser/stratalaw/internal/app/features/errors"
	auditstore "github.com/dalemusser/stratalaw/internal/app/store/audit"
	outboxstore "github.com/dalemusser/stratalaw/internal/app/store/outbox"
	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	"github.com/dalemusser/stratalaw/internal/app/system/auditlog"
	"github.com/dalemusser/stratalaw/internal/app/system/auth"
	"github.com/dalemusser/stratalaw/internal/app/system/dispatch"
	"github.com/dalemusser/stratalaw/internal/app/system/jsonutil"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// WorkerStats reports the running dispatcher's counters.
type WorkerStats interface {
	Stats() dispatch.Stats
}

// Handler exposes the notification outbox to admins.
type Handler struct {
	outbox  *outboxstore.Store
	workers WorkerStats
	audit   *auditlog.Logger
	errLog  *errorsfeature.ErrorLogger
}

// NewHandler builds the handler. workers is nil when dispatch is disabled.
func NewHandler(db *mongo.Database, workers WorkerStats, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger) *Handler {
	return &Handler{outbox: outboxstore.New(db), workers: workers, audit: audit, errLog: errLog}
}

// AdminRoutes is mounted at /api/admin/notifications.
func AdminRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/stats", h.stats)
	r.Post("/{id}/retry", h.retry)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := q.Get("status")
	if status != "" && !slices.Contains(models.AllNotificationStatuses(), status) {
		jsonutil.BadRequest(w, "unknown notification status")
		return
	}
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)

	items, err := h.outbox.List(r.Context(), status, limit)
	if err != nil {
		h.errLog.StoreError(w, r, "failed to list notifications", err)
		return
	}
	jsonutil.OK(w, items)
}

type statsResponse struct {
	Counts     map[string]int64 `json:"counts"`
	Dispatcher *dispatch.Stats  `json:"dispatcher"`
}

// stats reports queue depth per status and, when dispatch runs in this
// process, the worker counters.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.outbox.CountByStatus(r.Context())
	if err != nil {
		h.errLog.StoreError(w, r, "failed to count notifications", err)
		return
	}
	out := statsResponse{Counts: counts}
	if h.workers != nil {
		s := h.workers.Stats()
		out.Dispatcher = &s
	}
	jsonutil.OK(w, out)
}

// retry returns a failed notification to the queue. Anything not failed
// answers 409.
func (h *Handler) retry(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.StoreError(w, err)
		return
	}
	if err := h.outbox.Retry(r.Context(), id); err != nil {
		h.errLog.StoreError(w, r, "failed to retry notification", err)
		return
	}
	h.audit.Admin(r, actor.ID, auditstore.EventNotificationRetried, map[string]string{"notification_id": id.Hex()})
	jsonutil.NoContent(w)
}
