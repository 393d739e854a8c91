// internal/app/features/auditlog/auditlog.go
package auditlog

import (
	"net/http"
	"slices"
	"strings"
	"time"

	errorsfeature "github.com/dalemusser/stratalaw/internal/app/features/errors"
	auditstore "github.com/dalemusser/stratalaw/internal/app/store/audit"
	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	userstore "github.com/dalemusser/stratalaw/internal/app/store/users"
	"github.com/dalemusser/stratalaw/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const pageSize = 50

// Handler provides the admin audit log.
type Handler struct {
	auditStore *auditstore.Store
	userStore  *userstore.Store
	errLog     *errorsfeature.ErrorLogger
	logger     *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		auditStore: auditstore.New(db),
		userStore:  userstore.New(db),
		errLog:     errLog,
		logger:     logger,
	}
}

// AdminRoutes is mounted at /api/admin/audit.
func AdminRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/event-types", h.eventTypes)
	return r
}

type listItem struct {
	auditstore.Event
	ActorName string `json:"actor_name,omitempty"`
}

type listResponse struct {
	Events     []listItem `json:"events"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
}

func eventTypesFor(category string) []string {
	switch category {
	case auditstore.CategoryAuth:
		return auditstore.AuthEventTypes()
	case auditstore.CategoryAdmin:
		return auditstore.AdminEventTypes()
	case "":
		return append(auditstore.AuthEventTypes(), auditstore.AdminEventTypes()...)
	}
	return nil
}

func (h *Handler) eventTypes(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, map[string][]string{
		auditstore.CategoryAuth:  auditstore.AuthEventTypes(),
		auditstore.CategoryAdmin: auditstore.AdminEventTypes(),
	})
}

// list returns one page of events, newest first. start_date and end_date
// are YYYY-MM-DD days interpreted in tz (an IANA name, default UTC); the
// end day is inclusive.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	category := strings.TrimSpace(q.Get("category"))
	eventType := strings.TrimSpace(q.Get("event_type"))
	known := eventTypesFor(category)
	if known == nil {
		jsonutil.BadRequest(w, "unknown category")
		return
	}
	if eventType != "" && !slices.Contains(known, eventType) {
		jsonutil.BadRequest(w, "unknown event_type")
		return
	}

	loc := time.UTC
	if tz := strings.TrimSpace(q.Get("tz")); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			jsonutil.BadRequest(w, "unknown time zone")
			return
		}
		loc = l
	}

	page := storeutil.ParsePage(q.Get("page"))

	filter := auditstore.QueryFilter{
		Category:  category,
		EventType: eventType,
		Limit:     pageSize,
		Offset:    storeutil.PageOffset(page, pageSize),
	}
	if s := strings.TrimSpace(q.Get("start_date")); s != "" {
		t, err := time.ParseInLocation(time.DateOnly, s, loc)
		if err != nil {
			jsonutil.BadRequest(w, "start_date must be YYYY-MM-DD")
			return
		}
		filter.StartTime = &t
	}
	if s := strings.TrimSpace(q.Get("end_date")); s != "" {
		t, err := time.ParseInLocation(time.DateOnly, s, loc)
		if err != nil {
			jsonutil.BadRequest(w, "end_date must be YYYY-MM-DD")
			return
		}
		endOfDay := t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	events, err := h.auditStore.Query(ctx, filter)
	if err != nil {
		h.errLog.StoreError(w, r, "failed to query audit events", err)
		return
	}
	total, err := h.auditStore.Count(ctx, filter)
	if err != nil {
		h.logger.Warn("failed to count audit events", zap.Error(err))
		total = int64(len(events))
	}

	names := h.userNames(r, events)
	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{Event: e}
		// For auth events the user is the actor.
		switch {
		case e.ActorID != nil:
			item.ActorName = names[*e.ActorID]
		case e.UserID != nil && e.Category == auditstore.CategoryAuth:
			item.ActorName = names[*e.UserID]
		}
		items = append(items, item)
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	jsonutil.OK(w, listResponse{Events: items, Total: total, Page: int(page), TotalPages: totalPages})
}

// userNames resolves the users referenced by events in one query. Deleted
// users are simply absent.
func (h *Handler) userNames(r *http.Request, events []auditstore.Event) map[primitive.ObjectID]string {
	seen := make(map[primitive.ObjectID]struct{})
	for _, e := range events {
		if e.ActorID != nil {
			seen[*e.ActorID] = struct{}{}
		}
		if e.UserID != nil {
			seen[*e.UserID] = struct{}{}
		}
	}
	names := make(map[primitive.ObjectID]string, len(seen))
	if len(seen) == 0 {
		return names
	}
	ids := make([]primitive.ObjectID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	users, err := h.userStore.GetByIDs(r.Context(), ids)
	if err != nil {
		h.logger.Warn("failed to fetch user names for audit log", zap.Error(err))
		return names
	}
	for _, u := range users {
		names[u.ID] = u.FullName
	}
	return names
}
