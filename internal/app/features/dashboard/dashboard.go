// internal/app/features/dashboard/dashboard.go
package dashboard

import (
	"net/http"
	"time"

	errorsfeature "github.com/dalemusser/stratalaw/internal/app/features/errors"
	auditstore "github.com/dalemusser/stratalaw/internal/app/store/audit"
	blogstore "github.com/dalemusser/stratalaw/internal/app/store/blog"
	contactstore "github.com/dalemusser/stratalaw/internal/app/store/contact"
	documentstore "github.com/dalemusser/stratalaw/internal/app/store/documents"
	outboxstore "github.com/dalemusser/stratalaw/internal/app/store/outbox"
	practicestore "github.com/dalemusser/stratalaw/internal/app/store/practice"
	testimonialstore "github.com/dalemusser/stratalaw/internal/app/store/testimonials"
	trafficstore "github.com/dalemusser/stratalaw/internal/app/store/traffic"
	"github.com/dalemusser/stratalaw/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// recentWindow bounds the failed-login and traffic figures.
const recentWindow = 24 * time.Hour

// Handler serves the admin overview.
type Handler struct {
	posts        *blogstore.Store
	practice     *practicestore.Store
	testimonials *testimonialstore.Store
	contact      *contactstore.Store
	documents    *documentstore.Store
	outbox       *outboxstore.Store
	audit        *auditstore.Store
	traffic      *trafficstore.Store
	errLog       *errorsfeature.ErrorLogger
	now          func() time.Time
}

func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger) *Handler {
	return &Handler{
		posts:        blogstore.New(db),
		practice:     practicestore.New(db),
		testimonials: testimonialstore.New(db),
		contact:      contactstore.New(db),
		documents:    documentstore.New(db),
		outbox:       outboxstore.New(db),
		audit:        auditstore.New(db),
		traffic:      trafficstore.New(db),
		errLog:       errLog,
		now:          time.Now,
	}
}

type postCounts struct {
	Total     int64 `json:"total"`
	Published int64 `json:"published"`
	Drafts    int64 `json:"drafts"`
}

// Overview is the body of GET /api/admin/overview.
type Overview struct {
	Posts            postCounts             `json:"posts"`
	PracticeAreas    int64                  `json:"practice_areas"`
	Testimonials     map[string]int64       `json:"testimonials"`
	Contact          map[string]int64       `json:"contact"`
	Documents        map[string]int64       `json:"documents"`
	Notifications    map[string]int64       `json:"notifications"`
	FailedLogins24h  int64                  `json:"failed_logins_24h"`
	IntakeTraffic24h []trafficstore.Summary `json:"intake_traffic_24h"`
	GeneratedAt      time.Time              `json:"generated_at"`
}

// AdminRoutes is mounted at /api/admin/overview.
func AdminRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.overview)
	return r
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.now().UTC()
	since := now.Add(-recentWindow)
	var (
		out Overview
		err error
	)

	out.Posts.Total, out.Posts.Published, err = h.posts.Counts(ctx)
	if err != nil {
		h.errLog.StoreError(w, r, "failed to count posts", err)
		return
	}
	out.Posts.Drafts = out.Posts.Total - out.Posts.Published

	if out.PracticeAreas, err = h.practice.Count(ctx); err != nil {
		h.errLog.StoreError(w, r, "failed to count practice areas", err)
		return
	}
	if out.Testimonials, err = h.testimonials.CountByState(ctx); err != nil {
		h.errLog.StoreError(w, r, "failed to count testimonials", err)
		return
	}
	if out.Contact, err = h.contact.CountByStatus(ctx); err != nil {
		h.errLog.StoreError(w, r, "failed to count contact submissions", err)
		return
	}
	if out.Documents, err = h.documents.CountByStatus(ctx); err != nil {
		h.errLog.StoreError(w, r, "failed to count documents", err)
		return
	}
	if out.Notifications, err = h.outbox.CountByStatus(ctx); err != nil {
		h.errLog.StoreError(w, r, "failed to count notifications", err)
		return
	}
	if out.FailedLogins24h, err = h.audit.FailedLoginsSince(ctx, since); err != nil {
		h.errLog.StoreError(w, r, "failed to count failed logins", err)
		return
	}
	if out.IntakeTraffic24h, err = h.traffic.Summarize(ctx, since); err != nil {
		h.errLog.StoreError(w, r, "failed to summarize intake traffic", err)
		return
	}

	out.GeneratedAt = now
	jsonutil.OK(w, out)
}
