// internal/app/features/health/health.go
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/stratalaw/internal/app/system/jsonutil"
	"github.com/dalemusser/stratalaw/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler provides health check endpoints.
type Handler struct {
	mongoClient *mongo.Client
	redisClient *redis.Client // nil when the read cache is off
	logger      *zap.Logger
	now         func() time.Time
}

// NewHandler creates a new health check Handler. redisClient may be nil.
func NewHandler(mongoClient *mongo.Client, redisClient *redis.Client, logger *zap.Logger) *Handler {
	return &Handler{
		mongoClient: mongoClient,
		redisClient: redisClient,
		logger:      logger,
		now:         time.Now,
	}
}

// Response represents the health check response.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

// Routes returns a chi.Router with health check routes mounted.
// Provides /health (full check), /health/ready, and /health/live.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds /ready and /livez endpoints directly on the root router.
// This is the standard convention for Kubernetes probes:
//   - /ready (or /readyz) - readiness probe
//   - /livez - liveness probe
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/readyz", h.Ready)
	r.Get("/livez", h.Live)
}

// API answers GET /api/health for the front end: always 200 while the
// process is serving.
func (h *Handler) API(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, map[string]string{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// ping checks every backing service. The cache is reported but never makes
// the service unhealthy; reads fall through to MongoDB without it.
func (h *Handler) ping(ctx context.Context) (services map[string]string, ok bool) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()

	services = map[string]string{}
	ok = true
	if err := h.mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		ok = false
		services["mongodb"] = "unavailable"
		h.logger.Warn("health check: mongodb ping failed", zap.Error(err))
	} else {
		services["mongodb"] = "ok"
	}

	if h.redisClient != nil {
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			services["redis"] = "unavailable"
			h.logger.Warn("health check: redis ping failed", zap.Error(err))
		} else {
			services["redis"] = "ok"
		}
	}
	return services, ok
}

// Check performs a full health check including database connectivity.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	services, ok := h.ping(r.Context())
	resp := Response{Status: "ok", Services: services}
	switch {
	case !ok:
		resp.Status = "unavailable"
		jsonutil.JSON(w, http.StatusServiceUnavailable, resp)
		return
	case services["redis"] == "unavailable":
		resp.Status = "degraded"
	}
	jsonutil.OK(w, resp)
}

// Ready checks if the service is ready to accept requests.
// Used by Kubernetes readiness probes.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.ping(r.Context()); !ok {
		h.logger.Warn("readiness check failed")
		jsonutil.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	jsonutil.OK(w, map[string]string{"status": "ready"})
}

// Live checks if the service is alive.
// Used by Kubernetes liveness probes.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, map[string]string{"status": "alive"})
}
