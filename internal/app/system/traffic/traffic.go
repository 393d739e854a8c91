// Package traffic counts requests to the public intake endpoints.
package traffic

import (
	"context"
	"net/http"
	"time"

	trafficstore "github.com/dalemusser/stratalaw/internal/app/store/traffic"
	"github.com/dalemusser/stratalaw/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Recorder writes request timings to the traffic store off the request path.
type Recorder struct {
	store          *trafficstore.Store
	logger         *zap.Logger
	bucketDuration time.Duration
}

// NewRecorder returns a recorder; a non-positive bucket duration means one hour.
func NewRecorder(store *trafficstore.Store, logger *zap.Logger, bucketDuration time.Duration) *Recorder {
	if bucketDuration <= 0 {
		bucketDuration = time.Hour
	}
	return &Recorder{store: store, logger: logger, bucketDuration: bucketDuration}
}

// Record stores one request asynchronously.
func (r *Recorder) Record(ep trafficstore.Endpoint, durationMs int64, isError bool) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
		defer cancel()
		if err := r.store.Record(ctx, ep, r.bucketDuration, durationMs, isError); err != nil {
			r.logger.Error("failed to record traffic",
				zap.String("endpoint", string(ep)),
				zap.Error(err))
		}
	}()
}

// Middleware records submissions through next under ep. Reads (GET, HEAD,
// OPTIONS) are not counted. A nil recorder passes requests straight through.
func Middleware(rec *Recorder, ep trafficstore.Endpoint) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rec == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			rec.Record(ep, time.Since(start).Milliseconds(), sw.status >= 400)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
