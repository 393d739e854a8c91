// internal/app/features/errors/errors.go

// Package errors logs handler failures and answers unmatched routes.
package errors

import (
	"net/http"

	"github.com/dalemusser/stratalaw/internal/app/system/auth"
	"github.com/dalemusser/stratalaw/internal/app/system/jsonutil"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type ErrorLogger struct {
	logger *zap.Logger
}

func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{logger: logger}
}

// requestFields ties a log line to the request: method, path, the chi
// request id when present, and the signed-in admin.
func requestFields(r *http.Request) []zap.Field {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if id := chimw.GetReqID(r.Context()); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if u, ok := auth.CurrentUser(r); ok {
		fields = append(fields, zap.String("user_id", u.ID))
	}
	return fields
}

// Log records a server-side failure for r.
func (e *ErrorLogger) Log(r *http.Request, msg string, err error) {
	e.logger.Error(msg, append(requestFields(r), zap.Error(err))...)
}

// StoreError writes the mapped response for a store error. Only failures
// that become 500s are logged.
func (e *ErrorLogger) StoreError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if jsonutil.StoreStatus(err) == http.StatusInternalServerError {
		e.Log(r, msg, err)
	}
	jsonutil.StoreError(w, err)
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	jsonutil.NotFound(w, "not found")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonutil.Error(w, http.StatusMethodNotAllowed, "method not allowed")
}
