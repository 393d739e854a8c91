// internal/app/features/logout/logout.go
package logout

import (
	"net/http"

	"github.com/dalemusser/stratalaw/internal/app/system/auditlog"
	"github.com/dalemusser/stratalaw/internal/app/system/auth"
	"github.com/dalemusser/stratalaw/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler provides logout handlers.
type Handler struct {
	sessionMgr  *auth.SessionManager
	auditLogger *auditlog.Logger
	logger      *zap.Logger
}

// NewHandler creates a new logout Handler.
func NewHandler(sessionMgr *auth.SessionManager, auditLogger *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		sessionMgr:  sessionMgr,
		auditLogger: auditLogger,
		logger:      logger,
	}
}

// Routes is mounted at /api/auth/logout.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.handleLogout)
	return r
}

// handleLogout ends the session. Signing out without a session is not an
// error.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := auth.CurrentUser(r); ok {
		h.auditLogger.Logout(r, user.ID)
		h.logger.Debug("user signed out", zap.String("user_id", user.ID))
	}
	h.sessionMgr.DestroySession(w, r)
	jsonutil.NoContent(w)
}
