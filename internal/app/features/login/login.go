// internal/app/features/login/login.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - LoginID / loginID / login_id: The email address an admin types to sign in

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	errorsfeature "github.com/dalemusser/stratalaw/internal/app/features/errors"
	auditstore "github.com/dalemusser/stratalaw/internal/app/store/audit"
	ratelimitstore "github.com/dalemusser/stratalaw/internal/app/store/ratelimit"
	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	userstore "github.com/dalemusser/stratalaw/internal/app/store/users"
	"github.com/dalemusser/stratalaw/internal/app/system/auditlog"
	"github.com/dalemusser/stratalaw/internal/app/system/auth"
	"github.com/dalemusser/stratalaw/internal/app/system/authutil"
	"github.com/dalemusser/stratalaw/internal/app/system/jsonutil"
	"github.com/dalemusser/stratalaw/internal/app/system/normalize"
	"github.com/dalemusser/stratalaw/internal/app/system/status"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const invalidCredentials = "invalid credentials"

// Handler provides password sign-in and session introspection.
type Handler struct {
	userStore      *userstore.Store
	sessionMgr     *auth.SessionManager
	rateLimitStore *ratelimitstore.Store // nil if lockout disabled
	auditLogger    *auditlog.Logger
	errLog         *errorsfeature.ErrorLogger
	logger         *zap.Logger
}

// NewHandler creates a login Handler. rateLimitStore can be nil to disable
// the lockout.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	rateLimitStore *ratelimitstore.Store,
	auditLogger *auditlog.Logger,
	errLog *errorsfeature.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		userStore:      userstore.New(db),
		sessionMgr:     sessionMgr,
		rateLimitStore: rateLimitStore,
		auditLogger:    auditLogger,
		errLog:         errLog,
		logger:         logger,
	}
}

// Routes is mounted at /api/auth.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/login", h.handleLogin)
	r.With(h.sessionMgr.RequireSignedIn).Get("/me", h.me)
	r.Get("/csrf", h.csrfToken)
	return r
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// handleLogin signs in an active admin. Every credential failure answers
// the same 401 so the response does not reveal which accounts exist.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in loginInput
	if err := jsonutil.DecodeStrict(w, r, &in, 4<<10); err != nil {
		jsonutil.BodyError(w, err)
		return
	}
	loginID := normalize.Email(in.Email)
	if loginID == "" || in.Password == "" {
		jsonutil.BadRequest(w, "email and password are required")
		return
	}

	if h.rateLimitStore != nil {
		if allowed, _, lockedUntil := h.rateLimitStore.CheckAllowed(ctx, loginID); !allowed {
			h.auditLogger.LoginFailed(r, auditstore.EventLoginLockedOut, nil, loginID, "locked out")
			h.tooManyAttempts(w, lockedUntil)
			return
		}
	}

	user, err := h.userStore.GetByEmail(ctx, loginID)
	if err != nil {
		if !errors.Is(err, storeutil.ErrNotFound) {
			h.errLog.Log(r, "database error during login lookup", err)
			jsonutil.Error(w, http.StatusServiceUnavailable, "service temporarily unavailable")
			return
		}
		authutil.BurnCompare(in.Password)
		h.fail(w, r, auditstore.EventLoginFailedUserNotFound, nil, loginID, "user not found")
		return
	}

	if user.PasswordHash == nil || !authutil.CheckPassword(in.Password, *user.PasswordHash) {
		h.fail(w, r, auditstore.EventLoginFailedWrongPassword, &user.ID, loginID, "wrong password")
		return
	}
	if !status.CanSignIn(user.Status) {
		h.fail(w, r, auditstore.EventLoginFailedUserDisabled, &user.ID, loginID, "user disabled")
		return
	}
	if normalize.Enum(user.Role) != models.RoleAdmin {
		h.fail(w, r, auditstore.EventLoginFailedNotAdmin, &user.ID, loginID, "not an admin")
		return
	}

	if h.rateLimitStore != nil {
		if err := h.rateLimitStore.ClearOnSuccess(ctx, loginID); err != nil {
			h.logger.Warn("failed to clear login attempts", zap.String("login_id", loginID), zap.Error(err))
		}
	}

	if err := h.sessionMgr.CreateSession(w, r, user.ID, user.Role); err != nil {
		h.errLog.Log(r, "failed to create session", err)
		jsonutil.InternalError(w, "internal error")
		return
	}
	if err := h.userStore.RecordLogin(ctx, user.ID); err != nil {
		h.logger.Warn("failed to record login time", zap.String("user_id", user.ID.Hex()), zap.Error(err))
	}

	h.auditLogger.LoginSuccess(r, user.ID, models.AuthMethodPassword, loginID)
	jsonutil.OK(w, meResponse{
		ID:    user.ID.Hex(),
		Name:  user.FullName,
		Email: user.Email,
		Role:  user.Role,
	})
}

// fail counts the failure toward the lockout and writes 401, or 429 when
// this failure locked the login out.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, eventType string, userID *primitive.ObjectID, loginID, reason string) {
	h.auditLogger.LoginFailed(r, eventType, userID, loginID, reason)

	if h.rateLimitStore != nil {
		lockedOut, lockedUntil, err := h.rateLimitStore.RecordFailure(r.Context(), loginID)
		if err != nil {
			h.logger.Warn("failed to record login failure", zap.String("login_id", loginID), zap.Error(err))
		}
		if lockedOut {
			h.auditLogger.LoginFailed(r, auditstore.EventLoginLockedOut, userID, loginID, "too many failed attempts")
			h.tooManyAttempts(w, lockedUntil)
			return
		}
	}
	jsonutil.Unauthorized(w, invalidCredentials)
}

func (h *Handler) tooManyAttempts(w http.ResponseWriter, lockedUntil *time.Time) {
	if lockedUntil != nil {
		secs := int(math.Ceil(time.Until(*lockedUntil).Seconds()))
		if secs > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}
	}
	jsonutil.Error(w, http.StatusTooManyRequests, "too many failed login attempts, try again later")
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	jsonutil.OK(w, meResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
}

// csrfToken hands the single-page front end the token it must echo in the
// X-CSRF-Token header on admin writes.
func (h *Handler) csrfToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	jsonutil.OK(w, map[string]string{"token": csrf.Token(r)})
}
