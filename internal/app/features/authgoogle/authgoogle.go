// internal/app/features/authgoogle/authgoogle.go
package authgoogle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	errorsfeature "github.com/dalemusser/stratalaw/internal/app/features/errors"
	auditstore "github.com/dalemusser/stratalaw/internal/app/store/audit"
	oauthstatestore "github.com/dalemusser/stratalaw/internal/app/store/oauthstate"
	"github.com/dalemusser/stratalaw/internal/app/store/storeutil"
	userstore "github.com/dalemusser/stratalaw/internal/app/store/users"
	"github.com/dalemusser/stratalaw/internal/app/system/auditlog"
	"github.com/dalemusser/stratalaw/internal/app/system/auth"
	"github.com/dalemusser/stratalaw/internal/app/system/normalize"
	"github.com/dalemusser/stratalaw/internal/app/system/status"
	"github.com/dalemusser/stratalaw/internal/app/system/timeouts"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Config configures Google sign-in.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string // public origin of this API, used for the callback URL
	SuccessURL   string // default landing page after sign-in
	FailureURL   string // receives ?error=<code> when sign-in fails
}

// Handler provides Google OAuth handlers. Only existing, active admins can
// sign in this way; no account is ever created from a Google profile.
type Handler struct {
	userStore   *userstore.Store
	stateStore  *oauthstatestore.Store
	sessionMgr  *auth.SessionManager
	errLog      *errorsfeature.ErrorLogger
	auditLogger *auditlog.Logger
	oauthConfig *oauth2.Config
	userInfoURL string
	successURL  string
	failureURL  string
	logger      *zap.Logger
}

// NewHandler creates a new Google OAuth Handler.
func NewHandler(
	db *mongo.Database,
	stateStore *oauthstatestore.Store,
	sessionMgr *auth.SessionManager,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	cfg Config,
	logger *zap.Logger,
) *Handler {
	if cfg.SuccessURL == "" {
		cfg.SuccessURL = "/admin"
	}
	if cfg.FailureURL == "" {
		cfg.FailureURL = "/admin/login"
	}
	return &Handler{
		userStore:   userstore.New(db),
		stateStore:  stateStore,
		sessionMgr:  sessionMgr,
		errLog:      errLog,
		auditLogger: auditLogger,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  strings.TrimRight(cfg.BaseURL, "/") + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: defaultUserInfoURL,
		successURL:  cfg.SuccessURL,
		failureURL:  cfg.FailureURL,
		logger:      logger,
	}
}

// Routes is mounted at /auth/google.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.startAuth)
	r.Get("/callback", h.handleCallback)
	return r
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, h.failureURL+"?error="+url.QueryEscape(code), http.StatusSeeOther)
}

// startAuth issues a single-use state and redirects to Google. ?return=
// names a same-site path to land on afterwards.
func (h *Handler) startAuth(w http.ResponseWriter, r *http.Request) {
	returnTo := safeReturn(r.URL.Query().Get("return"), h.successURL)
	state, err := h.stateStore.Issue(r.Context(), returnTo)
	if err != nil {
		h.errLog.Log(r, "failed to store oauth state", err)
		h.fail(w, r, "oauth_error")
		return
	}
	http.Redirect(w, r, h.oauthConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	returnTo, ok, err := h.stateStore.Consume(ctx, q.Get("state"))
	if err != nil {
		h.errLog.Log(r, "failed to consume oauth state", err)
		h.fail(w, r, "oauth_error")
		return
	}
	if !ok {
		h.logger.Warn("invalid oauth state")
		h.fail(w, r, "invalid_state")
		return
	}

	if errMsg := q.Get("error"); errMsg != "" {
		h.logger.Warn("oauth error from google", zap.String("error", errMsg))
		h.fail(w, r, "access_denied")
		return
	}

	token, err := h.oauthConfig.Exchange(ctx, q.Get("code"))
	if err != nil {
		h.errLog.Log(r, "failed to exchange code", err)
		h.fail(w, r, "token_exchange_failed")
		return
	}

	info, err := h.getUserInfo(ctx, token)
	if err != nil {
		h.errLog.Log(r, "failed to get user info", err)
		h.fail(w, r, "userinfo_failed")
		return
	}
	loginID := normalize.Email(info.Email)
	if !info.VerifiedEmail || loginID == "" {
		h.auditLogger.LoginFailed(r, auditstore.EventLoginFailedUserNotFound, nil, loginID, "google email not verified")
		h.fail(w, r, "email_not_verified")
		return
	}

	user, err := h.userStore.GetByEmail(ctx, loginID)
	if err != nil {
		if errors.Is(err, storeutil.ErrNotFound) {
			h.auditLogger.LoginFailed(r, auditstore.EventLoginFailedUserNotFound, nil, loginID, "user not found")
			h.fail(w, r, "user_not_found")
			return
		}
		h.errLog.Log(r, "failed to get user by email", err)
		h.fail(w, r, "database_error")
		return
	}
	if !status.CanSignIn(user.Status) {
		h.auditLogger.LoginFailed(r, auditstore.EventLoginFailedUserDisabled, &user.ID, loginID, "user disabled")
		h.fail(w, r, "account_disabled")
		return
	}
	if normalize.Enum(user.Role) != models.RoleAdmin {
		h.auditLogger.LoginFailed(r, auditstore.EventLoginFailedNotAdmin, &user.ID, loginID, "not an admin")
		h.fail(w, r, "not_admin")
		return
	}

	if err := h.sessionMgr.CreateSession(w, r, user.ID, user.Role); err != nil {
		h.errLog.Log(r, "failed to create session", err)
		h.fail(w, r, "session_error")
		return
	}
	if err := h.userStore.RecordLogin(ctx, user.ID); err != nil {
		h.logger.Warn("failed to record login time", zap.String("user_id", user.ID.Hex()), zap.Error(err))
	}
	h.auditLogger.LoginSuccess(r, user.ID, models.AuthMethodGoogle, loginID)

	http.Redirect(w, r, returnTo, http.StatusSeeOther)
}

// GoogleUserInfo represents user info from Google.
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (h *Handler) getUserInfo(ctx context.Context, token *oauth2.Token) (*GoogleUserInfo, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.External(), h.logger, "google userinfo")
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.oauthConfig.Client(ctx, token).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo: unexpected status %d", resp.StatusCode)
	}

	var info GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// safeReturn accepts only same-site absolute paths.
func safeReturn(p, fallback string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, `\`) {
		return fallback
	}
	return p
}
