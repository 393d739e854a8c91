// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	auditlogfeature "github.com/dalemusser/stratalaw/internal/app/features/auditlog"
	authgooglefeature "github.com/dalemusser/stratalaw/internal/app/features/authgoogle"
	blogfeature "github.com/dalemusser/stratalaw/internal/app/features/blog"
	contactfeature "github.com/dalemusser/stratalaw/internal/app/features/contact"
	dashboardfeature "github.com/dalemusser/stratalaw/internal/app/features/dashboard"
	documentsfeature "github.com/dalemusser/stratalaw/internal/app/features/documents"
	errorsfeature "github.com/dalemusser/stratalaw/internal/app/features/errors"
	healthfeature "github.com/dalemusser/stratalaw/internal/app/features/health"
	languagesfeature "github.com/dalemusser/stratalaw/internal/app/features/languages"
	loginfeature "github.com/dalemusser/stratalaw/internal/app/features/login"
	logoutfeature "github.com/dalemusser/stratalaw/internal/app/features/logout"
	notificationsfeature "github.com/dalemusser/stratalaw/internal/app/features/notifications"
	practicefeature "github.com/dalemusser/stratalaw/internal/app/features/practiceareas"
	settingsfeature "github.com/dalemusser/stratalaw/internal/app/features/settings"
	testimonialsfeature "github.com/dalemusser/stratalaw/internal/app/features/testimonials"
	webhookfeature "github.com/dalemusser/stratalaw/internal/app/features/webhook"
	auditstore "github.com/dalemusser/stratalaw/internal/app/store/audit"
	oauthstatestore "github.com/dalemusser/stratalaw/internal/app/store/oauthstate"
	outboxstore "github.com/dalemusser/stratalaw/internal/app/store/outbox"
	ratelimitstore "github.com/dalemusser/stratalaw/internal/app/store/ratelimit"
	settingsstore "github.com/dalemusser/stratalaw/internal/app/store/settings"
	trafficstore "github.com/dalemusser/stratalaw/internal/app/store/traffic"
	userstore "github.com/dalemusser/stratalaw/internal/app/store/users"
	"github.com/dalemusser/stratalaw/internal/app/system/apicors"
	"github.com/dalemusser/stratalaw/internal/app/system/auditlog"
	"github.com/dalemusser/stratalaw/internal/app/system/auth"
	"github.com/dalemusser/stratalaw/internal/app/system/cache"
	"github.com/dalemusser/stratalaw/internal/app/system/jsonutil"
	"github.com/dalemusser/stratalaw/internal/app/system/locale"
	"github.com/dalemusser/stratalaw/internal/app/system/notify"
	"github.com/dalemusser/stratalaw/internal/app/system/traffic"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// oauthStateTTL bounds the time between starting Google sign-in and the callback.
const oauthStateTTL = 10 * time.Minute

// csrfExempt lists the cookie-free POST endpoints: public intake, the
// webhook, and login, which has no session yet.
var csrfExempt = map[string]bool{
	"/api/contact":      true,
	"/api/testimonials": true,
	"/api/webhook":      true,
	"/api/auth/login":   true,
}

// BuildHandler constructs the root router.
//
// Layout:
//   - /api/...          public reads and intake (permissive CORS, no session needed)
//   - /api/auth/...     admin sign-in, sign-out, session and CSRF token
//   - /api/admin/...    everything behind the admin gate
//   - /auth/google/...  optional Google sign-in
//   - /health, /ready, /readyz, /livez probes
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase
	secure := coreCfg.Env == "prod"

	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// Fresh user data on every request, so disabling an admin takes effect at once.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db, logger))

	errLog := errorsfeature.NewErrorLogger(logger)
	auditLogger := auditlog.New(auditstore.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	var readCache cache.Cache = cache.Nop{}
	if deps.Redis != nil {
		readCache = cache.NewRedis(deps.Redis, appCfg.CacheTTL)
	}

	recorder := traffic.NewRecorder(trafficstore.New(db), logger, appCfg.TrafficBucket)

	var outbox notify.Outbox
	if appCfg.NotifyEnabled {
		outbox = outboxstore.New(db)
	}
	notifier := notify.New(settingsstore.New(db), outbox, notify.Config{
		Enabled:     appCfg.NotifyEnabled,
		MaxAttempts: appCfg.NotifyMaxAttempts,
		FirmName:    appCfg.NotifyFirmName,
		FirmEmail:   appCfg.NotifyFirmEmail,
	}, logger)

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────
	// Global middleware
	// ─────────────────────────────────────────────────────────────────────────
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))
	r.Use(locale.Middleware)
	r.Use(sessionMgr.LoadSessionUser)
	r.Use(csrfMiddleware(appCfg, secure, logger))

	// ─────────────────────────────────────────────────────────────────────────
	// Probes
	// ─────────────────────────────────────────────────────────────────────────
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// Featured images only; client documents are streamed through the admin API.
	if appCfg.StorageType == "local" && strings.HasPrefix(appCfg.StorageLocalURL, "/") {
		imagesURL := path.Join(appCfg.StorageLocalURL, blogfeature.ImagePrefix)
		imagesDir := filepath.Join(appCfg.StorageLocalPath, blogfeature.ImagePrefix)
		r.Handle(imagesURL+"/*", fileserver.Handler(imagesURL, imagesDir))
	}

	maxImage := int64(appCfg.MaxImageMB) << 20
	maxDocument := int64(appCfg.MaxDocumentMB) << 20

	blogHandler := blogfeature.NewHandler(db, deps.FileStorage, readCache, auditLogger, errLog, logger, maxImage)
	practiceHandler := practicefeature.NewHandler(db, readCache, auditLogger, errLog, logger)
	testimonialsHandler := testimonialsfeature.NewHandler(db, readCache, auditLogger, errLog, logger)
	contactHandler := contactfeature.NewHandler(db, notifier, auditLogger, errLog, logger)
	settingsHandler := settingsfeature.NewHandler(db, readCache, auditLogger, errLog, logger)

	r.Route("/api", func(api chi.Router) {
		// Public reads and intake
		api.Group(func(pub chi.Router) {
			pub.Use(apicors.Middleware())
			pub.Mount("/posts", blogfeature.Routes(blogHandler))
			pub.Mount("/practice-areas", practicefeature.Routes(practiceHandler))
			pub.With(traffic.Middleware(recorder, trafficstore.EndpointTestimonial)).
				Mount("/testimonials", testimonialsfeature.Routes(testimonialsHandler))
			pub.With(traffic.Middleware(recorder, trafficstore.EndpointContact)).
				Mount("/contact", contactfeature.Routes(contactHandler))
			pub.Mount("/settings", settingsfeature.Routes(settingsHandler))
			pub.Mount("/languages", languagesfeature.Routes())
			pub.Get("/health", healthHandler.API)
		})

		api.Mount("/webhook", webhookfeature.Routes(webhookfeature.NewHandler(logger), appCfg.WebhookKey, recorder))

		// Admin sign-in
		var limiter *ratelimitstore.Store
		if appCfg.RateLimitEnabled {
			limiter = ratelimitstore.New(db, appCfg.RateLimitLoginAttempts, appCfg.RateLimitLoginWindow, appCfg.RateLimitLoginLockout)
		}
		loginHandler := loginfeature.NewHandler(db, sessionMgr, limiter, auditLogger, errLog, logger)
		logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLogger, logger)
		api.Route("/auth", func(a chi.Router) {
			a.Mount("/logout", logoutfeature.Routes(logoutHandler))
			a.Mount("/", loginfeature.Routes(loginHandler))
		})

		// Everything below requires a signed-in, active admin.
		api.Route("/admin", func(admin chi.Router) {
			admin.Use(sessionMgr.RequireAdmin)
			admin.Mount("/posts", blogfeature.AdminRoutes(blogHandler))
			admin.Mount("/practice-areas", practicefeature.AdminRoutes(practiceHandler))
			admin.Mount("/testimonials", testimonialsfeature.AdminRoutes(testimonialsHandler))
			admin.Mount("/contact", contactfeature.AdminRoutes(contactHandler))
			admin.Mount("/settings", settingsfeature.AdminRoutes(settingsHandler))
			admin.Mount("/overview", dashboardfeature.AdminRoutes(dashboardfeature.NewHandler(db, errLog)))
			admin.Mount("/audit", auditlogfeature.AdminRoutes(auditlogfeature.NewHandler(db, errLog, logger)))
			admin.Mount("/notifications", notificationsfeature.AdminRoutes(notificationsfeature.NewHandler(db, dispatcherStats(), auditLogger, errLog)))
			admin.Mount("/documents", documentsfeature.AdminRoutes(
				documentsfeature.NewHandler(db, deps.FileStorage, auditLogger, errLog, logger, maxDocument)))
		})
	})

	if appCfg.GoogleClientID != "" && appCfg.GoogleClientSecret != "" {
		googleHandler := authgooglefeature.NewHandler(
			db,
			oauthstatestore.New(db, oauthStateTTL),
			sessionMgr,
			errLog,
			auditLogger,
			authgooglefeature.Config{
				ClientID:     appCfg.GoogleClientID,
				ClientSecret: appCfg.GoogleClientSecret,
				BaseURL:      appCfg.BaseURL,
				SuccessURL:   appCfg.GoogleSuccessURL,
				FailureURL:   appCfg.GoogleFailureURL,
			},
			logger,
		)
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
		logger.Info("Google sign-in enabled", zap.String("redirect_url", strings.TrimRight(appCfg.BaseURL, "/")+"/auth/google/callback"))
	}

	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	return r, nil
}

// csrfMiddleware protects session-authenticated writes. Paths in csrfExempt
// skip the check. Outside production, requests are marked plaintext and
// local dev origins are trusted.
func csrfMiddleware(appCfg AppConfig, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	opts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("stratalaw_csrf"),
		csrf.RequestHeader("X-CSRF-Token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			jsonutil.Forbidden(w, "CSRF token invalid or missing")
		})),
	}
	if !secure {
		opts = append(opts, csrf.TrustedOrigins([]string{
			"localhost:8080",
			"localhost:3000",
			"localhost:5173",
			"127.0.0.1:8080",
			"127.0.0.1:3000",
		}))
	}
	if appCfg.SessionDomain != "" {
		opts = append(opts, csrf.Domain(appCfg.SessionDomain))
	}
	protect := csrf.Protect([]byte(appCfg.CSRFKey), opts...)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if csrfExempt[strings.TrimSuffix(req.URL.Path, "/")] {
				next.ServeHTTP(w, req)
				return
			}
			if !secure {
				req = csrf.PlaintextHTTPRequest(req)
			}
			protected.ServeHTTP(w, req)
		})
	}
}

// dispatcherStats returns the running dispatcher, or nil when Startup did
// not start one, without wrapping a nil pointer in the interface.
func dispatcherStats() notificationsfeature.WorkerStats {
	if dispatcher == nil {
		return nil
	}
	return dispatcher
}
