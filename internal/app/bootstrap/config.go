// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/stratalaw/internal/app/system/auditlog"
	"github.com/dalemusser/stratalaw/internal/app/system/authutil"
	"github.com/dalemusser/stratalaw/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "STRATALAW"

const (
	devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"
	devCSRFKey    = "dev-only-csrf-key-please-change-0123456789"
)

// appConfigKeys are loaded from config files (mongo_uri), environment
// variables (STRATALAW_MONGO_URI) and flags (--mongo_uri).
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratalaw", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "stratalaw-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "12h", Desc: "Admin session lifetime (e.g., 12h, 30m)"},
	{Name: "csrf_key", Default: devCSRFKey, Desc: "CSRF token signing key (32+ chars in production)"},

	// Read cache
	{Name: "redis_addr", Default: "", Desc: "Redis address for the public read cache (blank disables it)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "cache_ttl", Default: "5m", Desc: "Lifetime of cached public reads"},

	// File storage
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage path for uploaded files"},
	{Name: "storage_local_url", Default: "/files", Desc: "URL prefix for serving local files"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "uploads/", Desc: "S3 key prefix"},
	{Name: "storage_cf_url", Default: "", Desc: "CloudFront distribution URL"},
	{Name: "storage_cf_keypair_id", Default: "", Desc: "CloudFront key pair ID"},
	{Name: "storage_cf_key_path", Default: "", Desc: "Path to CloudFront private key file"},
	{Name: "max_image_mb", Default: 5, Desc: "Largest accepted featured image, in MB"},
	{Name: "max_document_mb", Default: 20, Desc: "Largest accepted client document, in MB"},

	// Email/SMTP
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@example.com", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Strata Law", Desc: "From display name"},

	// Contact notifications
	{Name: "notify_enabled", Default: true, Desc: "Queue emails for contact submissions"},
	{Name: "notify_workers", Default: 2, Desc: "Concurrent notification senders"},
	{Name: "notify_poll_interval", Default: "2s", Desc: "How often idle senders poll the outbox"},
	{Name: "notify_retry_delay", Default: "30s", Desc: "Base delay before a failed send is retried"},
	{Name: "notify_max_attempts", Default: 5, Desc: "Send attempts before a notification is marked failed"},
	{Name: "notify_retention", Default: "720h", Desc: "How long sent notifications are kept"},
	{Name: "notify_firm_name", Default: "Strata Law", Desc: "Firm name used when the firm_name setting is absent"},
	{Name: "notify_firm_email", Default: "", Desc: "Firm inbox used when the contact_email setting is absent"},

	{Name: "webhook_key", Default: "", Desc: "Bearer key required on /api/webhook (blank leaves it open)"},

	// Login lockout
	{Name: "rate_limit_enabled", Default: true, Desc: "Lock out repeated failed logins"},
	{Name: "rate_limit_login_attempts", Default: 5, Desc: "Max failed login attempts before lockout"},
	{Name: "rate_limit_login_window", Default: "15m", Desc: "Time window for counting failed attempts"},
	{Name: "rate_limit_login_lockout", Default: "15m", Desc: "Lockout duration after exceeding limit"},

	// Audit logging
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_retention", Default: "2160h", Desc: "How long audit events are kept"},

	// Intake traffic
	{Name: "traffic_bucket", Default: "1h", Desc: "Intake traffic bucket size (e.g., 15m, 1h)"},
	{Name: "traffic_retention", Default: "2160h", Desc: "How long intake traffic buckets are kept"},

	// Timeouts
	{Name: "timeout_ping", Default: "5s", Desc: "Health check ping timeout"},
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for background single-document writes"},
	{Name: "timeout_external", Default: "10s", Desc: "Timeout for external API calls (Google userinfo)"},

	// Google sign-in
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "google_success_url", Default: "/admin", Desc: "Where admins land after Google sign-in"},
	{Name: "google_failure_url", Default: "/admin/login", Desc: "Where failed Google sign-ins are sent"},

	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public origin of this API"},

	// Seeding
	{Name: "seed_admin_email", Default: "", Desc: "Email of the admin account to create on startup"},
	{Name: "seed_admin_name", Default: "Admin", Desc: "Name of the seeded admin"},
	{Name: "seed_admin_password", Default: "", Desc: "Password of the seeded admin"},
	{Name: "seed_content", Default: true, Desc: "Seed default settings and practice areas"},
}

// LoadConfig loads WAFFLE core config and app-specific config with
// precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, v, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         v.String("mongo_uri"),
		MongoDatabase:    v.String("mongo_database"),
		MongoMaxPoolSize: uint64(v.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(v.Int("mongo_min_pool_size")),

		SessionKey:    v.String("session_key"),
		SessionName:   v.String("session_name"),
		SessionDomain: v.String("session_domain"),
		SessionMaxAge: v.Duration("session_max_age", 12*time.Hour),
		CSRFKey:       v.String("csrf_key"),

		RedisAddr:     v.String("redis_addr"),
		RedisPassword: v.String("redis_password"),
		RedisDB:       v.Int("redis_db"),
		CacheTTL:      v.Duration("cache_ttl", 5*time.Minute),

		StorageType:        v.String("storage_type"),
		StorageLocalPath:   v.String("storage_local_path"),
		StorageLocalURL:    v.String("storage_local_url"),
		StorageS3Region:    v.String("storage_s3_region"),
		StorageS3Bucket:    v.String("storage_s3_bucket"),
		StorageS3Prefix:    v.String("storage_s3_prefix"),
		StorageCFURL:       v.String("storage_cf_url"),
		StorageCFKeyPairID: v.String("storage_cf_keypair_id"),
		StorageCFKeyPath:   v.String("storage_cf_key_path"),
		MaxImageMB:         v.Int("max_image_mb"),
		MaxDocumentMB:      v.Int("max_document_mb"),

		MailSMTPHost: v.String("mail_smtp_host"),
		MailSMTPPort: v.Int("mail_smtp_port"),
		MailSMTPUser: v.String("mail_smtp_user"),
		MailSMTPPass: v.String("mail_smtp_pass"),
		MailFrom:     v.String("mail_from"),
		MailFromName: v.String("mail_from_name"),

		NotifyEnabled:      v.Bool("notify_enabled"),
		NotifyWorkers:      v.Int("notify_workers"),
		NotifyPollInterval: v.Duration("notify_poll_interval", 2*time.Second),
		NotifyRetryDelay:   v.Duration("notify_retry_delay", 30*time.Second),
		NotifyMaxAttempts:  v.Int("notify_max_attempts"),
		NotifyRetention:    v.Duration("notify_retention", 30*24*time.Hour),
		NotifyFirmName:     v.String("notify_firm_name"),
		NotifyFirmEmail:    v.String("notify_firm_email"),

		WebhookKey: v.String("webhook_key"),

		RateLimitEnabled:       v.Bool("rate_limit_enabled"),
		RateLimitLoginAttempts: v.Int("rate_limit_login_attempts"),
		RateLimitLoginWindow:   v.Duration("rate_limit_login_window", 15*time.Minute),
		RateLimitLoginLockout:  v.Duration("rate_limit_login_lockout", 15*time.Minute),

		AuditLogAuth:   v.String("audit_log_auth"),
		AuditLogAdmin:  v.String("audit_log_admin"),
		AuditRetention: v.Duration("audit_retention", 90*24*time.Hour),

		TrafficBucket:    v.Duration("traffic_bucket", time.Hour),
		TrafficRetention: v.Duration("traffic_retention", 90*24*time.Hour),

		TimeoutPing:     v.Duration("timeout_ping", timeouts.DefaultPing),
		TimeoutShort:    v.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutExternal: v.Duration("timeout_external", timeouts.DefaultExternal),

		GoogleClientID:     v.String("google_client_id"),
		GoogleClientSecret: v.String("google_client_secret"),
		GoogleSuccessURL:   v.String("google_success_url"),
		GoogleFailureURL:   v.String("google_failure_url"),

		BaseURL: v.String("base_url"),

		SeedAdminEmail:    v.String("seed_admin_email"),
		SeedAdminName:     v.String("seed_admin_name"),
		SeedAdminPassword: v.String("seed_admin_password"),
		SeedContent:       v.Bool("seed_content"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig rejects configurations that would start a broken or
// insecure server. Every problem is reported, not just the first.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		add("invalid MongoDB URI: %v", err)
	}
	if appCfg.MongoDatabase == "" {
		add("mongo_database is required")
	}

	switch appCfg.StorageType {
	case "local", "":
	case "s3":
		if appCfg.StorageS3Bucket == "" || appCfg.StorageS3Region == "" {
			add("storage_type s3 needs storage_s3_bucket and storage_s3_region")
		}
	default:
		add("unknown storage_type %q", appCfg.StorageType)
	}

	if coreCfg != nil && coreCfg.Env == "prod" {
		if len(appCfg.SessionKey) < 32 || appCfg.SessionKey == devSessionKey {
			add("session_key must be a private value of at least 32 characters in production")
		}
		if len(appCfg.CSRFKey) < 32 || appCfg.CSRFKey == devCSRFKey {
			add("csrf_key must be a private value of at least 32 characters in production")
		}
	}

	for name, dest := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_admin": appCfg.AuditLogAdmin} {
		if !auditlog.ValidDestination(dest) {
			add("%s must be all, db, log or off; got %q", name, dest)
		}
	}

	if appCfg.RateLimitEnabled && appCfg.RateLimitLoginAttempts < 1 {
		add("rate_limit_login_attempts must be at least 1")
	}
	if appCfg.NotifyEnabled {
		if appCfg.NotifyWorkers < 1 || appCfg.NotifyWorkers > 32 {
			add("notify_workers must be between 1 and 32")
		}
		if appCfg.NotifyMaxAttempts < 1 {
			add("notify_max_attempts must be at least 1")
		}
	}
	if appCfg.RedisAddr != "" && appCfg.CacheTTL <= 0 {
		add("cache_ttl must be positive when redis_addr is set")
	}
	if appCfg.MaxImageMB < 1 || appCfg.MaxDocumentMB < 1 {
		add("max_image_mb and max_document_mb must be at least 1")
	}
	if appCfg.TrafficBucket < time.Minute {
		add("traffic_bucket must be at least 1m")
	}

	if appCfg.SeedAdminEmail != "" {
		if err := authutil.ValidatePassword(appCfg.SeedAdminPassword); err != nil {
			add("seed_admin_password: %v", err)
		}
	}

	if len(problems) > 0 {
		err := errors.New(strings.Join(problems, "; "))
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}
	return nil
}
