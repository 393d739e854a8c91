// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// Values come from flags, STRATALAW_* environment variables, a config file
// or the defaults in appConfigKeys, in that order of precedence. WAFFLE's
// CoreConfig covers ports, TLS, logging, CORS and body limits.
type AppConfig struct {
	// MongoDB
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Admin session cookie
	SessionKey    string // must be strong in production
	SessionName   string
	SessionDomain string // blank means current host
	SessionMaxAge time.Duration

	CSRFKey string // 32+ chars in production

	// Redis read cache. An empty address turns the cache off.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// File storage for featured images and client documents
	StorageType      string // "local" or "s3"
	StorageLocalPath string
	StorageLocalURL  string

	StorageS3Region    string
	StorageS3Bucket    string
	StorageS3Prefix    string
	StorageCFURL       string
	StorageCFKeyPairID string
	StorageCFKeyPath   string

	MaxImageMB    int
	MaxDocumentMB int

	// SMTP
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// Contact notifications (outbox + dispatcher)
	NotifyEnabled      bool
	NotifyWorkers      int
	NotifyPollInterval time.Duration
	NotifyRetryDelay   time.Duration
	NotifyMaxAttempts  int
	NotifyRetention    time.Duration // how long sent rows are kept
	NotifyFirmName     string        // used when the firm_name setting is absent
	NotifyFirmEmail    string        // used when the contact_email setting is absent

	// WebhookKey, when set, is required as a Bearer token on /api/webhook.
	WebhookKey string

	// Login lockout
	RateLimitEnabled       bool
	RateLimitLoginAttempts int
	RateLimitLoginWindow   time.Duration
	RateLimitLoginLockout  time.Duration

	// Audit logging: "all" (MongoDB + zap), "db", "log" or "off"
	AuditLogAuth   string
	AuditLogAdmin  string
	AuditRetention time.Duration

	// Intake traffic buckets
	TrafficBucket    time.Duration
	TrafficRetention time.Duration

	// Deadlines for health pings, background writes and external APIs
	TimeoutPing     time.Duration
	TimeoutShort    time.Duration
	TimeoutExternal time.Duration

	// Google sign-in, enabled when both are set
	GoogleClientID     string
	GoogleClientSecret string
	GoogleSuccessURL   string
	GoogleFailureURL   string

	// BaseURL is the public origin, used for the OAuth callback.
	BaseURL string

	// Seeding
	SeedAdminEmail    string
	SeedAdminName     string
	SeedAdminPassword string
	SeedContent       bool
}
