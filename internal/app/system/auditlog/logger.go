// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	auditstore "github.com/dalemusser/stratalaw/internal/app/store/audit"
	"github.com/dalemusser/stratalaw/internal/app/system/network"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category.
const (
	DestAll = "all" // MongoDB and zap
	DestDB  = "db"
	DestLog = "log"
	DestOff = "off"
)

// ValidDestination reports whether v is a known destination.
func ValidDestination(v string) bool {
	switch v {
	case DestAll, DestDB, DestLog, DestOff:
		return true
	}
	return false
}

// Config selects where each category of event goes.
type Config struct {
	Auth  string
	Admin string
}

// Store is the persistence side of the logger.
type Store interface {
	Log(ctx context.Context, e auditstore.Event) error
}

// Logger records auth and admin events to MongoDB and/or zap.
// A nil *Logger is valid and drops everything.
type Logger struct {
	store  Store
	zapLog *zap.Logger
	config Config
}

func New(store Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) destination(category string) string {
	switch category {
	case auditstore.CategoryAuth:
		return l.config.Auth
	case auditstore.CategoryAdmin:
		return l.config.Admin
	}
	return DestAll
}

func (l *Logger) logToZap(e auditstore.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", e.Category),
		zap.String("event_type", e.EventType),
		zap.Bool("success", e.Success),
		zap.String("ip", e.IP),
	}
	if e.UserID != nil {
		fields = append(fields, zap.String("user_id", e.UserID.Hex()))
	}
	if e.ActorID != nil {
		fields = append(fields, zap.String("actor_id", e.ActorID.Hex()))
	}
	if e.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", e.FailureReason))
	}
	for k, v := range e.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if e.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records e according to the category's destination. Store failures are
// logged and swallowed; auditing never fails the request.
func (l *Logger) Log(ctx context.Context, e auditstore.Event) {
	if l == nil {
		return
	}
	dest := l.destination(e.Category)
	if dest == DestOff || dest == "" {
		return
	}
	if dest == DestAll || dest == DestLog {
		l.logToZap(e)
	}
	if (dest == DestAll || dest == DestDB) && l.store != nil {
		if err := l.store.Log(ctx, e); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", e.EventType))
		}
	}
}

func fromRequest(r *http.Request, category, eventType string) auditstore.Event {
	return auditstore.Event{
		Category:  category,
		EventType: eventType,
		IP:        network.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	}
}

// --- Authentication events ---

func (l *Logger) LoginSuccess(r *http.Request, userID primitive.ObjectID, authMethod, loginID string) {
	e := fromRequest(r, auditstore.CategoryAuth, auditstore.EventLoginSuccess)
	e.UserID = &userID
	e.Details = map[string]string{"auth_method": authMethod, "login_id": loginID}
	l.Log(r.Context(), e)
}

// LoginFailed records a rejected sign-in. userID is nil when no account matched.
func (l *Logger) LoginFailed(r *http.Request, eventType string, userID *primitive.ObjectID, loginID, reason string) {
	e := fromRequest(r, auditstore.CategoryAuth, eventType)
	e.UserID = userID
	e.Success = false
	e.FailureReason = reason
	e.Details = map[string]string{"login_id": loginID}
	l.Log(r.Context(), e)
}

func (l *Logger) Logout(r *http.Request, userIDHex string) {
	e := fromRequest(r, auditstore.CategoryAuth, auditstore.EventLogout)
	if oid, err := primitive.ObjectIDFromHex(userIDHex); err == nil {
		e.UserID = &oid
	}
	l.Log(r.Context(), e)
}

// --- Admin events ---

// Admin records an admin action. actor is the signed-in admin's hex id.
func (l *Logger) Admin(r *http.Request, actor string, eventType string, details map[string]string) {
	e := fromRequest(r, auditstore.CategoryAdmin, eventType)
	if oid, err := primitive.ObjectIDFromHex(actor); err == nil {
		e.ActorID = &oid
	}
	e.Details = details
	l.Log(r.Context(), e)
}

// UserCreated records an account created outside a request, e.g. by the CLI
// or seeding. via names the origin.
func (l *Logger) UserCreated(ctx context.Context, target primitive.ObjectID, role, via string) {
	l.Log(ctx, auditstore.Event{
		Category:  auditstore.CategoryAdmin,
		EventType: auditstore.EventUserCreated,
		UserID:    &target,
		Success:   true,
		Details:   map[string]string{"role": role, "via": via},
	})
}
