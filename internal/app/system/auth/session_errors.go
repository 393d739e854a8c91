// internal/app/system/auth/session_errors.go
package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// sessionFailure describes why a session cookie was rejected. A rejected
// cookie never fails the request; the visitor just starts unauthenticated.
type sessionFailure struct {
	category string
	level    zapcore.Level
	message  string
}

var (
	failExpired  = sessionFailure{"expired", zapcore.DebugLevel, "session expired"}
	failTampered = sessionFailure{"mac_invalid", zapcore.WarnLevel, "session MAC validation failed (possible tampering)"}
	failDecrypt  = sessionFailure{"decrypt_failed", zapcore.InfoLevel, "session decrypt failed (key rotated?)"}
	failDecode   = sessionFailure{"decode_failed", zapcore.InfoLevel, "session decode failed"}
	failBackend  = sessionFailure{"backend", zapcore.ErrorLevel, "session store error"}
)

// classifySessionError maps a cookie store error onto a failure. securecookie
// reports everything through one error type, so decode failures are told
// apart by message.
func classifySessionError(err error) sessionFailure {
	var sc securecookie.Error
	if !errors.As(err, &sc) || !sc.IsDecode() {
		return failBackend
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "expired timestamp"):
		return failExpired
	case strings.Contains(msg, "mac"), strings.Contains(msg, "hash"):
		return failTampered
	case strings.Contains(msg, "decrypt"):
		return failDecrypt
	}
	return failDecode
}

func (sm *SessionManager) logSessionError(r *http.Request, err error) {
	f := classifySessionError(err)
	fields := []zap.Field{
		zap.String("category", f.category),
		zap.String("path", r.URL.Path),
	}
	switch f {
	case failTampered:
		fields = append(fields, zap.String("remote_addr", r.RemoteAddr), zap.String("user_agent", r.UserAgent()))
	case failBackend:
		fields = append(fields, zap.Error(err))
	}
	if ce := sm.logger.Check(f.level, f.message); ce != nil {
		ce.Write(fields...)
	}
}
