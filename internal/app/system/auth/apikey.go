// internal/app/system/auth/apikey.go
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dalemusser/stratalaw/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

// BearerKey returns middleware requiring "Authorization: Bearer <key>".
// An empty key disables the check; callers mount it only on routes where
// an unset key means the route is open.
func BearerKey(validKey string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if validKey == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("request rejected: missing Authorization header",
					zap.String("path", r.URL.Path))
				jsonutil.Unauthorized(w, "unauthorized")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Debug("request rejected: invalid Authorization format",
					zap.String("path", r.URL.Path))
				jsonutil.Unauthorized(w, "unauthorized")
				return
			}

			if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(validKey)) != 1 {
				logger.Warn("request rejected: invalid key",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr))
				jsonutil.Unauthorized(w, "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
