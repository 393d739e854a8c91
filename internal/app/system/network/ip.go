// Package network holds request address helpers.
package network

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller's address for audit records. The first hop of
// X-Forwarded-For wins, then X-Real-IP, then RemoteAddr without its port.
// Header values that do not parse as an IP are ignored.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := validIP(first); ip != "" {
			return ip
		}
	}
	if ip := validIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func validIP(s string) string {
	s = strings.TrimSpace(s)
	if net.ParseIP(s) == nil {
		return ""
	}
	return s
}
