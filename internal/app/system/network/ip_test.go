package network

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		realIP     string
		remoteAddr string
		want       string
	}{
		{"forwarded single", "41.90.64.10", "", "10.0.0.1:12345", "41.90.64.10"},
		{"forwarded chain", "41.90.64.10, 10.0.0.2, 172.16.0.1", "", "10.0.0.1:12345", "41.90.64.10"},
		{"forwarded padded", "  41.90.64.10  ", "", "10.0.0.1:12345", "41.90.64.10"},
		{"forwarded garbage", "not-an-ip", "", "10.0.0.1:12345", "10.0.0.1"},
		{"real ip", "", "41.90.64.10", "10.0.0.1:12345", "41.90.64.10"},
		{"forwarded beats real ip", "41.90.64.10", "41.90.64.11", "10.0.0.1:12345", "41.90.64.10"},
		{"remote only", "", "", "197.232.1.5:443", "197.232.1.5"},
		{"remote ipv6", "", "", "[2001:db8::1]:8080", "2001:db8::1"},
		{"remote without port", "", "", "197.232.1.5", "197.232.1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
