package middleware

import (
	"net"
	"net/http"
	"strings"
)

// UnknownIP is reported when no address can be resolved.
const UnknownIP = "unknown"

// ClientIP resolves the caller address: the first X-Forwarded-For entry, then
// X-Client-IP, then X-Real-IP, then the host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	for _, h := range []string{"X-Client-IP", "X-Real-IP"} {
		if v := strings.TrimSpace(r.Header.Get(h)); v != "" {
			return v
		}
	}
	if addr := strings.TrimSpace(r.RemoteAddr); addr != "" {
		if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
			return host
		}
		return addr
	}
	return UnknownIP
}
