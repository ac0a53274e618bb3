package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization"
	corsMaxAge       = "86400"
)

// CORS applies an allowlist-based policy to every response, errors and
// preflights included. It only sets headers; each route decides which
// methods it answers, so preflight is handled by the endpoint itself.
//
// Entries match the Origin header exactly, or as "https://*.example.com"
// wildcards that accept any subdomain. "*" accepts any origin and echoes it
// back, or "*" when the request carries none.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := newOriginPolicy(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if allow := policy.allowOrigin(strings.TrimSpace(r.Header.Get("Origin"))); allow != "" {
				h.Set("Access-Control-Allow-Origin", allow)
			}
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)

			next.ServeHTTP(w, r)
		})
	}
}

type originPolicy struct {
	allowAny  bool
	exact     map[string]struct{}
	wildcards []wildcardOrigin
}

// wildcardOrigin is "<scheme>://*.<domain>" split into its parts.
type wildcardOrigin struct {
	scheme string
	suffix string // ".example.com"
}

func newOriginPolicy(allowedOrigins []string) originPolicy {
	p := originPolicy{exact: map[string]struct{}{}}
	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch {
		case origin == "":
			continue
		case origin == "*":
			p.allowAny = true
		case strings.Contains(origin, "://*."):
			scheme, host, _ := strings.Cut(origin, "://")
			p.wildcards = append(p.wildcards, wildcardOrigin{
				scheme: strings.ToLower(scheme),
				suffix: strings.ToLower(strings.TrimPrefix(host, "*")),
			})
		default:
			p.exact[strings.ToLower(origin)] = struct{}{}
		}
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for a request
// origin, or "" when the origin is not allowed.
func (p originPolicy) allowOrigin(origin string) string {
	if origin == "" {
		if p.allowAny {
			return "*"
		}
		return ""
	}
	if p.allowAny {
		return origin
	}
	normalized := strings.ToLower(origin)
	if _, ok := p.exact[normalized]; ok {
		return origin
	}
	scheme, host, ok := strings.Cut(normalized, "://")
	if !ok {
		return ""
	}
	for _, w := range p.wildcards {
		if scheme == w.scheme && len(host) > len(w.suffix) && strings.HasSuffix(host, w.suffix) {
			return origin
		}
	}
	return ""
}
