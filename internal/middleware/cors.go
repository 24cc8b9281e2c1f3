package middleware

import (
	"net/http"
	"strings"
)

// Origins is a parsed FRONTEND_URL: a comma-separated list of origins, or "*".
type Origins struct {
	allowed  map[string]bool
	wildcard bool
}

func ParseOrigins(list string) Origins {
	o := Origins{allowed: map[string]bool{}}
	for _, origin := range strings.Split(list, ",") {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			o.wildcard = true
		} else if origin != "" {
			o.allowed[origin] = true
		}
	}
	return o
}

// Allows reports whether a non-empty Origin header value is permitted.
func (o Origins) Allows(origin string) bool {
	return origin != "" && (o.wildcard || o.allowed[strings.TrimRight(origin, "/")])
}

// CORS allows the configured frontend origins.
func CORS(allowedOrigins string) func(http.Handler) http.Handler {
	origins := ParseOrigins(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origins.Allows(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
				w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
