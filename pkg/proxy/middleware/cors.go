package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"grundbuch-online/portal/pkg/config"
)

// exposedHeaders are readable by the ordering wizard on cross-origin
// responses: the request ID for support tickets and the throttling hints.
var exposedHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}

// CORSMiddleware lets the ordering wizard call the API from another origin.
//
// Allowed origins are echoed back (with Vary: Origin), a "*" entry allows any
// origin. A preflight (OPTIONS carrying Access-Control-Request-Method) is
// answered here with 204, or 403 when the requested method is not allowed;
// it never reaches the routes. A plain OPTIONS request passes through.
func CORSMiddleware(cfg config.CORSConfig) func(http.Handler) http.Handler {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(exposedHeaders, ", ")
	maxAge := ""
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(cfg.MaxAge)
	}

	return func(next http.Handler) http.Handler {
		if !cfg.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			if !originAllowed(origin, cfg.AllowedOrigins) {
				next.ServeHTTP(w, r)
				return
			}
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Expose-Headers", exposed)

			requested := r.Header.Get("Access-Control-Request-Method")
			if r.Method != http.MethodOptions || requested == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !slices.Contains(cfg.AllowedMethods, strings.ToUpper(requested)) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			h.Set("Access-Control-Allow-Methods", methods)
			if headers != "" {
				h.Set("Access-Control-Allow-Headers", headers)
			}
			if maxAge != "" {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func originAllowed(origin string, allowed []string) bool {
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}
