package middleware

import (
	"net/http"
	"staybook/pkg/sanitizer"
	"staybook/pkg/session"
)

// SessionFromHeader puts the X-User-Email identity into the request context.
// The header is trusted; an upstream gateway is expected to have verified it.
func SessionFromHeader() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := sanitizer.NormalizeEmail(r.Header.Get(session.HeaderUserEmail))
			if email != "" {
				r = r.WithContext(session.WithEmail(r.Context(), email))
			}
			next.ServeHTTP(w, r)
		})
	}
}
