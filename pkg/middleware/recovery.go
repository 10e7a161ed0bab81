package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
)

// Recovery turns a handler panic into a 500 INTERNAL_ERROR. It runs outside
// RequestLogging, so the request id is read back from the response header.
// http.ErrAbortHandler is re-raised for net/http to handle.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}
				log.Error("Panic recovered",
					"request_id", w.Header().Get(HeaderRequestID),
					"panic", p,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				_ = apperrors.WriteError(w, apperrors.Internal("Internal server error", fmt.Errorf("panic: %v", p)))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
