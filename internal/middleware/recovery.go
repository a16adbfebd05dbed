package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"cybermeme-backend/pkg/api"

	"go.uber.org/zap"
)

// Recovery converts handler panics into a 500 JSON response and logs the stack.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					// http.ErrAbortHandler is the sanctioned way to abort a response
					if err == http.ErrAbortHandler {
						panic(err)
					}

					logger.Error("Panic recovered",
						zap.String("requestID", GetRequestIDFromRequest(r)),
						zap.String("panic", fmt.Sprint(err)),
						zap.ByteString("stack", debug.Stack()),
					)

					// Response hasn't been written yet, we can send our error response
					if w.Header().Get("Content-Type") == "" {
						api.Error(w, http.StatusInternalServerError, "Server glitch")
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
