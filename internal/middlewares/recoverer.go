package middlewares

import (
	"net/http"
	"runtime/debug"

	"github.com/sbilibin2017/gw-catalog/internal/logger"
)

// Recoverer turns a handler panic into a logged JSON 500. If the handler
// already started its response, the panic is only logged.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw, ok := w.(*responseWriter)
		if !ok {
			rw = &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		}

		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.Log.Errorw("panic recovered",
				"request_id", RequestIDFromContext(r.Context()),
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			if rw.wroteHeader {
				return
			}
			writeError(rw, http.StatusInternalServerError, "Internal server error")
		}()

		next.ServeHTTP(rw, r)
	})
}
