package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/josh-kwaku/float-ledger/internal/handler"
	"github.com/josh-kwaku/float-ledger/internal/logging"
)

// Recovery turns a handler panic into a 500 envelope and raises an alert.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logging.Alert(r.Context(), "handler panicked",
				"panic", fmt.Sprint(rec),
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			handler.RespondAppError(w, handler.ErrInternalError, nil)
		}()
		next.ServeHTTP(w, r)
	})
}
