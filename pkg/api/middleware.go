package api

import (
	"errors"
	"net/http"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

func (api *API) headerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware turns a handler panic into a 500 response so the request
// still completes.
func (api *API) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if err, ok := p.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(p)
			}

			log.Errorf("[recoveryMiddleware][from:%v] unhandled error on %s %s: %v\n%s", r.RemoteAddr, r.Method, r.URL.Path, p, debug.Stack())
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Something went wrong!"})
		}()

		next.ServeHTTP(w, r)
	})
}
