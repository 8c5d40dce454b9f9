package logger

import (
	"io"
	"net/http"

	"github.com/felixge/httpsnoop"
)

// ResponseLogger observes the status code a handler sends without changing
// what reaches the client.
type ResponseLogger struct {
	w      http.ResponseWriter
	status int
	wrote  bool
}

// NewResponseLogger wraps w. The returned writer keeps the optional interfaces
// of w (http.Flusher, http.Hijacker, io.ReaderFrom, ...).
func NewResponseLogger(w http.ResponseWriter) *ResponseLogger {
	l := &ResponseLogger{status: http.StatusOK}
	l.w = httpsnoop.Wrap(w, httpsnoop.Hooks{
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(code int) {
				l.writeHeader(code)
				next(code)
			}
		},
		Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return func(b []byte) (int, error) {
				l.wrote = true
				return next(b)
			}
		},
		ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
			return func(src io.Reader) (int64, error) {
				l.wrote = true
				return next(src)
			}
		},
	})
	return l
}

// The first header write wins, as it does on the wire. 1xx informational
// headers are not final.
func (l *ResponseLogger) writeHeader(code int) {
	if l.wrote || (code >= 100 && code < 200 && code != http.StatusSwitchingProtocols) {
		return
	}
	l.status = code
	l.wrote = true
}

// Writer returns the wrapped writer to hand to downstream handlers.
func (l *ResponseLogger) Writer() http.ResponseWriter {
	return l.w
}

// Status returns the final status code. It is http.StatusOK when the handler
// never called WriteHeader.
func (l *ResponseLogger) Status() int {
	return l.status
}

// Written reports whether the response headers have been sent.
func (l *ResponseLogger) Written() bool {
	return l.wrote
}
