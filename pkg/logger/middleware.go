package logger

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"reqlog/pkg/sink"
)

// ErrClosed is reported for records of requests that complete after Close.
var ErrClosed = errors.New("request logger closed")

// DefaultLogFile is the destination relative to the service root when no
// path is configured.
var DefaultLogFile = filepath.Join("logs", "requests.log")

// Options configures a RequestLogger. Zero values fall back to defaults.
type Options struct {
	// LogFilePath is the destination file. Defaults to logs/requests.log
	// under the working directory.
	LogFilePath string
	// Format is "text" (default) or "json".
	Format string

	Sink    sink.Appender
	Metrics *Metrics
	// Now returns the completion time of a request. Defaults to time.Now.
	Now func() time.Time
}

// RequestLogger writes one record per completed request.
type RequestLogger struct {
	path    string
	format  Format
	sink    sink.Appender
	metrics *Metrics
	now     func() time.Time

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New builds a RequestLogger. It never fails.
func New(opts Options) *RequestLogger {
	l := RequestLogger{
		path:    opts.LogFilePath,
		format:  ParseFormat(opts.Format),
		sink:    opts.Sink,
		metrics: opts.Metrics,
		now:     opts.Now,
	}

	if l.path == "" {
		root, err := os.Getwd()
		if err != nil {
			log.Warnf("[requestLogger] failed to resolve working directory, using relative log path: %v", err)
			root = "."
		}
		l.path = filepath.Join(root, DefaultLogFile)
	}
	if l.sink == nil {
		l.sink = sink.File{}
	}
	if l.now == nil {
		l.now = time.Now
	}

	return &l
}

// Middleware is the functional form: it builds a RequestLogger from opts and
// returns its middleware.
func Middleware(opts Options) func(http.Handler) http.Handler {
	return New(opts).Middleware
}

func (l *RequestLogger) Path() string {
	return l.path
}

func (l *RequestLogger) Format() Format {
	return l.format
}

// Middleware records every request that passes through next. The request and
// response are passed along untouched; the record is built once the handler
// has returned and is written in the background.
func (l *RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lw := NewResponseLogger(w)
		defer func() {
			p := recover()

			status := lw.Status()
			if p != nil && !lw.Written() {
				status = http.StatusInternalServerError
			}
			l.dispatch(Record{
				Method:     r.Method,
				Path:       originalURI(r),
				StatusCode: status,
				Timestamp:  FormatTimestamp(l.now()),
			})

			if p != nil {
				panic(p)
			}
		}()

		next.ServeHTTP(lw.Writer(), r)
	})
}

// Wait blocks until every record dispatched so far has been written or dropped.
// It must not race with requests still being served; use Close for that.
func (l *RequestLogger) Wait() {
	l.wg.Wait()
}

// Close stops accepting records and waits for the pending ones. Requests that
// complete afterwards are still served but their records are dropped.
func (l *RequestLogger) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	l.wg.Wait()
}

func (l *RequestLogger) dispatch(rec Record) {
	line, err := rec.Line(l.format)
	if err != nil {
		log.Errorf("[requestLogger] failed to encode record for %s %s: %v", rec.Method, rec.Path, err)
		l.metrics.dropped(err)
		return
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		log.Warnf("[requestLogger] dropping record for %s %s: %v", rec.Method, rec.Path, ErrClosed)
		l.metrics.dropped(ErrClosed)
		return
	}
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()

		// The sink reports its own failures.
		if err := l.sink.Append(l.path, line); err != nil {
			l.metrics.dropped(err)
			return
		}
		l.metrics.written(l.format)
	}()
}

// originalURI returns the path and query exactly as the client sent them.
func originalURI(r *http.Request) string {
	if r.RequestURI != "" {
		return r.RequestURI
	}
	return r.URL.RequestURI()
}
