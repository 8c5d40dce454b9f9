package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"reqlog/pkg/logger"
	"reqlog/pkg/models"
	"reqlog/pkg/storage"
	"reqlog/pkg/storage/memdb"
)

const testBooksPath = "../../test_data/book_examples.json"

func TestMain(m *testing.M) {
	log.SetLevel(log.PanicLevel)
	exitCode := m.Run()
	os.Exit(exitCode)
}

func newTestAPI() *API {
	return New("books", memdb.New(storage.DefaultBooks()...), nil, nil)
}

func doRequest(h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response %q: %v", rr.Body.String(), err)
	}
	return resp.Error
}

func TestAPI_booksHandler(t *testing.T) {
	testBooks, err := memdb.LoadTestBooks(testBooksPath)
	if err != nil {
		t.Fatalf("unexpected error while loading test books: %v", err)
	}
	api := New("books", memdb.New(testBooks...), nil, nil)

	rr := doRequest(api.Handler(), http.MethodGet, "/books", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("want status code %v, got status code %v", http.StatusOK, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("want content type application/json, got %q", ct)
	}

	var got []models.Book
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("unexpected error while unmarshaling books: %v", err)
	}
	if !reflect.DeepEqual(got, testBooks) {
		t.Errorf("want books\n%+v\n\ngot books\n%+v\n", testBooks, got)
	}
}

func TestAPI_bookHandler(t *testing.T) {
	api := newTestAPI()

	tests := []struct {
		name       string
		target     string
		statusWant int
		idWant     int
	}{
		{name: "existing book", target: "/books/1", statusWant: http.StatusOK, idWant: 1},
		{name: "missing book", target: "/books/99", statusWant: http.StatusNotFound},
		{name: "non-numeric id", target: "/books/abc", statusWant: http.StatusNotFound},
		{name: "trailing garbage", target: "/books/2abc", statusWant: http.StatusOK, idWant: 2},
		{name: "sign only", target: "/books/-", statusWant: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(api.Handler(), http.MethodGet, tt.target, nil)
			if rr.Code != tt.statusWant {
				t.Errorf("want status code %v, got status code %v", tt.statusWant, rr.Code)
			}
			if tt.statusWant == http.StatusNotFound {
				if msg := decodeError(t, rr); msg != "Book not found" {
					t.Errorf("want error %q, got %q", "Book not found", msg)
				}
				return
			}

			var got models.Book
			if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
				t.Fatalf("failed to unmarshal response body: %v", err)
			}
			if got.ID != tt.idWant {
				t.Errorf("want book id %d, got %d", tt.idWant, got.ID)
			}
		})
	}
}

func TestAPI_createBookHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		statusWant int
		errWant    string
	}{
		{
			name:       "new book",
			body:       models.Book{Title: "Refactoring", Author: "Martin Fowler"},
			statusWant: http.StatusCreated,
		},
		{
			name:       "missing author",
			body:       map[string]string{"title": "Refactoring"},
			statusWant: http.StatusBadRequest,
			errWant:    "Title and author required",
		},
		{
			name:       "duplicate title and author",
			body:       models.Book{Title: "atomic habits", Author: "james clear"},
			statusWant: http.StatusConflict,
			errWant:    "Book with this title and author already exists",
		},
		{
			name:       "not an object",
			body:       []int{1, 2},
			statusWant: http.StatusBadRequest,
			errWant:    "Title and author required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI()

			rr := doRequest(api.Handler(), http.MethodPost, "/books", tt.body)
			if rr.Code != tt.statusWant {
				t.Fatalf("want status code %v, got status code %v", tt.statusWant, rr.Code)
			}
			if tt.errWant != "" {
				if msg := decodeError(t, rr); msg != tt.errWant {
					t.Errorf("want error %q, got %q", tt.errWant, msg)
				}
				return
			}

			var got models.Book
			if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
				t.Fatalf("failed to unmarshal response body: %v", err)
			}
			want := models.Book{ID: 3, Title: "Refactoring", Author: "Martin Fowler"}
			if got != want {
				t.Errorf("want book %+v, got %+v", want, got)
			}
		})
	}
}

func TestAPI_updateBookHandler(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		body       any
		statusWant int
		want       models.Book
	}{
		{
			name:       "update author",
			target:     "/books/2",
			body:       map[string]string{"author": "Cal N."},
			statusWant: http.StatusOK,
			want:       models.Book{ID: 2, Title: "Deep Work", Author: "Cal N."},
		},
		{
			name:       "duplicate title",
			target:     "/books/2",
			body:       map[string]string{"title": "ATOMIC HABITS"},
			statusWant: http.StatusConflict,
		},
		{
			name:       "missing book",
			target:     "/books/7",
			body:       map[string]string{"title": "Anything"},
			statusWant: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI()

			rr := doRequest(api.Handler(), http.MethodPut, tt.target, tt.body)
			if rr.Code != tt.statusWant {
				t.Fatalf("want status code %v, got status code %v", tt.statusWant, rr.Code)
			}
			if tt.statusWant != http.StatusOK {
				return
			}

			var got models.Book
			if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
				t.Fatalf("failed to unmarshal response body: %v", err)
			}
			if got != tt.want {
				t.Errorf("want book %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestAPI_deleteBookHandler(t *testing.T) {
	api := newTestAPI()

	rr := doRequest(api.Handler(), http.MethodDelete, "/books/1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("want status code %v, got status code %v", http.StatusOK, rr.Code)
	}
	var got DeleteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	want := DeleteResponse{Message: "Book deleted", Book: models.Book{ID: 1, Title: "Atomic Habits", Author: "James Clear"}}
	if got != want {
		t.Errorf("want response %+v, got %+v", want, got)
	}

	rr = doRequest(api.Handler(), http.MethodDelete, "/books/1", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("want status code %v, got status code %v", http.StatusNotFound, rr.Code)
	}
}

func TestAPI_recoveryMiddleware(t *testing.T) {
	api := newTestAPI()
	api.Router.HandleFunc("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("unexpected")
	})

	rr := doRequest(api.Handler(), http.MethodGet, "/panic", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("want status code %v, got status code %v", http.StatusInternalServerError, rr.Code)
	}
	if msg := decodeError(t, rr); msg != "Something went wrong!" {
		t.Errorf("want error %q, got %q", "Something went wrong!", msg)
	}
}

func TestAPI_requestLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "requests.log")
	now := func() time.Time { return time.Date(2024, 6, 10, 10, 15, 3, 0, logger.IST) }
	rl := logger.New(logger.Options{LogFilePath: path, Format: "json", Now: now})

	api := New("books", memdb.New(storage.DefaultBooks()...), rl, nil)
	api.Router.HandleFunc("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("unexpected")
	})
	h := api.Handler()

	doRequest(h, http.MethodGet, "/books", nil)
	doRequest(h, http.MethodPost, "/books", models.Book{Title: "Deep Work", Author: "Cal Newport"})
	doRequest(h, http.MethodGet, "/panic", nil)
	doRequest(h, http.MethodPatch, "/books/1", nil)
	rl.Wait()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read request log: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("want 4 records, got %d: %q", len(lines), lines)
	}

	want := map[string]int{
		"GET /books":     http.StatusOK,
		"POST /books":    http.StatusConflict,
		"GET /panic":     http.StatusInternalServerError,
		"PATCH /books/1": http.StatusMethodNotAllowed,
	}
	for _, line := range lines {
		var rec logger.Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("malformed record %q: %v", line, err)
		}
		key := rec.Method + " " + rec.Path
		code, ok := want[key]
		if !ok {
			t.Errorf("unexpected record %q", line)
			continue
		}
		if rec.StatusCode != code {
			t.Errorf("want status %d for %s, got %d", code, key, rec.StatusCode)
		}
		if rec.Timestamp != "10/06/2024, 10:15:03 am" {
			t.Errorf("want timestamp %q, got %q", "10/06/2024, 10:15:03 am", rec.Timestamp)
		}
		delete(want, key)
	}
}

func TestAPI_metricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := logger.NewMetrics(reg)
	rl := logger.New(logger.Options{LogFilePath: filepath.Join(t.TempDir(), "requests.log"), Metrics: m})
	api := New("books", memdb.New(), rl, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	doRequest(api.Handler(), http.MethodGet, "/books", nil)
	rl.Wait()

	rr := doRequest(api.Handler(), http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("want status code %v, got status code %v", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `request_log_records_written_total{format="text"} 1`) {
		t.Errorf("want written counter in metrics output, got\n%s", rr.Body.String())
	}
}
