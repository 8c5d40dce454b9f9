package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"reqlog/pkg/logger"
	"reqlog/pkg/models"
	"reqlog/pkg/storage"
)

type API struct {
	ServiceName string
	DB          storage.Storage
	Router      *mux.Router

	rl      *logger.RequestLogger
	metrics http.Handler
}

// New wires the book endpoints over db. rl and metrics are optional; without rl
// requests are not recorded, without metrics there is no /metrics endpoint.
func New(name string, db storage.Storage, rl *logger.RequestLogger, metrics http.Handler) *API {
	api := API{
		ServiceName: name,
		DB:          db,
		Router:      mux.NewRouter(),
		rl:          rl,
		metrics:     metrics,
	}
	api.endpoints()

	return &api
}

// Handler returns the root handler. The request logger wraps the whole router
// so unmatched routes are recorded as well.
func (api *API) Handler() http.Handler {
	if api.rl == nil {
		return api.Router
	}
	return api.rl.Middleware(api.Router)
}

func (api *API) endpoints() {
	api.Router.Use(api.recoveryMiddleware)
	api.Router.Use(api.headerMiddleware)

	api.Router.HandleFunc("/books", api.booksHandler).Methods(http.MethodGet)
	api.Router.HandleFunc("/books", api.createBookHandler).Methods(http.MethodPost)
	api.Router.HandleFunc("/books/{id}", api.bookHandler).Methods(http.MethodGet)
	api.Router.HandleFunc("/books/{id}", api.updateBookHandler).Methods(http.MethodPut)
	api.Router.HandleFunc("/books/{id}", api.deleteBookHandler).Methods(http.MethodDelete)

	if api.metrics != nil {
		api.Router.Handle("/metrics", api.metrics).Methods(http.MethodGet)
	}
}

func (api *API) booksHandler(w http.ResponseWriter, r *http.Request) {
	books, err := api.DB.Books(r.Context())
	if err != nil {
		log.Errorf("[booksHandler][from:%v] Books() returned error: %v", r.RemoteAddr, err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Something went wrong!"})
		return
	}

	writeJSON(w, http.StatusOK, books)
}

func (api *API) bookHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Book not found"})
		return
	}

	book, err := api.DB.Book(r.Context(), id)
	if err != nil {
		api.storageError(w, r, "bookHandler", err)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

func (api *API) createBookHandler(w http.ResponseWriter, r *http.Request) {
	var book models.Book
	if err := json.NewDecoder(r.Body).Decode(&book); err != nil {
		log.Debugf("[createBookHandler][from:%v] invalid JSON: %v", r.RemoteAddr, err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Title and author required"})
		return
	}
	defer r.Body.Close()

	book, err := api.DB.AddBook(r.Context(), book)
	if err != nil {
		api.storageError(w, r, "createBookHandler", err)
		return
	}

	writeJSON(w, http.StatusCreated, book)
	log.Debugf("[createBookHandler][from:%v] book %d created", r.RemoteAddr, book.ID)
}

func (api *API) updateBookHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Book not found"})
		return
	}

	var upd models.Book
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		log.Debugf("[updateBookHandler][from:%v] invalid JSON: %v", r.RemoteAddr, err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return
	}
	defer r.Body.Close()

	book, err := api.DB.UpdateBook(r.Context(), id, upd)
	if err != nil {
		api.storageError(w, r, "updateBookHandler", err)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

func (api *API) deleteBookHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Book not found"})
		return
	}

	book, err := api.DB.DeleteBook(r.Context(), id)
	if err != nil {
		api.storageError(w, r, "deleteBookHandler", err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{Message: "Book deleted", Book: book})
}

// storageError maps a storage error onto the response.
func (api *API) storageError(w http.ResponseWriter, r *http.Request, handler string, err error) {
	switch {
	case errors.Is(err, storage.ErrBookNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Book not found"})
	case errors.Is(err, storage.ErrInvalidBook):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Title and author required"})
	case errors.Is(err, storage.ErrDuplicateBook):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "Book with this title and author already exists"})
	case errors.Is(err, storage.ErrDuplicateTitle):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "Duplicate book title not allowed"})
	default:
		log.Errorf("[%s][from:%v] storage error: %v", handler, r.RemoteAddr, err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Something went wrong!"})
		return
	}
	log.Debugf("[%s][from:%v] %v", handler, r.RemoteAddr, err)
}

// bookID parses the leading integer of the {id} route variable, so "1abc"
// selects book 1. IDs without leading digits never match a book.
func bookID(r *http.Request) (int, bool) {
	s := strings.TrimLeft(mux.Vars(r)["id"], " \t\n\r\f\v")

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}

	id, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("[writeJSON] failed to encode response data: %v", err)
	}
}
