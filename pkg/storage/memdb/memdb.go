package memdb

import (
	"context"
	"strings"
	"sync"

	"reqlog/pkg/models"
	"reqlog/pkg/storage"
)

type Store struct {
	mu    sync.Mutex
	books []models.Book
}

// New returns a store holding a copy of books.
func New(books ...models.Book) *Store {
	db := Store{
		books: append([]models.Book{}, books...),
	}

	return &db
}

func (db *Store) Books(ctx context.Context) ([]models.Book, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return append([]models.Book{}, db.books...), nil
}

func (db *Store) Book(ctx context.Context, id int) (models.Book, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.index(id)
	if i < 0 {
		return models.Book{}, storage.ErrBookNotFound
	}

	return db.books[i], nil
}

// AddBook validates and appends a book. The ID is the collection size plus one,
// so it can repeat an existing ID after a deletion.
func (db *Store) AddBook(ctx context.Context, book models.Book) (models.Book, error) {
	if book.Title == "" || book.Author == "" {
		return models.Book{}, storage.ErrInvalidBook
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	for _, b := range db.books {
		if strings.EqualFold(b.Title, book.Title) && strings.EqualFold(b.Author, book.Author) {
			return models.Book{}, storage.ErrDuplicateBook
		}
	}

	book.ID = len(db.books) + 1
	db.books = append(db.books, book)

	return book, nil
}

// UpdateBook applies the non-empty fields of upd to the book with the given id.
// A title may not match the title of any other book.
func (db *Store) UpdateBook(ctx context.Context, id int, upd models.Book) (models.Book, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.index(id)
	if i < 0 {
		return models.Book{}, storage.ErrBookNotFound
	}

	if upd.Title != "" {
		for _, b := range db.books {
			if b.ID != id && strings.EqualFold(b.Title, upd.Title) {
				return models.Book{}, storage.ErrDuplicateTitle
			}
		}
		db.books[i].Title = upd.Title
	}
	if upd.Author != "" {
		db.books[i].Author = upd.Author
	}

	return db.books[i], nil
}

func (db *Store) DeleteBook(ctx context.Context, id int) (models.Book, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.index(id)
	if i < 0 {
		return models.Book{}, storage.ErrBookNotFound
	}

	removed := db.books[i]
	db.books = append(db.books[:i], db.books[i+1:]...)

	return removed, nil
}

// index returns the position of the first book with the given id, or -1.
func (db *Store) index(id int) int {
	for i, b := range db.books {
		if b.ID == id {
			return i
		}
	}
	return -1
}
