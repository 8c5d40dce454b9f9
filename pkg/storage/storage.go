package storage

import (
	"context"
	"errors"

	"reqlog/pkg/models"
)

var (
	ErrBookNotFound   = errors.New("book not found")
	ErrDuplicateBook  = errors.New("book with this title and author already exists")
	ErrDuplicateTitle = errors.New("duplicate book title not allowed")
	ErrInvalidBook    = errors.New("title and author required")
)

type Storage interface {
	Books(ctx context.Context) ([]models.Book, error)
	Book(ctx context.Context, id int) (models.Book, error)
	AddBook(ctx context.Context, book models.Book) (models.Book, error)
	UpdateBook(ctx context.Context, id int, upd models.Book) (models.Book, error)
	DeleteBook(ctx context.Context, id int) (models.Book, error)
}

// DefaultBooks is the collection a fresh service starts with.
func DefaultBooks() []models.Book {
	return []models.Book{
		{ID: 1, Title: "Atomic Habits", Author: "James Clear"},
		{ID: 2, Title: "Deep Work", Author: "Cal Newport"},
	}
}
