package memdb

import (
	"encoding/json"
	"os"

	"reqlog/pkg/models"
)

// LoadTestBooks reads a JSON array of books from path.
func LoadTestBooks(path string) ([]models.Book, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var books []models.Book
	if err := json.Unmarshal(b, &books); err != nil {
		return nil, err
	}

	return books, nil
}
