package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"book_catalog/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// likeEscape is the LIKE escape character. '!' needs no quoting in any supported dialect.
const likeEscape = "!"

var likeReplacer = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

// SearchBooks returns books whose ISBN, title or author contains query.
// The query is matched literally; case sensitivity follows the column collation.
// An empty query matches every book.
func (s *Store) SearchBooks(ctx context.Context, query string) ([]domain.Book, error) {
	pattern := "%" + likeReplacer.Replace(query) + "%"
	cond := "isbn LIKE @p ESCAPE '!' OR title LIKE @p ESCAPE '!' OR author LIKE @p ESCAPE '!'"

	var books []domain.Book
	err := s.db.WithContext(ctx).
		Where(cond, map[string]any{"p": pattern}).
		Order("isbn").
		Find(&books).Error
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return books, nil
}

// BookByISBN looks a book up by ISBN.
func (s *Store) BookByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	var book domain.Book
	if err := s.db.WithContext(ctx).Where("isbn = ?", isbn).First(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &book, nil
}

// InsertBooks inserts books in batches, skipping ISBNs that already exist.
// It returns the number of rows actually inserted.
func (s *Store) InsertBooks(ctx context.Context, books []domain.Book, batchSize int) (int64, error) {
	if len(books) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = len(books)
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(books, batchSize)
	if res.Error != nil {
		return 0, fmt.Errorf("db error: %w", res.Error)
	}
	return res.RowsAffected, nil
}
