package store

import (
	"context"
	"fmt"

	"book_catalog/internal/domain"

	"gorm.io/gorm/clause"
)

// CreateReview inserts a review. A second review for the same (user, book)
// pair yields ErrDuplicate and leaves the table unchanged.
func (s *Store) CreateReview(ctx context.Context, review *domain.Review) error {
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ReviewsForBook returns every review of a book with the reviewer's username.
func (s *Store) ReviewsForBook(ctx context.Context, isbn string) ([]domain.ReviewView, error) {
	var views []domain.ReviewView
	err := s.db.WithContext(ctx).
		Table("users_reviews").
		Select("users_reviews.user_id, users_reviews.book_id, users_reviews.review, users_reviews.rating, users.username").
		Joins("JOIN users ON users.id = users_reviews.user_id").
		Where("users_reviews.book_id = ?", isbn).
		Order("users_reviews.id").
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return views, nil
}
