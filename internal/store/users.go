package store

import (
	"context"
	"errors"
	"fmt"

	"book_catalog/internal/domain"

	"gorm.io/gorm"
)

// CreateUser inserts a user with an already hashed password.
// A taken username yields ErrDuplicate; the unique index makes the check atomic.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	user := &domain.User{Username: username, Password: passwordHash}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// UserByUsername looks a user up by exact username.
func (s *Store) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &user, nil
}

// UserByID looks a user up by primary key.
func (s *Store) UserByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &user, nil
}

// UsernameTaken is an advisory check used to report all registration errors at once.
// It is not a substitute for the unique index.
func (s *Store) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}
