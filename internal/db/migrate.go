package db

import (
	"fmt" // Error wrapping

	"book_catalog/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate creates tables, foreign keys, unique indexes and the rating check constraint
	if err := db.AutoMigrate(&domain.User{}, &domain.Book{}, &domain.Review{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}
