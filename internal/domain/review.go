package domain

// Accepted rating bounds for a review
const (
	MinRating = 1
	MaxRating = 5
)

// Review Model
type Review struct {
	ID     uint   `gorm:"primaryKey"`                                        // Surrogate key
	UserID uint   `gorm:"uniqueIndex:idx_review_user_book;not null"`         // Reviewer
	BookID string `gorm:"uniqueIndex:idx_review_user_book;size:20;not null"` // Reviewed book ISBN
	Review string `gorm:"type:text;not null"`                                // Review body
	Rating int    `gorm:"not null;check:chk_review_rating,rating >= 1 AND rating <= 5"`

	User User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`                                   // Belongs to User
	Book Book `gorm:"foreignKey:BookID;references:ISBN;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"` // Belongs to Book
}

// TableName keeps the historical table name
func (Review) TableName() string {
	return "users_reviews"
}

// ReviewView is a review joined with its author's username
type ReviewView struct {
	UserID   uint   // Reviewer ID
	BookID   string // Book ISBN
	Review   string // Review body
	Rating   int    // Rating 1..5
	Username string // Reviewer username
}
