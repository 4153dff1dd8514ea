package domain

// MaxUsernameLength is the longest username accepted at registration
const MaxUsernameLength = 30

// User Model
type User struct {
	ID       uint   `gorm:"primaryKey"`                   // Primary key
	Username string `gorm:"size:30;uniqueIndex;not null"` // Unique username
	Password string `gorm:"size:255;not null" json:"-"`   // Bcrypt hash, never plaintext
}
