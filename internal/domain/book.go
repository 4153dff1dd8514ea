package domain

// Book Model
type Book struct {
	ISBN   string `gorm:"primaryKey;size:20" json:"isbn"` // ISBN is the natural key
	Title  string `gorm:"not null" json:"title"`          // Book title
	Author string `gorm:"not null" json:"author"`         // Author name
	Year   int    `gorm:"not null" json:"year"`           // Publication year
}
