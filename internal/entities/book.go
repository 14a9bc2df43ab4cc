package entities

import "time"

// Book is a catalogue entry. Available is owned by the loan lifecycle:
// it is false exactly while an open loan references the book.
type Book struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null;index;size:512" json:"title"`
	Author    string    `gorm:"index;size:256" json:"author"`
	Category  string    `gorm:"size:128" json:"category"`
	ISBN      string    `gorm:"index;size:20" json:"isbn"`
	Available bool      `gorm:"not null;default:true" json:"available"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

type Member struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;index;size:256" json:"name"`
	Email     string    `gorm:"index;size:254" json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Member) TableName() string {
	return "members"
}
