package models

import "time"

// Announcement is an admin-published notice, optionally scoped to a barangay.
// An empty barangay means the announcement is city-wide.
type Announcement struct {
	BaseModel

	Title       string     `gorm:"not null" json:"title"`
	Subtitle    string     `json:"subtitle"`
	Description string     `gorm:"type:text" json:"description"`
	Location    string     `json:"location"`
	Date        *time.Time `json:"date"`
	Barangay    string     `gorm:"type:varchar(64);index" json:"barangay"`

	AuthorID   string `gorm:"type:uuid;index" json:"author_id"`
	AuthorName string `json:"author_name"`
}
