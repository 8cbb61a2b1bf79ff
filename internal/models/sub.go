package models

import (
	"time"
)

// Sub is a community that posts are submitted to.
type Sub struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Username    string    `gorm:"not null;index" json:"username"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Filled at query time.
	Posts []*Post `gorm:"-" json:"posts"`
}
