package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a flat row; ParentID is nil for root comments. A parent must
// belong to the same post, and only one level of nesting is materialized for
// display (see threads.Build).
type Comment struct {
	ID     string  `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string  `gorm:"not null;index" json:"post_id"`
	UserID string  `gorm:"not null;index" json:"user_id"`
	User   Profile `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`

	ParentID *string `gorm:"type:uuid;index" json:"parent_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}
