package models

import (
	"time"

	"gorm.io/gorm"
)

// Category groups posts into a single editorial bucket.
type Category struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

// Tag is a free-form label attached to posts through PostTag rows.
type Tag struct {
	ID   string `gorm:"primaryKey;type:uuid" json:"id"`
	Name string `gorm:"not null" json:"name"`
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`

	CreatedAt time.Time `json:"created_at"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = generateUUID()
	}
	return nil
}

// PostTag links posts to tags (many-to-many).
type PostTag struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"not null;index;uniqueIndex:idx_post_tags_pair" json:"post_id"`
	TagID  string `gorm:"not null;index;uniqueIndex:idx_post_tags_pair" json:"tag_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (pt *PostTag) BeforeCreate(tx *gorm.DB) error {
	if pt.ID == "" {
		pt.ID = generateUUID()
	}
	return nil
}

func (PostTag) TableName() string {
	return "post_tags"
}
