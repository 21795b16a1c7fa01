package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is an authored article. Only published posts are visible to readers
// other than the author; drafts stay private until the published flag flips.
type Post struct {
	ID       string  `gorm:"primaryKey;type:uuid" json:"id"`
	Title    string  `gorm:"not null" json:"title"`
	Content  string  `gorm:"type:text;not null" json:"content"`
	Excerpt  string  `gorm:"type:text" json:"excerpt"`
	AuthorID string  `gorm:"not null;index" json:"author_id"`
	Author   Profile `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	CategoryID *string   `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	// Loaded through post_tags rows, not a gorm association.
	Tags []Tag `gorm:"-" json:"tags,omitempty"`

	Published bool `gorm:"default:false;index" json:"published"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}
