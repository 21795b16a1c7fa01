package models

import (
	"time"

	"gorm.io/gorm"
)

// Like records a single user liking a single post. The composite unique
// index is the dedup backstop for concurrent like calls; the service layer
// checks first but does not hold a transaction across check and insert.
type Like struct {
	ID     string  `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string  `gorm:"not null;index;uniqueIndex:idx_likes_post_user" json:"post_id"`
	UserID string  `gorm:"not null;index;uniqueIndex:idx_likes_post_user" json:"user_id"`
	User   Profile `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}

// Repost shares another author's post onto the reposting user's profile,
// optionally with quote text. Same uniqueness contract as Like.
type Repost struct {
	ID      string  `gorm:"primaryKey;type:uuid" json:"id"`
	PostID  string  `gorm:"not null;index;uniqueIndex:idx_reposts_post_user" json:"post_id"`
	UserID  string  `gorm:"not null;index;uniqueIndex:idx_reposts_post_user" json:"user_id"`
	User    Profile `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content string  `gorm:"type:text" json:"content,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (r *Repost) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}
