package models

import (
	"time"

	"gorm.io/gorm"
)

// Follow is a directed social-graph edge from follower to followed. Self
// edges are rejected at the service layer; the composite unique index keeps
// the pair unique.
type Follow struct {
	ID         string  `gorm:"primaryKey;type:uuid" json:"id"`
	FollowerID string  `gorm:"not null;index;uniqueIndex:idx_follows_pair" json:"follower_id"`
	Follower   Profile `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	FollowedID string  `gorm:"not null;index;uniqueIndex:idx_follows_pair" json:"followed_id"`
	Followed   Profile `gorm:"foreignKey:FollowedID" json:"followed,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}
