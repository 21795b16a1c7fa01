package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile represents a Quillfeed author account. A profile row is created
// exactly once at registration; every owner check in the API compares the
// authenticated identity against this row's ID.
type Profile struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	Email       string `gorm:"uniqueIndex;not null" json:"-"`
	DisplayName string `json:"display_name"`
	Bio         string `gorm:"type:text" json:"bio"`
	AvatarURL   string `json:"avatar_url"`
	WebsiteURL  string `json:"website_url"`
	Location    string `json:"location"`

	PasswordHash string `gorm:"type:text;not null" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

// DisplayIdentity returns the name shown next to the profile's content,
// falling back to the username when no display name is set.
func (p *Profile) DisplayIdentity() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}

// Helper function for UUID generation
func generateUUID() string {
	return uuid.New().String()
}
