package model

import "time"

// AuthorProfile gives anonymous comment authors a persistent visual identity.
// Slug is derived deterministically from the free-text author name.
type AuthorProfile struct {
	ID         int64     `json:"id"`
	Slug       string    `json:"slug" gorm:"size:191;uniqueIndex"`
	AvatarPath string    `json:"avatarPath,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
