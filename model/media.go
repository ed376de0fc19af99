package model

import "time"

// Video represents an uploaded video and its backing file.
// StoredPath is the authoritative location on the storage volume; the row does
// not guarantee the file still exists there.
type Video struct {
	ID            int64     `json:"id"`
	OriginalName  string    `json:"originalName"`           // user-supplied filename, display only
	StoredPath    string    `json:"-" gorm:"size:767"`      // absolute path, not exposed in API
	DisplayName   string    `json:"displayName,omitempty"`  // optional nickname
	Description   string    `json:"description,omitempty"`  // markdown, rendered client-side
	Tags          string    `json:"tags,omitempty"`         // comma-separated free text
	ThumbnailPath string    `json:"thumbnailPath,omitempty"` // relative to the static root
	ViewCount     int64     `json:"viewCount"`
	Likes         int64     `json:"likes"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Title returns the display name, falling back to the original filename.
func (v *Video) Title() string {
	if v.DisplayName != "" {
		return v.DisplayName
	}
	return v.OriginalName
}

// Track represents an uploaded audio track and its backing file.
type Track struct {
	ID             int64     `json:"id"`
	OriginalName   string    `json:"originalName"`
	StoredPath     string    `json:"-" gorm:"size:767"`
	DisplayName    string    `json:"displayName,omitempty"`
	Description    string    `json:"description,omitempty"`
	Tags           string    `json:"tags,omitempty"`
	CoverImagePath string    `json:"coverImagePath,omitempty"` // relative to the static root
	Duration       float64   `json:"duration"`                 // seconds, 0 when unknown
	ViewCount      int64     `json:"viewCount"`
	Likes          int64     `json:"likes"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Title returns the display name, falling back to the original filename.
func (t *Track) Title() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.OriginalName
}
