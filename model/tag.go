package model

import "time"

// A tag is just a substring of a media row's comma-separated tags column;
// TagDescription attaches optional prose to a tag name.
type TagDescription struct {
	ID          int64     `json:"id"`
	TagName     string    `json:"tagName" gorm:"size:100;uniqueIndex"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TagCount is the aggregation row for tag listings.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}
