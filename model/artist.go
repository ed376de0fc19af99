package model

import "time"

// Artist is auto-created the first time a name appears, either as an explicit
// artist or as a comment author. Name is unique under case folding.
type Artist struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name" gorm:"size:191;uniqueIndex"`
	Bio        string    `json:"bio,omitempty"`
	AvatarPath string    `json:"avatarPath,omitempty"` // relative to the static root
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// VideoArtist and TrackArtist are the many-to-many join rows.

type VideoArtist struct {
	ID       int64 `json:"id"`
	VideoID  int64 `json:"videoId"`
	ArtistID int64 `json:"artistId"`
}

type TrackArtist struct {
	ID       int64 `json:"id"`
	TrackID  int64 `json:"trackId"`
	ArtistID int64 `json:"artistId"`
}

// ArtistStats is the listing projection: aggregate likes and plays across the
// artist's tracks and videos.
type ArtistStats struct {
	Artist     Artist `json:"artist"`
	TotalLikes int64  `json:"totalLikes"`
	TotalPlays int64  `json:"totalPlays"`
	TrackCount int64  `json:"trackCount"`
	HasAvatar  bool   `json:"hasAvatar"`
}
