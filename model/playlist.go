package model

import "time"

// Playlist is an ordered collection of videos.
type Playlist struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PlaylistVideo is the ordered membership row. Position is 1-based and kept
// contiguous per playlist: removing a member re-packs the positions above it.
type PlaylistVideo struct {
	ID         int64 `json:"id"`
	PlaylistID int64 `json:"playlistId"`
	VideoID    int64 `json:"videoId"`
	Position   int   `json:"position"`
}

// PlaylistEntry pairs a video with its position for listing responses.
type PlaylistEntry struct {
	Video    *Video `json:"video"`
	Position int    `json:"position"`
}

// PlaylistSummary is the list-view projection: member count plus the first
// member's thumbnail.
type PlaylistSummary struct {
	Playlist   Playlist `json:"playlist"`
	VideoCount int      `json:"videoCount"`
	Thumbnail  string   `json:"thumbnail,omitempty"`
}
