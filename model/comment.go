package model

import "time"

// Comment is a comment attached to some parent entity. Author is a free-text
// display name, not an account; AuthorArtistID links the auto-created artist
// record matching the author name, when one exists.
type Comment struct {
	ID             int64     `json:"id"`
	Author         string    `json:"author"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"` // creation time, immutable
	Likes          int64     `json:"likes"`
	AuthorArtistID int64     `json:"authorArtistId,omitempty"`
}

// One comment table per parent kind.

type VideoComment struct {
	Comment
	VideoID int64 `json:"videoId"`
}

type TrackComment struct {
	Comment
	TrackID int64 `json:"trackId"`
}

type PlaylistComment struct {
	Comment
	PlaylistID int64 `json:"playlistId"`
}

type TagComment struct {
	Comment
	TagName string `json:"tagName" gorm:"size:100"`
}

type ArtistComment struct {
	Comment
	ArtistID int64 `json:"artistId"`
}

// CommentKind identifies a comment's parent table.
type CommentKind string

const (
	KindVideo    CommentKind = "video"
	KindTrack    CommentKind = "track"
	KindPlaylist CommentKind = "playlist"
	KindTag      CommentKind = "tag"
	KindArtist   CommentKind = "artist"
)
