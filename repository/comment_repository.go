package repository

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"vidshare/db"
	"vidshare/model"
)

// commentTables maps a comment kind to its table and parent column.
var commentTables = map[model.CommentKind]struct {
	table     string
	parentCol string
}{
	model.KindVideo:    {"video_comments", "video_id"},
	model.KindTrack:    {"track_comments", "track_id"},
	model.KindPlaylist: {"playlist_comments", "playlist_id"},
	model.KindTag:      {"tag_comments", "tag_name"},
	model.KindArtist:   {"artist_comments", "artist_id"},
}

// AuthorActivity is one comment an artist left anywhere on the site, tagged
// with where it was left.
type AuthorActivity struct {
	Kind     model.CommentKind `json:"kind"`
	ParentID int64             `json:"parentId,omitempty"`
	TagName  string            `json:"tagName,omitempty"`
	Comment  model.Comment     `json:"comment"`
}

// CommentRepository defines the interface for comment data operations across
// every parent kind.
type CommentRepository interface {
	CreateVideoComment(c *model.VideoComment) (int64, error)
	ListVideoComments(videoID int64) ([]*model.VideoComment, error)
	CreateTrackComment(c *model.TrackComment) (int64, error)
	ListTrackComments(trackID int64) ([]*model.TrackComment, error)
	CreatePlaylistComment(c *model.PlaylistComment) (int64, error)
	ListPlaylistComments(playlistID int64) ([]*model.PlaylistComment, error)
	CreateTagComment(c *model.TagComment) (int64, error)
	ListTagComments(tagName string) ([]*model.TagComment, error)
	CreateArtistComment(c *model.ArtistComment) (int64, error)
	ListArtistComments(artistID int64) ([]*model.ArtistComment, error)
	LikeComment(kind model.CommentKind, id int64) error
	DeleteComment(kind model.CommentKind, id int64) error
	ListRecentActivityByArtist(artistID int64, limit int) ([]AuthorActivity, error)
}

// mysqlCommentRepository implements CommentRepository for MySQL.
type mysqlCommentRepository struct {
	DB *sql.DB
}

// NewMySQLCommentRepository creates a new instance of mysqlCommentRepository.
func NewMySQLCommentRepository() CommentRepository {
	return &mysqlCommentRepository{DB: db.DB}
}

func (r *mysqlCommentRepository) insertComment(kind model.CommentKind, parent any, c *model.Comment) (int64, error) {
	t := commentTables[kind]
	query := fmt.Sprintf(`INSERT INTO %s (%s, author, content, timestamp, likes, author_artist_id)
	           VALUES (?, ?, ?, ?, 0, ?)`, t.table, t.parentCol)
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for %s insert: %w", t.table, err)
	}
	defer stmt.Close()

	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now()
	}
	res, err := stmt.Exec(parent, c.Author, c.Content, c.Timestamp, c.AuthorArtistID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", t.table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for %s: %w", t.table, err)
	}
	c.ID = id
	return id, nil
}

func (r *mysqlCommentRepository) listComments(kind model.CommentKind, parent any) ([]model.Comment, error) {
	t := commentTables[kind]
	query := fmt.Sprintf(`SELECT id, author, content, timestamp, likes, author_artist_id
	           FROM %s WHERE %s = ? ORDER BY timestamp DESC`, t.table, t.parentCol)
	rows, err := r.DB.Query(query, parent)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.table, err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.Author, &c.Content, &c.Timestamp, &c.Likes, &c.AuthorArtistID); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", t.table, err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *mysqlCommentRepository) CreateVideoComment(c *model.VideoComment) (int64, error) {
	return r.insertComment(model.KindVideo, c.VideoID, &c.Comment)
}

func (r *mysqlCommentRepository) ListVideoComments(videoID int64) ([]*model.VideoComment, error) {
	comments, err := r.listComments(model.KindVideo, videoID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.VideoComment, len(comments))
	for i, c := range comments {
		out[i] = &model.VideoComment{Comment: c, VideoID: videoID}
	}
	return out, nil
}

func (r *mysqlCommentRepository) CreateTrackComment(c *model.TrackComment) (int64, error) {
	return r.insertComment(model.KindTrack, c.TrackID, &c.Comment)
}

func (r *mysqlCommentRepository) ListTrackComments(trackID int64) ([]*model.TrackComment, error) {
	comments, err := r.listComments(model.KindTrack, trackID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.TrackComment, len(comments))
	for i, c := range comments {
		out[i] = &model.TrackComment{Comment: c, TrackID: trackID}
	}
	return out, nil
}

func (r *mysqlCommentRepository) CreatePlaylistComment(c *model.PlaylistComment) (int64, error) {
	return r.insertComment(model.KindPlaylist, c.PlaylistID, &c.Comment)
}

func (r *mysqlCommentRepository) ListPlaylistComments(playlistID int64) ([]*model.PlaylistComment, error) {
	comments, err := r.listComments(model.KindPlaylist, playlistID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.PlaylistComment, len(comments))
	for i, c := range comments {
		out[i] = &model.PlaylistComment{Comment: c, PlaylistID: playlistID}
	}
	return out, nil
}

func (r *mysqlCommentRepository) CreateTagComment(c *model.TagComment) (int64, error) {
	return r.insertComment(model.KindTag, c.TagName, &c.Comment)
}

func (r *mysqlCommentRepository) ListTagComments(tagName string) ([]*model.TagComment, error) {
	comments, err := r.listComments(model.KindTag, tagName)
	if err != nil {
		return nil, err
	}
	out := make([]*model.TagComment, len(comments))
	for i, c := range comments {
		out[i] = &model.TagComment{Comment: c, TagName: tagName}
	}
	return out, nil
}

func (r *mysqlCommentRepository) CreateArtistComment(c *model.ArtistComment) (int64, error) {
	return r.insertComment(model.KindArtist, c.ArtistID, &c.Comment)
}

func (r *mysqlCommentRepository) ListArtistComments(artistID int64) ([]*model.ArtistComment, error) {
	comments, err := r.listComments(model.KindArtist, artistID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.ArtistComment, len(comments))
	for i, c := range comments {
		out[i] = &model.ArtistComment{Comment: c, ArtistID: artistID}
	}
	return out, nil
}

// LikeComment bumps a comment's like counter in a single statement.
func (r *mysqlCommentRepository) LikeComment(kind model.CommentKind, id int64) error {
	t, ok := commentTables[kind]
	if !ok {
		return fmt.Errorf("unknown comment kind %q", kind)
	}
	res, err := r.DB.Exec(fmt.Sprintf(`UPDATE %s SET likes = likes + 1 WHERE id = ?`, t.table), id)
	if err != nil {
		return fmt.Errorf("failed to like comment %d in %s: %w", id, t.table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected liking comment %d: %w", id, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteComment removes a comment.
func (r *mysqlCommentRepository) DeleteComment(kind model.CommentKind, id int64) error {
	t, ok := commentTables[kind]
	if !ok {
		return fmt.Errorf("unknown comment kind %q", kind)
	}
	res, err := r.DB.Exec(fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, t.table), id)
	if err != nil {
		return fmt.Errorf("failed to delete comment %d from %s: %w", id, t.table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected deleting comment %d: %w", id, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListRecentActivityByArtist gathers an artist's recent comments across every
// kind, newest first.
func (r *mysqlCommentRepository) ListRecentActivityByArtist(artistID int64, limit int) ([]AuthorActivity, error) {
	activity := make([]AuthorActivity, 0)
	for _, kind := range []model.CommentKind{model.KindVideo, model.KindTrack, model.KindPlaylist, model.KindTag, model.KindArtist} {
		t := commentTables[kind]
		query := fmt.Sprintf(`SELECT id, %s, author, content, timestamp, likes, author_artist_id
		           FROM %s WHERE author_artist_id = ? ORDER BY timestamp DESC LIMIT ?`, t.parentCol, t.table)
		rows, err := r.DB.Query(query, artistID, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to query activity in %s: %w", t.table, err)
		}
		for rows.Next() {
			a := AuthorActivity{Kind: kind}
			var dst any = &a.ParentID
			if kind == model.KindTag {
				dst = &a.TagName
			}
			if err := rows.Scan(&a.Comment.ID, dst, &a.Comment.Author, &a.Comment.Content,
				&a.Comment.Timestamp, &a.Comment.Likes, &a.Comment.AuthorArtistID); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan activity row in %s: %w", t.table, err)
			}
			activity = append(activity, a)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	sort.Slice(activity, func(i, j int) bool {
		return activity[i].Comment.Timestamp.After(activity[j].Comment.Timestamp)
	})
	if len(activity) > limit {
		activity = activity[:limit]
	}
	return activity, nil
}
