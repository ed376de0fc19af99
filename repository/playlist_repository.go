package repository

import (
	"database/sql"
	"fmt"
	"time"

	"vidshare/db"
	"vidshare/model"
)

// PlaylistRepository defines the interface for playlist data operations.
type PlaylistRepository interface {
	CreatePlaylist(p *model.Playlist) (int64, error)
	GetPlaylistByID(id int64) (*model.Playlist, error)
	ListPlaylists() ([]model.PlaylistSummary, error)
	UpdatePlaylist(id int64, name, description string) error
	DeletePlaylist(id int64) error
	GetPlaylistEntries(id int64) ([]model.PlaylistEntry, error)
	AddVideo(playlistID, videoID int64) (int, error)
	RemoveVideo(playlistID, videoID int64) error
}

// mysqlPlaylistRepository implements PlaylistRepository for MySQL.
type mysqlPlaylistRepository struct {
	DB *sql.DB
}

// NewMySQLPlaylistRepository creates a new instance of mysqlPlaylistRepository.
func NewMySQLPlaylistRepository() PlaylistRepository {
	return &mysqlPlaylistRepository{DB: db.DB}
}

// CreatePlaylist adds a new playlist.
func (r *mysqlPlaylistRepository) CreatePlaylist(p *model.Playlist) (int64, error) {
	stmt, err := r.DB.Prepare(`INSERT INTO playlists (name, description, created_at) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreatePlaylist: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(p.Name, p.Description, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreatePlaylist: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreatePlaylist: %w", err)
	}
	p.ID = id
	return id, nil
}

// GetPlaylistByID retrieves a playlist by its ID. Returns (nil, nil) when
// missing.
func (r *mysqlPlaylistRepository) GetPlaylistByID(id int64) (*model.Playlist, error) {
	p := &model.Playlist{}
	err := r.DB.QueryRow(`SELECT id, name, description, created_at FROM playlists WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan playlist by ID %d: %w", id, err)
	}
	return p, nil
}

// ListPlaylists retrieves all playlists with member counts and the first
// member's thumbnail, newest first.
func (r *mysqlPlaylistRepository) ListPlaylists() ([]model.PlaylistSummary, error) {
	query := `SELECT p.id, p.name, p.description, p.created_at,
	                 COUNT(pv.id) AS video_count,
	                 COALESCE((SELECT v.thumbnail_path FROM playlist_videos pv2
	                           JOIN videos v ON v.id = pv2.video_id
	                           WHERE pv2.playlist_id = p.id ORDER BY pv2.position ASC LIMIT 1), '') AS thumbnail
	           FROM playlists p
	           LEFT JOIN playlist_videos pv ON pv.playlist_id = p.id
	           GROUP BY p.id, p.name, p.description, p.created_at
	           ORDER BY p.created_at DESC`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	summaries := make([]model.PlaylistSummary, 0)
	for rows.Next() {
		var s model.PlaylistSummary
		if err := rows.Scan(&s.Playlist.ID, &s.Playlist.Name, &s.Playlist.Description,
			&s.Playlist.CreatedAt, &s.VideoCount, &s.Thumbnail); err != nil {
			return nil, fmt.Errorf("failed to scan playlist summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// UpdatePlaylist renames a playlist and replaces its description. Existence
// is the caller's concern: updating with unchanged values affects no rows.
func (r *mysqlPlaylistRepository) UpdatePlaylist(id int64, name, description string) error {
	if _, err := r.DB.Exec(`UPDATE playlists SET name = ?, description = ? WHERE id = ?`, name, description, id); err != nil {
		return fmt.Errorf("failed to update playlist %d: %w", id, err)
	}
	return nil
}

// DeletePlaylist removes a playlist together with its memberships and
// comments.
func (r *mysqlPlaylistRepository) DeletePlaylist(id int64) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for DeletePlaylist: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM playlist_videos WHERE playlist_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete memberships for playlist %d: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM playlist_comments WHERE playlist_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete comments for playlist %d: %w", id, err)
	}

	res, err := tx.Exec(`DELETE FROM playlists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected deleting playlist %d: %w", id, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return tx.Commit()
}

// GetPlaylistEntries retrieves a playlist's videos ordered by position.
func (r *mysqlPlaylistRepository) GetPlaylistEntries(id int64) ([]model.PlaylistEntry, error) {
	query := `SELECT pv.position, v.id, v.original_name, v.stored_path, v.display_name, v.description, v.tags, v.thumbnail_path, v.view_count, v.likes, v.created_at, v.updated_at
	           FROM playlist_videos pv
	           JOIN videos v ON v.id = pv.video_id
	           WHERE pv.playlist_id = ?
	           ORDER BY pv.position ASC`
	rows, err := r.DB.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for playlist %d: %w", id, err)
	}
	defer rows.Close()

	entries := make([]model.PlaylistEntry, 0)
	for rows.Next() {
		v := &model.Video{}
		var pos int
		if err := rows.Scan(&pos, &v.ID, &v.OriginalName, &v.StoredPath, &v.DisplayName,
			&v.Description, &v.Tags, &v.ThumbnailPath, &v.ViewCount, &v.Likes,
			&v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist entry: %w", err)
		}
		entries = append(entries, model.PlaylistEntry{Video: v, Position: pos})
	}
	return entries, rows.Err()
}

// AddVideo appends a video at position max+1. Adding a video already in the
// playlist is a no-op that reports its existing position.
func (r *mysqlPlaylistRepository) AddVideo(playlistID, videoID int64) (int, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction for AddVideo: %w", err)
	}
	defer tx.Rollback()

	var existing int
	err = tx.QueryRow(`SELECT position FROM playlist_videos WHERE playlist_id = ? AND video_id = ?`,
		playlistID, videoID).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to check membership of video %d in playlist %d: %w", videoID, playlistID, err)
	}

	var maxPos int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(position), 0) FROM playlist_videos WHERE playlist_id = ?`,
		playlistID).Scan(&maxPos); err != nil {
		return 0, fmt.Errorf("failed to find max position in playlist %d: %w", playlistID, err)
	}

	pos := maxPos + 1
	if _, err := tx.Exec(`INSERT INTO playlist_videos (playlist_id, video_id, position) VALUES (?, ?, ?)`,
		playlistID, videoID, pos); err != nil {
		return 0, fmt.Errorf("failed to add video %d to playlist %d: %w", videoID, playlistID, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return pos, nil
}

// RemoveVideo deletes a membership and re-packs the positions above it so
// the playlist stays contiguous at {1..N-1}.
func (r *mysqlPlaylistRepository) RemoveVideo(playlistID, videoID int64) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for RemoveVideo: %w", err)
	}
	defer tx.Rollback()

	var pos int
	err = tx.QueryRow(`SELECT position FROM playlist_videos WHERE playlist_id = ? AND video_id = ?`,
		playlistID, videoID).Scan(&pos)
	if err != nil {
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return fmt.Errorf("failed to find video %d in playlist %d: %w", videoID, playlistID, err)
	}

	if _, err := tx.Exec(`DELETE FROM playlist_videos WHERE playlist_id = ? AND video_id = ?`,
		playlistID, videoID); err != nil {
		return fmt.Errorf("failed to remove video %d from playlist %d: %w", videoID, playlistID, err)
	}
	if _, err := tx.Exec(`UPDATE playlist_videos SET position = position - 1 WHERE playlist_id = ? AND position > ?`,
		playlistID, pos); err != nil {
		return fmt.Errorf("failed to re-pack playlist %d: %w", playlistID, err)
	}

	return tx.Commit()
}
