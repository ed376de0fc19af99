package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"vidshare/db"
	"vidshare/model"
)

// TrackListOptions narrows and orders a track listing.
type TrackListOptions struct {
	Tag      string
	ArtistID int64 // 0 means no artist filter
	Sort     string
	Limit    int
	Offset   int
}

// TrackRepository defines the interface for track data operations.
type TrackRepository interface {
	CreateTrack(t *model.Track) (int64, error)
	GetTrackByID(id int64) (*model.Track, error)
	ListTracks(opts TrackListOptions) ([]*model.Track, int, error)
	ListTracksByArtist(artistID int64) ([]*model.Track, error)
	GetRelatedTracks(id int64, tags string, limit int) ([]*model.Track, error)
	UpdateTrackTags(id int64, tags string) error
	UpdateTrackDescription(id int64, description string) error
	UpdateTrackTitle(id int64, displayName string) error
	IncrementTrackLikes(id int64) error
	IncrementTrackViews(id int64) error
	DeleteTrack(id int64) error
	LinkArtist(trackID, artistID int64) error
}

// mysqlTrackRepository implements TrackRepository for MySQL.
type mysqlTrackRepository struct {
	DB *sql.DB
}

// NewMySQLTrackRepository creates a new instance of mysqlTrackRepository.
func NewMySQLTrackRepository() TrackRepository {
	return &mysqlTrackRepository{DB: db.DB}
}

const trackColumns = `id, original_name, stored_path, display_name, description, tags, cover_image_path, duration, view_count, likes, created_at, updated_at`

func scanTrack(row interface{ Scan(...any) error }) (*model.Track, error) {
	t := &model.Track{}
	err := row.Scan(&t.ID, &t.OriginalName, &t.StoredPath, &t.DisplayName, &t.Description,
		&t.Tags, &t.CoverImagePath, &t.Duration, &t.ViewCount, &t.Likes, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTrack adds a new track to the database.
func (r *mysqlTrackRepository) CreateTrack(t *model.Track) (int64, error) {
	query := `INSERT INTO tracks (original_name, stored_path, display_name, description, tags, cover_image_path, duration, view_count, likes, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateTrack: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	res, err := stmt.Exec(t.OriginalName, t.StoredPath, t.DisplayName, t.Description, t.Tags, t.CoverImagePath, t.Duration, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateTrack: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateTrack: %w", err)
	}
	return id, nil
}

// GetTrackByID retrieves a track by its ID. Returns (nil, nil) when missing.
func (r *mysqlTrackRepository) GetTrackByID(id int64) (*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`
	t, err := scanTrack(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan track by ID %d: %w", id, err)
	}
	return t, nil
}

// ListTracks retrieves a page of tracks plus the total match count.
func (r *mysqlTrackRepository) ListTracks(opts TrackListOptions) ([]*model.Track, int, error) {
	conds := []string{}
	args := []any{}
	joins := ""
	if opts.Tag != "" {
		conds = append(conds, tagMatchExpr)
		args = append(args, strings.ReplaceAll(opts.Tag, " ", ""))
	}
	if opts.ArtistID != 0 {
		joins = ` JOIN track_artists ta ON ta.track_id = tracks.id`
		conds = append(conds, `ta.artist_id = ?`)
		args = append(args, opts.ArtistID)
	}
	where := ""
	if len(conds) > 0 {
		where = ` WHERE ` + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM tracks`+joins+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tracks: %w", err)
	}

	var order string
	switch opts.Sort {
	case "oldest":
		order = "tracks.created_at ASC"
	case "most_viewed":
		order = "tracks.view_count DESC, tracks.created_at DESC"
	case "most_liked":
		order = "tracks.likes DESC, tracks.created_at DESC"
	default:
		order = "tracks.created_at DESC"
	}
	query := `SELECT tracks.id, tracks.original_name, tracks.stored_path, tracks.display_name, tracks.description, tracks.tags, tracks.cover_image_path, tracks.duration, tracks.view_count, tracks.likes, tracks.created_at, tracks.updated_at
	           FROM tracks` + joins + where + ` ORDER BY ` + order + ` LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := make([]*model.Track, 0)
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan track row: %w", err)
		}
		tracks = append(tracks, t)
	}
	return tracks, total, rows.Err()
}

// ListTracksByArtist retrieves tracks linked to an artist.
func (r *mysqlTrackRepository) ListTracksByArtist(artistID int64) ([]*model.Track, error) {
	query := `SELECT t.id, t.original_name, t.stored_path, t.display_name, t.description, t.tags, t.cover_image_path, t.duration, t.view_count, t.likes, t.created_at, t.updated_at
	           FROM tracks t
	           JOIN track_artists ta ON ta.track_id = t.id
	           WHERE ta.artist_id = ?
	           ORDER BY t.created_at DESC`
	rows, err := r.DB.Query(query, artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks for artist %d: %w", artistID, err)
	}
	defer rows.Close()

	tracks := make([]*model.Track, 0)
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// GetRelatedTracks finds other tracks sharing at least one tag, ranked by how
// many tags they share.
func (r *mysqlTrackRepository) GetRelatedTracks(id int64, tags string, limit int) ([]*model.Track, error) {
	tagList := splitTags(tags)
	if len(tagList) == 0 {
		return []*model.Track{}, nil
	}

	conds := make([]string, 0, len(tagList))
	args := []any{}
	for _, t := range tagList {
		conds = append(conds, tagMatchExpr)
		args = append(args, strings.ReplaceAll(t, " ", ""))
	}
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id <> ? AND (` + strings.Join(conds, " OR ") + `)`
	args = append([]any{id}, args...)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query related tracks for %d: %w", id, err)
	}
	defer rows.Close()

	want := make(map[string]bool, len(tagList))
	for _, t := range tagList {
		want[strings.ToLower(t)] = true
	}
	type scored struct {
		track  *model.Track
		shared int
	}
	candidates := make([]scored, 0)
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan related track row: %w", err)
		}
		n := 0
		for _, tg := range splitTags(t.Tags) {
			if want[strings.ToLower(tg)] {
				n++
			}
		}
		candidates = append(candidates, scored{track: t, shared: n})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			a, b := candidates[i], candidates[j]
			if b.shared > a.shared ||
				(b.shared == a.shared && b.track.CreatedAt.After(a.track.CreatedAt)) {
				candidates[i], candidates[j] = b, a
			}
		}
	}

	related := make([]*model.Track, 0, limit)
	for _, c := range candidates {
		if len(related) == limit {
			break
		}
		related = append(related, c.track)
	}
	return related, nil
}

func (r *mysqlTrackRepository) updateColumn(id int64, column, value string) error {
	query := fmt.Sprintf(`UPDATE tracks SET %s = ?, updated_at = ? WHERE id = ?`, column)
	res, err := r.DB.Exec(query, value, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update track %s for ID %d: %w", column, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected updating track %d: %w", id, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *mysqlTrackRepository) UpdateTrackTags(id int64, tags string) error {
	return r.updateColumn(id, "tags", tags)
}

func (r *mysqlTrackRepository) UpdateTrackDescription(id int64, description string) error {
	return r.updateColumn(id, "description", description)
}

func (r *mysqlTrackRepository) UpdateTrackTitle(id int64, displayName string) error {
	return r.updateColumn(id, "display_name", displayName)
}

// IncrementTrackLikes bumps the like counter in a single statement so
// concurrent likes are never lost.
func (r *mysqlTrackRepository) IncrementTrackLikes(id int64) error {
	_, err := r.DB.Exec(`UPDATE tracks SET likes = likes + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment likes for track %d: %w", id, err)
	}
	return nil
}

// IncrementTrackViews bumps the play counter in a single statement.
func (r *mysqlTrackRepository) IncrementTrackViews(id int64) error {
	_, err := r.DB.Exec(`UPDATE tracks SET view_count = view_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment views for track %d: %w", id, err)
	}
	return nil
}

// DeleteTrack removes a track row together with its comments and artist
// links. File removal is the caller's responsibility.
func (r *mysqlTrackRepository) DeleteTrack(id int64) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for DeleteTrack: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM track_comments WHERE track_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete comments for track %d: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM track_artists WHERE track_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete artist links for track %d: %w", id, err)
	}

	res, err := tx.Exec(`DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete track %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected deleting track %d: %w", id, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return tx.Commit()
}

// LinkArtist associates a track with an artist, once.
func (r *mysqlTrackRepository) LinkArtist(trackID, artistID int64) error {
	var exists int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM track_artists WHERE track_id = ? AND artist_id = ?`,
		trackID, artistID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check track-artist link: %w", err)
	}
	if exists > 0 {
		return nil
	}
	if _, err := r.DB.Exec(`INSERT INTO track_artists (track_id, artist_id) VALUES (?, ?)`,
		trackID, artistID); err != nil {
		return fmt.Errorf("failed to link track %d to artist %d: %w", trackID, artistID, err)
	}
	return nil
}
