package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"vidshare/db"
	"vidshare/model"
)

// VideoListOptions narrows and orders a video listing.
type VideoListOptions struct {
	Tag    string // exact tag match against the comma-separated tags column
	Sort   string // newest | oldest | most_viewed | most_liked
	Limit  int
	Offset int
}

// VideoRepository defines the interface for video data operations.
type VideoRepository interface {
	CreateVideo(v *model.Video) (int64, error)
	GetVideoByID(id int64) (*model.Video, error)
	ListVideos(opts VideoListOptions) ([]*model.Video, int, error)
	ListVideosUnderPath(prefix string) ([]*model.Video, error)
	ListVideosByArtist(artistID int64) ([]*model.Video, error)
	GetRelatedVideos(id int64, tags string, limit int) ([]*model.Video, error)
	UpdateVideoTags(id int64, tags string) error
	UpdateVideoDescription(id int64, description string) error
	UpdateVideoTitle(id int64, displayName string) error
	UpdateVideoStoredPath(id int64, storedPath string) error
	IncrementVideoLikes(id int64) error
	IncrementVideoViews(id int64) error
	DeleteVideo(id int64) error
	LinkArtist(videoID, artistID int64) error
}

// mysqlVideoRepository implements VideoRepository for MySQL.
type mysqlVideoRepository struct {
	DB *sql.DB
}

// NewMySQLVideoRepository creates a new instance of mysqlVideoRepository.
func NewMySQLVideoRepository() VideoRepository {
	return &mysqlVideoRepository{DB: db.DB}
}

const videoColumns = `id, original_name, stored_path, display_name, description, tags, thumbnail_path, view_count, likes, created_at, updated_at`

func scanVideo(row interface{ Scan(...any) error }) (*model.Video, error) {
	v := &model.Video{}
	err := row.Scan(&v.ID, &v.OriginalName, &v.StoredPath, &v.DisplayName, &v.Description,
		&v.Tags, &v.ThumbnailPath, &v.ViewCount, &v.Likes, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// tagMatchExpr matches one exact tag inside a comma-separated tags column.
// Spaces around commas are stripped before matching.
const tagMatchExpr = `CONCAT(',', REPLACE(tags, ' ', ''), ',') LIKE CONCAT('%,', ?, ',%')`

func videoOrderClause(sort string) string {
	switch sort {
	case "oldest":
		return "created_at ASC"
	case "most_viewed":
		return "view_count DESC, created_at DESC"
	case "most_liked":
		return "likes DESC, created_at DESC"
	default: // newest
		return "created_at DESC"
	}
}

// CreateVideo adds a new video to the database.
func (r *mysqlVideoRepository) CreateVideo(v *model.Video) (int64, error) {
	query := `INSERT INTO videos (original_name, stored_path, display_name, description, tags, thumbnail_path, view_count, likes, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateVideo: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	res, err := stmt.Exec(v.OriginalName, v.StoredPath, v.DisplayName, v.Description, v.Tags, v.ThumbnailPath, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateVideo: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateVideo: %w", err)
	}
	return id, nil
}

// GetVideoByID retrieves a video by its ID. Returns (nil, nil) when missing.
func (r *mysqlVideoRepository) GetVideoByID(id int64) (*model.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = ?`
	v, err := scanVideo(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan video by ID %d: %w", id, err)
	}
	return v, nil
}

// ListVideos retrieves a page of videos plus the total match count.
func (r *mysqlVideoRepository) ListVideos(opts VideoListOptions) ([]*model.Video, int, error) {
	where := ""
	args := []any{}
	if opts.Tag != "" {
		where = ` WHERE ` + tagMatchExpr
		args = append(args, strings.ReplaceAll(opts.Tag, " ", ""))
	}

	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM videos`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count videos: %w", err)
	}

	query := `SELECT ` + videoColumns + ` FROM videos` + where +
		` ORDER BY ` + videoOrderClause(opts.Sort) + ` LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	videos := make([]*model.Video, 0)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan video row: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, total, rows.Err()
}

// ListVideosUnderPath retrieves videos whose stored file lives under a
// directory prefix. Used for stealth-folder maintenance.
func (r *mysqlVideoRepository) ListVideosUnderPath(prefix string) ([]*model.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE stored_path LIKE CONCAT(?, '%') ORDER BY created_at DESC`
	rows, err := r.DB.Query(query, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos under %s: %w", prefix, err)
	}
	defer rows.Close()

	videos := make([]*model.Video, 0)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video row: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// ListVideosByArtist retrieves videos linked to an artist.
func (r *mysqlVideoRepository) ListVideosByArtist(artistID int64) ([]*model.Video, error) {
	query := `SELECT v.id, v.original_name, v.stored_path, v.display_name, v.description, v.tags, v.thumbnail_path, v.view_count, v.likes, v.created_at, v.updated_at
	           FROM videos v
	           JOIN video_artists va ON va.video_id = v.id
	           WHERE va.artist_id = ?
	           ORDER BY v.created_at DESC`
	rows, err := r.DB.Query(query, artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos for artist %d: %w", artistID, err)
	}
	defer rows.Close()

	videos := make([]*model.Video, 0)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video row: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// GetRelatedVideos finds other videos sharing at least one tag, ranked by how
// many tags they share.
func (r *mysqlVideoRepository) GetRelatedVideos(id int64, tags string, limit int) ([]*model.Video, error) {
	tagList := splitTags(tags)
	if len(tagList) == 0 {
		return []*model.Video{}, nil
	}

	conds := make([]string, 0, len(tagList))
	args := []any{}
	for _, t := range tagList {
		conds = append(conds, tagMatchExpr)
		args = append(args, strings.ReplaceAll(t, " ", ""))
	}
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id <> ? AND (` + strings.Join(conds, " OR ") + `)`
	args = append([]any{id}, args...)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query related videos for %d: %w", id, err)
	}
	defer rows.Close()

	type scored struct {
		video  *model.Video
		shared int
	}
	candidates := make([]scored, 0)
	want := make(map[string]bool, len(tagList))
	for _, t := range tagList {
		want[strings.ToLower(t)] = true
	}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan related video row: %w", err)
		}
		n := 0
		for _, t := range splitTags(v.Tags) {
			if want[strings.ToLower(t)] {
				n++
			}
		}
		candidates = append(candidates, scored{video: v, shared: n})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Stable enough: more shared tags first, then newer.
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			a, b := candidates[i], candidates[j]
			if b.shared > a.shared ||
				(b.shared == a.shared && b.video.CreatedAt.After(a.video.CreatedAt)) {
				candidates[i], candidates[j] = b, a
			}
		}
	}

	related := make([]*model.Video, 0, limit)
	for _, c := range candidates {
		if len(related) == limit {
			break
		}
		related = append(related, c.video)
	}
	return related, nil
}

func (r *mysqlVideoRepository) updateColumn(id int64, column, value string) error {
	query := fmt.Sprintf(`UPDATE videos SET %s = ?, updated_at = ? WHERE id = ?`, column)
	res, err := r.DB.Exec(query, value, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update video %s for ID %d: %w", column, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected updating video %d: %w", id, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *mysqlVideoRepository) UpdateVideoTags(id int64, tags string) error {
	return r.updateColumn(id, "tags", tags)
}

func (r *mysqlVideoRepository) UpdateVideoDescription(id int64, description string) error {
	return r.updateColumn(id, "description", description)
}

func (r *mysqlVideoRepository) UpdateVideoTitle(id int64, displayName string) error {
	return r.updateColumn(id, "display_name", displayName)
}

func (r *mysqlVideoRepository) UpdateVideoStoredPath(id int64, storedPath string) error {
	return r.updateColumn(id, "stored_path", storedPath)
}

// IncrementVideoLikes bumps the like counter in a single statement so
// concurrent likes are never lost.
func (r *mysqlVideoRepository) IncrementVideoLikes(id int64) error {
	_, err := r.DB.Exec(`UPDATE videos SET likes = likes + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment likes for video %d: %w", id, err)
	}
	return nil
}

// IncrementVideoViews bumps the view counter in a single statement.
func (r *mysqlVideoRepository) IncrementVideoViews(id int64) error {
	_, err := r.DB.Exec(`UPDATE videos SET view_count = view_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment views for video %d: %w", id, err)
	}
	return nil
}

// DeleteVideo removes a video row together with its comments, artist links
// and playlist memberships. Positions above each removed membership are
// re-packed so every playlist stays contiguous. File removal is the caller's
// responsibility.
func (r *mysqlVideoRepository) DeleteVideo(id int64) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for DeleteVideo: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT playlist_id, position FROM playlist_videos WHERE video_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to query playlist memberships for video %d: %w", id, err)
	}
	type membership struct {
		playlistID int64
		position   int
	}
	memberships := make([]membership, 0)
	for rows.Next() {
		var m membership
		if err := rows.Scan(&m.playlistID, &m.position); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan playlist membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM playlist_videos WHERE video_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete playlist memberships for video %d: %w", id, err)
	}
	for _, m := range memberships {
		if _, err := tx.Exec(`UPDATE playlist_videos SET position = position - 1 WHERE playlist_id = ? AND position > ?`,
			m.playlistID, m.position); err != nil {
			return fmt.Errorf("failed to re-pack playlist %d: %w", m.playlistID, err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM video_comments WHERE video_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete comments for video %d: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM video_artists WHERE video_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete artist links for video %d: %w", id, err)
	}

	res, err := tx.Exec(`DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected deleting video %d: %w", id, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return tx.Commit()
}

// LinkArtist associates a video with an artist, once.
func (r *mysqlVideoRepository) LinkArtist(videoID, artistID int64) error {
	var exists int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM video_artists WHERE video_id = ? AND artist_id = ?`,
		videoID, artistID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check video-artist link: %w", err)
	}
	if exists > 0 {
		return nil
	}
	if _, err := r.DB.Exec(`INSERT INTO video_artists (video_id, artist_id) VALUES (?, ?)`,
		videoID, artistID); err != nil {
		return fmt.Errorf("failed to link video %d to artist %d: %w", videoID, artistID, err)
	}
	return nil
}

// splitTags parses the comma-separated tags column into trimmed, non-empty
// tag names.
func splitTags(tags string) []string {
	if strings.TrimSpace(tags) == "" {
		return nil
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
