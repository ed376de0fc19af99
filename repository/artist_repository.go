package repository

import (
	"database/sql"
	"fmt"
	"time"

	"vidshare/db"
	"vidshare/model"
)

// ArtistRepository defines the interface for artist data operations.
type ArtistRepository interface {
	GetArtistByID(id int64) (*model.Artist, error)
	GetArtistByName(name string) (*model.Artist, error)
	GetOrCreateArtist(name string) (*model.Artist, error)
	ListArtistsByTrack(trackID int64) ([]*model.Artist, error)
	ListArtistsWithStats(limit, offset int) ([]model.ArtistStats, int, error)
	GetArtistStats(id int64) (*model.ArtistStats, error)
	UpdateArtistBio(id int64, bio string) error
	UpdateArtistAvatar(id int64, avatarPath string) error
}

// mysqlArtistRepository implements ArtistRepository for MySQL.
type mysqlArtistRepository struct {
	DB *sql.DB
}

// NewMySQLArtistRepository creates a new instance of mysqlArtistRepository.
func NewMySQLArtistRepository() ArtistRepository {
	return &mysqlArtistRepository{DB: db.DB}
}

const artistColumns = `id, name, bio, avatar_path, created_at, updated_at`

func scanArtist(row interface{ Scan(...any) error }) (*model.Artist, error) {
	a := &model.Artist{}
	err := row.Scan(&a.ID, &a.Name, &a.Bio, &a.AvatarPath, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetArtistByID retrieves an artist by ID. Returns (nil, nil) when missing.
func (r *mysqlArtistRepository) GetArtistByID(id int64) (*model.Artist, error) {
	a, err := scanArtist(r.DB.QueryRow(`SELECT `+artistColumns+` FROM artists WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan artist by ID %d: %w", id, err)
	}
	return a, nil
}

// GetArtistByName retrieves an artist by name under case folding. Returns
// (nil, nil) when missing.
func (r *mysqlArtistRepository) GetArtistByName(name string) (*model.Artist, error) {
	a, err := scanArtist(r.DB.QueryRow(`SELECT `+artistColumns+` FROM artists WHERE LOWER(name) = LOWER(?)`, name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan artist by name %q: %w", name, err)
	}
	return a, nil
}

// GetOrCreateArtist looks an artist up by case-folded name and creates the
// record with the given spelling when none exists. Idempotent: repeated calls
// with any casing of the same name return the same row.
func (r *mysqlArtistRepository) GetOrCreateArtist(name string) (*model.Artist, error) {
	a, err := r.GetArtistByName(name)
	if err != nil {
		return nil, err
	}
	if a != nil {
		return a, nil
	}

	now := time.Now()
	res, err := r.DB.Exec(`INSERT INTO artists (name, bio, avatar_path, created_at, updated_at) VALUES (?, '', '', ?, ?)`,
		name, now, now)
	if err != nil {
		// A concurrent insert may have won the unique index race.
		if a, lookupErr := r.GetArtistByName(name); lookupErr == nil && a != nil {
			return a, nil
		}
		return nil, fmt.Errorf("failed to create artist %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID for artist %q: %w", name, err)
	}
	return &model.Artist{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}, nil
}

// ListArtistsByTrack retrieves the artists linked to a track.
func (r *mysqlArtistRepository) ListArtistsByTrack(trackID int64) ([]*model.Artist, error) {
	query := `SELECT a.id, a.name, a.bio, a.avatar_path, a.created_at, a.updated_at
	           FROM artists a
	           JOIN track_artists ta ON ta.artist_id = a.id
	           WHERE ta.track_id = ?
	           ORDER BY a.name ASC`
	rows, err := r.DB.Query(query, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query artists for track %d: %w", trackID, err)
	}
	defer rows.Close()

	artists := make([]*model.Artist, 0)
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artist row: %w", err)
		}
		artists = append(artists, a)
	}
	return artists, rows.Err()
}

const artistStatsQuery = `
	SELECT a.id, a.name, a.bio, a.avatar_path, a.created_at, a.updated_at,
	       COUNT(DISTINCT ta.track_id) AS track_count,
	       COALESCE(SUM(t.likes), 0) AS total_likes,
	       COALESCE(SUM(t.view_count), 0) AS total_plays
	FROM artists a
	LEFT JOIN track_artists ta ON ta.artist_id = a.id
	LEFT JOIN tracks t ON t.id = ta.track_id`

func scanArtistStats(row interface{ Scan(...any) error }) (model.ArtistStats, error) {
	var s model.ArtistStats
	err := row.Scan(&s.Artist.ID, &s.Artist.Name, &s.Artist.Bio, &s.Artist.AvatarPath,
		&s.Artist.CreatedAt, &s.Artist.UpdatedAt, &s.TrackCount, &s.TotalLikes, &s.TotalPlays)
	if err != nil {
		return s, err
	}
	s.HasAvatar = s.Artist.AvatarPath != ""
	return s, nil
}

// ListArtistsWithStats retrieves a page of artists with aggregate track
// stats, ordered most-liked first, then by track count, avatar presence and
// name.
func (r *mysqlArtistRepository) ListArtistsWithStats(limit, offset int) ([]model.ArtistStats, int, error) {
	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM artists`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count artists: %w", err)
	}

	query := artistStatsQuery + `
	GROUP BY a.id, a.name, a.bio, a.avatar_path, a.created_at, a.updated_at
	ORDER BY total_likes DESC, track_count DESC, (a.avatar_path <> '') DESC, a.name ASC
	LIMIT ? OFFSET ?`
	rows, err := r.DB.Query(query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query artist stats: %w", err)
	}
	defer rows.Close()

	stats := make([]model.ArtistStats, 0)
	for rows.Next() {
		s, err := scanArtistStats(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan artist stats row: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, total, rows.Err()
}

// GetArtistStats retrieves one artist's aggregate stats. Returns (nil, nil)
// when the artist does not exist.
func (r *mysqlArtistRepository) GetArtistStats(id int64) (*model.ArtistStats, error) {
	query := artistStatsQuery + `
	WHERE a.id = ?
	GROUP BY a.id, a.name, a.bio, a.avatar_path, a.created_at, a.updated_at`
	s, err := scanArtistStats(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan stats for artist %d: %w", id, err)
	}
	return &s, nil
}

// UpdateArtistBio replaces an artist's bio.
func (r *mysqlArtistRepository) UpdateArtistBio(id int64, bio string) error {
	res, err := r.DB.Exec(`UPDATE artists SET bio = ?, updated_at = ? WHERE id = ?`, bio, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update bio for artist %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected updating artist %d: %w", id, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateArtistAvatar replaces an artist's avatar path.
func (r *mysqlArtistRepository) UpdateArtistAvatar(id int64, avatarPath string) error {
	res, err := r.DB.Exec(`UPDATE artists SET avatar_path = ?, updated_at = ? WHERE id = ?`, avatarPath, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update avatar for artist %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected updating artist %d: %w", id, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
