package repository

import (
	"database/sql"
	"fmt"
	"time"

	"vidshare/db"
	"vidshare/model"
)

// AuthorProfileRepository defines the interface for author profile data
// operations. Profiles are keyed by slug, not by account.
type AuthorProfileRepository interface {
	GetBySlug(slug string) (*model.AuthorProfile, error)
	UpsertAvatar(slug, avatarPath string) (*model.AuthorProfile, error)
}

// mysqlAuthorProfileRepository implements AuthorProfileRepository for MySQL.
type mysqlAuthorProfileRepository struct {
	DB *sql.DB
}

// NewMySQLAuthorProfileRepository creates a new instance of
// mysqlAuthorProfileRepository.
func NewMySQLAuthorProfileRepository() AuthorProfileRepository {
	return &mysqlAuthorProfileRepository{DB: db.DB}
}

// GetBySlug retrieves a profile. Returns (nil, nil) when missing.
func (r *mysqlAuthorProfileRepository) GetBySlug(slug string) (*model.AuthorProfile, error) {
	p := &model.AuthorProfile{}
	err := r.DB.QueryRow(`SELECT id, slug, avatar_path, created_at, updated_at
	           FROM author_profiles WHERE slug = ?`, slug).
		Scan(&p.ID, &p.Slug, &p.AvatarPath, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan author profile %q: %w", slug, err)
	}
	return p, nil
}

// UpsertAvatar creates the profile row on first use and replaces the avatar
// path on subsequent uploads.
func (r *mysqlAuthorProfileRepository) UpsertAvatar(slug, avatarPath string) (*model.AuthorProfile, error) {
	now := time.Now()
	query := `INSERT INTO author_profiles (slug, avatar_path, created_at, updated_at)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE avatar_path = VALUES(avatar_path), updated_at = VALUES(updated_at)`
	if _, err := r.DB.Exec(query, slug, avatarPath, now, now); err != nil {
		return nil, fmt.Errorf("failed to upsert author profile %q: %w", slug, err)
	}
	return r.GetBySlug(slug)
}
