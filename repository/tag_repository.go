package repository

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"vidshare/db"
	"vidshare/model"
)

// TagRepository defines the interface for tag aggregation and description
// operations. Tags have no table of their own; they are substrings of the
// media rows' tags columns.
type TagRepository interface {
	FirstTagCounts(kind model.CommentKind) ([]model.TagCount, error)
	AllTags() ([]string, error)
	RelatedTags(tag string, limit int) ([]model.TagCount, error)
	GetTagDescription(tagName string) (*model.TagDescription, error)
	UpsertTagDescription(tagName, description string) error
}

// mysqlTagRepository implements TagRepository for MySQL.
type mysqlTagRepository struct {
	DB *sql.DB
}

// NewMySQLTagRepository creates a new instance of mysqlTagRepository.
func NewMySQLTagRepository() TagRepository {
	return &mysqlTagRepository{DB: db.DB}
}

func tagTable(kind model.CommentKind) (string, error) {
	switch kind {
	case model.KindVideo:
		return "videos", nil
	case model.KindTrack:
		return "tracks", nil
	default:
		return "", fmt.Errorf("no tag counts for kind %q", kind)
	}
}

// FirstTagCounts groups media rows by their first tag. The first tag acts as
// the primary category in listings.
func (r *mysqlTagRepository) FirstTagCounts(kind model.CommentKind) ([]model.TagCount, error) {
	table, err := tagTable(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT TRIM(SUBSTRING_INDEX(tags, ',', 1)) AS tag, COUNT(*) AS cnt
	           FROM %s
	           WHERE TRIM(tags) <> ''
	           GROUP BY tag
	           ORDER BY cnt DESC, tag ASC`, table)
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tag counts from %s: %w", table, err)
	}
	defer rows.Close()

	counts := make([]model.TagCount, 0)
	for rows.Next() {
		var tc model.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan tag count row: %w", err)
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

// AllTags collects every distinct tag across videos and tracks, lowercased
// for dedup but reported with the first spelling seen.
func (r *mysqlTagRepository) AllTags() ([]string, error) {
	seen := make(map[string]string)
	for _, table := range []string{"videos", "tracks"} {
		rows, err := r.DB.Query(fmt.Sprintf(`SELECT tags FROM %s WHERE TRIM(tags) <> ''`, table))
		if err != nil {
			return nil, fmt.Errorf("failed to query tags from %s: %w", table, err)
		}
		for rows.Next() {
			var tags string
			if err := rows.Scan(&tags); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan tags from %s: %w", table, err)
			}
			for _, t := range splitTags(tags) {
				key := strings.ToLower(t)
				if _, ok := seen[key]; !ok {
					seen[key] = t
				}
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	out := make([]string, 0, len(seen))
	for _, t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

// RelatedTags counts tags that co-occur with the given tag on the same media
// row, across videos and tracks.
func (r *mysqlTagRepository) RelatedTags(tag string, limit int) ([]model.TagCount, error) {
	target := strings.ToLower(strings.TrimSpace(tag))
	counts := make(map[string]*model.TagCount)
	for _, table := range []string{"videos", "tracks"} {
		query := fmt.Sprintf(`SELECT tags FROM %s WHERE `, table) + tagMatchExpr
		rows, err := r.DB.Query(query, strings.ReplaceAll(tag, " ", ""))
		if err != nil {
			return nil, fmt.Errorf("failed to query co-occurring tags from %s: %w", table, err)
		}
		for rows.Next() {
			var tags string
			if err := rows.Scan(&tags); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan tags from %s: %w", table, err)
			}
			for _, t := range splitTags(tags) {
				key := strings.ToLower(t)
				if key == target {
					continue
				}
				if c, ok := counts[key]; ok {
					c.Count++
				} else {
					counts[key] = &model.TagCount{Tag: t, Count: 1}
				}
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	out := make([]model.TagCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetTagDescription retrieves the prose attached to a tag. Returns (nil, nil)
// when none exists.
func (r *mysqlTagRepository) GetTagDescription(tagName string) (*model.TagDescription, error) {
	d := &model.TagDescription{}
	err := r.DB.QueryRow(`SELECT id, tag_name, description, created_at, updated_at
	           FROM tag_descriptions WHERE LOWER(tag_name) = LOWER(?)`, tagName).
		Scan(&d.ID, &d.TagName, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan description for tag %q: %w", tagName, err)
	}
	return d, nil
}

// UpsertTagDescription creates or replaces a tag's description.
func (r *mysqlTagRepository) UpsertTagDescription(tagName, description string) error {
	now := time.Now()
	query := `INSERT INTO tag_descriptions (tag_name, description, created_at, updated_at)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE description = VALUES(description), updated_at = VALUES(updated_at)`
	if _, err := r.DB.Exec(query, tagName, description, now, now); err != nil {
		return fmt.Errorf("failed to upsert description for tag %q: %w", tagName, err)
	}
	return nil
}
