package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

const tagColumns = `id, tag_id, uri, label, created_at, updated_at`

// TagRepository stores the tag library.
type TagRepository struct {
	db *sql.DB
}

// NewTagRepository creates a new TagRepository with the given database connection
func NewTagRepository(db *sql.DB) *TagRepository {
	return &TagRepository{db: db}
}

// Save inserts tag, or rebinds an existing row with the same hardware ID to the new URI and label.
// tag.ID is set to the stored row's ID.
func (r *TagRepository) Save(tag *models.Tag) error {
	if err := tag.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = now
	}
	tag.UpdatedAt = now

	query := `
		INSERT INTO tags (` + tagColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(tag_id) DO UPDATE SET
			uri = excluded.uri,
			label = excluded.label,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, shared.GenerateID(), tag.TagID, tag.URI, tag.Label, tag.CreatedAt, tag.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save tag: %w", err)
	}

	stored, err := r.GetByTagID(tag.TagID)
	if err != nil {
		return err
	}
	tag.ID = stored.ID
	tag.CreatedAt = stored.CreatedAt
	return nil
}

// GetByTagID retrieves the binding for a hardware tag ID.
func (r *TagRepository) GetByTagID(tagID string) (*models.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags WHERE tag_id = ?`

	tag, err := scanTag(r.db.QueryRow(query, tagID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: tag %s", shared.ErrNotFound, tagID)
	}
	return tag, err
}

// List returns every binding ordered by label then tag ID.
func (r *TagRepository) List() ([]*models.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags ORDER BY label ASC, tag_id ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tags, nil
}

// Delete removes the binding for a hardware tag ID.
func (r *TagRepository) Delete(tagID string) error {
	result, err := r.db.Exec(`DELETE FROM tags WHERE tag_id = ?`, tagID)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	return expectAffected(result, "tag", tagID)
}

func scanTag(row rowScanner) (*models.Tag, error) {
	var tag models.Tag
	err := row.Scan(&tag.ID, &tag.TagID, &tag.URI, &tag.Label, &tag.CreatedAt, &tag.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan tag: %w", err)
	}
	return &tag, nil
}
