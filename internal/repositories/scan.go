package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

const scanColumns = `id, tag_id, payload, uri, status, error, scanned_at`

// ScanRepository appends to and reads the scan history.
type ScanRepository struct {
	db *sql.DB
}

// NewScanRepository creates a new ScanRepository with the given database connection
func NewScanRepository(db *sql.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Record inserts scan, assigning its ID and a timestamp when unset.
func (r *ScanRepository) Record(scan *models.Scan) error {
	if err := scan.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	scan.ID = shared.GenerateID()
	if scan.ScannedAt.IsZero() {
		scan.ScannedAt = time.Now().UTC()
	}

	query := `INSERT INTO scans (` + scanColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query,
		scan.ID,
		scan.TagID,
		scan.Payload,
		scan.URI,
		string(scan.Status),
		scan.Error,
		scan.ScannedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}
	return nil
}

// Recent returns up to limit scans, newest first. tagID filters by hardware tag when non-empty.
func (r *ScanRepository) Recent(tagID string, limit int) ([]*models.Scan, error) {
	query := `SELECT ` + scanColumns + ` FROM scans`
	args := []any{}

	if tagID != "" {
		query += " WHERE tag_id = ?"
		args = append(args, tagID)
	}

	query += " ORDER BY scanned_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var scans []*models.Scan
	for rows.Next() {
		var (
			scan   models.Scan
			status string
		)
		if err := rows.Scan(&scan.ID, &scan.TagID, &scan.Payload, &scan.URI, &status, &scan.Error, &scan.ScannedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scan record: %w", err)
		}
		scan.Status = models.ScanStatus(status)
		scans = append(scans, &scan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return scans, nil
}
