package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/tapedeck/internal/shared"
)

// Tag is a library entry binding a hardware tag to a Spotify URI.
type Tag struct {
	ID        string
	TagID     string
	URI       string
	Label     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTag builds a [Tag] for tagID pointing at ref.
func NewTag(tagID string, ref Reference, label string) *Tag {
	now := time.Now().UTC()
	return &Tag{
		TagID:     tagID,
		URI:       ref.URI(),
		Label:     label,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Reference parses the stored URI.
func (t *Tag) Reference() (Reference, error) {
	return ParseURI(t.URI)
}

// Validate checks that the tag has a hardware ID and a well-formed URI.
func (t *Tag) Validate() error {
	if t.TagID == "" {
		return fmt.Errorf("%w: tag id is required", shared.ErrValidation)
	}
	if _, err := ParseURI(t.URI); err != nil {
		return err
	}
	return nil
}

// ScanStatus is the outcome of a handled tag read.
type ScanStatus string

const (
	ScanPlayed  ScanStatus = "played"
	ScanSkipped ScanStatus = "skipped"
	ScanFailed  ScanStatus = "failed"
)

// Scan records one tag read handled by the scan loop.
type Scan struct {
	ID        string
	TagID     string
	Payload   string
	URI       string
	Status    ScanStatus
	Error     string
	ScannedAt time.Time
}

// Validate checks the status is known.
func (s *Scan) Validate() error {
	switch s.Status {
	case ScanPlayed, ScanSkipped, ScanFailed:
		return nil
	default:
		return fmt.Errorf("%w: unknown scan status %q", shared.ErrValidation, s.Status)
	}
}
