// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/reader"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/zmb3/spotify/v2"
)

// MockPlayer is a test double for [services.Player] that records every reference played.
type MockPlayer struct {
	mu     sync.Mutex
	played []models.Reference

	// PlayFunc overrides the default nil, nil result when set.
	PlayFunc func(ref models.Reference) (*models.Metadata, error)
	// Media maps URIs to the metadata GetMedia returns; unknown URIs return nil, nil.
	Media map[string]*models.Metadata
	// DeviceList is returned by Devices.
	DeviceList []spotify.PlayerDevice
}

func (m *MockPlayer) Play(ctx context.Context, ref models.Reference) (*models.Metadata, error) {
	m.mu.Lock()
	m.played = append(m.played, ref)
	fn := m.PlayFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ref)
	}
	return nil, nil
}

func (m *MockPlayer) GetMedia(ctx context.Context, id, kind string) (*models.Metadata, error) {
	ref, err := models.NewReference(id, kind)
	if err != nil {
		return nil, err
	}
	return m.Media[ref.URI()], nil
}

func (m *MockPlayer) Devices(ctx context.Context) ([]spotify.PlayerDevice, error) {
	return m.DeviceList, nil
}

// Played returns a copy of the references passed to Play.
func (m *MockPlayer) Played() []models.Reference {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Reference(nil), m.played...)
}

// MockReader returns Tags in order, then io.EOF.
type MockReader struct {
	mu   sync.Mutex
	Tags []reader.Tag
	next int
}

func NewMockReader(tags ...reader.Tag) *MockReader {
	return &MockReader{Tags: tags}
}

func (m *MockReader) Read(ctx context.Context) (reader.Tag, error) {
	if err := ctx.Err(); err != nil {
		return reader.Tag{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.next >= len(m.Tags) {
		return reader.Tag{}, io.EOF
	}
	tag := m.Tags[m.next]
	m.next++
	return tag, nil
}

// MustMetadata wraps raw JSON or fails the test.
func MustMetadata(t *testing.T, raw string) *models.Metadata {
	t.Helper()
	md, err := models.NewMetadata([]byte(raw))
	if err != nil {
		t.Fatalf("invalid metadata: %v", err)
	}
	return md
}

// NewTestDB opens an in-memory database with migrations applied and closes it on cleanup.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
