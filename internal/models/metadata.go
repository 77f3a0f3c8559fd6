package models

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/zmb3/spotify/v2"
)

// Metadata is the JSON body returned by the Web API for a media lookup or playback call.
//
// The payload is kept opaque; callers read individual fields with [Metadata.Get] or decode a
// typed view such as [Metadata.Album].
type Metadata struct {
	raw []byte
}

// NewMetadata wraps raw, which must be valid JSON.
func NewMetadata(raw []byte) (*Metadata, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("invalid metadata payload: %.64q", raw)
	}
	return &Metadata{raw: raw}, nil
}

// Raw returns the payload as received.
func (m *Metadata) Raw() []byte {
	return m.raw
}

// Map decodes the payload into a generic map.
func (m *Metadata) Map() (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(m.raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return out, nil
}

// Get returns the value at a gjson path, e.g. "artists.0.name".
func (m *Metadata) Get(path string) gjson.Result {
	return gjson.GetBytes(m.raw, path)
}

// Name returns the top level "name" field.
func (m *Metadata) Name() string {
	return m.Get("name").String()
}

// ArtistName returns the first artist's name, falling back to the playlist owner.
func (m *Metadata) ArtistName() string {
	if v := m.Get("artists.0.name"); v.Exists() {
		return v.String()
	}
	return m.Get("owner.display_name").String()
}

// URI returns the "uri" field when present.
func (m *Metadata) URI() string {
	return m.Get("uri").String()
}

// Summary renders "Name - Artist", or just the name when no artist is present.
func (m *Metadata) Summary() string {
	name, artist := m.Name(), m.ArtistName()
	switch {
	case name == "":
		return artist
	case artist == "":
		return name
	default:
		return name + " - " + artist
	}
}

// Album decodes the payload as a full album object.
func (m *Metadata) Album() (*spotify.FullAlbum, error) {
	return decodeAs[spotify.FullAlbum](m)
}

// Artist decodes the payload as a full artist object.
func (m *Metadata) Artist() (*spotify.FullArtist, error) {
	return decodeAs[spotify.FullArtist](m)
}

// Playlist decodes the payload as a full playlist object.
func (m *Metadata) Playlist() (*spotify.FullPlaylist, error) {
	return decodeAs[spotify.FullPlaylist](m)
}

// Track decodes the payload as a full track object.
func (m *Metadata) Track() (*spotify.FullTrack, error) {
	return decodeAs[spotify.FullTrack](m)
}

func decodeAs[T any](m *Metadata) (*T, error) {
	var v T
	if err := json.Unmarshal(m.raw, &v); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return &v, nil
}

// MarshalJSON writes the payload unchanged.
func (m *Metadata) MarshalJSON() ([]byte, error) {
	if m == nil || len(m.raw) == 0 {
		return []byte("null"), nil
	}
	return m.raw, nil
}
