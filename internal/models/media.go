package models

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/tapedeck/internal/shared"
)

// Kind is the type segment of a Spotify URI.
type Kind string

const (
	KindAlbum    Kind = "album"
	KindArtist   Kind = "artist"
	KindPlaylist Kind = "playlist"
	KindTrack    Kind = "track"
)

const uriScheme = "spotify"

// Kinds lists every recognized media kind.
var Kinds = []Kind{KindAlbum, KindArtist, KindPlaylist, KindTrack}

// IsMediaKind reports whether kind is one of album, artist, playlist or track.
func IsMediaKind(kind string) bool {
	for _, k := range Kinds {
		if string(k) == kind {
			return true
		}
	}
	return false
}

// ParseKind validates kind and returns it as a [Kind].
func ParseKind(kind string) (Kind, error) {
	if !IsMediaKind(kind) {
		return "", fmt.Errorf("%w: kind must be one of album, artist, playlist or track, received %q", shared.ErrValidation, kind)
	}
	return Kind(kind), nil
}

// Path returns the collection segment of the Web API for the kind, e.g. "albums".
func (k Kind) Path() string {
	return string(k) + "s"
}

// Context reports whether the kind is sent as a playback context_uri rather than a track list.
func (k Kind) Context() bool {
	return k != KindTrack
}

// Reference identifies a Spotify resource by kind and ID.
type Reference struct {
	Kind Kind
	ID   string
}

// NewReference validates kind and id and returns the [Reference].
func NewReference(id, kind string) (Reference, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return Reference{}, err
	}
	if err := validateID(id); err != nil {
		return Reference{}, err
	}
	return Reference{Kind: k, ID: id}, nil
}

// URI renders the reference as "spotify:<kind>:<id>".
func (r Reference) URI() string {
	return uriScheme + ":" + string(r.Kind) + ":" + r.ID
}

func (r Reference) String() string {
	return r.URI()
}

// IsZero reports whether r is the empty reference.
func (r Reference) IsZero() bool {
	return r.Kind == "" && r.ID == ""
}

// IDToURI returns "spotify:<kind>:<id>" for a recognized kind.
func IDToURI(id, kind string) (string, error) {
	ref, err := NewReference(id, kind)
	if err != nil {
		return "", err
	}
	return ref.URI(), nil
}

// ParseURI parses a "spotify:<kind>:<id>" URI. Exactly three segments are accepted.
func ParseURI(uri string) (Reference, error) {
	parts := strings.Split(uri, ":")
	if len(parts) != 3 || parts[0] != uriScheme {
		return Reference{}, fmt.Errorf("%w: malformed spotify URI %q", shared.ErrValidation, uri)
	}
	return NewReference(parts[2], parts[1])
}

// URIToID returns the ID segment of a well-formed Spotify URI.
func URIToID(uri string) (string, error) {
	ref, err := ParseURI(uri)
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

// ResolvePayload turns the text stored on a tag into a [Reference].
//
// Accepted forms are a Spotify URI, an open.spotify.com link, or a bare ID which takes defaultKind.
func ResolvePayload(payload string, defaultKind Kind) (Reference, error) {
	payload = strings.TrimSpace(payload)
	switch {
	case payload == "":
		return Reference{}, fmt.Errorf("%w: empty tag payload", shared.ErrValidation)
	case strings.HasPrefix(payload, uriScheme+":"):
		return ParseURI(payload)
	case strings.HasPrefix(payload, "https://") || strings.HasPrefix(payload, "http://"):
		return parseLink(payload)
	default:
		return NewReference(payload, string(defaultKind))
	}
}

// parseLink handles share links such as https://open.spotify.com/album/<id>?si=...
func parseLink(link string) (Reference, error) {
	u, err := url.Parse(link)
	if err != nil || !strings.HasSuffix(u.Hostname(), "spotify.com") {
		return Reference{}, fmt.Errorf("%w: not a spotify link %q", shared.ErrValidation, link)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) >= 2 && strings.HasPrefix(segments[0], "intl-") {
		segments = segments[1:]
	}
	if len(segments) != 2 {
		return Reference{}, fmt.Errorf("%w: unrecognized spotify link %q", shared.ErrValidation, link)
	}
	return NewReference(segments[1], segments[0])
}

func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id must not be empty", shared.ErrValidation)
	}
	// a colon would add a segment and break ParseURI
	if strings.Contains(id, ":") {
		return fmt.Errorf("%w: id %q must not contain ':'", shared.ErrValidation, id)
	}
	return nil
}
