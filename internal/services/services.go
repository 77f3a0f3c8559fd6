package services

import (
	"context"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/zmb3/spotify/v2"
)

// Player starts playback and looks up media. [SpotifyService] is the production implementation.
type Player interface {
	// Play starts playback of ref on the active (or configured) device.
	Play(ctx context.Context, ref models.Reference) (*models.Metadata, error)

	// GetMedia fetches metadata for id. A missing resource returns nil, nil.
	GetMedia(ctx context.Context, id, kind string) (*models.Metadata, error)
}

// DeviceLister lists the user's playback devices.
type DeviceLister interface {
	Devices(ctx context.Context) ([]spotify.PlayerDevice, error)
}

// TokenSetter accepts a replacement access token after a refresh.
type TokenSetter interface {
	SetAccessToken(token string)
}

var (
	_ Player       = (*SpotifyService)(nil)
	_ DeviceLister = (*SpotifyService)(nil)
	_ TokenSetter  = (*SpotifyService)(nil)
)
