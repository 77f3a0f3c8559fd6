package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"github.com/zmb3/spotify/v2"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"
	requestTimeout = 15 * time.Second
)

// SpotifyService calls the Spotify Web API with a fixed bearer token.
type SpotifyService struct {
	client   *resty.Client
	deviceID string
	logger   *log.Logger
}

// Option configures a [SpotifyService].
type Option func(*SpotifyService)

// WithBaseURL points the client at a different API root.
func WithBaseURL(baseURL string) Option {
	return func(s *SpotifyService) { s.client.SetBaseURL(baseURL) }
}

// WithDevice targets playback at a specific device instead of the active one.
func WithDevice(deviceID string) Option {
	return func(s *SpotifyService) { s.deviceID = deviceID }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *SpotifyService) { s.logger = l }
}

// NewSpotifyService creates a client that sends accessToken as a bearer token on every request.
func NewSpotifyService(accessToken string, opts ...Option) (*SpotifyService, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: access token", shared.ErrMissingCredentials)
	}

	client := resty.NewWithClient(&http.Client{Timeout: requestTimeout}).
		SetBaseURL(spotifyBaseURL).
		SetHeader("Accept", "application/json").
		SetAuthToken(accessToken)

	s := &SpotifyService{client: client}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(nil)
	}
	return s, nil
}

// Name returns the provider name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// SetAccessToken replaces the bearer token, e.g. after a refresh.
func (s *SpotifyService) SetAccessToken(token string) {
	s.client.SetAuthToken(token)
}

// IDToURI builds "spotify:<kind>:<id>".
func (s *SpotifyService) IDToURI(id, kind string) (string, error) {
	return models.IDToURI(id, kind)
}

// URIToID returns the ID segment of a Spotify URI.
func (s *SpotifyService) URIToID(uri string) (string, error) {
	return models.URIToID(uri)
}

// TypeIsMedia reports whether kind is a recognized media kind.
func (s *SpotifyService) TypeIsMedia(kind string) bool {
	return models.IsMediaKind(kind)
}

// GetMedia fetches GET /{kind}s/{id}. A 404 returns nil metadata and no error.
func (s *SpotifyService) GetMedia(ctx context.Context, id, kind string) (*models.Metadata, error) {
	ref, err := models.NewReference(id, kind)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"kind": ref.Kind.Path(), "id": ref.ID}).
		Get("/{kind}/{id}")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRequest, err)
	}

	s.logger.Debug("media lookup", "uri", ref.URI(), "status", resp.StatusCode())

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, nil
	case !resp.IsSuccess():
		return nil, shared.NewResponseError(shared.ErrRequest, resp.StatusCode(), resp.Body())
	}
	return decodeMetadata(resp.Body())
}

// Play starts playback of ref with PUT /me/player/play.
//
// Albums, artists and playlists are sent as a context_uri; tracks as a single-entry uris list.
// Any success status means playback started; the body is returned only when it is JSON.
func (s *SpotifyService) Play(ctx context.Context, ref models.Reference) (*models.Metadata, error) {
	if _, err := models.NewReference(ref.ID, string(ref.Kind)); err != nil {
		return nil, err
	}

	req := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(playBody(ref))
	if s.deviceID != "" {
		req.SetQueryParam("device_id", s.deviceID)
	}

	resp, err := req.Put("/me/player/play")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRequest, err)
	}

	s.logger.Debug("play", "uri", ref.URI(), "device", s.deviceID, "status", resp.StatusCode())

	if !resp.IsSuccess() {
		return nil, shared.NewResponseError(shared.ErrRequest, resp.StatusCode(), resp.Body())
	}
	if !gjson.ValidBytes(resp.Body()) {
		if len(resp.Body()) > 0 {
			s.logger.Debug("ignoring non-JSON play response", "body", string(resp.Body()))
		}
		return nil, nil
	}
	return decodeMetadata(resp.Body())
}

// PlayURI parses uri and plays it.
func (s *SpotifyService) PlayURI(ctx context.Context, uri string) (*models.Metadata, error) {
	ref, err := models.ParseURI(uri)
	if err != nil {
		return nil, err
	}
	return s.Play(ctx, ref)
}

type devicesResponse struct {
	Devices []spotify.PlayerDevice `json:"devices"`
}

// Devices lists the user's available playback devices.
func (s *SpotifyService) Devices(ctx context.Context) ([]spotify.PlayerDevice, error) {
	var result devicesResponse
	resp, err := s.client.R().
		SetContext(ctx).
		Get("/me/player/devices")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRequest, err)
	}
	if !resp.IsSuccess() {
		return nil, shared.NewResponseError(shared.ErrRequest, resp.StatusCode(), resp.Body())
	}

	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode devices: %v", shared.ErrRequest, err)
	}
	return result.Devices, nil
}

func playBody(ref models.Reference) map[string]any {
	if ref.Kind.Context() {
		return map[string]any{"context_uri": ref.URI()}
	}
	return map[string]any{"uris": []string{ref.URI()}}
}

func decodeMetadata(body []byte) (*models.Metadata, error) {
	md, err := models.NewMetadata(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRequest, err)
	}
	return md, nil
}
