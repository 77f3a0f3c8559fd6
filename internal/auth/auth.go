package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/tapedeck/internal/shared"
	"golang.org/x/oauth2"
)

// Spotify accounts service endpoints.
const (
	AuthURL  = "https://accounts.spotify.com/authorize"
	TokenURL = "https://accounts.spotify.com/api/token"
)

// DefaultScopes are enough to start playback and list devices.
var DefaultScopes = []string{"user-modify-playback-state", "user-read-playback-state"}

// Credentials identify the registered application.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// CredentialsFromConfig copies the application credentials out of the loaded config.
func CredentialsFromConfig(c shared.SpotifyConfig) Credentials {
	return Credentials{ClientID: c.ClientID, ClientSecret: c.ClientSecret, RedirectURI: c.RedirectURI}
}

// Validate checks that every field is present.
func (c Credentials) Validate() error {
	switch {
	case c.ClientID == "":
		return fmt.Errorf("%w: client_id", shared.ErrMissingCredentials)
	case c.ClientSecret == "":
		return fmt.Errorf("%w: client_secret", shared.ErrMissingCredentials)
	case c.RedirectURI == "":
		return fmt.Errorf("%w: redirect_uri", shared.ErrMissingCredentials)
	}
	return nil
}

// TokenPair is the result of a code exchange or refresh.
//
// Expiry is zero when the provider did not report expires_in.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	Scope        string
}

// Expired reports whether the access token has passed its expiry at now.
// A pair without an expiry never reports expired.
func (p TokenPair) Expired(now time.Time) bool {
	return !p.Expiry.IsZero() && !now.Before(p.Expiry)
}

func newTokenPair(tok *oauth2.Token) TokenPair {
	pair := TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		pair.Scope = scope
	}
	return pair
}

// Exchanger trades an authorization code for tokens.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (TokenPair, error)
}

// Refresher trades a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
}

var (
	_ Exchanger = (*Authorizer)(nil)
	_ Refresher = (*Authorizer)(nil)
)
