package main

import (
	"context"
	"time"

	"github.com/desertthunder/tapedeck/internal/auth"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/urfave/cli/v3"
)

// Auth runs the browser login and prints a summary of the tokens, never the tokens themselves.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("url") {
		creds, opts, err := r.authOptions()
		if err != nil {
			return err
		}
		a, err := auth.New(creds, opts...)
		if err != nil {
			return err
		}
		return r.writePlain("%s\n", a.AuthorizationURL())
	}

	r.logger.Info("opening browser for Spotify login", "redirect_uri", r.config.Credentials.Spotify.RedirectURI)
	pair, err := r.login(ctx)
	if err != nil {
		return err
	}
	if err := r.writeTokenSummary("Logged in", pair); err != nil {
		return err
	}

	if !cmd.Bool("refresh") {
		return nil
	}
	if err := r.refresh(ctx); err != nil {
		return err
	}
	return r.writeTokenSummary("Refreshed", r.tokens)
}

func (r *Runner) writeTokenSummary(heading string, pair auth.TokenPair) error {
	expiry := "unknown"
	if !pair.Expiry.IsZero() {
		expiry = pair.Expiry.Local().Format(time.RFC3339)
	}

	return r.writePlain("%s\n  access token:  %s\n  refresh token: %t\n  expires:       %s\n  scope:         %s\n",
		heading, shared.MaskToken(pair.AccessToken), pair.RefreshToken != "", expiry, pair.Scope)
}
