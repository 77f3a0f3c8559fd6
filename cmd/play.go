package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tapedeck/internal/formatter"
	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/urfave/cli/v3"
	"github.com/zmb3/spotify/v2"
)

// Play starts playback of the given ID, URI or link.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	ref, err := r.reference(cmd, "id")
	if err != nil {
		return err
	}

	player, err := r.client(ctx, cmd)
	if err != nil {
		return err
	}

	r.logger.Debug("starting playback", "uri", ref.URI())
	err = r.withRefresh(ctx, func() error {
		_, err := player.Play(ctx, ref)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to play %s: %w", ref, err)
	}
	return r.writePlain("Playing %s\n", ref)
}

// Info prints metadata for the given ID, URI or link.
func (r *Runner) Info(ctx context.Context, cmd *cli.Command) error {
	ref, err := r.reference(cmd, "id")
	if err != nil {
		return err
	}

	player, err := r.client(ctx, cmd)
	if err != nil {
		return err
	}

	var md *models.Metadata
	err = r.withRefresh(ctx, func() error {
		var err error
		md, err = player.GetMedia(ctx, ref.ID, string(ref.Kind))
		return err
	})
	switch {
	case err != nil:
		return fmt.Errorf("failed to fetch %s: %w", ref, err)
	case md == nil:
		return fmt.Errorf("%w: %s", shared.ErrNotFound, ref)
	}

	if cmd.Bool("json") {
		return r.writeJSON(md, true)
	}
	return r.writeBytes(formatter.MetadataToText(ref, md))
}

// URI converts between bare IDs and Spotify URIs offline.
func (r *Runner) URI(ctx context.Context, cmd *cli.Command) error {
	if cmd.String("uri") != "" && cmd.String("id") != "" {
		return fmt.Errorf("%w: cannot specify both --id and --uri", shared.ErrInvalidArgument)
	}

	if uri := cmd.String("uri"); uri != "" {
		id, err := models.URIToID(uri)
		if err != nil {
			return err
		}
		return r.writePlain("%s\n", id)
	}

	id := cmd.String("id")
	if id == "" {
		return fmt.Errorf("%w: --id or --uri", shared.ErrMissingArgument)
	}
	kind, err := r.kind(cmd)
	if err != nil {
		return err
	}

	uri, err := models.IDToURI(id, string(kind))
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", uri)
}

// Devices lists Spotify Connect devices.
func (r *Runner) Devices(ctx context.Context, cmd *cli.Command) error {
	player, err := r.client(ctx, cmd)
	if err != nil {
		return err
	}

	var devices []spotify.PlayerDevice
	err = r.withRefresh(ctx, func() error {
		var err error
		devices, err = player.Devices(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(devices, true)
	}
	if len(devices) == 0 {
		return r.writePlain("No devices available. Open Spotify on a device and try again.\n")
	}
	return r.writeBytes(formatter.DevicesToText(devices))
}
