package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml next to the --config path and creates the tag library database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		r.logger.Warn("config not written", "error", err)
	} else {
		r.logger.Info("config file created", "path", path)
		if err := r.writePlain("Created %s; fill in [credentials.spotify] before running auth.\n", path); err != nil {
			return err
		}
	}

	if _, err := r.database(); err != nil {
		return err
	}
	return r.writePlain("Database ready at %s\n", r.config.Database.Path)
}

// kind returns the --kind flag, falling back to player.default_kind.
func (r *Runner) kind(cmd *cli.Command) (models.Kind, error) {
	k := cmd.String("kind")
	if k == "" {
		k = r.config.Player.DefaultKind
	}
	if k == "" {
		return models.KindAlbum, nil
	}
	return models.ParseKind(k)
}

// reference resolves a payload argument (ID, URI or link) or the --uri flag.
func (r *Runner) reference(cmd *cli.Command, arg string) (models.Reference, error) {
	payload := cmd.StringArg(arg)
	if uri := cmd.String("uri"); uri != "" {
		if payload != "" {
			return models.Reference{}, fmt.Errorf("%w: cannot specify both %s and --uri", shared.ErrInvalidArgument, arg)
		}
		payload = uri
	}
	if payload == "" {
		return models.Reference{}, fmt.Errorf("%w: %s or --uri", shared.ErrMissingArgument, arg)
	}

	kind, err := r.kind(cmd)
	if err != nil {
		return models.Reference{}, err
	}
	return models.ResolvePayload(payload, kind)
}
