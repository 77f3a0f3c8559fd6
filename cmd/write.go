package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/reader"
	"github.com/desertthunder/tapedeck/internal/repositories"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/urfave/cli/v3"
)

// Write programs a tag with the URI for the given ID, URI or link, prompting for it when omitted.
//
// With --tag the binding is also saved to the tag library, so tags whose payload cannot be
// rewritten still resolve when scanned.
func (r *Runner) Write(ctx context.Context, cmd *cli.Command) error {
	payload := cmd.StringArg("payload")
	if payload == "" {
		var err error
		if payload, err = r.prompt("Spotify Album ID to write to tag: "); err != nil {
			return err
		}
	}

	kind, err := r.kind(cmd)
	if err != nil {
		return err
	}
	ref, err := models.ResolvePayload(payload, kind)
	if err != nil {
		return err
	}

	out, closeOutput, err := r.openOutput(cmd.String("output"))
	if err != nil {
		return err
	}
	defer closeOutput()

	if err := r.writePlain("Place the tag on the reader. Waiting for tag...\n"); err != nil {
		return err
	}
	if err := reader.NewLineWriter(out).Write(ctx, ref.URI()); err != nil {
		return err
	}
	r.logger.Debug("tag written", "uri", ref.URI())

	if tagID := cmd.String("tag"); tagID != "" {
		db, err := r.database()
		if err != nil {
			return err
		}
		tag := models.NewTag(tagID, ref, cmd.String("label"))
		if err := repositories.NewTagRepository(db).Save(tag); err != nil {
			return fmt.Errorf("tag written but not saved to library: %w", err)
		}
		r.logger.Info("tag saved to library", "tag", tagID, "uri", tag.URI)
	}

	return r.writePlain("ID written to tag!\n")
}

// prompt prints label and reads one trimmed line from the runner's input.
func (r *Runner) prompt(label string) (string, error) {
	if err := r.writePlain("%s", label); err != nil {
		return "", err
	}

	line, err := bufio.NewReader(r.input).ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("%w: no input: %v", shared.ErrMissingArgument, err)
		}
		return "", fmt.Errorf("%w: empty input", shared.ErrMissingArgument)
	}
	return line, nil
}
