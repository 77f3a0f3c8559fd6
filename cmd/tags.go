package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/tapedeck/internal/formatter"
	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/repositories"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/urfave/cli/v3"
)

type tagJSON struct {
	TagID     string `json:"tag_id"`
	URI       string `json:"uri"`
	Label     string `json:"label,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

func (r *Runner) tagRepository() (*repositories.TagRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewTagRepository(db), nil
}

// TagsList prints the tag library.
func (r *Runner) TagsList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.tagRepository()
	if err != nil {
		return err
	}

	tags, err := repo.List()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]tagJSON, 0, len(tags))
		for _, t := range tags {
			out = append(out, tagJSON{TagID: t.TagID, URI: t.URI, Label: t.Label, UpdatedAt: t.UpdatedAt.Format(time.RFC3339)})
		}
		return r.writeJSON(out, true)
	}

	if len(tags) == 0 {
		return r.writePlain("No tags in the library. Add one with: tapedeck tags add <tag-id> <spotify-id>\n")
	}
	return r.writeBytes(formatter.TagsToText(tags))
}

// TagsAdd binds a hardware tag ID to a Spotify reference, replacing any existing binding.
func (r *Runner) TagsAdd(ctx context.Context, cmd *cli.Command) error {
	tagID := cmd.StringArg("tag")
	if tagID == "" {
		return fmt.Errorf("%w: tag", shared.ErrMissingArgument)
	}
	payload := cmd.StringArg("payload")
	if payload == "" {
		return fmt.Errorf("%w: payload", shared.ErrMissingArgument)
	}

	kind, err := r.kind(cmd)
	if err != nil {
		return err
	}
	ref, err := models.ResolvePayload(payload, kind)
	if err != nil {
		return err
	}

	repo, err := r.tagRepository()
	if err != nil {
		return err
	}

	tag := models.NewTag(tagID, ref, cmd.String("label"))
	if err := repo.Save(tag); err != nil {
		return err
	}
	return r.writePlain("Bound %s to %s\n", tag.TagID, tag.URI)
}

// TagsRemove deletes a binding.
func (r *Runner) TagsRemove(ctx context.Context, cmd *cli.Command) error {
	tagID := cmd.StringArg("tag")
	if tagID == "" {
		return fmt.Errorf("%w: tag", shared.ErrMissingArgument)
	}

	repo, err := r.tagRepository()
	if err != nil {
		return err
	}
	if err := repo.Delete(tagID); err != nil {
		return err
	}
	return r.writePlain("Removed %s\n", tagID)
}

// TagsHistory prints recent scans, newest first.
func (r *Runner) TagsHistory(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	scans, err := repositories.NewScanRepository(db).Recent(cmd.String("tag"), int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	if len(scans) == 0 {
		return r.writePlain("No scans recorded.\n")
	}
	return r.writeBytes(formatter.ScansToText(scans))
}

// TagsExport writes the library as CSV.
func (r *Runner) TagsExport(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.tagRepository()
	if err != nil {
		return err
	}
	tags, err := repo.List()
	if err != nil {
		return err
	}

	data, err := formatter.TagsToCSV(tags)
	if err != nil {
		return err
	}

	path := cmd.String("output")
	if path == "" || path == "-" {
		return r.writeBytes(data)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	r.logger.Info("library exported", "path", path, "tags", len(tags))
	return nil
}

// TagsImport loads bindings from a CSV export. Existing tag IDs are rebound.
func (r *Runner) TagsImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open import: %w", err)
	}
	defer f.Close()

	tags, err := formatter.ParseTagsCSV(f)
	if err != nil {
		return err
	}

	repo, err := r.tagRepository()
	if err != nil {
		return err
	}
	for _, tag := range tags {
		if err := repo.Save(tag); err != nil {
			return fmt.Errorf("failed to import %s: %w", tag.TagID, err)
		}
	}
	return r.writePlain("Imported %d tags\n", len(tags))
}
