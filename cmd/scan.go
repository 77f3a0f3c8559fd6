package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/desertthunder/tapedeck/internal/reader"
	"github.com/desertthunder/tapedeck/internal/repositories"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/desertthunder/tapedeck/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Scan reads tags from --input and plays each one until the input ends or the process is interrupted.
func (r *Runner) Scan(ctx context.Context, cmd *cli.Command) error {
	in, closeInput, err := r.openInput(cmd.String("input"))
	if err != nil {
		return err
	}
	defer closeInput()

	kind, err := r.kind(cmd)
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	player, err := r.client(ctx, cmd)
	if err != nil {
		return err
	}

	deck, err := tasks.NewDeck(tasks.DeckConfig{
		Reader:      reader.NewLineReader(in),
		Player:      player,
		Library:     repositories.NewTagRepository(db),
		History:     repositories.NewScanRepository(db),
		Refresh:     r.refresh,
		DefaultKind: kind,
		Debounce:    r.config.Player.Debounce.Duration,
		Clock:       r.clock,
		Logger:      shared.WithLogger(r.logger, "task", "scan"),
	})
	if err != nil {
		return err
	}

	if err := r.writePlain("Place a tag on the reader. Waiting for tags...\n"); err != nil {
		return err
	}

	events := make(chan tasks.ScanEvent, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range events {
			if err := r.writePlain("%s\n", event.Message()); err != nil {
				r.logger.Error("failed to write scan event", "error", err)
			}
		}
	}()

	err = deck.Run(ctx, events)
	close(events)
	<-done

	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("scan loop stopped: %w", err)
	}
	return nil
}

// openInput opens a reader device or file; "-" and "" mean the runner's input.
func (r *Runner) openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return r.input, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open reader %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}

// openOutput opens a writer device or file for appending; "-" and "" mean the runner's output.
func (r *Runner) openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return r.output, func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open writer %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}
