package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/repositories"
	"github.com/desertthunder/tapedeck/internal/shared"
	tu "github.com/desertthunder/tapedeck/internal/testing"
	"github.com/urfave/cli/v3"
	"github.com/zmb3/spotify/v2"
)

const albumID = "0q9e8xVGwYZiYl9O08f2Ox"

type fixture struct {
	runner *Runner
	output *bytes.Buffer
	player *tu.MockPlayer
	repo   *repositories.TagRepository
	scans  *repositories.ScanRepository
}

func newFixture(t *testing.T, input string) *fixture {
	t.Helper()

	config := shared.DefaultConfig()
	config.Player.Debounce = shared.Duration{}
	db := tu.NewTestDB(t)
	output := &bytes.Buffer{}
	player := &tu.MockPlayer{}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
		Input:  strings.NewReader(input),
		Player: player,
		DB:     db,
	})

	return &fixture{
		runner: runner,
		output: output,
		player: player,
		repo:   repositories.NewTagRepository(db),
		scans:  repositories.NewScanRepository(db),
	}
}

func (f *fixture) run(args ...string) error {
	app := &cli.Command{
		Name:     "tapedeck",
		Flags:    globalFlags(),
		Before:   f.runner.Before,
		After:    f.runner.After,
		Commands: f.runner.register(),
		Writer:   io.Discard,
	}
	return app.Run(context.Background(), append([]string{"tapedeck"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			player := &tu.MockPlayer{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Player:     player,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if !runner.configured {
				t.Error("expected a supplied config to mark the runner configured")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.player != player {
				t.Error("expected player to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.configured {
				t.Error("expected runner to load config in Before")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.input != os.Stdin {
				t.Error("expected input to default to os.Stdin")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
			if runner.clock == nil || runner.browser == nil {
				t.Error("expected clock and browser defaults")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		seen := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			if seen[cmd.Name] {
				t.Errorf("duplicate command %q", cmd.Name)
			}
			seen[cmd.Name] = true
		}

		for _, name := range []string{"setup", "auth", "play", "info", "uri", "devices", "scan", "write", "tags", "menu"} {
			if !seen[name] {
				t.Errorf("expected %q to be registered", name)
			}
		}
	})

	t.Run("Before", func(t *testing.T) {
		t.Run("missing config file falls back to defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})
			app := &cli.Command{
				Name:     "tapedeck",
				Flags:    globalFlags(),
				Before:   runner.Before,
				Commands: []*cli.Command{uriCommand(runner)},
			}

			missing := filepath.Join(t.TempDir(), "missing.toml")
			if err := app.Run(context.Background(), []string{"tapedeck", "-c", missing, "uri", "--id", albumID}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.config.Player.DefaultKind != "album" {
				t.Errorf("expected default config, got %+v", runner.config.Player)
			}
		})

		t.Run("rejects unknown log level", func(t *testing.T) {
			f := newFixture(t, "")
			err := f.run("--log-level", "loud", "uri", "--id", albumID)
			if err == nil {
				t.Fatal("expected error for unknown log level")
			}
		})
	})
}

func TestPlayCommands(t *testing.T) {
	t.Run("play", func(t *testing.T) {
		t.Run("bare ID plays as album", func(t *testing.T) {
			f := newFixture(t, "")

			if err := f.run("play", albumID); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			played := f.player.Played()
			if len(played) != 1 || played[0].URI() != "spotify:album:"+albumID {
				t.Fatalf("unexpected playback: %v", played)
			}
			if !strings.Contains(f.output.String(), "Playing spotify:album:"+albumID) {
				t.Errorf("unexpected output %q", f.output.String())
			}
		})

		t.Run("kind flag selects track", func(t *testing.T) {
			f := newFixture(t, "")

			if err := f.run("play", "--kind", "track", "4uLU6hMCjMI75M1A2tKUQC"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if played := f.player.Played(); len(played) != 1 || played[0].Kind != models.KindTrack {
				t.Errorf("expected a track, got %v", played)
			}
		})

		t.Run("uri flag", func(t *testing.T) {
			f := newFixture(t, "")

			if err := f.run("play", "--uri", "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if played := f.player.Played(); len(played) != 1 || played[0].Kind != models.KindPlaylist {
				t.Errorf("expected a playlist, got %v", played)
			}
		})

		t.Run("id and uri together", func(t *testing.T) {
			f := newFixture(t, "")

			err := f.run("play", "--uri", "spotify:album:"+albumID, albumID)
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
			if len(f.player.Played()) != 0 {
				t.Error("expected nothing to play")
			}
		})

		t.Run("missing argument", func(t *testing.T) {
			f := newFixture(t, "")

			err := f.run("play")
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
			if len(f.player.Played()) != 0 {
				t.Error("expected nothing to play")
			}
		})

		t.Run("expired token without refresh token", func(t *testing.T) {
			f := newFixture(t, "")
			f.player.PlayFunc = func(models.Reference) (*models.Metadata, error) {
				return nil, shared.NewResponseError(shared.ErrRequest, http.StatusUnauthorized, []byte(`{"error":{"status":401}}`))
			}

			err := f.run("play", albumID)
			if !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired, got %v", err)
			}
			if len(f.player.Played()) != 1 {
				t.Errorf("expected a single attempt, got %d", len(f.player.Played()))
			}
		})
	})

	t.Run("info", func(t *testing.T) {
		album := `{"name":"Blue Train","artists":[{"name":"John Coltrane"}],"release_date":"1958","uri":"spotify:album:` + albumID + `"}`

		t.Run("prints metadata", func(t *testing.T) {
			f := newFixture(t, "")
			f.player.Media = map[string]*models.Metadata{"spotify:album:" + albumID: tu.MustMetadata(t, album)}

			if err := f.run("info", albumID); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			out := f.output.String()
			for _, want := range []string{"Blue Train", "John Coltrane", "1958"} {
				if !strings.Contains(out, want) {
					t.Errorf("expected %q in %q", want, out)
				}
			}
		})

		t.Run("json output", func(t *testing.T) {
			f := newFixture(t, "")
			f.player.Media = map[string]*models.Metadata{"spotify:album:" + albumID: tu.MustMetadata(t, album)}

			if err := f.run("info", "--json", albumID); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(f.output.String(), `"name": "Blue Train"`) {
				t.Errorf("expected raw JSON, got %q", f.output.String())
			}
		})

		t.Run("not found", func(t *testing.T) {
			f := newFixture(t, "")

			err := f.run("info", albumID)
			if !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("uri", func(t *testing.T) {
		t.Run("id to uri", func(t *testing.T) {
			f := newFixture(t, "")

			if err := f.run("uri", "--id", "abc", "--kind", "track"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if f.output.String() != "spotify:track:abc\n" {
				t.Errorf("unexpected output %q", f.output.String())
			}
		})

		t.Run("uri to id", func(t *testing.T) {
			f := newFixture(t, "")

			if err := f.run("uri", "--uri", "spotify:album:abc"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if f.output.String() != "abc\n" {
				t.Errorf("unexpected output %q", f.output.String())
			}
		})

		t.Run("id and uri together", func(t *testing.T) {
			f := newFixture(t, "")

			err := f.run("uri", "--id", "abc", "--uri", "spotify:album:abc")
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})

		t.Run("unknown kind", func(t *testing.T) {
			f := newFixture(t, "")

			err := f.run("uri", "--id", "abc", "--kind", "podcast")
			if !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})

		t.Run("malformed uri", func(t *testing.T) {
			f := newFixture(t, "")

			err := f.run("uri", "--uri", "spotify:album")
			if !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	})

	t.Run("devices", func(t *testing.T) {
		f := newFixture(t, "")
		f.player.DeviceList = []spotify.PlayerDevice{
			{ID: "dev-1", Name: "Kitchen", Type: "Speaker", Active: true},
			{ID: "dev-2", Name: "Laptop", Type: "Computer"},
		}

		if err := f.run("devices"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := f.output.String()
		if !strings.Contains(out, "Kitchen") || !strings.Contains(out, "dev-2") {
			t.Errorf("expected both devices, got %q", out)
		}
	})
}

func TestTagCommands(t *testing.T) {
	t.Run("add list remove", func(t *testing.T) {
		f := newFixture(t, "")

		if err := f.run("tags", "add", "--label", "Blue Train", "04:a2:1b", albumID); err != nil {
			t.Fatalf("add failed: %v", err)
		}

		tag, err := f.repo.GetByTagID("04:a2:1b")
		if err != nil {
			t.Fatalf("expected tag to be saved: %v", err)
		}
		if tag.URI != "spotify:album:"+albumID || tag.Label != "Blue Train" {
			t.Errorf("unexpected tag %+v", tag)
		}

		f.output.Reset()
		if err := f.run("tags", "list"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(f.output.String(), "04:a2:1b") {
			t.Errorf("expected tag in list, got %q", f.output.String())
		}

		if err := f.run("tags", "remove", "04:a2:1b"); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		if _, err := f.repo.GetByTagID("04:a2:1b"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected tag to be removed, got %v", err)
		}
	})

	t.Run("remove unknown tag", func(t *testing.T) {
		f := newFixture(t, "")

		if err := f.run("tags", "remove", "nope"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("export then import", func(t *testing.T) {
		f := newFixture(t, "")
		if err := f.run("tags", "add", "t1", albumID); err != nil {
			t.Fatalf("add failed: %v", err)
		}

		path := filepath.Join(t.TempDir(), "tags.csv")
		if err := f.run("tags", "export", "-o", path); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if !strings.Contains(tu.MustReadFile(t, path), "t1,spotify:album:"+albumID) {
			t.Errorf("unexpected export %q", tu.MustReadFile(t, path))
		}

		g := newFixture(t, "")
		if err := g.run("tags", "import", path); err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if _, err := g.repo.GetByTagID("t1"); err != nil {
			t.Errorf("expected imported tag, got %v", err)
		}
	})
}

func TestScanCommand(t *testing.T) {
	t.Run("plays library bindings and raw payloads", func(t *testing.T) {
		input := "04:a2:1b\tignored\n" + "spotify:track:4uLU6hMCjMI75M1A2tKUQC\n" + "spotify:album\n"
		f := newFixture(t, input)

		if err := f.repo.Save(models.NewTag("04:a2:1b", models.Reference{Kind: models.KindAlbum, ID: albumID}, "")); err != nil {
			t.Fatalf("failed to seed library: %v", err)
		}

		if err := f.run("scan"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		played := f.player.Played()
		if len(played) != 2 {
			t.Fatalf("expected 2 plays, got %v", played)
		}
		if played[0].URI() != "spotify:album:"+albumID {
			t.Errorf("expected library binding to win, got %s", played[0])
		}
		if played[1].Kind != models.KindTrack {
			t.Errorf("expected track, got %s", played[1])
		}

		history, err := f.scans.Recent("", 10)
		if err != nil {
			t.Fatalf("failed to read history: %v", err)
		}
		if len(history) != 3 {
			t.Errorf("expected 3 recorded scans, got %d", len(history))
		}

		out := f.output.String()
		if !strings.Contains(out, "Waiting for tags") || !strings.Contains(out, "failed") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("unknown kind flag", func(t *testing.T) {
		f := newFixture(t, "")

		if err := f.run("scan", "--kind", "podcast"); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestWriteCommand(t *testing.T) {
	t.Run("payload argument", func(t *testing.T) {
		f := newFixture(t, "")
		path := filepath.Join(t.TempDir(), "writer")

		if err := f.run("write", "-o", path, albumID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := tu.MustReadFile(t, path); got != "spotify:album:"+albumID+"\n" {
			t.Errorf("unexpected tag contents %q", got)
		}
		out := f.output.String()
		if !strings.Contains(out, "Waiting for tag...") || !strings.Contains(out, "ID written to tag!") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("prompts for the ID and saves the binding", func(t *testing.T) {
		f := newFixture(t, albumID+"\n")
		path := filepath.Join(t.TempDir(), "writer")

		if err := f.run("write", "-o", path, "--tag", "04:a2:1b", "--label", "Blue Train"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.HasPrefix(f.output.String(), "Spotify Album ID to write to tag: ") {
			t.Errorf("expected prompt, got %q", f.output.String())
		}
		tag, err := f.repo.GetByTagID("04:a2:1b")
		if err != nil {
			t.Fatalf("expected binding to be saved: %v", err)
		}
		if tag.Label != "Blue Train" {
			t.Errorf("unexpected label %q", tag.Label)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		f := newFixture(t, "")

		if err := f.run("write"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestSetupAndAuth(t *testing.T) {
	t.Run("setup creates config and database", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")

		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(dir, "tapedeck.db")
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})
		app := &cli.Command{Name: "tapedeck", Flags: globalFlags(), Before: runner.Before, After: runner.After, Commands: runner.register()}

		if err := app.Run(context.Background(), []string{"tapedeck", "-c", path, "setup"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, path)
		tu.AssertFileExists(t, config.Database.Path)
		if runner.db != nil {
			t.Error("expected After to close the database")
		}
	})

	t.Run("auth url", func(t *testing.T) {
		f := newFixture(t, "")
		f.runner.config.Credentials.Spotify = shared.SpotifyConfig{
			ClientID:     "client-123",
			ClientSecret: "secret",
			RedirectURI:  "http://127.0.0.1:8888/callback",
		}

		if err := f.run("auth", "--url"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := f.output.String()
		if !strings.Contains(out, "client_id=client-123") || !strings.Contains(out, "response_type=code") {
			t.Errorf("unexpected URL %q", out)
		}
	})

	t.Run("auth without credentials", func(t *testing.T) {
		f := newFixture(t, "")
		f.runner.config.Credentials.Spotify = shared.SpotifyConfig{}
		t.Setenv(shared.EnvClientID, "")
		t.Setenv(shared.EnvClientSecret, "")

		if err := f.run("auth"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}
