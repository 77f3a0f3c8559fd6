package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tapedeck/internal/auth"
	"github.com/desertthunder/tapedeck/internal/services"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/jonboulle/clockwork"
	"github.com/urfave/cli/v3"
)

// Player is what commands need from the Web API client.
type Player interface {
	services.Player
	services.DeviceLister
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configured bool
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	httpClient *http.Client
	browser    shared.BrowserFunc
	clock      clockwork.Clock

	player     Player
	spotify    *services.SpotifyService
	authorizer *auth.Authorizer
	tokens     auth.TokenPair
	db         *sql.DB
	ownsDB     bool
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A non-nil Config is used as-is and the --config flag is ignored. A non-nil Player replaces the
// Spotify client and skips the login.
type RunnerOpts struct {
	Config     *shared.Config
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	HTTPClient *http.Client
	Browser    shared.BrowserFunc
	Clock      clockwork.Clock
	Player     Player
	DB         *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	configured := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Browser == nil {
		opts.Browser = shared.OpenBrowser
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	return &Runner{
		config:     opts.Config,
		configured: configured,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		httpClient: opts.HTTPClient,
		browser:    opts.Browser,
		clock:      opts.Clock,
		player:     opts.Player,
		db:         opts.DB,
	}
}

// SetLogger replaces the logger, e.g. to redirect output while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playCommand, infoCommand, uriCommand, devicesCommand,
		scanCommand, writeCommand, tagsCommand, menuCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads configuration and applies the environment and log level.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if !r.configured {
		path := cmd.String("config")
		config, err := shared.LoadConfig(path)
		switch {
		case errors.Is(err, shared.ErrMissingConfig):
			r.logger.Debug("config file not found, using defaults", "path", path)
			config = shared.DefaultConfig()
		case err != nil:
			return ctx, err
		}
		r.config = config
		r.configured = true
	}

	r.config.ApplyEnv(os.Getenv)

	level := r.config.Log.Level
	if l := cmd.String("log-level"); l != "" {
		level = l
	}
	if err := shared.SetLogLevel(r.logger, level); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// After closes the database if the runner opened it.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.db != nil && r.ownsDB {
		err := r.db.Close()
		r.db = nil
		return err
	}
	return nil
}

// client returns the Web API client, logging in first unless an access token was supplied.
func (r *Runner) client(ctx context.Context, cmd *cli.Command) (Player, error) {
	if r.player != nil {
		return r.player, nil
	}

	token := cmd.String("token")
	if token == "" {
		if _, err := r.login(ctx); err != nil {
			return nil, err
		}
		token = r.tokens.AccessToken
	} else {
		r.logger.Debug("using supplied access token", "token", shared.MaskToken(token))
	}

	device := r.config.Player.DeviceID
	if d := cmd.String("device"); d != "" {
		device = d
	}

	svc, err := services.NewSpotifyService(token,
		services.WithDevice(device),
		services.WithLogger(shared.WithLogger(r.logger, "service", "spotify")))
	if err != nil {
		return nil, err
	}

	r.spotify = svc
	r.player = svc
	return svc, nil
}

// login runs the browser authorization flow once per process.
func (r *Runner) login(ctx context.Context) (auth.TokenPair, error) {
	if r.authorizer != nil {
		return r.tokens, nil
	}

	creds, opts, err := r.authOptions()
	if err != nil {
		return auth.TokenPair{}, err
	}

	a, err := auth.Login(ctx, creds, opts...)
	if err != nil {
		return auth.TokenPair{}, err
	}

	r.authorizer = a
	r.tokens, _ = a.Tokens()
	return r.tokens, nil
}

func (r *Runner) authOptions() (auth.Credentials, []auth.Option, error) {
	spotify := r.config.Credentials.Spotify
	if err := spotify.Validate(); err != nil {
		return auth.Credentials{}, nil, err
	}

	opts := []auth.Option{
		auth.WithBrowser(r.browser),
		auth.WithHTTPClient(r.httpClient),
		auth.WithClock(r.clock),
		auth.WithTimeout(r.config.Auth.Timeout.Duration),
		auth.WithLogger(shared.WithLogger(r.logger, "service", "auth")),
		auth.WithOutput(r.output),
	}
	if len(spotify.Scopes) > 0 {
		opts = append(opts, auth.WithScopes(spotify.Scopes...))
	}
	return auth.CredentialsFromConfig(spotify), opts, nil
}

// refresh swaps in a new access token after the current one expired.
func (r *Runner) refresh(ctx context.Context) error {
	if r.authorizer == nil || r.tokens.RefreshToken == "" {
		return fmt.Errorf("%w: no refresh token available, run auth again", shared.ErrTokenExpired)
	}

	pair, err := r.authorizer.Refresh(ctx, r.tokens.RefreshToken)
	if err != nil {
		return err
	}

	r.tokens = pair
	if r.spotify != nil {
		r.spotify.SetAccessToken(pair.AccessToken)
	}
	return nil
}

// withRefresh runs fn, refreshing and retrying once when the token has expired.
func (r *Runner) withRefresh(ctx context.Context, fn func() error) error {
	err := fn()
	if !errors.Is(err, shared.ErrTokenExpired) {
		return err
	}
	if rerr := r.refresh(ctx); rerr != nil {
		r.logger.Debug("refresh failed", "error", rerr)
		return err
	}
	return fn()
}

// database opens the library database once per process.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	r.db = db
	r.ownsDB = true
	return db, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(b []byte) error {
	if _, err := r.output.Write(b); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
