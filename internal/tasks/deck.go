package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/reader"
	"github.com/desertthunder/tapedeck/internal/services"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// Library looks up tag bindings. [repositories.TagRepository] implements it.
type Library interface {
	GetByTagID(tagID string) (*models.Tag, error)
}

// History records handled scans. [repositories.ScanRepository] implements it.
type History interface {
	Record(scan *models.Scan) error
}

// RefreshFunc obtains a new access token and installs it on the player.
type RefreshFunc func(ctx context.Context) error

// DeckConfig holds the dependencies of a [Deck]. Reader and Player are required.
type DeckConfig struct {
	Reader      reader.Reader
	Player      services.Player
	Library     Library
	History     History
	Refresh     RefreshFunc
	DefaultKind models.Kind
	Debounce    time.Duration
	Clock       clockwork.Clock
	Logger      *log.Logger
}

// Deck plays whatever is placed on the reader.
type Deck struct {
	cfg DeckConfig

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewDeck validates cfg and fills in defaults.
func NewDeck(cfg DeckConfig) (*Deck, error) {
	if cfg.Reader == nil {
		return nil, fmt.Errorf("%w: reader", shared.ErrMissingArgument)
	}
	if cfg.Player == nil {
		return nil, fmt.Errorf("%w: player", shared.ErrServiceUnavailable)
	}
	if cfg.DefaultKind == "" {
		cfg.DefaultKind = models.KindAlbum
	}
	if _, err := models.ParseKind(string(cfg.DefaultKind)); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = shared.NewLogger(nil)
	}

	return &Deck{cfg: cfg, limiters: make(map[string]*rate.Limiter)}, nil
}

// Run handles tags until the reader is exhausted (returns nil), fails, or ctx is done.
func (d *Deck) Run(ctx context.Context, events chan<- ScanEvent) error {
	d.cfg.Logger.Info("waiting for tags", "debounce", d.cfg.Debounce, "default_kind", d.cfg.DefaultKind)

	for {
		tag, err := d.cfg.Reader.Read(ctx)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}

		sendEvent(events, d.Handle(ctx, tag))
	}
}

// Handle debounces, resolves, plays and records a single tag read.
func (d *Deck) Handle(ctx context.Context, tag reader.Tag) ScanEvent {
	logger := shared.WithLogger(d.cfg.Logger, "tag", tag.Key())
	event := ScanEvent{Tag: tag}

	if !d.allow(tag.Key()) {
		logger.Debug("debounced")
		event.Status = models.ScanSkipped
		return event
	}

	ref, err := d.resolve(tag)
	if err != nil {
		logger.Warn("unresolvable tag", "payload", tag.Text, "error", err)
		return d.record(d.fail(event, err))
	}
	event.Reference = ref

	md, err := d.play(ctx, ref)
	if err != nil {
		logger.Error("playback failed", "uri", ref.URI(), "error", err)
		return d.record(d.fail(event, err))
	}

	event.Status = models.ScanPlayed
	event.Metadata = md
	logger.Info("playing", "uri", ref.URI())
	return d.record(event)
}

func (d *Deck) fail(event ScanEvent, err error) ScanEvent {
	event.Status = models.ScanFailed
	event.Err = err
	return event
}

// allow reports whether key may play now, consuming its token when it may.
func (d *Deck) allow(key string) bool {
	if d.cfg.Debounce <= 0 {
		return true
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	limiter, ok := d.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(d.cfg.Debounce), 1)
		d.limiters[key] = limiter
	}
	return limiter.AllowN(d.cfg.Clock.Now(), 1)
}

func (d *Deck) resolve(tag reader.Tag) (models.Reference, error) {
	if d.cfg.Library != nil && tag.Key() != "" {
		bound, err := d.cfg.Library.GetByTagID(tag.Key())
		switch {
		case err == nil:
			return bound.Reference()
		case !errors.Is(err, shared.ErrNotFound):
			return models.Reference{}, fmt.Errorf("failed to look up tag: %w", err)
		}
	}
	return models.ResolvePayload(tag.Text, d.cfg.DefaultKind)
}

// play retries once after a refresh when the token has expired.
func (d *Deck) play(ctx context.Context, ref models.Reference) (*models.Metadata, error) {
	md, err := d.cfg.Player.Play(ctx, ref)
	if err == nil || d.cfg.Refresh == nil || !errors.Is(err, shared.ErrTokenExpired) {
		return md, err
	}

	d.cfg.Logger.Info("access token expired, refreshing")
	if rerr := d.cfg.Refresh(ctx); rerr != nil {
		return nil, fmt.Errorf("%w (refresh failed: %v)", err, rerr)
	}
	return d.cfg.Player.Play(ctx, ref)
}

func (d *Deck) record(event ScanEvent) ScanEvent {
	if d.cfg.History == nil {
		return event
	}
	if err := d.cfg.History.Record(event.scan()); err != nil {
		d.cfg.Logger.Warn("failed to record scan", "error", err)
	}
	return event
}
