// Package reader abstracts the RFID/NFC hardware behind line-oriented streams.
//
// Most hobby readers (MFRC522 bridges, keyboard-wedge USB readers) emit one line per tag.
// [LineReader] parses "<uid>\t<text>" or a bare "<text>"; [LineWriter] writes one payload per line
// for bridges that program the next tag presented.
package reader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/desertthunder/tapedeck/internal/shared"
)

// Tag is one read from the hardware.
type Tag struct {
	// ID is the hardware UID, empty when the reader only reports text.
	ID string
	// Text is the payload stored on the tag.
	Text string
}

// Key identifies the tag for debouncing: the UID when known, otherwise the payload.
func (t Tag) Key() string {
	if t.ID != "" {
		return t.ID
	}
	return t.Text
}

// Reader blocks until the next tag is presented.
type Reader interface {
	Read(ctx context.Context) (Tag, error)
}

// Writer stores a payload on the next tag presented.
type Writer interface {
	Write(ctx context.Context, payload string) error
}

type line struct {
	text string
	err  error
}

// LineReader reads tags from a line stream. Blank lines are skipped; io.EOF is returned at the end.
type LineReader struct {
	scanner *bufio.Scanner
	lines   chan line
	start   sync.Once
}

// NewLineReader reads from r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{scanner: bufio.NewScanner(r), lines: make(chan line)}
}

// Read returns the next tag or ctx's error. A pending line is not lost when ctx is cancelled.
func (lr *LineReader) Read(ctx context.Context) (Tag, error) {
	lr.start.Do(func() { go lr.scan() })

	for {
		select {
		case <-ctx.Done():
			return Tag{}, ctx.Err()
		case l, ok := <-lr.lines:
			if !ok {
				return Tag{}, io.EOF
			}
			if l.err != nil {
				return Tag{}, fmt.Errorf("failed to read tag: %w", l.err)
			}
			if tag, ok := ParseLine(l.text); ok {
				return tag, nil
			}
		}
	}
}

func (lr *LineReader) scan() {
	defer close(lr.lines)
	for lr.scanner.Scan() {
		lr.lines <- line{text: lr.scanner.Text()}
	}
	if err := lr.scanner.Err(); err != nil {
		lr.lines <- line{err: err}
	}
}

// ParseLine splits a reader line into a [Tag]. It reports false for blank lines.
func ParseLine(s string) (Tag, bool) {
	s = strings.TrimRight(s, "\r\n")
	if strings.TrimSpace(s) == "" {
		return Tag{}, false
	}

	if id, text, ok := strings.Cut(s, "\t"); ok {
		return Tag{ID: strings.TrimSpace(id), Text: strings.TrimSpace(text)}, true
	}
	return Tag{Text: strings.TrimSpace(s)}, true
}

// LineWriter writes one payload per line.
type LineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLineWriter writes to w.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: w}
}

// Write sends payload followed by a newline.
func (lw *LineWriter) Write(ctx context.Context, payload string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if payload == "" || strings.ContainsAny(payload, "\r\n") {
		return fmt.Errorf("%w: payload must be a single non-empty line", shared.ErrValidation)
	}

	lw.mu.Lock()
	defer lw.mu.Unlock()
	if _, err := io.WriteString(lw.w, payload+"\n"); err != nil {
		return fmt.Errorf("failed to write tag: %w", err)
	}
	return nil
}

var (
	_ Reader = (*LineReader)(nil)
	_ Writer = (*LineWriter)(nil)
)
