package reader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/tapedeck/internal/shared"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Tag
		ok   bool
	}{
		{name: "uid and text", in: "584185540\tspotify:album:abc", want: Tag{ID: "584185540", Text: "spotify:album:abc"}, ok: true},
		{name: "text only", in: "0q9e8xVGwYZiYl9O08f2Ox", want: Tag{Text: "0q9e8xVGwYZiYl9O08f2Ox"}, ok: true},
		{name: "padded text", in: "  spotify:track:t1   \r", want: Tag{Text: "spotify:track:t1"}, ok: true},
		{name: "blank", in: "   ", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLine(tt.in)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestTagKey(t *testing.T) {
	if got := (Tag{ID: "1", Text: "x"}).Key(); got != "1" {
		t.Errorf("expected uid key, got %q", got)
	}
	if got := (Tag{Text: "x"}).Key(); got != "x" {
		t.Errorf("expected text key, got %q", got)
	}
}

func TestLineReader(t *testing.T) {
	t.Run("reads until EOF", func(t *testing.T) {
		r := NewLineReader(strings.NewReader("1\tspotify:album:a\n\nspotify:track:b\n"))
		ctx := context.Background()

		first, err := r.Read(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first.ID != "1" || first.Text != "spotify:album:a" {
			t.Errorf("unexpected first tag %+v", first)
		}

		second, err := r.Read(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if second.Text != "spotify:track:b" {
			t.Errorf("unexpected second tag %+v", second)
		}

		if _, err := r.Read(ctx); !errors.Is(err, io.EOF) {
			t.Errorf("expected io.EOF, got %v", err)
		}
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		pr, pw := io.Pipe()
		defer pw.Close()

		r := NewLineReader(pr)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		if _, err := r.Read(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	})
}

func TestLineWriter(t *testing.T) {
	t.Run("writes a line", func(t *testing.T) {
		var buf bytes.Buffer
		w := NewLineWriter(&buf)

		if err := w.Write(context.Background(), "spotify:album:abc"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.String() != "spotify:album:abc\n" {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("rejects multi-line payload", func(t *testing.T) {
		w := NewLineWriter(io.Discard)
		if err := w.Write(context.Background(), "a\nb"); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if err := w.Write(context.Background(), ""); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}
