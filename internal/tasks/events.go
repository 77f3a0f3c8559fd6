package tasks

import (
	"fmt"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/reader"
)

// ScanEvent reports how a single tag read was handled.
type ScanEvent struct {
	Tag       reader.Tag
	Reference models.Reference // zero when the payload could not be resolved
	Status    models.ScanStatus
	Metadata  *models.Metadata // playback response body, if any
	Err       error
}

// Message renders the event for display.
func (e ScanEvent) Message() string {
	switch e.Status {
	case models.ScanPlayed:
		return fmt.Sprintf("playing %s", e.Reference)
	case models.ScanSkipped:
		return fmt.Sprintf("skipped %s (debounced)", e.Tag.Key())
	default:
		return fmt.Sprintf("failed %s: %v", e.Tag.Key(), e.Err)
	}
}

// scan converts the event into a history record.
func (e ScanEvent) scan() *models.Scan {
	s := &models.Scan{
		TagID:   e.Tag.ID,
		Payload: e.Tag.Text,
		Status:  e.Status,
	}
	if !e.Reference.IsZero() {
		s.URI = e.Reference.URI()
	}
	if e.Err != nil {
		s.Error = e.Err.Error()
	}
	return s
}

// sendEvent sends without blocking; a nil or full channel drops the event.
func sendEvent(events chan<- ScanEvent, event ScanEvent) {
	if events == nil {
		return
	}
	select {
	case events <- event:
	default:
	}
}
