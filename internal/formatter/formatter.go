// package formatter renders library, history, device and metadata data as CSV or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/zmb3/spotify/v2"
)

var csvHeaders = []string{"tag_id", "uri", "label"}

// TagsToCSV converts the tag library to CSV with columns: tag_id, uri, label
func TagsToCSV(tags []*models.Tag) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, tag := range tags {
		if err := writer.Write([]string{tag.TagID, tag.URI, tag.Label}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ParseTagsCSV reads a library export written by [TagsToCSV]. The header row is required and
// every row is validated; the first bad row aborts the parse.
func ParseTagsCSV(r io.Reader) ([]*models.Tag, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeaders)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty CSV", shared.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if strings.Join(header, ",") != strings.Join(csvHeaders, ",") {
		return nil, fmt.Errorf("%w: expected header %q, got %q", shared.ErrValidation, strings.Join(csvHeaders, ","), strings.Join(header, ","))
	}

	var tags []*models.Tag
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		ref, err := models.ParseURI(record[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		tag := models.NewTag(strings.TrimSpace(record[0]), ref, record[2])
		if err := tag.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		tags = append(tags, tag)
	}

	return tags, nil
}

// TagsToText renders the library as an aligned table.
func TagsToText(tags []*models.Tag) []byte {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "TAG\tLABEL\tURI")
	for _, tag := range tags {
		fmt.Fprintf(w, "%s\t%s\t%s\n", tag.TagID, tag.Label, tag.URI)
	}
	w.Flush()

	return buf.Bytes()
}

// ScansToText renders scan history newest first, as returned by the repository.
func ScansToText(scans []*models.Scan) []byte {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "TIME\tTAG\tSTATUS\tURI\tERROR")
	for _, s := range scans {
		tag := s.TagID
		if tag == "" {
			tag = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ScannedAt.Local().Format(time.DateTime), tag, s.Status, s.URI, s.Error)
	}
	w.Flush()

	return buf.Bytes()
}

// DevicesToText renders playback devices, marking the active one with an asterisk.
func DevicesToText(devices []spotify.PlayerDevice) []byte {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "\tNAME\tTYPE\tID")
	for _, d := range devices {
		marker := ""
		if d.Active {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, d.Name, d.Type, d.ID)
	}
	w.Flush()

	return buf.Bytes()
}

// MetadataToText renders the fields shown by the info command. Missing fields are omitted.
func MetadataToText(ref models.Reference, md *models.Metadata) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Name:     %s\n", md.Name())
	if artist := md.ArtistName(); artist != "" {
		fmt.Fprintf(&buf, "By:       %s\n", artist)
	}
	fmt.Fprintf(&buf, "Type:     %s\n", ref.Kind)
	if released := md.Get("release_date").String(); released != "" {
		fmt.Fprintf(&buf, "Released: %s\n", released)
	}
	if total := md.Get("tracks.total"); total.Exists() {
		fmt.Fprintf(&buf, "Tracks:   %d\n", total.Int())
	}
	if followers := md.Get("followers.total"); followers.Exists() {
		fmt.Fprintf(&buf, "Followers: %d\n", followers.Int())
	}
	fmt.Fprintf(&buf, "URI:      %s\n", ref.URI())

	return buf.Bytes()
}
