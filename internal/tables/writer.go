package tables

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rocknews/rocktag/internal/models"
)

// ListSeparator joins list cells in written tables.
const ListSeparator = "|"

// Tag table columns.
var tagHeader = []string{"document_id", "combined_tags", "member_tags"}

// WriteTags writes one row per document.
func WriteTags(w io.Writer, tags []models.DocumentTags) error {
	cw := csv.NewWriter(w)
	cw.Comma = Separator
	if err := cw.Write(tagHeader); err != nil {
		return fmt.Errorf("writing tags header: %w", err)
	}
	for _, t := range tags {
		row := []string{
			strconv.Itoa(t.DocumentID),
			strings.Join(t.CombinedTags, ListSeparator),
			strings.Join(t.MemberTags, ListSeparator),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing tags for document %d: %w", t.DocumentID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing tags: %w", err)
	}
	return nil
}

// ReadTags parses a table written by WriteTags.
func ReadTags(r io.Reader) ([]models.DocumentTags, error) {
	cr := newReader(r)
	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("reading tags header: %w", err)
	}
	var out []models.DocumentTags
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tags: %w", err)
		}
		if len(fields) != len(tagHeader) {
			return nil, fmt.Errorf("reading tags: expected %d fields, got %d", len(tagHeader), len(fields))
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("reading tags: document id %q: %w", fields[0], err)
		}
		out = append(out, models.DocumentTags{
			DocumentID:   id,
			CombinedTags: splitList(fields[1]),
			MemberTags:   splitList(fields[2]),
		})
	}
	return out, nil
}

// WriteFeedback writes the feedback set under the artist column so the
// table reads back with ReadFeedback.
func WriteFeedback(w io.Writer, names []string) error {
	cw := csv.NewWriter(w)
	cw.Comma = Separator
	if err := cw.Write([]string{"Rock_Artist"}); err != nil {
		return fmt.Errorf("writing feedback header: %w", err)
	}
	for _, n := range names {
		if err := cw.Write([]string{n}); err != nil {
			return fmt.Errorf("writing feedback: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing feedback: %w", err)
	}
	return nil
}

func splitList(cell string) []string {
	if cell == "" {
		return []string{}
	}
	return strings.Split(cell, ListSeparator)
}
