// Package tables reads the semicolon-separated input tables into model rows
// and writes the tag and feedback tables produced by a run.
package tables

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rocknews/rocktag/internal/dictionary"
	"github.com/rocknews/rocktag/internal/models"
)

// Separator is the field delimiter of every table.
const Separator = ';'

// Column names, matched case-insensitively.
const (
	ColArtist      = "rock_artist"
	ColDescription = "description"
	ColMember      = "member"
	ColTitle       = "title"
	ColWebsite     = "website"
	ColKey         = "key"
	ColValues      = "values"
)

// ErrMissingColumn is wrapped in a *dictionary.ConfigurationError when a
// table lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// ReadArtists parses the artist master table.
func ReadArtists(r io.Reader) ([]models.ArtistRow, error) {
	return readTable(r, dictionary.TableArtists, []string{ColArtist}, func(rec record) models.ArtistRow {
		return models.ArtistRow{Name: rec.get(ColArtist)}
	})
}

// ReadMembers parses the artist members table.
func ReadMembers(r io.Reader) ([]models.MemberRow, error) {
	return readTable(r, dictionary.TableMembers, []string{ColDescription, ColArtist}, func(rec record) models.MemberRow {
		return models.MemberRow{
			Description: rec.get(ColDescription),
			Member:      rec.get(ColMember),
			Artist:      rec.get(ColArtist),
		}
	})
}

// ReadNews parses the news corpus.
func ReadNews(r io.Reader) ([]models.NewsRow, error) {
	return readTable(r, dictionary.TableNews, []string{ColTitle, ColDescription}, func(rec record) models.NewsRow {
		return models.NewsRow{
			Website:     rec.get(ColWebsite),
			Title:       rec.get(ColTitle),
			Description: rec.get(ColDescription),
		}
	})
}

// ReadKeywords parses the keyword substitution table. Each row maps the
// alias in Key to the replacement in Values.
func ReadKeywords(r io.Reader) ([]models.KeywordRow, error) {
	return readTable(r, dictionary.TableKeywords, []string{ColKey, ColValues}, func(rec record) models.KeywordRow {
		return models.KeywordRow{Key: rec.get(ColKey), Value: rec.get(ColValues)}
	})
}

// ReadFeedback parses a feedback table written by WriteFeedback.
func ReadFeedback(r io.Reader) ([]string, error) {
	rows, err := readTable(r, dictionary.TableFeedback, []string{ColArtist}, func(rec record) string {
		return rec.get(ColArtist)
	})
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, name := range rows {
		if name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

// KeywordMap turns keyword rows into the map the normalizer takes. Rows
// missing either side are dropped; later rows win.
func KeywordMap(rows []models.KeywordRow) map[string]string {
	m := make(map[string]string, len(rows))
	for _, row := range rows {
		k, v := strings.TrimSpace(row.Key), strings.TrimSpace(row.Value)
		if k == "" || v == "" {
			continue
		}
		m[k] = v
	}
	return m
}

// LoadArtists reads the artist table at path.
func LoadArtists(path string) ([]models.ArtistRow, error) {
	return loadFile(path, dictionary.TableArtists, ReadArtists)
}

// LoadMembers reads the members table at path.
func LoadMembers(path string) ([]models.MemberRow, error) {
	return loadFile(path, dictionary.TableMembers, ReadMembers)
}

// LoadNews reads the news table at path.
func LoadNews(path string) ([]models.NewsRow, error) {
	return loadFile(path, dictionary.TableNews, ReadNews)
}

// LoadKeywords reads the keyword table at path.
func LoadKeywords(path string) ([]models.KeywordRow, error) {
	return loadFile(path, dictionary.TableKeywords, ReadKeywords)
}

// LoadFeedback reads the feedback table at path.
func LoadFeedback(path string) ([]string, error) {
	return loadFile(path, dictionary.TableFeedback, ReadFeedback)
}

func loadFile[T any](path, table string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path) //nolint:gosec // user-supplied input path
	if err != nil {
		return zero, &dictionary.ConfigurationError{Table: table, Reason: "cannot open " + path, Err: err}
	}
	defer func() { _ = f.Close() }()
	return read(f)
}

type record struct {
	cols   map[string]int
	fields []string
}

func (r record) get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = Separator
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

func readTable[T any](r io.Reader, table string, required []string, row func(record) T) ([]T, error) {
	cr := newReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &dictionary.ConfigurationError{Table: table, Reason: "table has no header row"}
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", table, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.ToLower(strings.TrimSpace(h))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			return nil, &dictionary.ConfigurationError{
				Table:  table,
				Reason: fmt.Sprintf("column %q not found", c),
				Err:    ErrMissingColumn,
			}
		}
	}

	var out []T
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s table: %w", table, err)
		}
		out = append(out, row(record{cols: cols, fields: fields}))
	}
	return out, nil
}
