package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/nt-language-lab-api/internal/reference"
)

var (
	// ErrInvalidVerse marks a raw verse rejected at the ingestion boundary
	ErrInvalidVerse = errors.New("invalid verse")

	// ErrDuplicateVerse marks a second record for an id already seen
	ErrDuplicateVerse = errors.New("duplicate verse")
)

// RawVerse is one entry of the unified verse JSON produced by the data pipeline
type RawVerse struct {
	Libro     string `json:"libro"`
	Capitulo  int    `json:"capitulo"`
	Versiculo int    `json:"versiculo"`
	Griego    string `json:"griego"`
	Espanol   string `json:"espanol"`
}

// Verse is a validated verse ready to be embedded and stored
type Verse struct {
	ID        string `db:"verse_id"`
	Book      string `db:"book"`
	BookOrder int    `db:"book_order"`
	Chapter   int    `db:"chapter"`
	Verse     int    `db:"verse"`
	Greek     string `db:"greek"`
	Spanish   string `db:"spanish"`
}

// LoadVerses decodes a JSON array of raw verses
func LoadVerses(r io.Reader) ([]RawVerse, error) {
	var raws []RawVerse
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, fmt.Errorf("decode verses: %w", err)
	}
	return raws, nil
}

// Validate canonicalizes a raw verse. The book must be one of the 27, chapter
// and verse positive, and the Spanish text present; Greek may be empty.
func Validate(raw RawVerse) (Verse, error) {
	book, err := reference.Normalize(raw.Libro)
	if err != nil {
		return Verse{}, fmt.Errorf("%w: %v", ErrInvalidVerse, err)
	}
	if raw.Capitulo <= 0 || raw.Versiculo <= 0 {
		return Verse{}, fmt.Errorf("%w: %s %d:%d has a non-positive number",
			ErrInvalidVerse, raw.Libro, raw.Capitulo, raw.Versiculo)
	}

	spanish := cleanText(raw.Espanol)
	if spanish == "" {
		return Verse{}, fmt.Errorf("%w: %s %d:%d has no Spanish text",
			ErrInvalidVerse, book.Name, raw.Capitulo, raw.Versiculo)
	}

	return Verse{
		ID:        reference.VerseID(book, raw.Capitulo, raw.Versiculo),
		Book:      book.Name,
		BookOrder: book.Order,
		Chapter:   raw.Capitulo,
		Verse:     raw.Versiculo,
		Greek:     cleanText(raw.Griego),
		Spanish:   spanish,
	}, nil
}

// Prepare validates every raw verse, keeping the first record for each id.
// Rejected entries are reported by position and skipped.
func Prepare(raws []RawVerse) ([]Verse, []error) {
	verses := make([]Verse, 0, len(raws))
	seen := make(map[string]bool, len(raws))
	var errs []error

	for i, raw := range raws {
		v, err := Validate(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		if seen[v.ID] {
			errs = append(errs, fmt.Errorf("entry %d: %w: %s", i, ErrDuplicateVerse, v.ID))
			continue
		}
		seen[v.ID] = true
		verses = append(verses, v)
	}
	return verses, errs
}

func cleanText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
