package reference

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrUnknownBook is returned when a book name cannot be mapped to a New Testament book
var ErrUnknownBook = errors.New("unknown book")

// Book is one of the 27 canonical New Testament books
type Book struct {
	Name  string `json:"name"`  // Spanish display name, e.g. "Juan"
	OSIS  string `json:"osis"`  // OSIS code used in verse ids, e.g. "John"
	Order int    `json:"order"` // 1-based canonical position
}

type bookEntry struct {
	book    Book
	aliases []string
}

// canonical order; aliases are matched after folding (see fold)
var canon = []bookEntry{
	{Book{"Mateo", "Matt", 1}, []string{"Mt", "Mat", "Matthew", "mt"}},
	{Book{"Marcos", "Mark", 2}, []string{"Mc", "Mr", "Mar", "Mk", "Mark"}},
	{Book{"Lucas", "Luke", 3}, []string{"Lc", "Luc", "Lk", "Luke"}},
	{Book{"Juan", "John", 4}, []string{"Jn", "Jua", "John"}},
	{Book{"Hechos", "Acts", 5}, []string{"Hch", "Hech", "Ac", "Acts", "Hechos de los Apóstoles"}},
	{Book{"Romanos", "Rom", 6}, []string{"Ro", "Rom", "Romans"}},
	{Book{"1 Corintios", "1Cor", 7}, []string{"1Co", "1 Cor", "1Cor", "1 Corinthians"}},
	{Book{"2 Corintios", "2Cor", 8}, []string{"2Co", "2 Cor", "2Cor", "2 Corinthians"}},
	{Book{"Gálatas", "Gal", 9}, []string{"Gá", "Gal", "Ga", "Galatians"}},
	{Book{"Efesios", "Eph", 10}, []string{"Ef", "Efe", "Eph", "Ephesians"}},
	{Book{"Filipenses", "Phil", 11}, []string{"Fil", "Flp", "Php", "Phil", "Philippians"}},
	{Book{"Colosenses", "Col", 12}, []string{"Col", "Colossians"}},
	{Book{"1 Tesalonicenses", "1Thess", 13}, []string{"1Ts", "1Tes", "1 Tes", "1Th", "1Thess", "1 Thessalonians"}},
	{Book{"2 Tesalonicenses", "2Thess", 14}, []string{"2Ts", "2Tes", "2 Tes", "2Th", "2Thess", "2 Thessalonians"}},
	{Book{"1 Timoteo", "1Tim", 15}, []string{"1Ti", "1Tim", "1 Tim", "1 Timothy"}},
	{Book{"2 Timoteo", "2Tim", 16}, []string{"2Ti", "2Tim", "2 Tim", "2 Timothy"}},
	{Book{"Tito", "Titus", 17}, []string{"Tit", "Titus"}},
	{Book{"Filemón", "Phlm", 18}, []string{"Flm", "Phm", "Phlm", "Philemon"}},
	{Book{"Hebreos", "Heb", 19}, []string{"He", "Heb", "Hebrews"}},
	{Book{"Santiago", "Jas", 20}, []string{"Stg", "Sant", "Jas", "James"}},
	{Book{"1 Pedro", "1Pet", 21}, []string{"1P", "1Pe", "1 Pe", "1Pet", "1 Peter"}},
	{Book{"2 Pedro", "2Pet", 22}, []string{"2P", "2Pe", "2 Pe", "2Pet", "2 Peter"}},
	{Book{"1 Juan", "1John", 23}, []string{"1Jn", "1 Jn", "1John", "1 John"}},
	{Book{"2 Juan", "2John", 24}, []string{"2Jn", "2 Jn", "2John", "2 John"}},
	{Book{"3 Juan", "3John", 25}, []string{"3Jn", "3 Jn", "3John", "3 John"}},
	{Book{"Judas", "Jude", 26}, []string{"Jud", "Jds", "Jude"}},
	{Book{"Apocalipsis", "Rev", 27}, []string{"Ap", "Apoc", "Re", "Rev", "Revelation"}},
}

var (
	byAlias = map[string]Book{}
	byOSIS  = map[string]Book{}
)

func init() {
	for _, e := range canon {
		byOSIS[e.book.OSIS] = e.book
		byAlias[fold(e.book.Name)] = e.book
		byAlias[fold(e.book.OSIS)] = e.book
		for _, a := range e.aliases {
			key := fold(a)
			if prev, ok := byAlias[key]; ok && prev != e.book {
				panic(fmt.Sprintf("reference: alias %q maps to both %s and %s", a, prev.OSIS, e.book.OSIS))
			}
			byAlias[key] = e.book
		}
	}
}

// Books returns the New Testament books in canonical order
func Books() []Book {
	books := make([]Book, len(canon))
	for i, e := range canon {
		books[i] = e.book
	}
	return books
}

// Normalize maps a user supplied book name to its canonical Book.
// Matching ignores case, diacritics, dots and whitespace.
func Normalize(name string) (Book, error) {
	key := fold(name)
	if key == "" {
		return Book{}, fmt.Errorf("%w: empty book name", ErrUnknownBook)
	}
	book, ok := byAlias[key]
	if !ok {
		return Book{}, fmt.Errorf("%w: %q", ErrUnknownBook, name)
	}
	return book, nil
}

// FoldText removes diacritics, folds case and NFC-normalizes s
func FoldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), cases.Fold(), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// romanOrdinals are the book-number prefixes written as numerals, e.g. "II Timoteo"
var romanOrdinals = map[string]string{"i": "1", "ii": "2", "iii": "3"}

func fold(s string) string {
	folded := strings.TrimSpace(FoldText(s))
	if i := strings.IndexFunc(folded, isSeparator); i > 0 {
		if digit, ok := romanOrdinals[folded[:i]]; ok {
			folded = digit + folded[i:]
		}
	}
	return strings.Map(func(r rune) rune {
		if isSeparator(r) {
			return -1
		}
		return r
	}, folded)
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == '.' || r == '_' || r == '-'
}
