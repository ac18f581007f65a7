package reference

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidVerseID is returned by ParseVerseID for malformed ids
var ErrInvalidVerseID = errors.New("invalid verse id")

// VerseID builds the canonical id for a verse, e.g. "John.3.16".
// It is a pure function of its inputs.
func VerseID(book Book, chapter, verse int) string {
	return book.OSIS + "." + strconv.Itoa(chapter) + "." + strconv.Itoa(verse)
}

// ParseVerseID is the inverse of VerseID
func ParseVerseID(id string) (Book, int, int, error) {
	parts := strings.Split(id, ".")
	if len(parts) != 3 {
		return Book{}, 0, 0, fmt.Errorf("%w: %q", ErrInvalidVerseID, id)
	}
	book, ok := byOSIS[parts[0]]
	if !ok {
		return Book{}, 0, 0, fmt.Errorf("%w: unknown book code in %q", ErrInvalidVerseID, id)
	}
	chapter, err := strconv.Atoi(parts[1])
	if err != nil || chapter <= 0 {
		return Book{}, 0, 0, fmt.Errorf("%w: bad chapter in %q", ErrInvalidVerseID, id)
	}
	verse, err := strconv.Atoi(parts[2])
	if err != nil || verse <= 0 {
		return Book{}, 0, 0, fmt.Errorf("%w: bad verse in %q", ErrInvalidVerseID, id)
	}
	return book, chapter, verse, nil
}

// FormatReference renders a human readable reference such as "Juan 3:16"
func FormatReference(book string, chapter, verse int) string {
	return fmt.Sprintf("%s %d:%d", book, chapter, verse)
}
