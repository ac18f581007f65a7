package services

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// QueryText is the exact text embedded for a concept query: trimmed,
// NFC-normalized, internal whitespace collapsed to single spaces.
func QueryText(query string) string {
	return collapse(norm.NFC.String(query))
}

// DocumentText is the exact text embedded for a verse at ingestion:
// the Spanish text, then a newline and the Greek text when present,
// each NFC-normalized with whitespace collapsed.
func DocumentText(spanish, greek string) string {
	es := collapse(norm.NFC.String(spanish))
	gr := collapse(norm.NFC.String(greek))
	if gr == "" {
		return es
	}
	return es + "\n" + gr
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
