// Package text holds the string canonicalization shared by crawlers and
// the sync job. Both the human-readable values stored in the database and
// the letters-only comparison codes pass through here.
package text

import (
	"regexp"
	"strings"
)

var (
	// Embedded newlines and empty bracket pairs carry no information and
	// break substring matching downstream.
	junkRe = regexp.MustCompile(`\n|\(\)|<>`)

	// The letters-only character class. Includes a few symbol glyphs the
	// source sites decorate menu names with.
	nonLetterRe = regexp.MustCompile(`[\s<>()\[\],*&+\-/:#.♣▷ㅁ~]`)
)

// Normalize cleans a raw scraped string into its display form.
func Normalize(s string) string {
	s = junkRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.TrimSpace(s)
	return strings.Trim(s, ":")
}

// NormalizeLetters reduces a string to its canonical letters-only code,
// used for equality comparison and keyword matching.
func NormalizeLetters(s string) string {
	return nonLetterRe.ReplaceAllString(Normalize(s), "")
}
