package tableparser

import (
	"strings"
	"unicode"
)

// zeroWidthSpace and friends are artefacts DocBook's XHTML export leaves in
// cell text; CleanCellText strips or normalises them (grounded on
// domkeeper/internal/extract/clean.go's text-cleaning pass).
const (
	zeroWidthSpace = "​"
	cControl       = "Â"
	nbsp           = " "
)

var quoteReplacer = strings.NewReplacer(
	zeroWidthSpace, "",
	cControl, "",
	nbsp, " ",
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"–", "-",
	"—", "-",
)

// CleanCellText normalises a raw extracted cell text: removes zero-width
// and stray encoding artefacts, collapses NBSP to an ordinary space,
// replaces curly quotes and en/em dashes with their ASCII equivalents, and
// trims surrounding whitespace.
func CleanCellText(s string) string {
	s = quoteReplacer.Replace(s)
	return strings.TrimSpace(s)
}

// countLeadingGT returns the number of leading '>' characters (after
// trimming surrounding whitespace) and the remainder of the string.
func countLeadingGT(s string) (int, string) {
	s = strings.TrimSpace(s)
	n := 0
	for n < len(s) && s[n] == '>' {
		n++
	}
	return n, strings.TrimSpace(s[n:])
}

// isTitleText reports whether s (with any leading '>' markers already
// stripped) reads as a section title: every letter it contains is
// uppercase, and it contains at least one letter. A single uppercase
// letter counts as a title.
func isTitleText(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

var nameUnderscoreReplacer = strings.NewReplacer(" ", "_", "-", "_", "'", "_")
var nameParenReplacer = strings.NewReplacer("(", "-", ")", "-")

// sanitizeName renders a raw cell name (its leading '>' nesting markers
// already stripped) as a Node name: lower-case ASCII, spaces/hyphens/
// apostrophes become '_', and parentheses become '-'.
func sanitizeName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ToLower(s)
	s = nameUnderscoreReplacer.Replace(s)
	s = nameParenReplacer.Replace(s)
	return s
}
