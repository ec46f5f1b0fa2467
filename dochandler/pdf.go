package dochandler

import (
	"context"
	"regexp"
	"strings"

	"github.com/dcmspec/dcmspec/dcmerr"
)

// Table is one raw table extracted from a PDF page, in the shape a
// TableExtractor hands back: a header row plus its data rows.
type Table struct {
	Page   int
	Index  int
	Header []string
	Data   [][]string
}

// TableExtractor turns PDF bytes into the raw tables found on the requested
// pages. PDF table geometry detection is an explicit external collaborator;
// dcmspec only orchestrates caching, concatenation and note extraction
// around whatever a concrete extractor returns.
type TableExtractor interface {
	ExtractTables(pdfBytes []byte, pages []int) ([]Table, error)
	// PageText returns the plain text of one page, used by Notes.
	PageText(pdfBytes []byte, page int) (string, error)
}

// PDFHandler loads a cached (or freshly fetched) PDF and delegates table
// extraction to Extractor.
type PDFHandler struct {
	Fetcher   Fetcher
	CacheDir  string
	Extractor TableExtractor
}

// NewPDFHandler returns a handler with the default HTTP fetcher.
func NewPDFHandler(cacheDir string, extractor TableExtractor) *PDFHandler {
	return &PDFHandler{Fetcher: NewHTTPFetcher(), CacheDir: cacheDir, Extractor: extractor}
}

// LoadTables fetches (or reads from cache) cacheFileName and extracts the
// tables on pages.
func (h *PDFHandler) LoadTables(ctx context.Context, cacheFileName string, pages []int, opts Options) ([]Table, error) {
	raw, err := ensureCached(ctx, h.Fetcher, "application/pdf", h.CacheDir, cacheFileName, opts)
	if err != nil {
		return nil, err
	}
	tables, err := h.Extractor.ExtractTables(raw, pages)
	if err != nil {
		return nil, dcmerr.New(dcmerr.ParseError, "dochandler.PDFHandler.LoadTables", err)
	}
	return tables, nil
}

// ConcatTables stitches the tables identified by locations (page, index)
// pairs, in order, into one logical table: the first table's header wins,
// and every subsequent table's data rows are padded or truncated to that
// header's length. A length mismatch is logged, never fatal.
func ConcatTables(tables []Table, locations [][2]int, logger interface{ Warn(string, ...any) }) Table {
	byLoc := make(map[[2]int]Table, len(tables))
	for _, t := range tables {
		byLoc[[2]int{t.Page, t.Index}] = t
	}

	var out Table
	first := true
	for _, loc := range locations {
		t, ok := byLoc[loc]
		if !ok {
			if logger != nil {
				logger.Warn("dochandler: concat_tables location not found", "page", loc[0], "index", loc[1])
			}
			continue
		}
		if first {
			out.Header = t.Header
			out.Page = t.Page
			out.Index = t.Index
			first = false
		}
		if len(t.Header) != len(out.Header) && logger != nil {
			logger.Warn("dochandler: concat_tables header length mismatch", "page", t.Page, "index", t.Index,
				"want", len(out.Header), "got", len(t.Header))
		}
		for _, row := range t.Data {
			out.Data = append(out.Data, fitRow(row, len(out.Header)))
		}
	}
	return out
}

func fitRow(row []string, n int) []string {
	if len(row) == n {
		return row
	}
	fitted := make([]string, n)
	copy(fitted, row)
	return fitted
}

// NoteRule configures Notes's regex-driven scan of a page's text lines.
type NoteRule struct {
	// Header matches the first line of a note (its first capture group, if
	// non-empty, becomes the note's key; otherwise the whole match does).
	// The match itself is dropped from the stored text in both cases.
	Header *regexp.Regexp
	// Terminator ends the current note when matched (exclusive: the
	// matching line is not included).
	Terminator *regexp.Regexp
	// Skip lines matching any of these (page headers/footers) are ignored
	// entirely, wherever they occur.
	Skip []*regexp.Regexp
	// LeadingLineNumber strips a leading line-number token such as "12 "
	// from each retained line before it is appended.
	LeadingLineNumber *regexp.Regexp
}

var defaultLeadingLineNumber = regexp.MustCompile(`^\s*\d+\s+`)

// Notes scans text (one PDF page's worth) for notes delimited by
// rule.Header/rule.Terminator, returning a map of note key to its joined
// text.
func Notes(text string, rule NoteRule) map[string]string {
	leading := rule.LeadingLineNumber
	if leading == nil {
		leading = defaultLeadingLineNumber
	}

	notes := make(map[string]string)
	var currentKey string
	var buf []string

	flush := func() {
		if currentKey != "" {
			notes[currentKey] = strings.TrimSpace(strings.Join(buf, " "))
		}
		currentKey = ""
		buf = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if matchesAny(line, rule.Skip) {
			continue
		}
		stripped := stripLeading(line, leading)
		if currentKey != "" && rule.Terminator != nil && rule.Terminator.MatchString(stripped) &&
			!rule.Header.MatchString(stripped) {
			flush()
			continue
		}
		if m := rule.Header.FindStringSubmatch(stripped); m != nil {
			flush()
			key := strings.TrimSpace(m[0])
			if len(m) > 1 && m[1] != "" {
				key = strings.TrimSpace(m[1])
			}
			currentKey = key
			buf = append(buf, strings.TrimSpace(rule.Header.ReplaceAllString(stripped, "")))
			continue
		}
		if currentKey != "" {
			buf = append(buf, stripped)
		}
	}
	flush()
	return notes
}

func stripLeading(line string, leading *regexp.Regexp) string {
	return strings.TrimSpace(leading.ReplaceAllString(line, ""))
}

func matchesAny(s string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
