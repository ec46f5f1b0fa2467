package dochandler

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dcmspec/dcmspec/dcmerr"
	"github.com/dcmspec/dcmspec/domutils"
)

// PatchFunc mutates a parsed DOM in place before its tables are consumed by
// tableparser. It targets one known table (by anchor id) and is a no-op,
// with a warning, when that table is absent from the document.
type PatchFunc func(dom *html.Node, tableID string, logger *slog.Logger)

// XHTMLHandler loads a cached (or freshly fetched) XHTML chapter and parses
// it into a DOM usable by domutils/tableparser.
type XHTMLHandler struct {
	Fetcher  Fetcher
	CacheDir string
	// Patch is applied to the parsed DOM before any table is resolved from
	// it, one call per PatchTableID. Nil disables patching.
	Patch        PatchFunc
	PatchTableID string
}

// NewXHTMLHandler returns a handler with the default HTTP fetcher.
func NewXHTMLHandler(cacheDir string) *XHTMLHandler {
	return &XHTMLHandler{Fetcher: NewHTTPFetcher(), CacheDir: cacheDir}
}

// LoadDocument fetches (or reads from cache) cacheFileName and parses it as
// XHTML, replacing U+200B with empty and U+00A0 with space before the bytes
// are persisted.
//
// The DOM is parsed with golang.org/x/net/html rather than a namespace-aware
// XML parser: every other component downstream (domutils, tableparser)
// already works against *html.Node, and introducing a second tree shape for
// XHTML alone would split the DOM-handling code in two for no behavioral
// gain — see DESIGN.md.
func (h *XHTMLHandler) LoadDocument(ctx context.Context, cacheFileName string, opts Options) (*html.Node, error) {
	raw, err := ensureCachedCleaned(ctx, h.Fetcher, "text/html", h.CacheDir, cacheFileName, opts)
	if err != nil {
		return nil, err
	}

	dom, err := html.Parse(strings.NewReader(string(raw)))
	if err != nil {
		return nil, dcmerr.New(dcmerr.ParseError, "dochandler.XHTMLHandler.LoadDocument", err)
	}

	if h.Patch != nil {
		h.Patch(dom, h.PatchTableID, opts.logger())
	}
	return dom, nil
}

// ensureCachedCleaned behaves like ensureCached but, on a freshly fetched
// document, strips zero-width spaces and normalizes non-breaking spaces
// before the bytes are written to the cache file.
func ensureCachedCleaned(ctx context.Context, fetcher Fetcher, accept, cacheDir, cacheFileName string, opts Options) ([]byte, error) {
	path := cachePath(cacheDir, cacheFileName)

	if !opts.ForceDownload {
		if b, err := readIfExists(path); b != nil || err != nil {
			return b, err
		}
	}

	if opts.URL == "" {
		return nil, dcmerr.New(dcmerr.MissingUrl, "dochandler.ensureCachedCleaned", nil)
	}
	b, err := fetcher.Fetch(ctx, opts.URL, accept)
	if err != nil {
		return nil, err
	}
	cleaned := cleanXHTMLBytes(b)
	if err := writeCache(path, cleaned); err != nil {
		return nil, err
	}
	return cleaned, nil
}

func cleanXHTMLBytes(b []byte) []byte {
	s := string(b)
	s = strings.ReplaceAll(s, "​", "")
	s = strings.ReplaceAll(s, " ", " ")
	return []byte(s)
}

// PatchUPSOutputInformationSequence fixes a known DICOM Part 3 defect: the
// Include row that follows the "Output Information Sequence" title row is
// missing one level of nesting, so it parses as a sibling instead of a
// child. tableID is the anchor id of the table that contains the offending
// rows; the title row's own text is left untouched, only the following
// Include row gains the extra '>'.
func PatchUPSOutputInformationSequence(dom *html.Node, tableID string, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	table, ok := domutils.FindTable(dom, tableID, logger)
	if !ok {
		logger.Warn("dochandler: patch target table not found", "table_id", tableID)
		return
	}
	titleRow := findRowByFirstCellText(table, ">Output Information Sequence")
	includeRow := nextRowSibling(titleRow)
	if includeRow == nil {
		logger.Warn("dochandler: Output Information Sequence Include row not found", "table_id", tableID)
		return
	}
	prependGT(includeRow)
}

func findRowByFirstCellText(table *html.Node, firstCellContains string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			if firstCellText(n) == firstCellContains {
				found = n
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return found
}

// nextRowSibling returns the next <tr> element following row, skipping any
// intervening whitespace text nodes. Returns nil if row is nil or has no
// following row.
func nextRowSibling(row *html.Node) *html.Node {
	if row == nil {
		return nil
	}
	for c := row.NextSibling; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Tr {
			return c
		}
	}
	return nil
}

func firstCellText(tr *html.Node) string {
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
			return strings.TrimSpace(textOf(c))
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textOf(c))
	}
	return sb.String()
}

// prependGT adds one extra ">" marker to the first text node of row's first
// cell, the form tableparser reads nesting depth from.
func prependGT(row *html.Node) {
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
			prependGTInto(c)
			return
		}
	}
}

// prependGTInto walks cell's children in order looking for the first one
// that actually carries non-blank text, trying every element child in turn
// rather than committing to the first — a cell like
// <p><a id="..."></a><span>&gt;Include ...</span></p> has an empty anchor
// before the span that holds the real text, and a sibling must still be
// visited when an earlier child turns out empty. Reports whether it found
// and patched a text node.
func prependGTInto(cell *html.Node) bool {
	for c := cell.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
			c.Data = ">" + c.Data
			return true
		}
		if c.Type == html.ElementNode && prependGTInto(c) {
			return true
		}
	}
	return false
}
