package tableparser

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// htmlSanitizePolicy strips scripting and attributes from a cell's rendered
// HTML fragment while keeping the inline markup (<sup>, <a>, <br>, ...) DICOM
// tables actually carry, before it is stored as a Node's HTML-kind Value.
var htmlSanitizePolicy = bluemonday.UGCPolicy()

// rowCells returns the <td>/<th> children of a <tr>, in order.
func rowCells(tr *html.Node) []*html.Node {
	var cells []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
			cells = append(cells, c)
		}
	}
	return cells
}

func cellSpan(cell *html.Node, key string, def int) int {
	for _, a := range cell.Attr {
		if a.Key == key {
			if n, err := parsePositiveInt(a.Val); err == nil && n > 0 {
				return n
			}
		}
	}
	return def
}

func parsePositiveInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	n := 0
	if s == "" {
		return 0, errNotANumber
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errNotANumber
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

var errNotANumber = &notANumberError{}

type notANumberError struct{}

func (*notANumberError) Error() string { return "not a number" }

// cellText extracts a cell's plain text: the <p> children joined by newline
// if present, otherwise the whole text content.
func cellText(cell *html.Node) string {
	var paragraphs []string
	for c := cell.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.P {
			paragraphs = append(paragraphs, textContent(c))
		}
	}
	if len(paragraphs) > 0 {
		return strings.Join(paragraphs, "\n")
	}
	return textContent(cell)
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// cellInnerHTML renders a cell's children back to a sanitized HTML string.
func cellInnerHTML(cell *html.Node) string {
	var b strings.Builder
	for c := cell.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return htmlSanitizePolicy.Sanitize(b.String())
}

func extractCellValue(cell *html.Node) cellValue {
	return cellValue{text: CleanCellText(cellText(cell)), html: cellInnerHTML(cell)}
}

// buildLogicalRow expands one <tr> against the active span trackers,
// producing the row's logical cell sequence and the tracker state to carry
// into the next row.
func buildLogicalRow(tr *html.Node, trackers []spanTracker) ([]logicalCell, []spanTracker) {
	cells := rowCells(tr)
	cellIdx := 0
	pos := 0
	var out []logicalCell
	var next []spanTracker

	activeAt := func(col int) (*spanTracker, []spanTracker) {
		for i := range trackers {
			if trackers[i].startCol == col && trackers[i].rowsLeft > 0 {
				return &trackers[i], trackers
			}
		}
		return nil, trackers
	}

	for {
		if t, _ := activeAt(pos); t != nil {
			out = append(out, logicalCell{value: t.value, colspan: t.colspan})
			remaining := t.rowsLeft - 1
			if remaining > 0 {
				next = append(next, spanTracker{startCol: t.startCol, colspan: t.colspan, rowsLeft: remaining, value: t.value})
			}
			pos += t.colspan
			continue
		}
		if cellIdx >= len(cells) {
			break
		}
		cell := cells[cellIdx]
		cellIdx++
		colspan := cellSpan(cell, "colspan", 1)
		rowspan := cellSpan(cell, "rowspan", 1)
		value := extractCellValue(cell)
		out = append(out, logicalCell{value: value, colspan: colspan})
		if rowspan > 1 {
			next = append(next, spanTracker{startCol: pos, colspan: colspan, rowsLeft: rowspan - 1, value: value})
		}
		pos += colspan
	}

	return out, next
}
