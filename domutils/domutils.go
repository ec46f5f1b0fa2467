// Package domutils locates DICOM standard tables and sections within a
// parsed XHTML DOM. Both operations are read-only DOM walks grounded on the
// traversal style of docpipe/html.go and domkeeper/internal/extract/extract.go
// (golang.org/x/net/html, atom-keyed switches, depth-first recursive walks).
package domutils

import (
	"log/slog"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FindTable locates the first `<a id=tableID>` anchor and returns the
// `<table>` subtree immediately following it in document order. A missing
// anchor or missing following table logs a warning and returns (nil, false).
func FindTable(dom *html.Node, tableID string, logger *slog.Logger) (*html.Node, bool) {
	logger = orDefault(logger)

	order := documentOrder(dom)
	anchorIdx := indexOfAnchor(order, tableID)
	if anchorIdx < 0 {
		logger.Warn("domutils: anchor not found", "table_id", tableID)
		return nil, false
	}

	for _, n := range order[anchorIdx+1:] {
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			return n, true
		}
	}
	logger.Warn("domutils: no table follows anchor", "table_id", tableID)
	return nil, false
}

// SectionToTableID locates `<a id=sectionAnchor>`, walks up to the enclosing
// `<div class="section">`, finds the first `<div class="table">` within it,
// and returns the id of the first `<a id=...>` inside that div. Each
// distinct failure mode logs a specific warning and returns ("", false).
func SectionToTableID(dom *html.Node, sectionAnchor string, logger *slog.Logger) (string, bool) {
	logger = orDefault(logger)

	order := documentOrder(dom)
	anchorIdx := indexOfAnchor(order, sectionAnchor)
	if anchorIdx < 0 {
		logger.Warn("domutils: section anchor not found", "section_anchor", sectionAnchor)
		return "", false
	}
	anchor := order[anchorIdx]

	sectionDiv := ancestorWithClass(anchor, "div", "section")
	if sectionDiv == nil {
		logger.Warn("domutils: no enclosing section div", "section_anchor", sectionAnchor)
		return "", false
	}

	tableDiv := firstDescendantWithClass(sectionDiv, "div", "table")
	if tableDiv == nil {
		logger.Warn("domutils: no table div within section", "section_anchor", sectionAnchor)
		return "", false
	}

	innerAnchor := firstDescendantAnchorWithID(tableDiv)
	if innerAnchor == "" {
		logger.Warn("domutils: no anchor within table div", "section_anchor", sectionAnchor)
		return "", false
	}
	return innerAnchor, true
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func isAnchorWithID(n *html.Node, id string) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.A {
		return false
	}
	v, ok := attr(n, "id")
	return ok && v == id
}

// documentOrder flattens the DOM into a pre-order slice.
func documentOrder(n *html.Node) []*html.Node {
	var order []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		order = append(order, n)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return order
}

func indexOfAnchor(order []*html.Node, id string) int {
	for i, n := range order {
		if isAnchorWithID(n, id) {
			return i
		}
	}
	return -1
}

func ancestorWithClass(n *html.Node, tag, class string) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag && hasClass(p, class) {
			return p
		}
	}
	return nil
}

func firstDescendantWithClass(n *html.Node, tag, class string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag && hasClass(c, class) {
			return c
		}
		if found := firstDescendantWithClass(c, tag, class); found != nil {
			return found
		}
	}
	return nil
}

func firstDescendantAnchorWithID(n *html.Node) string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.A {
			if id, ok := attr(c, "id"); ok && id != "" {
				return id
			}
		}
		if id := firstDescendantAnchorWithID(c); id != "" {
			return id
		}
	}
	return ""
}
