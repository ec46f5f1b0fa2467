package tableparser

import (
	"log/slog"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dcmspec/dcmspec/specmodel"
)

// extractVersion probes the document for the DICOM standard edition string:
// first the third whitespace-separated field of `div.titlepage h2.subtitle`,
// falling back to any element carrying a "releaseinfo" class. Logs a
// warning and returns "" if neither is found.
func extractVersion(dom *html.Node, logger *slog.Logger) string {
	if div := findByClass(dom, "div", "titlepage"); div != nil {
		if sub := findByClass(div, "h2", "subtitle"); sub != nil {
			fields := strings.Fields(textContent(sub))
			if len(fields) >= 3 {
				return fields[2]
			}
		}
	}
	if rel := findByClass(dom, "", "releaseinfo"); rel != nil {
		if v := strings.TrimSpace(textContent(rel)); v != "" {
			return v
		}
	}
	logger.Warn("tableparser: standard version not found, leaving empty")
	return ""
}

func findByClass(n *html.Node, tag, class string) *html.Node {
	if n.Type == html.ElementNode && (tag == "" || n.Data == tag) && hasClassAttr(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, tag, class); found != nil {
			return found
		}
	}
	return nil
}

func hasClassAttr(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

// tableHeaders returns the text of every <th> in the table, in document order.
func tableHeaders(table *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Th {
			out = append(out, CleanCellText(cellText(n)))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return out
}

// buildHeader selects header text for the final (realigned) column map,
// realigning first if the configured map's max key exceeds the number of
// <th> cells actually present.
func buildHeader(table *html.Node, colmap *specmodel.ColumnMap) []string {
	ths := tableHeaders(table)
	effective := colmap
	if colmap.MaxKey() >= len(ths) {
		effective = colmap.Realign()
	}
	var header []string
	for _, k := range effective.Keys() {
		if k < len(ths) {
			header = append(header, ths[k])
		}
	}
	return header
}
