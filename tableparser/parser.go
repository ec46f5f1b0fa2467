package tableparser

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dcmspec/dcmspec/dcmerr"
	"github.com/dcmspec/dcmspec/domutils"
	"github.com/dcmspec/dcmspec/progress"
	"github.com/dcmspec/dcmspec/specmodel"
)

// ParseTable locates tableID in dom and parses it (and any table it
// transitively includes) into a Metadata plus a forest of content nodes
// meant to be attached under a SpecModel's "content" root.
func ParseTable(dom *html.Node, tableID string, opts Options) (*specmodel.Metadata, []*specmodel.Node, error) {
	if opts.ColumnToAttr == nil || opts.ColumnToAttr.Len() == 0 {
		return nil, nil, dcmerr.New(dcmerr.BadMap, "tableparser.ParseTable", nil)
	}
	table, ok := domutils.FindTable(dom, tableID, opts.logger())
	if !ok {
		return nil, nil, dcmerr.New(dcmerr.TableNotFound, "tableparser.ParseTable", nil)
	}

	visited := map[string]bool{tableID: true}
	roots, skipOccurred, err := parseRows(dom, table, opts, visited, 0)
	if err != nil {
		return nil, nil, err
	}

	meta := specmodel.NewMetadata()
	meta.TableID = tableID
	meta.NameAttr = opts.NameAttr
	meta.Version = extractVersion(dom, opts.logger())
	meta.Header = buildHeader(table, opts.ColumnToAttr)
	if skipOccurred {
		meta.ColumnToAttr = opts.ColumnToAttr.WithoutOriginalKeys(opts.SkipColumns)
	} else {
		meta.ColumnToAttr = opts.ColumnToAttr.Realign()
	}
	if d, unlimited := opts.includeDepthRemaining(); !unlimited {
		meta.IncludeDepth = &d
	}
	return meta, roots, nil
}

// allRows returns every <tr> descendant of table, in document order.
func allRows(table *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return out
}

func isDataRow(tr *html.Node) bool {
	for _, c := range rowCells(tr) {
		if c.DataAtom == atom.Td {
			return true
		}
	}
	return false
}

// insertNode attaches node as a child of the current depth-1 ancestor (or
// leaves it parentless, appended to *roots, when depth==0), then records it
// as the new last-seen node at depth so later siblings can nest under it.
func insertNode(roots *[]*specmodel.Node, stack *[]*specmodel.Node, node *specmodel.Node, depth int) {
	if depth == 0 || depth-1 >= len(*stack) || (*stack)[depth-1] == nil {
		*roots = append(*roots, node)
	} else {
		(*stack)[depth-1].AddChild(node)
	}
	if depth >= len(*stack) {
		grown := make([]*specmodel.Node, depth+1)
		copy(grown, *stack)
		*stack = grown
	} else {
		*stack = (*stack)[:depth+1]
	}
	(*stack)[depth] = node
}

// includeTarget returns the fragment id of the first in-row href="#...".
func includeTarget(tr *html.Node) (string, bool) {
	var found string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			for _, a := range n.Attr {
				if a.Key == "href" && strings.HasPrefix(a.Val, "#") {
					found = strings.TrimPrefix(a.Val, "#")
					return true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(tr)
	return found, found != ""
}

// parseRows parses every <tr> of table into the node forest rooted at
// depth 0, recursively expanding Include rows. tableNestingLevel is
// prepended as extra '>' markers to every non-title row name, which is how
// a recursive (included) call's rows land at the correct depth once
// spliced into the caller's tree.
//
// visited is the set of table ids on the current recursion path. It is
// never mutated in place — each include builds a fresh copy before
// recursing, so two sibling includes of the same table are not mistaken
// for a cycle; only a table reappearing along its own ancestor chain is.
func parseRows(dom *html.Node, table *html.Node, opts Options, visited map[string]bool, tableNestingLevel int) ([]*specmodel.Node, bool, error) {
	var roots []*specmodel.Node
	var stack []*specmodel.Node
	var trackers []spanTracker
	skipOccurred := false

	rows := allRows(table)
	dataRows := 0
	for _, tr := range rows {
		if isDataRow(tr) {
			dataRows++
		}
	}
	done := 0

	for _, tr := range rows {
		if !isDataRow(tr) {
			continue
		}
		var cells []logicalCell
		cells, trackers = buildLogicalRow(tr, trackers)
		attrs, usedSkip := alignRow(cells, opts)
		if usedSkip {
			skipOccurred = true
		}

		rawName := attrs.Get(opts.NameAttr).String()
		_, bareName := countLeadingGT(rawName)
		title := isTitleText(bareName)
		prefixed := rawName
		if tableNestingLevel > 0 && !title {
			prefixed = strings.Repeat(">", tableNestingLevel) + rawName
		}
		depth, rest := countLeadingGT(prefixed)
		name := sanitizeName(rest)

		done++
		if opts.Observer != nil {
			opts.Observer(progress.Percent(done, dataRows, progress.ParsingTable))
		}

		remaining, unlimited := opts.includeDepthRemaining()
		if strings.Contains(bareName, "Include") && (unlimited || remaining > 0) {
			targetID, ok := includeTarget(tr)
			if !ok {
				opts.logger().Warn("tableparser: include row has no target anchor", "name", name)
				continue
			}
			if visited[targetID] {
				placeholder := specmodel.NewNode("include_table_" + targetID)
				copyAttrsInto(placeholder, attrs)
				insertNode(&roots, &stack, placeholder, depth)
				opts.logger().Warn("tableparser: include cycle detected, inserting placeholder", "table_id", targetID)
				continue
			}
			subTable, ok2 := domutils.FindTable(dom, targetID, opts.logger())
			if !ok2 {
				opts.logger().Warn("tableparser: included table not found, skipping", "table_id", targetID)
				continue
			}
			childVisited := make(map[string]bool, len(visited)+1)
			for k := range visited {
				childVisited[k] = true
			}
			childVisited[targetID] = true
			childOpts := opts.childOptions()
			childOpts.Observer = nil
			subRoots, subSkip, err := parseRows(dom, subTable, childOpts, childVisited, depth)
			if err != nil {
				return nil, false, err
			}
			if subSkip {
				skipOccurred = true
			}
			for _, sr := range subRoots {
				insertNode(&roots, &stack, sr, depth)
			}
			continue
		}

		node := specmodel.NewNode(name)
		copyAttrsInto(node, attrs)
		insertNode(&roots, &stack, node, depth)
	}

	return roots, skipOccurred, nil
}

func copyAttrsInto(n *specmodel.Node, attrs *specmodel.Attrs) {
	for pair := attrs.Oldest(); pair != nil; pair = pair.Next() {
		n.Set(pair.Key, pair.Value)
	}
}
