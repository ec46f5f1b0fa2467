// Package tableparser turns one DocBook-style XHTML table (plus its
// transitively included tables) into a specmodel.SpecModel fragment. It is
// grounded on docpipe/html.go's DOM traversal conventions and
// domkeeper/internal/extract/clean.go's text-cleaning style, generalised
// from single-document extraction to the recursive, column-mapped table
// model this pipeline needs.
package tableparser

import (
	"log/slog"

	"github.com/dcmspec/dcmspec/progress"
	"github.com/dcmspec/dcmspec/specmodel"
)

// Options parameterises ParseTable.
type Options struct {
	// ColumnToAttr maps a table column index to the attribute name the
	// cell in that column is stored under.
	ColumnToAttr *specmodel.ColumnMap
	// NameAttr is the attribute whose value drives nesting depth and
	// include detection — forced to plain text even if UnformattedColumns
	// requests raw HTML for its column.
	NameAttr string
	// IncludeDepth bounds include-row recursion. Nil means unlimited.
	IncludeDepth *int
	// SkipColumns lists map keys permitted to be absent when a row's cell
	// count equals len(ColumnToAttr)-len(SkipColumns).
	SkipColumns []int
	// UnformattedColumns flags, by original map key, which columns should
	// keep raw inner HTML instead of extracted plain text.
	UnformattedColumns map[int]bool
	// Observer receives a progress event after every data row.
	Observer progress.Observer
	Logger   *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o Options) includeDepthRemaining() (int, bool) {
	if o.IncludeDepth == nil {
		return 0, true
	}
	return *o.IncludeDepth, false
}

// childOptions returns Options for a recursive include call: IncludeDepth
// decremented by one when bounded.
func (o Options) childOptions() Options {
	child := o
	if o.IncludeDepth != nil {
		d := *o.IncludeDepth - 1
		child.IncludeDepth = &d
	}
	return child
}

// cellValue carries both text and HTML renderings of one table cell; the
// alignment step picks one per column.
type cellValue struct {
	text string
	html string
}

// logicalCell is one entry of a row's span-expanded cell sequence: either a
// real <td>/<th> or a value re-emitted by an active rowspan tracker.
// Colspan is the originating cell's colspan, used by alignment to null out
// the following colspan-1 column-map entries.
type logicalCell struct {
	value   cellValue
	colspan int
}

// spanTracker remembers a rowspan-ning cell so it can be re-emitted on
// subsequent rows at the same starting column.
type spanTracker struct {
	startCol int
	colspan  int
	rowsLeft int
	value    cellValue
}
