package tableparser

import (
	"strings"
	"testing"

	"github.com/dcmspec/dcmspec/specmodel"
)

// TestParseTable_UnformattedColumnsSelectsHTMLOrText exercises the
// unformatted_list behavior (spec.md §4.3.1): a column flagged in
// UnformattedColumns keeps the cell's raw inner HTML, everything else gets
// extracted plain text.
func TestParseTable_UnformattedColumnsSelectsHTMLOrText(t *testing.T) {
	dom := parseDoc(t, `<a id="t1"></a><table><tr>
<td>Plain <b>name</b></td>
<td>Some <i>markup</i> here</td>
</tr></table>`)
	opts := defaultOpts(map[int]string{0: "a", 1: "b"})
	opts.UnformattedColumns = map[int]bool{1: true}

	_, roots, err := ParseTable(dom, "t1", opts)
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	if len(roots) != 1 {
		t.Fatalf("roots: got %d, want 1", len(roots))
	}

	n := roots[0]
	a := n.Get("a")
	if a.IsHTML() {
		t.Errorf("a: got HTML value, want plain text (column not flagged)")
	}
	if got := a.String(); got != "Plain name" {
		t.Errorf("a: got %q, want %q", got, "Plain name")
	}

	b := n.Get("b")
	if !b.IsHTML() {
		t.Error("b: got plain text, want an HTML value (column flagged unformatted)")
	}
	if got := b.String(); !strings.Contains(got, "<i>markup</i>") {
		t.Errorf("b: got %q, want it to retain inline markup %q", got, "<i>markup</i>")
	}
}

// TestParseTable_UnformattedColumnsForcesNameAttrToText covers the
// conflicting case: name_attr is forced to plain text even when its column
// is flagged unformatted, since nesting-depth/include detection both read
// plain text.
func TestParseTable_UnformattedColumnsForcesNameAttrToText(t *testing.T) {
	dom := parseDoc(t, `<a id="t1"></a><table><tr>
<td>&gt;Some <b>bold</b> name</td>
<td>value</td>
</tr></table>`)
	opts := defaultOpts(map[int]string{0: "a", 1: "b"})
	opts.NameAttr = "a"
	opts.UnformattedColumns = map[int]bool{0: true}

	_, roots, err := ParseTable(dom, "t1", opts)
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	if len(roots) != 1 {
		t.Fatalf("roots: got %d, want 1", len(roots))
	}

	a := roots[0].Get("a")
	if a.IsHTML() {
		t.Error("a: got HTML value, want plain text (name_attr is always forced to text)")
	}
	if got := a.String(); got != ">Some bold name" {
		t.Errorf("a: got %q, want %q", got, ">Some bold name")
	}
}

// TestAlignRow_ValueForRespectsUnformattedColumns is a narrower unit test of
// valueFor/alignRow directly, covering the skip-columns regime too.
func TestAlignRow_ValueForRespectsUnformattedColumns(t *testing.T) {
	opts := Options{
		ColumnToAttr:       specmodel.NewColumnMap(map[int]string{0: "n", 1: "t", 2: "u"}),
		NameAttr:           "n",
		SkipColumns:        []int{1},
		UnformattedColumns: map[int]bool{2: true},
	}
	cells := []logicalCell{
		{value: cellValue{text: "X", html: "X"}, colspan: 1},
		{value: cellValue{text: "Desc", html: "<b>Desc</b>"}, colspan: 1},
	}

	attrs, usedSkip := alignRow(cells, opts)
	if !usedSkip {
		t.Fatal("usedSkip: got false, want true (cell count matches len(map)-len(skip))")
	}
	n, _ := attrs.Get("n")
	if got := n.String(); got != "X" {
		t.Errorf("n: got %q, want %q", got, "X")
	}
	u, _ := attrs.Get("u")
	if !u.IsHTML() {
		t.Error("u: got plain text, want HTML (column flagged unformatted)")
	}
	if got := u.String(); got != "<b>Desc</b>" {
		t.Errorf("u: got %q, want %q", got, "<b>Desc</b>")
	}
}
