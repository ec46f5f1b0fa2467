package tableparser

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/dcmspec/dcmspec/specmodel"
)

// ParseCSV is the CSV projection of ParseTable — a projection with empty
// cells filled in: no span propagation (CSV has no rowspan/colspan),
// Default-regime alignment (the skip-columns regime still applies to a row
// short by exactly the skipped columns), and include resolution disabled — an
// include-looking cell is kept as ordinary text.
func ParseCSV(r io.Reader, opts Options) (*specmodel.Metadata, []*specmodel.Node, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var roots []*specmodel.Node
	var stack []*specmodel.Node
	skipOccurred := false

	var header []string
	first := true
	rowNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if first {
			header = record
			first = false
			continue
		}
		rowNum++

		cells := make([]logicalCell, len(record))
		for i, field := range record {
			cells[i] = logicalCell{value: cellValue{text: CleanCellText(field), html: field}, colspan: 1}
		}
		attrs, usedSkip := alignRow(cells, opts)
		if usedSkip {
			skipOccurred = true
		}

		rawName := attrs.Get(opts.NameAttr).String()
		if strings.Contains(rawName, "Include") {
			opts.logger().Warn("tableparser: CSV tables never recurse, keeping include-looking cell as text", "row", rowNum)
		}

		depth, rest := countLeadingGT(rawName)
		name := sanitizeName(rest)

		node := specmodel.NewNode(name)
		copyAttrsInto(node, attrs)
		insertNode(&roots, &stack, node, depth)
	}

	meta := specmodel.NewMetadata()
	meta.NameAttr = opts.NameAttr
	meta.Header = header
	if skipOccurred {
		meta.ColumnToAttr = opts.ColumnToAttr.WithoutOriginalKeys(opts.SkipColumns)
	} else {
		meta.ColumnToAttr = opts.ColumnToAttr.Realign()
	}
	return meta, roots, nil
}
