package tableparser

import (
	"github.com/dcmspec/dcmspec/specmodel"
)

// reducedKeys returns colmap's keys in order with skipCols removed.
func reducedKeys(colmap *specmodel.ColumnMap, skipCols []int) []int {
	skip := make(map[int]bool, len(skipCols))
	for _, k := range skipCols {
		skip[k] = true
	}
	var out []int
	for _, k := range colmap.Keys() {
		if !skip[k] {
			out = append(out, k)
		}
	}
	return out
}

func valueFor(key int, attrName string, opts Options, cv cellValue, warnOnce *bool) specmodel.Value {
	if attrName == opts.NameAttr {
		if opts.UnformattedColumns[key] && !*warnOnce {
			opts.logger().Warn("tableparser: name_attr column forced to text", "attr", attrName)
			*warnOnce = true
		}
		return specmodel.Text(cv.text)
	}
	if opts.UnformattedColumns[key] {
		return specmodel.HTML(cv.html)
	}
	return specmodel.Text(cv.text)
}

// alignRow assigns one row's logical cells to attribute names, choosing the
// skip-columns regime when the row's cell count matches len(map)-len(skip),
// otherwise the default colspan-aware regime. It reports whether the
// skip-columns regime applied.
func alignRow(cells []logicalCell, opts Options) (*specmodel.Attrs, bool) {
	colmap := opts.ColumnToAttr
	attrs := specmodel.NewAttrs()
	nameWarned := false

	if len(opts.SkipColumns) > 0 && len(cells) == colmap.Len()-len(opts.SkipColumns) {
		keys := reducedKeys(colmap, opts.SkipColumns)
		for i, key := range keys {
			if i >= len(cells) {
				break
			}
			attrName, _ := colmap.Get(key)
			attrs.Set(attrName, valueFor(key, attrName, opts, cells[i].value, &nameWarned))
		}
		return attrs, true
	}

	keys := colmap.Keys()
	ci := 0
	ki := 0
	for ki < len(keys) {
		key := keys[ki]
		attrName, _ := colmap.Get(key)
		if ci >= len(cells) {
			attrs.Set(attrName, specmodel.Null)
			ki++
			continue
		}
		cell := cells[ci]
		attrs.Set(attrName, valueFor(key, attrName, opts, cell.value, &nameWarned))
		ci++
		ki++
		skip := cell.colspan - 1
		for s := 0; s < skip && ki < len(keys); s++ {
			nullAttr, _ := colmap.Get(keys[ki])
			attrs.Set(nullAttr, specmodel.Null)
			ki++
		}
	}
	return attrs, false
}
