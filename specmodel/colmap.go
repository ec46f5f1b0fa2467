package specmodel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// ColumnMap is the metadata "column_to_attr" mapping: an ordered, integer-keyed
// map from table column index to attribute name.
//
// It is deliberately not a generic ordered map (unlike Node's attribute bag):
// it carries the contiguity invariant that keys form {0..k-1} after any
// realignment, and a Realign operation that a generic container does not
// model.
type ColumnMap struct {
	keys  []int
	attrs []string
}

// NewColumnMap builds a ColumnMap from a raw key→attr mapping. Keys need not
// be contiguous or start at 0 — TableParser inputs frequently aren't.
func NewColumnMap(raw map[int]string) *ColumnMap {
	keys := make([]int, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	attrs := make([]string, len(keys))
	for i, k := range keys {
		attrs[i] = raw[k]
	}
	return &ColumnMap{keys: keys, attrs: attrs}
}

// NewColumnMapOrdered builds a ColumnMap from parallel, already-ordered
// key/attr slices (used when the caller has already sorted its input, e.g.
// loading from JSON where keys are contiguous by construction).
func NewColumnMapOrdered(keys []int, attrs []string) *ColumnMap {
	return &ColumnMap{keys: append([]int(nil), keys...), attrs: append([]string(nil), attrs...)}
}

// Len returns the number of entries.
func (m *ColumnMap) Len() int { return len(m.keys) }

// MaxKey returns the largest key, or -1 if empty.
func (m *ColumnMap) MaxKey() int {
	if len(m.keys) == 0 {
		return -1
	}
	return m.keys[len(m.keys)-1]
}

// Get returns the attribute name for key.
func (m *ColumnMap) Get(key int) (string, bool) {
	for i, k := range m.keys {
		if k == key {
			return m.attrs[i], true
		}
	}
	return "", false
}

// Keys returns the sorted list of keys.
func (m *ColumnMap) Keys() []int { return append([]int(nil), m.keys...) }

// Attrs returns the attribute names in key order.
func (m *ColumnMap) Attrs() []string { return append([]string(nil), m.attrs...) }

// IndexOf returns the position of attr in key order, or -1 if absent.
func (m *ColumnMap) IndexOf(attr string) int {
	for i, a := range m.attrs {
		if a == attr {
			return i
		}
	}
	return -1
}

// IsContiguousFromZero reports whether keys are exactly {0..len-1}.
func (m *ColumnMap) IsContiguousFromZero() bool {
	for i, k := range m.keys {
		if k != i {
			return false
		}
	}
	return true
}

// Realign returns a new ColumnMap with the same attrs in the same order but
// renumbered to contiguous keys {0..k-1}.
func (m *ColumnMap) Realign() *ColumnMap {
	keys := make([]int, len(m.attrs))
	for i := range keys {
		keys[i] = i
	}
	return &ColumnMap{keys: keys, attrs: append([]string(nil), m.attrs...)}
}

// WithoutOriginalKeys drops entries whose original key is in drop, then
// realigns to contiguous keys. Used when skip_columns causes a permanent
// column drop.
func (m *ColumnMap) WithoutOriginalKeys(drop []int) *ColumnMap {
	dropSet := make(map[int]bool, len(drop))
	for _, d := range drop {
		dropSet[d] = true
	}
	var attrs []string
	for i, k := range m.keys {
		if !dropSet[k] {
			attrs = append(attrs, m.attrs[i])
		}
	}
	return (&ColumnMap{attrs: attrs}).Realign()
}

// AppendAttr returns a new ColumnMap with attr appended at the next
// contiguous key, used when a merge introduces a new attribute column.
func (m *ColumnMap) AppendAttr(attr string) *ColumnMap {
	return &ColumnMap{
		keys:  append(append([]int(nil), m.keys...), m.MaxKey()+1),
		attrs: append(append([]string(nil), m.attrs...), attr),
	}
}

// MarshalJSON renders {"0":"attr0","1":"attr1",...} in ascending key order.
func (m *ColumnMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, _ := json.Marshal(strconv.Itoa(k))
		valJSON, err := json.Marshal(m.attrs[i])
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses a {"0":"attr0",...} object, coercing string keys to
// int.
func (m *ColumnMap) UnmarshalJSON(b []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	intMap := make(map[int]string, len(raw))
	for k, v := range raw {
		ik, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("column_to_attr key %q is not an integer: %w", k, err)
		}
		intMap[ik] = v
	}
	*m = *NewColumnMap(intMap)
	return nil
}
