package specmodel

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Metadata carries the scalar fields attached to a SpecModel. Unlike Node it
// is a fixed struct, not a dynamic bag —
// the persisted shape gives metadata named fields, not an attribute map.
type Metadata struct {
	Version      string
	Header       []string
	ColumnToAttr *ColumnMap
	TableID      string
	URL          string
	IncludeDepth *int // nil = unlimited
	NameAttr     string
}

// NewMetadata builds an empty Metadata with an empty ColumnMap.
func NewMetadata() *Metadata {
	return &Metadata{ColumnToAttr: NewColumnMap(nil)}
}

// Clone returns a deep copy of m.
func (m *Metadata) Clone() *Metadata {
	clone := &Metadata{
		Version:  m.Version,
		Header:   append([]string(nil), m.Header...),
		TableID:  m.TableID,
		URL:      m.URL,
		NameAttr: m.NameAttr,
	}
	if m.IncludeDepth != nil {
		d := *m.IncludeDepth
		clone.IncludeDepth = &d
	}
	if m.ColumnToAttr != nil {
		clone.ColumnToAttr = NewColumnMapOrdered(m.ColumnToAttr.Keys(), m.ColumnToAttr.Attrs())
	} else {
		clone.ColumnToAttr = NewColumnMap(nil)
	}
	return clone
}

// MarshalJSON renders {"name":"metadata","version":...,"header":...,
// "column_to_attr":...,"table_id":...,"url":...,"include_depth":...,
// "name_attr":...} — name_attr/include_depth are omitted when unset,
// matching the teacher's
// omitempty convention (docpipe/types.go).
func (m *Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"name":"metadata"`)

	write := func(key string, v any) error {
		keyJSON, _ := json.Marshal(key)
		valJSON, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.WriteByte(',')
		buf.Write(keyJSON)
		buf.WriteByte(':')
		buf.Write(valJSON)
		return nil
	}

	if err := write("version", m.Version); err != nil {
		return nil, err
	}
	if err := write("header", m.Header); err != nil {
		return nil, err
	}
	buf.WriteString(`,"column_to_attr":`)
	colJSON, err := m.ColumnToAttr.MarshalJSON()
	if err != nil {
		return nil, err
	}
	buf.Write(colJSON)
	if err := write("table_id", m.TableID); err != nil {
		return nil, err
	}
	if err := write("url", m.URL); err != nil {
		return nil, err
	}
	if m.IncludeDepth != nil {
		if err := write("include_depth", *m.IncludeDepth); err != nil {
			return nil, err
		}
	}
	if m.NameAttr != "" {
		if err := write("name_attr", m.NameAttr); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores Metadata from its persisted shape.
func (m *Metadata) UnmarshalJSON(b []byte) error {
	raw := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(b, raw); err != nil {
		return err
	}
	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		var err error
		switch pair.Key {
		case "name":
			// discarded; the wrapper name is always "metadata"
		case "version":
			err = json.Unmarshal(pair.Value, &m.Version)
		case "header":
			err = json.Unmarshal(pair.Value, &m.Header)
		case "column_to_attr":
			m.ColumnToAttr = NewColumnMap(nil)
			err = json.Unmarshal(pair.Value, m.ColumnToAttr)
		case "table_id":
			err = json.Unmarshal(pair.Value, &m.TableID)
		case "url":
			err = json.Unmarshal(pair.Value, &m.URL)
		case "include_depth":
			var d int
			if err = json.Unmarshal(pair.Value, &d); err == nil {
				m.IncludeDepth = &d
			}
		case "name_attr":
			err = json.Unmarshal(pair.Value, &m.NameAttr)
		default:
			// Forward-compatible: ignore fields this version doesn't know.
		}
		if err != nil {
			return fmt.Errorf("metadata.%s: %w", pair.Key, err)
		}
	}
	if m.ColumnToAttr == nil {
		m.ColumnToAttr = NewColumnMap(nil)
	}
	return nil
}
