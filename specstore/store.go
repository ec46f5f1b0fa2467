// Package specstore (de)serializes a specmodel.SpecModel to the pipeline's
// JSON cache format: one file per model, holding the metadata and content
// trees as children of a transient root, pretty printed with attribute
// order preserved.
package specstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dcmspec/dcmspec/dcmerr"
	"github.com/dcmspec/dcmspec/specmodel"
)

type document struct {
	Name     string            `json:"name"`
	Children []json.RawMessage `json:"children"`
}

// Save writes model to path as pretty JSON, creating parent directories on
// demand. Write errors are fatal.
func Save(model *specmodel.SpecModel, path string) error {
	metaJSON, err := model.Metadata.MarshalJSON()
	if err != nil {
		return dcmerr.New(dcmerr.IoError, "specstore.Save", err)
	}
	contentJSON, err := model.Content.MarshalJSON()
	if err != nil {
		return dcmerr.New(dcmerr.IoError, "specstore.Save", err)
	}

	doc := document{Name: "dcmspec", Children: []json.RawMessage{metaJSON, contentJSON}}
	b, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return dcmerr.New(dcmerr.IoError, "specstore.Save", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return dcmerr.New(dcmerr.IoError, "specstore.Save", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return dcmerr.New(dcmerr.IoError, "specstore.Save", err)
	}
	return nil
}

// Load parses path into a SpecModel. metadata.column_to_attr's keys are
// coerced from strings to integers as part of ColumnMap's own
// UnmarshalJSON.
func Load(path string) (*specmodel.SpecModel, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, dcmerr.New(dcmerr.IoError, "specstore.Load", err)
	}

	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, dcmerr.New(dcmerr.ParseError, "specstore.Load", err)
	}
	if len(doc.Children) != 2 {
		return nil, dcmerr.New(dcmerr.ParseError, "specstore.Load", fmt.Errorf("expected 2 children, got %d", len(doc.Children)))
	}

	meta := specmodel.NewMetadata()
	if err := json.Unmarshal(doc.Children[0], meta); err != nil {
		return nil, dcmerr.New(dcmerr.ParseError, "specstore.Load", err)
	}
	content := specmodel.NewNode("")
	if err := json.Unmarshal(doc.Children[1], content); err != nil {
		return nil, dcmerr.New(dcmerr.ParseError, "specstore.Load", err)
	}

	return specmodel.New(meta, content)
}
