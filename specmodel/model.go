package specmodel

import (
	"fmt"
	"strings"
)

// ContentRootName is the mandatory name of a SpecModel's content root.
const ContentRootName = "content"

// SpecModel is the persistable unit of the pipeline: a metadata tree and a
// content tree.
type SpecModel struct {
	Metadata *Metadata
	Content  *Node
}

// New builds a SpecModel, enforcing invariant 1 (content.name == "content",
// no parent).
func New(metadata *Metadata, content *Node) (*SpecModel, error) {
	if content.Name != ContentRootName {
		return nil, fmt.Errorf("specmodel: content root must be named %q, got %q", ContentRootName, content.Name)
	}
	if content.Parent != nil {
		return nil, fmt.Errorf("specmodel: content root must have no parent")
	}
	if metadata == nil {
		metadata = NewMetadata()
	}
	return &SpecModel{Metadata: metadata, Content: content}, nil
}

// NewContentRoot creates a detached, empty content root node.
func NewContentRoot() *Node { return NewNode(ContentRootName) }

// Clone returns a deep copy of the model; reloaded models are deep copies
// too, so mutating one never affects another.
func (m *SpecModel) Clone() *SpecModel {
	return &SpecModel{
		Metadata: m.Metadata.Clone(),
		Content:  m.Content.Clone(),
	}
}

// IsIncludePlaceholder reports whether n is an include placeholder: its name
// contains "include_table".
func IsIncludePlaceholder(n *Node) bool {
	return strings.Contains(n.Name, "include_table")
}

// IsModuleTitle reports whether n is a module-title node: only the column-0
// attribute is set, every other mapped
// column attribute is unset, and n is not an include placeholder.
func IsModuleTitle(n *Node, cols *ColumnMap) bool {
	if IsIncludePlaceholder(n) {
		return false
	}
	attrs := cols.Attrs()
	if len(attrs) == 0 {
		return false
	}
	if !n.Has(attrs[0]) {
		return false
	}
	for _, a := range attrs[1:] {
		if n.Has(a) {
			return false
		}
	}
	return true
}
