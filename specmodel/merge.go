package specmodel

import (
	"fmt"

	"github.com/dcmspec/dcmspec/dcmerr"
)

// MatchBy selects how merge primitives identify corresponding nodes.
type MatchBy string

const (
	MatchByName      MatchBy = "name"
	MatchByAttribute MatchBy = "attribute"
)

// MergeOptions parameterises both merge primitives.
type MergeOptions struct {
	MatchBy MatchBy
	// AttributeName is the attribute compared when MatchBy == MatchByAttribute.
	AttributeName string
	// MergeAttrs are the attribute names copied from matched right nodes.
	MergeAttrs []string
	// IgnoreModuleLevel, path-match only: the left tree's content→module→…
	// aligns with the right tree's content→… by transparently skipping the
	// left's "module" level when computing the comparison path.
	IgnoreModuleLevel bool
}

func (o MergeOptions) validate() error {
	if o.MatchBy != MatchByName && o.MatchBy != MatchByAttribute {
		err := fmt.Errorf("match_by must be %q or %q, got %q", MatchByName, MatchByAttribute, o.MatchBy)
		return dcmerr.New(dcmerr.InvalidMatchBy, "specmodel.Merge", err)
	}
	return nil
}

// pathSep is an ASCII control character vanishingly unlikely to appear in a
// DICOM table cell, used to join path components into a map key.
const pathSep = "\x1f"

func matchComponent(n *Node, opts MergeOptions) string {
	if opts.MatchBy == MatchByAttribute {
		return n.Get(opts.AttributeName).String()
	}
	return n.Name
}

// buildPathIndex indexes every node of root by its root-to-node path key.
// The first node in pre-order wins on key collision.
func buildPathIndex(root *Node, opts MergeOptions) map[string]*Node {
	index := make(map[string]*Node)
	var walk func(n *Node, path string)
	walk = func(n *Node, path string) {
		key := path + pathSep + matchComponent(n, opts)
		if _, exists := index[key]; !exists {
			index[key] = n
		}
		for _, c := range n.Children {
			walk(c, key)
		}
	}
	walk(root, "")
	return index
}

// leftPathKeys computes, for every node of root, the path key used to probe
// the right index — optionally skipping the module-level node directly
// under content, per IgnoreModuleLevel.
func leftPathKeys(root *Node, opts MergeOptions) map[*Node]string {
	keys := make(map[*Node]string, 0)
	var walk func(n *Node, path string, depth int)
	walk = func(n *Node, path string, depth int) {
		skip := opts.IgnoreModuleLevel && depth == 1
		key := path
		if !skip {
			key = path + pathSep + matchComponent(n, opts)
		}
		keys[n] = key
		for _, c := range n.Children {
			walk(c, key, depth+1)
		}
	}
	walk(root, "", 0)
	return keys
}

func copyMergeAttrs(dst, src *Node, attrs []string) {
	for _, a := range attrs {
		v := src.Get(a)
		if !v.IsNull() {
			dst.Set(a, v)
		}
	}
}

// MergeMatchingPath merges right into a clone of m, matching nodes whose
// root-to-node path (by name or by attribute value) is identical. Only attrs
// named in opts.MergeAttrs are copied; right never removes
// a left attribute.
func (m *SpecModel) MergeMatchingPath(right *SpecModel, opts MergeOptions) (*SpecModel, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	merged := m.Clone()

	rightIndex := buildPathIndex(right.Content, MergeOptions{MatchBy: opts.MatchBy, AttributeName: opts.AttributeName})
	leftKeys := leftPathKeys(merged.Content, opts)

	merged.Content.Walk(func(n *Node) {
		if rn, ok := rightIndex[leftKeys[n]]; ok {
			copyMergeAttrs(n, rn, opts.MergeAttrs)
		}
	})
	return merged, nil
}

// MergeMatchingNode merges right into a clone of m, matching each left node
// against any right node with equal name or attribute value, irrespective of
// tree position. On ambiguity, the first right match in pre-order wins.
func (m *SpecModel) MergeMatchingNode(right *SpecModel, opts MergeOptions) (*SpecModel, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	merged := m.Clone()

	rightByKey := make(map[string]*Node)
	right.Content.Walk(func(n *Node) {
		key := matchComponent(n, opts)
		if key == "" {
			return
		}
		if _, exists := rightByKey[key]; !exists {
			rightByKey[key] = n
		}
	})

	merged.Content.Walk(func(n *Node) {
		key := matchComponent(n, opts)
		if key == "" {
			return
		}
		if rn, ok := rightByKey[key]; ok {
			copyMergeAttrs(n, rn, opts.MergeAttrs)
		}
	})
	return merged, nil
}
