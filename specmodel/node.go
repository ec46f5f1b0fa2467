package specmodel

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Attrs is the dynamic, insertion-ordered attribute bag carried by every Node.
// Column order in the source table is preserved as map insertion order.
type Attrs = orderedmap.OrderedMap[string, Value]

// NewAttrs creates an empty attribute bag.
func NewAttrs() *Attrs { return orderedmap.New[string, Value]() }

// Node is one tree node of a SpecModel's content tree.
//
// Name is mandatory and sanitised (see tableparser's sanitizeName). Parent is nil
// only for the tree root. Children are owned exclusively by their parent —
// callers must not share a *Node between two parents.
type Node struct {
	Name     string
	Attrs    *Attrs
	Children []*Node
	Parent   *Node
}

// NewNode creates a detached node with an empty attribute bag.
func NewNode(name string) *Node {
	return &Node{Name: name, Attrs: NewAttrs()}
}

// AddChild appends child to n's children and sets child's Parent to n.
// It panics if child already has a parent — ownership transfer must go
// through DetachFromParent first.
func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		panic("specmodel: AddChild on a node that already has a parent")
	}
	child.Parent = n
	n.Children = append(n.Children, child)
}

// DetachFromParent removes n from its parent's Children slice and clears
// n.Parent, returning n for reuse as the root of a different subtree.
func (n *Node) DetachFromParent() *Node {
	if n.Parent == nil {
		return n
	}
	p := n.Parent
	for i, c := range p.Children {
		if c == n {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			break
		}
	}
	n.Parent = nil
	return n
}

// Get returns the attribute value for key, or Null if unset.
func (n *Node) Get(key string) Value {
	if n.Attrs == nil {
		return Null
	}
	v, ok := n.Attrs.Get(key)
	if !ok {
		return Null
	}
	return v
}

// Set assigns an attribute, preserving first-insertion order.
func (n *Node) Set(key string, v Value) {
	if n.Attrs == nil {
		n.Attrs = NewAttrs()
	}
	n.Attrs.Set(key, v)
}

// Has reports whether key is present and non-null.
func (n *Node) Has(key string) bool {
	return !n.Get(key).IsNull()
}

// Delete removes an attribute, if present. Used by ServiceAttributeModel's
// DIMSE pruning, which drops attributes that belong to another service's
// columns.
func (n *Node) Delete(key string) {
	if n.Attrs == nil {
		return
	}
	n.Attrs.Delete(key)
}

// Walk visits n and every descendant in pre-order (source row order, which
// Children already preserves).
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Clone returns a deep copy of the subtree rooted at n, detached from any
// parent. Used whenever a caller needs to mutate a node drawn from a shared
// ModuleRegistry: consumers that need to mutate a shared node must clone it
// first.
func (n *Node) Clone() *Node {
	clone := &Node{Name: n.Name, Attrs: NewAttrs()}
	if n.Attrs != nil {
		for pair := n.Attrs.Oldest(); pair != nil; pair = pair.Next() {
			clone.Attrs.Set(pair.Key, pair.Value)
		}
	}
	for _, c := range n.Children {
		childClone := c.Clone()
		clone.AddChild(childClone)
	}
	return clone
}
