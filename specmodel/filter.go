package specmodel

import "strings"

// DefaultKeep and DefaultRemove are FilterRequired's default optionality sets.
var (
	DefaultKeep   = []string{"1", "1C", "2", "2C"}
	DefaultRemove = []string{"3"}
)

// sequenceDropSet is the set of optionality values that, on a "_sequence"
// node, cause all descendants to be dropped regardless of keep/remove.
var sequenceDropSet = map[string]bool{
	"3": true, "2": true, "2C": true, "-": true, "O": true, "Not allowed": true,
}

// ExcludeTitles removes every module-title node from the content tree,
// except include placeholders. A removed node's
// children are spliced into its place so no data is silently dropped.
func (m *SpecModel) ExcludeTitles() {
	isTitle := func(n *Node) bool { return IsModuleTitle(n, m.Metadata.ColumnToAttr) }
	var walk func(n *Node)
	walk = func(n *Node) {
		n.Children = filterChildren(n, n.Children, isTitle)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(m.Content)
}

// FilterRequired removes nodes whose attr value is in remove and not in
// keep. Additionally, any node whose name contains "_sequence" and whose
// attr value is in {3,2,2C,-,O,Not allowed} has all of its descendants
// removed, though the sequence node itself survives unless it also matches
// the remove rule.
func (m *SpecModel) FilterRequired(attr string, keep, remove []string) {
	if keep == nil {
		keep = DefaultKeep
	}
	if remove == nil {
		remove = DefaultRemove
	}
	keepSet := toSet(keep)
	removeSet := toSet(remove)

	shouldDrop := func(n *Node) bool {
		v := n.Get(attr)
		if v.IsNull() {
			return false
		}
		return removeSet[v.String()] && !keepSet[v.String()]
	}

	var walk func(n *Node)
	walk = func(n *Node) {
		n.Children = filterChildren(n, n.Children, shouldDrop)
		for _, c := range n.Children {
			if containsSequence(c.Name) && sequenceDropSet[c.Get(attr).String()] {
				c.Children = nil
				continue
			}
			walk(c)
		}
	}
	walk(m.Content)
}

func containsSequence(name string) bool {
	return strings.Contains(name, "_sequence")
}

func toSet(ss []string) map[string]bool {
	set := make(map[string]bool, len(ss))
	for _, s := range ss {
		set[s] = true
	}
	return set
}

// filterChildren removes children matching drop (except include placeholders),
// splicing each removed node's own children into its place to preserve order
// and avoid silently discarding descendants.
func filterChildren(parent *Node, children []*Node, drop func(*Node) bool) []*Node {
	var out []*Node
	for _, c := range children {
		if drop(c) && !IsIncludePlaceholder(c) {
			for _, grandchild := range c.Children {
				grandchild.Parent = nil
				grandchild.Parent = parent
				out = append(out, grandchild)
			}
			continue
		}
		out = append(out, c)
	}
	return out
}
