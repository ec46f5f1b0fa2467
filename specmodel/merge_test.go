package specmodel

import (
	"testing"

	"github.com/dcmspec/dcmspec/dcmerr"
)

func leftModelForNodeMatch(t *testing.T) *SpecModel {
	t.Helper()
	root := NewContentRoot()

	shallow := NewNode("referenced_sop_class_uid")
	shallow.Set("elem_tag", Text("(0101,1011)"))
	root.AddChild(shallow)

	parent := NewNode("referenced_series_sequence")
	deep := NewNode("referenced_sop_class_uid")
	deep.Set("elem_tag", Text("(0101,1011)"))
	parent.AddChild(deep)
	root.AddChild(parent)

	m, err := New(nil, root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

// TestMergeMatchingNode_PropagatesToEveryMatch checks that node-match merge
// propagates an attribute to every matching left node regardless of depth.
func TestMergeMatchingNode_PropagatesToEveryMatch(t *testing.T) {
	left := leftModelForNodeMatch(t)

	rightRoot := NewContentRoot()
	rightNode := NewNode("whatever_name")
	rightNode.Set("elem_tag", Text("(0101,1011)"))
	rightNode.Set("vr", Text("DS"))
	rightRoot.AddChild(rightNode)
	right, err := New(nil, rightRoot)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	merged, err := left.MergeMatchingNode(right, MergeOptions{
		MatchBy:       MatchByAttribute,
		AttributeName: "elem_tag",
		MergeAttrs:    []string{"vr"},
	})
	if err != nil {
		t.Fatalf("MergeMatchingNode: %v", err)
	}

	if got := merged.Content.Children[0].Get("vr").String(); got != "DS" {
		t.Errorf("Children[0].vr: got %q, want %q", got, "DS")
	}
	if got := merged.Content.Children[1].Children[0].Get("vr").String(); got != "DS" {
		t.Errorf("Children[1].Children[0].vr: got %q, want %q", got, "DS")
	}
}

// TestMergeMatchingPath_IgnoreModuleLevel checks that path-match merge with
// IgnoreModuleLevel aligns the left's content/module/... with the right's
// content/....
func TestMergeMatchingPath_IgnoreModuleLevel(t *testing.T) {
	leftRoot := NewContentRoot()
	module := NewNode("module")
	leaf := NewNode("patient_s_name")
	leaf.Set("elem_tag", Text("(0010,0010)"))
	module.AddChild(leaf)
	leftRoot.AddChild(module)
	left, err := New(nil, leftRoot)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rightRoot := NewContentRoot()
	rightLeaf := NewNode("patient_s_name")
	rightLeaf.Set("elem_tag", Text("(0010,0010)"))
	rightLeaf.Set("vr", Text("PN"))
	rightRoot.AddChild(rightLeaf)
	right, err := New(nil, rightRoot)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	merged, err := left.MergeMatchingPath(right, MergeOptions{
		MatchBy:           MatchByName,
		MergeAttrs:        []string{"vr"},
		IgnoreModuleLevel: true,
	})
	if err != nil {
		t.Fatalf("MergeMatchingPath: %v", err)
	}

	if got := merged.Content.Children[0].Children[0].Get("vr").String(); got != "PN" {
		t.Errorf("vr: got %q, want %q", got, "PN")
	}
}

// TestMergeMatchingPath_EmptyMergeAttrsIsIdentity checks that merging a
// model with itself and an empty merge_attrs list is a no-op (equal to the
// original).
func TestMergeMatchingPath_EmptyMergeAttrsIsIdentity(t *testing.T) {
	left := leftModelForNodeMatch(t)

	merged, err := left.MergeMatchingPath(left, MergeOptions{MatchBy: MatchByName, MergeAttrs: nil})
	if err != nil {
		t.Fatalf("MergeMatchingPath: %v", err)
	}

	if got, want := merged.Content.Children[0].Get("elem_tag").String(), left.Content.Children[0].Get("elem_tag").String(); got != want {
		t.Errorf("elem_tag: got %q, want %q", got, want)
	}
	if merged.Content.Children[0].Has("vr") {
		t.Error("vr: got present, want absent")
	}
}

func TestMerge_InvalidMatchBy(t *testing.T) {
	left := leftModelForNodeMatch(t)

	_, err := left.MergeMatchingPath(left, MergeOptions{MatchBy: "bogus"})
	if err == nil {
		t.Fatal("MergeMatchingPath: got nil error, want non-nil")
	}
	if !dcmerr.Is(err, dcmerr.InvalidMatchBy) {
		t.Errorf("dcmerr.Is(err, InvalidMatchBy): got false, want true")
	}

	_, err = left.MergeMatchingNode(left, MergeOptions{MatchBy: "bogus"})
	if err == nil {
		t.Fatal("MergeMatchingNode: got nil error, want non-nil")
	}
	if !dcmerr.Is(err, dcmerr.InvalidMatchBy) {
		t.Errorf("dcmerr.Is(err, InvalidMatchBy): got false, want true")
	}
}

func TestMergeMatchingNode_NeverRemovesLeftAttributes(t *testing.T) {
	leftRoot := NewContentRoot()
	leftNode := NewNode("patient_s_name")
	leftNode.Set("elem_tag", Text("(0010,0010)"))
	leftNode.Set("type", Text("1"))
	leftRoot.AddChild(leftNode)
	left, err := New(nil, leftRoot)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rightRoot := NewContentRoot()
	rightNode := NewNode("patient_s_name")
	rightNode.Set("type", Null)
	rightRoot.AddChild(rightNode)
	right, err := New(nil, rightRoot)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	merged, err := left.MergeMatchingNode(right, MergeOptions{MatchBy: MatchByName, MergeAttrs: []string{"type"}})
	if err != nil {
		t.Fatalf("MergeMatchingNode: %v", err)
	}
	if got := merged.Content.Children[0].Get("type").String(); got != "1" {
		t.Errorf("a null right value must not overwrite an existing left attribute: got %q, want %q", got, "1")
	}
}
