package specmodel

import (
	"encoding/json"
	"testing"
)

func jsonEq(t *testing.T, got []byte, want string) {
	t.Helper()
	var gotAny, wantAny any
	if err := json.Unmarshal(got, &gotAny); err != nil {
		t.Fatalf("json.Unmarshal(got): %v", err)
	}
	if err := json.Unmarshal([]byte(want), &wantAny); err != nil {
		t.Fatalf("json.Unmarshal(want): %v", err)
	}
	gotCanon, _ := json.Marshal(gotAny)
	wantCanon, _ := json.Marshal(wantAny)
	if string(gotCanon) != string(wantCanon) {
		t.Errorf("JSON mismatch: got %s, want %s", got, want)
	}
}

func TestNode_MarshalJSON_FlattensAttrsAlongsideName(t *testing.T) {
	n := NewNode("patient_s_name")
	n.Set("elem_tag", Text("(0010,0010)"))
	n.Set("type", Text("1"))

	b, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	jsonEq(t, b, `{"name":"patient_s_name","elem_tag":"(0010,0010)","type":"1"}`)
}

func TestNode_MarshalJSON_OmitsChildrenWhenEmpty(t *testing.T) {
	n := NewNode("leaf")
	b, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	jsonEq(t, b, `{"name":"leaf"}`)
}

func TestNode_MarshalJSON_NestsChildren(t *testing.T) {
	parent := NewNode("sequence_item")
	child := NewNode("inner_attr")
	child.Set("type", Text("1"))
	parent.AddChild(child)

	b, err := json.Marshal(parent)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	jsonEq(t, b, `{"name":"sequence_item","children":[{"name":"inner_attr","type":"1"}]}`)
}

func TestNode_UnmarshalJSON_ReparentsChildren(t *testing.T) {
	raw := `{"name":"parent","elem_tag":"(0010,0010)","children":[{"name":"child","type":"1"}]}`
	n := NewNode("")
	if err := json.Unmarshal([]byte(raw), n); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}

	if n.Name != "parent" {
		t.Errorf("Name: got %q, want %q", n.Name, "parent")
	}
	if got := n.Get("elem_tag").String(); got != "(0010,0010)" {
		t.Errorf("elem_tag: got %q, want %q", got, "(0010,0010)")
	}
	if len(n.Children) != 1 {
		t.Fatalf("Children: got %d, want 1", len(n.Children))
	}
	if n.Children[0].Parent != n {
		t.Error("Children[0].Parent: got different node, want n")
	}
	if n.Children[0].Name != "child" {
		t.Errorf("Children[0].Name: got %q, want %q", n.Children[0].Name, "child")
	}
}

func TestNode_JSONRoundTrip_PreservesAttrOrder(t *testing.T) {
	n := NewNode("row")
	n.Set("c", Text("1"))
	n.Set("a", Text("2"))
	n.Set("b", Text("3"))

	b, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}

	loaded := NewNode("")
	if err := json.Unmarshal(b, loaded); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}

	var order []string
	for pair := loaded.Attrs.Oldest(); pair != nil; pair = pair.Next() {
		order = append(order, pair.Key)
	}
	want := []string{"c", "a", "b"}
	if len(order) != len(want) {
		t.Fatalf("attr order: got %v, want %v", order, want)
	}
	for i, k := range want {
		if order[i] != k {
			t.Errorf("attr order[%d]: got %q, want %q", i, order[i], k)
		}
	}
}
