package specmodel

import (
	"encoding/json"
	"testing"
)

func TestValue_TextHTMLNull(t *testing.T) {
	txt := Text("hello")
	if txt.IsNull() {
		t.Error("txt.IsNull(): got true, want false")
	}
	if txt.IsHTML() {
		t.Error("txt.IsHTML(): got true, want false")
	}
	if got := txt.String(); got != "hello" {
		t.Errorf("txt.String(): got %q, want %q", got, "hello")
	}

	htm := HTML("<b>hi</b>")
	if !htm.IsHTML() {
		t.Error("htm.IsHTML(): got false, want true")
	}
	if got := htm.String(); got != "<b>hi</b>" {
		t.Errorf("htm.String(): got %q, want %q", got, "<b>hi</b>")
	}

	if !Null.IsNull() {
		t.Error("Null.IsNull(): got false, want true")
	}
	if got := Null.String(); got != "" {
		t.Errorf("Null.String(): got %q, want empty", got)
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	b, err := Null.MarshalJSON()
	if err != nil {
		t.Fatalf("Null.MarshalJSON: %v", err)
	}
	if string(b) != "null" {
		t.Errorf("Null.MarshalJSON(): got %s, want %s", b, "null")
	}

	b, err = Text("A").MarshalJSON()
	if err != nil {
		t.Fatalf("Text(A).MarshalJSON: %v", err)
	}
	if string(b) != `"A"` {
		t.Errorf("Text(A).MarshalJSON(): got %s, want %s", b, `"A"`)
	}

	// The persisted shape makes no Text/Html distinction.
	b, err = HTML("<i>A</i>").MarshalJSON()
	if err != nil {
		t.Fatalf("HTML.MarshalJSON: %v", err)
	}
	if string(b) != `"<i>A</i>"` {
		t.Errorf("HTML.MarshalJSON(): got %s, want %s", b, `"<i>A</i>"`)
	}
}

func TestValue_UnmarshalJSON(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte("null"), &v); err != nil {
		t.Fatalf("json.Unmarshal(null): %v", err)
	}
	if !v.IsNull() {
		t.Error("v.IsNull(): got false, want true")
	}

	if err := json.Unmarshal([]byte(`"hi"`), &v); err != nil {
		t.Fatalf(`json.Unmarshal("hi"): %v`, err)
	}
	if got := v.String(); got != "hi" {
		t.Errorf("v.String(): got %q, want %q", got, "hi")
	}
	if v.IsHTML() {
		t.Error("a round-tripped value is always Text, per structural (not value-kind) equality")
	}
}
