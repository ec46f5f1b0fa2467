package specmodel

// Value is a Node attribute value: plain text, an HTML fragment, or null.
// Only one of the two string-bearing kinds is ever set.
type Value struct {
	kind  valueKind
	inner string
}

type valueKind uint8

const (
	kindNull valueKind = iota
	kindText
	kindHTML
)

// Text builds a plain-text Value.
func Text(s string) Value { return Value{kind: kindText, inner: s} }

// HTML builds an HTML-fragment Value.
func HTML(s string) Value { return Value{kind: kindHTML, inner: s} }

// Null is the absent/cleared value (used for span-covered columns).
var Null = Value{kind: kindNull}

// IsNull reports whether v carries no value.
func (v Value) IsNull() bool { return v.kind == kindNull }

// IsHTML reports whether v holds a raw HTML fragment rather than plain text.
func (v Value) IsHTML() bool { return v.kind == kindHTML }

// String returns the underlying string, or "" for Null.
func (v Value) String() string { return v.inner }

// MarshalJSON renders Null as JSON null and both string kinds as JSON strings —
// the persisted shape makes no distinction between Text and HTML.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == kindNull {
		return []byte("null"), nil
	}
	return marshalJSONString(v.inner)
}

// UnmarshalJSON restores a Value from the persisted shape. Loaded values are
// always Text; the HTML/Text distinction is a parse-time annotation only,
// not a structural part of a round-tripped model, which requires structural
// equality, not value-kind equality.
func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Null
		return nil
	}
	s, err := unmarshalJSONString(b)
	if err != nil {
		return err
	}
	*v = Text(s)
	return nil
}
