package specmodel

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// MarshalJSON renders a Node as {"name":..., <attrs in insertion order>...,
// "children":[...]} — attrs are flattened into the object alongside "name"
// rather than nested, and "children" is emitted only when non-empty.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	nameJSON, err := json.Marshal(n.Name)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"name":`)
	buf.Write(nameJSON)

	if n.Attrs != nil {
		for pair := n.Attrs.Oldest(); pair != nil; pair = pair.Next() {
			keyJSON, err := json.Marshal(pair.Key)
			if err != nil {
				return nil, err
			}
			valJSON, err := pair.Value.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.WriteByte(',')
			buf.Write(keyJSON)
			buf.WriteByte(':')
			buf.Write(valJSON)
		}
	}

	if len(n.Children) > 0 {
		buf.WriteString(`,"children":[`)
		for i, c := range n.Children {
			if i > 0 {
				buf.WriteByte(',')
			}
			childJSON, err := json.Marshal(c)
			if err != nil {
				return nil, err
			}
			buf.Write(childJSON)
		}
		buf.WriteByte(']')
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores a Node from its flattened JSON object. Children are
// re-parented (their Parent pointer is set) as they're attached.
func (n *Node) UnmarshalJSON(b []byte) error {
	raw := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(b, raw); err != nil {
		return err
	}

	n.Attrs = NewAttrs()
	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		switch pair.Key {
		case "name":
			if err := json.Unmarshal(pair.Value, &n.Name); err != nil {
				return fmt.Errorf("node name: %w", err)
			}
		case "children":
			var rawChildren []json.RawMessage
			if err := json.Unmarshal(pair.Value, &rawChildren); err != nil {
				return fmt.Errorf("node children: %w", err)
			}
			for _, cr := range rawChildren {
				child := NewNode("")
				if err := json.Unmarshal(cr, child); err != nil {
					return err
				}
				child.Parent = nil
				n.AddChild(child)
			}
		default:
			var v Value
			if err := json.Unmarshal(pair.Value, &v); err != nil {
				return fmt.Errorf("node attr %q: %w", pair.Key, err)
			}
			n.Attrs.Set(pair.Key, v)
		}
	}
	return nil
}
