package xmltree

import "strings"

// AttrMarker prefixes keys that name attributes in untyped trees (JSON input).
const AttrMarker = "@"

// Attribute is a name/value pair rendered on an opening tag.
type Attribute struct {
	Name  string
	Value string
}

// Extract splits m into its attribute entries and the remaining children.
// Both keep the order of m. m itself is not modified.
func Extract(m Mapping) ([]Attribute, Mapping) {
	var attrs []Attribute
	children := make(Mapping, 0, len(m))
	for _, e := range m {
		if e.IsAttr {
			attrs = append(attrs, Attribute{Name: e.Name, Value: e.Value})
			continue
		}
		children = append(children, e)
	}
	return attrs, children
}

// AttrText renders attrs as `a1="v1" a2="v2"`. Values are not escaped.
func AttrText(attrs []Attribute) string {
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = a.Name + `="` + a.Value + `"`
	}
	return strings.Join(parts, " ")
}

// FromKey builds an entry from an untyped key. Keys starting with AttrMarker
// become attributes and must hold a Leaf.
func FromKey(key string, n Node) (Entry, error) {
	name, isAttr := strings.CutPrefix(key, AttrMarker)
	if !isAttr {
		return Child(key, n), nil
	}
	leaf, ok := n.(Leaf)
	if !ok {
		return Entry{}, &MalformedTreeError{Path: key, Reason: "attribute value must be scalar"}
	}
	return Attr(name, string(leaf)), nil
}
