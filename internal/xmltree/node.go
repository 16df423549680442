// Package xmltree builds ordered element trees and serializes them to markup.
//
// A tree is made of three node kinds. A Leaf is scalar text. A Mapping is an
// ordered list of entries, each either an attribute of the enclosing element or
// a named child element. A Sequence is a list of sibling sub-trees that share a
// single wrapping element.
//
// Entry order is significant: it is the order elements appear in the output,
// and registration schemas enforce it.
package xmltree

import "strconv"

// Node is one of Leaf, Mapping or Sequence.
type Node interface {
	node()
}

// Leaf is scalar element content. It is emitted verbatim.
type Leaf string

// Mapping is an ordered list of attribute and child entries.
type Mapping []Entry

// Sequence holds sibling sub-trees wrapped once by the entry that owns it.
// Each element must carry its own inner element name.
type Sequence []Node

func (Leaf) node()     {}
func (Mapping) node()  {}
func (Sequence) node() {}

// Entry is a single item of a Mapping.
type Entry struct {
	Name string

	// Attribute entries carry Value; child entries carry Node.
	IsAttr bool
	Value  string
	Node   Node
}

// Attr returns an attribute entry.
func Attr(name, value string) Entry {
	return Entry{Name: name, IsAttr: true, Value: value}
}

// Child returns a child element entry.
func Child(name string, n Node) Entry {
	return Entry{Name: name, Node: n}
}

// Text returns a child element entry holding a Leaf.
func Text(name, value string) Entry {
	return Child(name, Leaf(value))
}

// Int returns a child element entry holding the decimal form of v.
func Int(name string, v int) Entry {
	return Child(name, Leaf(strconv.Itoa(v)))
}

// Map is shorthand for a Mapping literal.
func Map(entries ...Entry) Mapping {
	return Mapping(entries)
}

// Seq is shorthand for a Sequence literal.
func Seq(nodes ...Node) Sequence {
	return Sequence(nodes)
}
