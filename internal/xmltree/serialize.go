package xmltree

import (
	"fmt"
	"strings"
)

// MalformedTreeError reports a node the serializer cannot render.
type MalformedTreeError struct {
	Path   string // slash separated element path, "[i]" for sequence slots
	Reason string
}

func (e *MalformedTreeError) Error() string {
	if e.Path == "" {
		return "malformed tree: " + e.Reason
	}
	return fmt.Sprintf("malformed tree at %s: %s", e.Path, e.Reason)
}

// Serialize renders n as markup.
//
// A Leaf is returned verbatim. A Mapping renders each child entry in order
// with nothing in between; attribute entries of a child Mapping go on that
// child's opening tag. A Sequence renders its elements joined by a single
// space and is wrapped once, by the entry holding it; at the top level it is
// not wrapped at all.
//
// No character escaping is performed.
func Serialize(n Node) (string, error) {
	return serialize(n, "")
}

func serialize(n Node, path string) (string, error) {
	switch v := n.(type) {
	case Leaf:
		return string(v), nil
	case Mapping:
		return serializeMapping(v, path)
	case Sequence:
		return serializeSequence(v, path)
	case nil:
		return "", &MalformedTreeError{Path: path, Reason: "nil node"}
	default:
		return "", &MalformedTreeError{Path: path, Reason: fmt.Sprintf("unsupported node type %T", n)}
	}
}

func serializeMapping(m Mapping, path string) (string, error) {
	var sb strings.Builder
	for _, e := range m {
		p := childPath(path, e.Name)
		if e.Name == "" {
			return "", &MalformedTreeError{Path: p, Reason: "empty element name"}
		}
		if e.IsAttr {
			return "", &MalformedTreeError{Path: p, Reason: "attribute has no enclosing element"}
		}

		switch v := e.Node.(type) {
		case Mapping:
			attrs, children := Extract(v)
			for _, a := range attrs {
				if a.Name == "" {
					return "", &MalformedTreeError{Path: p, Reason: "empty attribute name"}
				}
			}
			body, err := serializeMapping(children, p)
			if err != nil {
				return "", err
			}
			tag := e.Name
			if len(attrs) > 0 {
				tag += " " + AttrText(attrs)
			}
			sb.WriteString(Wrap(tag, body))
		case Sequence:
			body, err := serializeSequence(v, p)
			if err != nil {
				return "", err
			}
			sb.WriteString(Wrap(e.Name, body))
		case Leaf:
			sb.WriteString(Wrap(e.Name, string(v)))
		case nil:
			return "", &MalformedTreeError{Path: p, Reason: "nil node"}
		default:
			return "", &MalformedTreeError{Path: p, Reason: fmt.Sprintf("unsupported node type %T", e.Node)}
		}
	}
	return sb.String(), nil
}

// Siblings are separated by one space; the owning entry wraps the whole run.
func serializeSequence(s Sequence, path string) (string, error) {
	parts := make([]string, len(s))
	for i, n := range s {
		out, err := serialize(n, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return "", err
		}
		parts[i] = out
	}
	return strings.Join(parts, " "), nil
}

func childPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
