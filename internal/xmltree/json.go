package xmltree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// DecodeJSON reads a single JSON value as a tree. Objects become Mappings in
// document order, arrays become Sequences and scalars become Leaves. Object
// keys starting with AttrMarker become attribute entries.
func DecodeJSON(r io.Reader) (Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	n, err := decodeNode(dec, "")
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decode tree: trailing data after top-level value")
	}
	return n, nil
}

// UnmarshalJSON decodes an object into m, keeping key order.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	n, err := DecodeJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	mm, ok := n.(Mapping)
	if !ok {
		return &MalformedTreeError{Reason: "top-level value must be an object"}
	}
	*m = mm
	return nil
}

func decodeNode(dec *json.Decoder, path string) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec, path)
		case '[':
			return decodeArray(dec, path)
		}
	case string:
		return Leaf(t), nil
	case json.Number:
		return Leaf(t.String()), nil
	case bool:
		return Leaf(strconv.FormatBool(t)), nil
	case nil:
		return nil, &MalformedTreeError{Path: path, Reason: "null value"}
	}
	return nil, &MalformedTreeError{Path: path, Reason: fmt.Sprintf("unexpected token %v", tok)}
}

func decodeObject(dec *json.Decoder, path string) (Node, error) {
	m := Mapping{}
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode tree: %w", err)
		}
		key, _ := tok.(string)
		p := childPath(path, key)
		if seen[key] {
			return nil, &MalformedTreeError{Path: p, Reason: "duplicate key"}
		}
		seen[key] = true

		child, err := decodeNode(dec, p)
		if err != nil {
			return nil, err
		}
		e, err := FromKey(key, child)
		if err != nil {
			var mt *MalformedTreeError
			if errors.As(err, &mt) {
				mt.Path = p
			}
			return nil, err
		}
		m = append(m, e)
	}
	// closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	return m, nil
}

func decodeArray(dec *json.Decoder, path string) (Node, error) {
	s := Sequence{}
	for dec.More() {
		child, err := decodeNode(dec, fmt.Sprintf("%s[%d]", path, len(s)))
		if err != nil {
			return nil, err
		}
		s = append(s, child)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	return s, nil
}
