package xmltree

import (
	"strings"
	"unicode"
)

// Wrap returns <tagSpec>body</name>, where name is the first whitespace
// delimited token of tagSpec. tagSpec may carry attribute text after the name,
// e.g. `journal_metadata language="en"`.
func Wrap(tagSpec, body string) string {
	name := tagSpec
	if i := strings.IndexFunc(tagSpec, unicode.IsSpace); i >= 0 {
		name = tagSpec[:i]
	}
	var sb strings.Builder
	sb.Grow(len(tagSpec) + len(name) + len(body) + 5)
	sb.WriteByte('<')
	sb.WriteString(tagSpec)
	sb.WriteByte('>')
	sb.WriteString(body)
	sb.WriteString("</")
	sb.WriteString(name)
	sb.WriteByte('>')
	return sb.String()
}
