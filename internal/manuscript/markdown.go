package manuscript

import (
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownInspector uses the highest-level heading, earliest first, as title.
type MarkdownInspector struct{}

func (p *MarkdownInspector) Inspect(r io.Reader, filename string) (*Manuscript, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	m := &Manuscript{}
	best := 7
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level >= best {
			continue
		}
		if title := strings.TrimSpace(string(h.Text(src))); title != "" {
			m.Title = title
			best = h.Level
		}
	}
	return m, nil
}
