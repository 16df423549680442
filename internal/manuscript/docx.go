package manuscript

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXInspector uses the first paragraph styled Title, then the first
// Heading 1, then the first non-empty paragraph.
type DOCXInspector struct{}

func (p *DOCXInspector) Inspect(r io.Reader, filename string) (*Manuscript, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var title, heading, first string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := paragraphText(para)
		if text == "" {
			continue
		}
		switch style := paragraphStyle(para); {
		case title == "" && strings.EqualFold(style, "Title"):
			title = text
		case heading == "" && (strings.EqualFold(style, "Heading1") || strings.EqualFold(style, "heading 1")):
			heading = text
		}
		if first == "" {
			first = text
		}
	}

	m := &Manuscript{Title: first}
	if heading != "" {
		m.Title = heading
	}
	if title != "" {
		m.Title = title
	}
	return m, nil
}

func paragraphStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
