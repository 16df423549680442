package manuscript

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLInspector uses <title>, or the first <h1> when there is none.
type HTMLInspector struct{}

func (p *HTMLInspector) Inspect(r io.Reader, filename string) (*Manuscript, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	m := &Manuscript{}
	for _, tag := range []string{"title", "h1"} {
		if n := findTag(doc, tag); n != nil {
			if t := textContent(n); t != "" {
				m.Title = t
				break
			}
		}
	}
	return m, nil
}

func findTag(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTag(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}
