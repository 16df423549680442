// Package manuscript reads article metadata (title, page count) from the
// manuscript file an article was typeset from.
package manuscript

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/doideposit/internal/record"
)

// Manuscript is the metadata recovered from a file. Zero values mean the
// format did not provide the field.
type Manuscript struct {
	Title string
	Pages int
}

// Inspector reads a Manuscript from file contents.
type Inspector interface {
	Inspect(r io.Reader, filename string) (*Manuscript, error)
}

// ForFile returns the inspector for a filename's extension.
func ForFile(filename string) (Inspector, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextInspector{}, nil
	case ".md", ".markdown":
		return &MarkdownInspector{}, nil
	case ".html", ".htm":
		return &HTMLInspector{}, nil
	case ".pdf":
		return &PDFInspector{}, nil
	case ".docx":
		return &DOCXInspector{}, nil
	default:
		return nil, fmt.Errorf("unsupported manuscript extension: %s", ext)
	}
}

// Inspect picks an inspector by extension and runs it.
func Inspect(r io.Reader, filename string) (*Manuscript, error) {
	in, err := ForFile(filename)
	if err != nil {
		return nil, err
	}
	m, err := in.Inspect(r, filename)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", filepath.Base(filename), err)
	}
	return m, nil
}

// Apply fills gaps in p: an empty title, and an empty last page when the
// first page is known and the page count is not.
func (m *Manuscript) Apply(p *record.Params) error {
	if strings.TrimSpace(p.Title) == "" {
		p.Title = m.Title
	}
	if m.Pages > 0 && p.FirstPage != "" && p.LastPage == "" {
		first, err := strconv.Atoi(strings.TrimSpace(p.FirstPage))
		if err != nil {
			return fmt.Errorf("first_page %q is not numeric: %w", p.FirstPage, err)
		}
		p.LastPage = strconv.Itoa(first + m.Pages - 1)
	}
	return nil
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}
