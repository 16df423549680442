package manuscript

import (
	"bytes"
	"fmt"
	"io"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFInspector reports the page count and takes the first text line of the
// first page as title.
type PDFInspector struct{}

func (p *PDFInspector) Inspect(r io.Reader, filename string) (*Manuscript, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	m := &Manuscript{Pages: reader.NumPage()}
	if m.Pages > 0 {
		page := reader.Page(1)
		if !page.V.IsNull() {
			// Title extraction is best effort; the page count stands on its own.
			if text, err := page.GetPlainText(nil); err == nil {
				m.Title = firstLine(text)
			}
		}
	}
	return m, nil
}
