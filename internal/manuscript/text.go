package manuscript

import (
	"bufio"
	"io"
	"strings"
)

// TextInspector takes the first non-blank line of a plain text file as title.
type TextInspector struct{}

func (p *TextInspector) Inspect(r io.Reader, filename string) (*Manuscript, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	m := &Manuscript{}
	for scanner.Scan() {
		if t := strings.TrimSpace(scanner.Text()); t != "" {
			m.Title = t
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}
