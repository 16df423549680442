package crossref

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// FatalErrorMarker appears in the parser feedback of a record that fails
// schema validation.
const FatalErrorMarker = "[Fatal Error]"

// feedbackContainerID is the element holding the parser feedback table.
const feedbackContainerID = "mainContent2"

// ErrNoFeedback means the validator reply had no feedback cell to inspect.
var ErrNoFeedback = errors.New("validator response has no feedback cell")

// Verdict is the outcome of a validation request.
type Verdict struct {
	Valid    bool   `json:"valid"`
	Feedback string `json:"feedback"`
}

// Validator submits records to the Crossref schema parser page.
type Validator struct {
	client
}

func NewValidator(url string, timeout time.Duration, stats *LatencyStats) *Validator {
	return &Validator{client: newClient(url, timeout, stats)}
}

// Validate uploads record and reports whether the parser accepted it.
func (v *Validator) Validate(ctx context.Context, filename, record string) (Verdict, error) {
	status, body, err := v.postFile(ctx, nil, filename, record)
	if err != nil {
		return Verdict{}, fmt.Errorf("validate: %w", err)
	}
	if status != http.StatusOK {
		return Verdict{}, &StatusError{Endpoint: "validate", StatusCode: status, Body: string(body)}
	}
	return ParseVerdict(body)
}

// ParseVerdict reads the parser page HTML. The record is valid when the first
// table cell under #mainContent2 does not carry FatalErrorMarker.
func ParseVerdict(page []byte) (Verdict, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return Verdict{}, fmt.Errorf("parse validator response: %w", err)
	}
	container := findByID(doc, feedbackContainerID)
	if container == nil {
		return Verdict{}, ErrNoFeedback
	}
	cell := findElement(container, "td")
	if cell == nil {
		return Verdict{}, ErrNoFeedback
	}
	feedback := textContent(cell)
	return Verdict{
		Valid:    !strings.Contains(feedback, FatalErrorMarker),
		Feedback: feedback,
	}, nil
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// findElement returns the first descendant of n with the given tag.
func findElement(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}
