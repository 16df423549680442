// Package crossref talks to the Crossref deposit and validation endpoints.
package crossref

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/http"
	"slices"
	"time"
)

// Legacy headers the Crossref servlets have always been sent.
var defaultHeaders = map[string]string{
	"User-Agent": "Mozilla/4.0",
	"enctype":    "multipart/form-data",
}

// StatusError is a non-success HTTP response from a Crossref endpoint.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, truncate(e.Body, 200))
}

// client is the HTTP plumbing shared by Validator and Depositor.
type client struct {
	url        string
	httpClient *http.Client
	stats      *LatencyStats
}

func newClient(url string, timeout time.Duration, stats *LatencyStats) client {
	return client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		stats: stats,
	}
}

// postFile sends fields plus the record as the multipart "file" part and
// returns the status code and up to 1MB of body.
func (c *client) postFile(ctx context.Context, fields map[string]string, filename, record string) (int, []byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		if err := mw.WriteField(k, fields[k]); err != nil {
			return 0, nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return 0, nil, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.WriteString(part, record); err != nil {
		return 0, nil, fmt.Errorf("write file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return 0, nil, fmt.Errorf("close multipart: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &buf)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range defaultHeaders {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if c.stats != nil {
		c.stats.Record(time.Since(start), err != nil || resp.StatusCode >= 400)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("post %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// Close releases idle connections.
func (c *client) Close() {
	c.httpClient.CloseIdleConnections()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
