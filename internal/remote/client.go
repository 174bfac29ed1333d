// Package remote talks to the configuration document endpoint.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"configdesk/internal/tree"
)

// DefaultPath is where the document is served.
const DefaultPath = "/api/config"

// maxDocumentSize bounds the body read on load.
const maxDocumentSize = 8 << 20

// LoadError reports a document that could not be fetched or parsed.
type LoadError struct {
	Status int
	Err    error
}

func (e *LoadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("load configuration: status %d: %v", e.Status, e.Err)
	}
	return "load configuration: " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }

// SaveError reports a document the store did not accept.
type SaveError struct {
	Status int
	Err    error
}

func (e *SaveError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("save configuration: status %d: %v", e.Status, e.Err)
	}
	return "save configuration: " + e.Err.Error()
}

func (e *SaveError) Unwrap() error { return e.Err }

// Headers naming the origin of a save.
const (
	HeaderSource      = "X-Config-Source"
	HeaderCorrelation = "X-Correlation-ID"
)

type correlationKey struct{}

// WithCorrelation tags saves made with ctx so their change events can be
// matched to the caller.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// Client loads and saves the whole document. It never retries.
type Client struct {
	URL    string
	HTTP   *http.Client
	Source string
}

// NewClient returns a client for the document at baseURL + DefaultPath.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		URL:  strings.TrimRight(baseURL, "/") + DefaultPath,
		HTTP: &http.Client{Timeout: timeout},
	}
}

// Load fetches and parses the document.
func (c *Client) Load(ctx context.Context) (*tree.Tree, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &LoadError{Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, &LoadError{Status: resp.StatusCode, Err: err}
	}
	t, err := tree.Decode(body)
	if err != nil {
		return nil, &LoadError{Status: resp.StatusCode, Err: err}
	}
	return t, nil
}

// Save submits t as a full replacement of the stored document. Only the
// response status is consulted.
func (c *Client) Save(ctx context.Context, t *tree.Tree) error {
	body, err := tree.Encode(t)
	if err != nil {
		return &SaveError{Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return &SaveError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Source != "" {
		req.Header.Set(HeaderSource, c.Source)
	}
	if id, ok := ctx.Value(correlationKey{}).(string); ok && id != "" {
		req.Header.Set(HeaderCorrelation, id)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &SaveError{Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &SaveError{Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	return nil
}
