// Package upstream talks to the marketplace backend that owns the service
// records. It only fetches; retries, pagination and caching are handled by
// the layers around it.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bellebook/catalog/internal/diag"
)

// Client is an HTTP client for the marketplace backend API.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	reporter   *diag.Reporter
}

// NewClient creates a new upstream client.
func NewClient(baseURL, apiToken string, reporter *diag.Reporter) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		reporter: reporter,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchServices retrieves the raw service record collection. The payload is
// decoded tolerantly (numbers kept as json.Number, no schema enforced):
// shape problems are the filter layer's concern, not a fetch failure.
// Fetch failures are classified as API_ERROR diagnostics and returned.
func (c *Client) FetchServices(ctx context.Context) (any, error) {
	return c.getJSON(ctx, "/services")
}

// Health checks whether the upstream backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream health check: unexpected status %d", resp.StatusCode)
	}

	return nil
}

func (c *Client) getJSON(ctx context.Context, path string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", path, err)
	}

	req.Header.Set("Accept", "application/json")

	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.reporter.Report(diag.NewEvent(diag.KindAPI, "request failed", "upstream"+path, err.Error()))
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.reporter.Report(diag.NewEvent(diag.KindAPI, "unexpected status", "upstream"+path,
			fmt.Sprintf("status %d: %s", resp.StatusCode, string(body))))

		return nil, fmt.Errorf("fetch %s: unexpected status %d", path, resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		c.reporter.Report(diag.NewEvent(diag.KindAPI, "undecodable response body", "upstream"+path, err.Error()))
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}

	return v, nil
}
