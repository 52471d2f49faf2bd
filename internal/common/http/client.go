// internal/common/http/client.go

// Package http wraps the standard client with the timeout discipline outbound
// calls (the geocoding provider, foremost) are expected to follow.
package http

import (
	"context"
	"net/http"
	"time"
)

// Client is a plain HTTP client with a hard per-request timeout.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// DoWithContext issues the request under ctx, so callers can cancel a lookup
// sooner than the client timeout would.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}
