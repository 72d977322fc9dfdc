package sarvam

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client posts completion requests to a Sarvam (OpenAI-compatible) chat endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a client with a pooled transport. There is no overall
// request timeout since streamed replies can run long; headerTimeout only
// bounds the wait for the upstream status line.
func NewClient(endpoint, apiKey string, headerTimeout time.Duration) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       120 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: headerTimeout,
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Transport: transport},
	}
}

// Endpoint returns the upstream URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Stream sends body as a single POST and returns the raw response, whatever
// its status. The caller owns resp.Body. An error means the upstream could
// not be reached at all.
func (c *Client) Stream(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	return c.httpClient.Do(req)
}

// HTTPError describes a non-2xx upstream status,
// e.g. "429 Client Error: Too Many Requests for url: ...".
func HTTPError(status int, endpoint string) string {
	class := "Client"
	if status >= 500 {
		class = "Server"
	}
	reason := http.StatusText(status)
	if reason == "" {
		reason = "Unknown"
	}
	return fmt.Sprintf("%d %s Error: %s for url: %s", status, class, reason, strings.TrimSpace(endpoint))
}
