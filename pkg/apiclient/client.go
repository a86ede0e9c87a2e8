// Package apiclient is a Go client for the traffic dashboard REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/cedar-analytics/traffic-cli/internal/model"
)

// Client talks to a running traffic-cli API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets a pre-issued session token, skipping Login.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a Client for the given base URL (e.g. http://localhost:4000).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type errorResponse struct {
	Error string `json:"error"`
}

// Login authenticates and retains the session token for later requests.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", eris.Wrap(err, "apiclient: marshal login request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", eris.Wrap(err, "apiclient: build login request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "apiclient: login")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", eris.New(fmt.Sprintf("apiclient: login returned %d: %s", resp.StatusCode, readError(resp)))
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", eris.Wrap(err, "apiclient: decode login response")
	}

	c.token = out.Token
	return out.Token, nil
}

// FetchData retrieves up to limit records ordered by id. A non-positive
// limit leaves the choice to the server.
func (c *Client) FetchData(ctx context.Context, limit int) ([]model.TrafficRecord, error) {
	url := c.baseURL + "/api/data"
	if limit > 0 {
		url = fmt.Sprintf("%s?limit=%d", url, limit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "apiclient: build data request")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "apiclient: fetch data")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.New(fmt.Sprintf("apiclient: data returned %d: %s", resp.StatusCode, readError(resp)))
	}

	var records []model.TrafficRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, eris.Wrap(err, "apiclient: decode data response")
	}
	return records, nil
}

func readError(resp *http.Response) string {
	var e errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
		return "unknown error"
	}
	return e.Error
}
