// Package client is a typed Go client for the admin API with a read-through
// query cache. Reads are served from the cache until they expire or a
// mutation of the same resource completes; there are no optimistic updates.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"
)

const apiPrefix = "/v1"

// Client talks to one API server. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *QueryCache

	mu        sync.RWMutex
	authToken string
}

type Option func(*Client)

// WithHTTPClient replaces the default client. Its cookie jar, if any, is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCacheTTL sets how long cached reads stay fresh.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cache = NewQueryCache(ttl) }
}

// NewClient builds a client for baseURL ("http://localhost:8080"). The
// default HTTP client has a cookie jar so the refresh cookie survives.
func NewClient(baseURL string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		cache: NewQueryCache(time.Minute),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAuthToken sets the bearer token sent with every request.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authToken
}

// Cache exposes the query cache, mostly for explicit invalidation.
func (c *Client) Cache() *QueryCache { return c.cache }

// APIError is a failure envelope returned by the server.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d kind=%s message=%s", e.Status, e.Kind, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req)
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp, nil
}

// decodeResponse unwraps the envelope into target and returns its message.
func decodeResponse(resp *http.Response, target any) (string, error) {
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return "", &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 400 || !env.Success {
		return env.Message, &APIError{Status: resp.StatusCode, Kind: env.Error, Message: env.Message}
	}
	if target != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, target); err != nil {
			return env.Message, fmt.Errorf("decode data: %w", err)
		}
	}
	return env.Message, nil
}

func (c *Client) call(ctx context.Context, method, path string, body, target any) (int, error) {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return 0, err
	}
	status := resp.StatusCode
	_, err = decodeResponse(resp, target)
	return status, err
}

// Health reports whether the server answers /health.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return nil
}
