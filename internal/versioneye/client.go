// Package versioneye is a client for the VersionEye v2 project API.
package versioneye

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/obentoo/versioneye-slack/internal/common/httpclient"
	"github.com/obentoo/versioneye-slack/internal/common/logger"
)

// DefaultBaseURL is the public VersionEye endpoint.
const DefaultBaseURL = "https://www.versioneye.com"

var (
	// ErrMissingAPIKey is returned when the client is built without an API key
	ErrMissingAPIKey = errors.New("versioneye API key is required")
	// ErrAPIStatus is returned when the API answers with a non-200 status
	ErrAPIStatus = errors.New("versioneye API error")
	// ErrMalformedResponse is returned when a response does not have the expected shape
	ErrMalformedResponse = errors.New("malformed versioneye response")
)

// Client talks to the VersionEye API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *httpclient.RetryableHTTPClient
	limiter    *rate.Limiter
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(client *httpclient.RetryableHTTPClient) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRateLimit paces API requests to rps requests per second. Zero or
// negative disables pacing.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a VersionEye client for the given API key.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = httpclient.New()
	}

	return c, nil
}

// BaseURL returns the API endpoint in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListProjects returns the identifiers of every project on the account.
func (c *Client) ListProjects(ctx context.Context) ([]ProjectID, error) {
	body, err := c.get(ctx, "/api/v2/projects")
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	ids, err := decodeProjectList(body)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	logger.Debug("versioneye: discovered %d project(s)", len(ids))
	return ids, nil
}

// Dependencies returns the dependency report of a single project.
func (c *Client) Dependencies(ctx context.Context, id ProjectID) ([]Dependency, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, fmt.Errorf("%w: empty project identifier", ErrMalformedResponse)
	}

	body, err := c.get(ctx, "/api/v2/projects/"+url.PathEscape(string(id)))
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", id, err)
	}

	var resp projectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("project %s: %w: %v", id, ErrMalformedResponse, err)
	}
	if resp.Dependencies == nil {
		return nil, fmt.Errorf("project %s: %w: missing dependencies", id, ErrMalformedResponse)
	}

	deps := make([]Dependency, 0, len(*resp.Dependencies))
	for i, raw := range *resp.Dependencies {
		dep, err := raw.toDependency(i)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", id, err)
		}
		deps = append(deps, dep)
	}

	logger.Debug("versioneye: project %s has %d dependencies", id, len(deps))
	return deps, nil
}

// get issues an authenticated GET and returns the body of a 200 response.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	endpoint := c.baseURL + path + "?api_key=" + url.QueryEscape(c.apiKey)

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return nil, c.redact(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrAPIStatus, resp.StatusCode, truncate(string(body), 200))
	}

	return body, nil
}

// redact strips the API key from transport errors, which embed the request URL.
func (c *Client) redact(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, c.apiKey) && !strings.Contains(msg, url.QueryEscape(c.apiKey)) {
		return err
	}
	msg = strings.ReplaceAll(msg, url.QueryEscape(c.apiKey), "REDACTED")
	msg = strings.ReplaceAll(msg, c.apiKey, "REDACTED")
	return &redactedError{msg: msg, err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
