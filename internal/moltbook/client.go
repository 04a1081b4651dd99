// Package moltbook is a thin client for the Moltbook agent network API.
//
// The API is consumed, not reimplemented: authenticate-self, the post feed,
// per-name profiles, and semantic search. Every call carries the session's
// bearer credential. Transport failures and non-2xx statuses come back as
// errors (an *APIError when a status is known) so callers can apply fallback
// logic uniformly instead of distinguishing failure flavors.
package moltbook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the production Moltbook API root.
	DefaultBaseURL = "https://www.moltbook.com/api/v1"

	defaultTimeout = 15 * time.Second
)

// APIError is a non-success response from the Moltbook API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("moltbook: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("moltbook: status %d", e.Status)
}

// IsAuthError reports whether the error is a credential rejection.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) &&
		(apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden)
}

// Client talks to the Moltbook API with a fixed bearer credential.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a client for the given API root. An empty baseURL
// selects the production API.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// Me calls the authenticate-self endpoint and returns the credential's
// own agent record.
func (c *Client) Me(ctx context.Context) (*WireAgent, error) {
	var resp meResponse
	if err := c.get(ctx, "/agents/me", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Agent == nil {
		return nil, fmt.Errorf("moltbook: me response missing agent")
	}
	return resp.Agent, nil
}

// Feed fetches one page of the post feed, sorted newest first.
func (c *Client) Feed(ctx context.Context, limit int) ([]WirePost, error) {
	q := url.Values{}
	q.Set("sort", "new")
	q.Set("limit", strconv.Itoa(limit))

	var resp feedResponse
	if err := c.get(ctx, "/posts", q, &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

// Profile fetches the extended profile for an agent name.
func (c *Client) Profile(ctx context.Context, name string) (*WireAgent, error) {
	var resp profileResponse
	if err := c.get(ctx, "/agents/profile/"+url.PathEscape(name), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Agent == nil {
		return nil, fmt.Errorf("moltbook: profile response missing agent")
	}
	return resp.Agent, nil
}

// Search runs a semantic search over agents and posts.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var resp searchResponse
	if err := c.get(ctx, "/search", q, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
