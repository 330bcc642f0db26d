// Package websearch provides a client for a Jina-style web search and
// page reader API, used to locate and fetch annual-report documents.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the search and reader operations.
type Client interface {
	// Search performs a web search and returns ranked results.
	Search(ctx context.Context, query string) ([]Result, error)
	// Read fetches a page and returns its text content as markdown.
	Read(ctx context.Context, pageURL string) (string, error)
}

// Result is a single search hit.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

type searchEnvelope struct {
	Code int      `json:"code"`
	Data []Result `json:"data"`
}

type readEnvelope struct {
	Code int `json:"code"`
	Data struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"data"`
}

// Option configures the client.
type Option func(*httpClient)

// WithSearchBaseURL overrides the search endpoint (for testing).
func WithSearchBaseURL(url string) Option {
	return func(c *httpClient) {
		c.searchBaseURL = url
	}
}

// WithReaderBaseURL overrides the reader endpoint (for testing).
func WithReaderBaseURL(url string) Option {
	return func(c *httpClient) {
		c.readerBaseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey        string
	searchBaseURL string
	readerBaseURL string
	http          *http.Client
}

// NewClient creates a web search client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:        apiKey,
		searchBaseURL: "https://s.jina.ai",
		readerBaseURL: "https://r.jina.ai",
		http: &http.Client{
			Timeout: 45 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) do(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, eris.Wrap(err, "websearch: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Return-Format", "markdown")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, eris.Wrap(err, "websearch: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, eris.Wrap(err, "websearch: read response body")
	}
	return body, resp.StatusCode, nil
}

func (c *httpClient) Search(ctx context.Context, query string) ([]Result, error) {
	body, status, err := c.do(ctx, fmt.Sprintf("%s/%s", c.searchBaseURL, url.QueryEscape(query)))
	if err != nil {
		return nil, err
	}

	// 422 means the engine found nothing for the query.
	if status == http.StatusUnprocessableEntity {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("websearch: search unexpected status %d: %s", status, string(body))
	}

	var env searchEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, eris.Wrap(err, "websearch: unmarshal search response")
	}
	return env.Data, nil
}

func (c *httpClient) Read(ctx context.Context, pageURL string) (string, error) {
	body, status, err := c.do(ctx, fmt.Sprintf("%s/%s", c.readerBaseURL, pageURL))
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", eris.Errorf("websearch: read unexpected status %d: %s", status, string(body))
	}

	var env readEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", eris.Wrap(err, "websearch: unmarshal read response")
	}
	return env.Data.Content, nil
}
