// Package alphavantage provides a client for the Alpha Vantage
// fundamentals API.
package alphavantage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://www.alphavantage.co"

// ErrQuotaExceeded signals that Alpha Vantage rejected the call for rate
// or daily-quota reasons. The API reports this inside a 200 response
// body ("Note" or "Information" field), so it cannot be detected from
// the status code alone.
var ErrQuotaExceeded = eris.New("alphavantage: quota exceeded")

// Client defines the Alpha Vantage operations used by the pipeline.
type Client interface {
	Overview(ctx context.Context, symbol string) (*Overview, error)
	GlobalQuote(ctx context.Context, symbol string) (*GlobalQuote, error)
	IncomeStatement(ctx context.Context, symbol string) (*IncomeStatement, error)
	BalanceSheet(ctx context.Context, symbol string) (*BalanceSheet, error)
	CashFlow(ctx context.Context, symbol string) (*CashFlow, error)
	Earnings(ctx context.Context, symbol string) (*Earnings, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request rate. The free tier allows
// 5 requests per minute, which is the default.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(r, burst)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an Alpha Vantage client with free-tier rate limits.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Every(12*time.Second), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// quotaEnvelope captures the rate-limit message fields Alpha Vantage
// embeds in otherwise successful responses.
type quotaEnvelope struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

func (c *httpClient) get(ctx context.Context, function, symbol string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "alphavantage: rate limiter wait")
	}

	q := url.Values{}
	q.Set("function", function)
	q.Set("symbol", symbol)
	q.Set("apikey", c.apiKey)
	reqURL := c.baseURL + "/query?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "alphavantage: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "alphavantage: %s request failed", function)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "alphavantage: read response body")
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrQuotaExceeded
	}
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("alphavantage: %s unexpected status %d: %s", function, resp.StatusCode, string(body))
	}

	var env quotaEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Note != "" || env.Information != "" {
			return ErrQuotaExceeded
		}
		if env.ErrorMessage != "" {
			return eris.Errorf("alphavantage: %s: %s", function, env.ErrorMessage)
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "alphavantage: unmarshal %s response", function)
	}
	return nil
}

func (c *httpClient) Overview(ctx context.Context, symbol string) (*Overview, error) {
	var out Overview
	if err := c.get(ctx, "OVERVIEW", symbol, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) GlobalQuote(ctx context.Context, symbol string) (*GlobalQuote, error) {
	var out GlobalQuote
	if err := c.get(ctx, "GLOBAL_QUOTE", symbol, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) IncomeStatement(ctx context.Context, symbol string) (*IncomeStatement, error) {
	var out IncomeStatement
	if err := c.get(ctx, "INCOME_STATEMENT", symbol, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) BalanceSheet(ctx context.Context, symbol string) (*BalanceSheet, error) {
	var out BalanceSheet
	if err := c.get(ctx, "BALANCE_SHEET", symbol, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) CashFlow(ctx context.Context, symbol string) (*CashFlow, error) {
	var out CashFlow
	if err := c.get(ctx, "CASH_FLOW", symbol, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) Earnings(ctx context.Context, symbol string) (*Earnings, error) {
	var out Earnings
	if err := c.get(ctx, "EARNINGS", symbol, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
