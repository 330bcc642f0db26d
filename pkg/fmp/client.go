// Package fmp provides a client for the Financial Modeling Prep API.
package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://financialmodelingprep.com/api/v3"

// ErrQuotaExceeded signals a 429 or an explicit plan-limit message from
// the API.
var ErrQuotaExceeded = eris.New("fmp: quota exceeded")

// Client defines the Financial Modeling Prep operations used by the
// pipeline. FMP reports numerics as typed JSON numbers and responds
// with arrays ordered newest-first.
type Client interface {
	Profile(ctx context.Context, symbol string) ([]Profile, error)
	IncomeStatements(ctx context.Context, symbol string, limit int) ([]IncomeStatement, error)
	BalanceSheets(ctx context.Context, symbol string, limit int) ([]BalanceSheet, error)
	CashFlowStatements(ctx context.Context, symbol string, limit int) ([]CashFlowStatement, error)
	KeyMetrics(ctx context.Context, symbol string, limit int) ([]KeyMetrics, error)
}

// Profile is a company profile record.
type Profile struct {
	Symbol      string   `json:"symbol"`
	CompanyName string   `json:"companyName"`
	Exchange    string   `json:"exchangeShortName"`
	Sector      string   `json:"sector"`
	Price       *float64 `json:"price"`
	Changes     *float64 `json:"changes"`
}

// IncomeStatement is one annual income statement.
type IncomeStatement struct {
	Date      string   `json:"date"`
	Symbol    string   `json:"symbol"`
	Revenue   *float64 `json:"revenue"`
	NetIncome *float64 `json:"netIncome"`
	EPS       *float64 `json:"eps"`
}

// BalanceSheet is one annual balance sheet.
type BalanceSheet struct {
	Date                    string   `json:"date"`
	Symbol                  string   `json:"symbol"`
	TotalStockholdersEquity *float64 `json:"totalStockholdersEquity"`
	TotalDebt               *float64 `json:"totalDebt"`
}

// CashFlowStatement is one annual cash flow statement.
type CashFlowStatement struct {
	Date                string   `json:"date"`
	Symbol              string   `json:"symbol"`
	OperatingCashFlow   *float64 `json:"operatingCashFlow"`
	CapitalExpenditure  *float64 `json:"capitalExpenditure"`
	FreeCashFlow        *float64 `json:"freeCashFlow"`
}

// KeyMetrics is one annual key-metrics record.
type KeyMetrics struct {
	Date string   `json:"date"`
	ROIC *float64 `json:"roic"`
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

// WithRateLimit overrides the default request rate.
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

// NewClient creates an FMP client.
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
		limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) get(ctx context.Context, path string, limit int, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "fmp: rate limiter wait")
	}

	reqURL := fmt.Sprintf("%s%s?apikey=%s", c.baseURL, path, c.apiKey)
	if limit > 0 {
		reqURL += fmt.Sprintf("&limit=%d", limit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "fmp: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "fmp: %s request failed", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "fmp: read response body")
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrQuotaExceeded
	}
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("fmp: %s unexpected status %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "fmp: unmarshal %s response", path)
	}
	return nil
}

func (c *httpClient) Profile(ctx context.Context, symbol string) ([]Profile, error) {
	var out []Profile
	if err := c.get(ctx, "/profile/"+symbol, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) IncomeStatements(ctx context.Context, symbol string, limit int) ([]IncomeStatement, error) {
	var out []IncomeStatement
	if err := c.get(ctx, "/income-statement/"+symbol, limit, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) BalanceSheets(ctx context.Context, symbol string, limit int) ([]BalanceSheet, error) {
	var out []BalanceSheet
	if err := c.get(ctx, "/balance-sheet-statement/"+symbol, limit, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) CashFlowStatements(ctx context.Context, symbol string, limit int) ([]CashFlowStatement, error) {
	var out []CashFlowStatement
	if err := c.get(ctx, "/cash-flow-statement/"+symbol, limit, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) KeyMetrics(ctx context.Context, symbol string, limit int) ([]KeyMetrics, error) {
	var out []KeyMetrics
	if err := c.get(ctx, "/key-metrics/"+symbol, limit, &out); err != nil {
		return nil, err
	}
	return out, nil
}
