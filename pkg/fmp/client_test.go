package fmp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key",
		WithBaseURL(srv.URL),
		WithRateLimit(rate.Inf, 1),
	)
}

func TestIncomeStatements(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/income-statement/AAPL", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Write([]byte(`[
			{"date": "2023-09-30", "symbol": "AAPL", "revenue": 383285000000, "netIncome": 96995000000, "eps": 6.16},
			{"date": "2022-09-24", "symbol": "AAPL", "revenue": 394328000000, "netIncome": 99803000000, "eps": 6.15}
		]`))
	})

	got, err := client.IncomeStatements(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].Revenue)
	assert.Equal(t, 383285000000.0, *got[0].Revenue)
}

func TestIncomeStatements_NullFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"date": "2023-12-31", "symbol": "TINY", "revenue": null, "netIncome": 5, "eps": null}]`))
	})

	got, err := client.IncomeStatements(context.Background(), "TINY", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Revenue)
	assert.Nil(t, got[0].EPS)
	require.NotNil(t, got[0].NetIncome)
}

func TestProfile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"symbol":"MSFT","companyName":"Microsoft Corporation","exchangeShortName":"NASDAQ","sector":"Technology","price":410.34,"changes":-1.2}]`))
	})

	got, err := client.Profile(context.Background(), "MSFT")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Microsoft Corporation", got[0].CompanyName)
	require.NotNil(t, got[0].Price)
	assert.Equal(t, 410.34, *got[0].Price)
}

func TestQuota(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.KeyMetrics(context.Background(), "MSFT", 10)
	assert.True(t, eris.Is(err, ErrQuotaExceeded))
}

func TestEmptyArrayIsNotError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	got, err := client.BalanceSheets(context.Background(), "NOPE", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.CashFlowStatements(context.Background(), "MSFT", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
