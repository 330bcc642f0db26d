package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.Path, "Apple")
		w.Write([]byte(`{"code":200,"data":[
			{"title":"Apple 10-K 2023","url":"https://example.com/aapl-10k","description":"Annual report"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithSearchBaseURL(srv.URL))
	got, err := client.Search(context.Background(), "Apple Inc AAPL annual report")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://example.com/aapl-10k", got[0].URL)
}

func TestSearch_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithSearchBaseURL(srv.URL))
	got, err := client.Search(context.Background(), "obscure query")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":200,"data":{"title":"10-K","url":"https://example.com/doc","content":"# Annual Report\nRevenue was $100M."}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithReaderBaseURL(srv.URL))
	got, err := client.Read(context.Background(), "https://example.com/doc")
	require.NoError(t, err)
	assert.Contains(t, got, "Revenue was $100M")
}

func TestRead_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithReaderBaseURL(srv.URL))
	_, err := client.Read(context.Background(), "https://example.com/doc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
