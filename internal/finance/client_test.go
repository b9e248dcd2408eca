package finance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whorep/internal/provider"
)

const contributorsBody = `{"response":{"contributors":{"@attributes":{"cand_name":"Debbie Stabenow","cycle":"2024"},
"contributor":[
 {"@attributes":{"org_name":"Blue Cross/Blue Shield","total":"67500","pacs":"10000","indivs":"57500"}},
 {"@attributes":{"org_name":"University of Michigan","total":"41850","pacs":"0","indivs":"41850"}}
]}}}`

const singleIndustryBody = `{"response":{"industries":{"@attributes":{"cand_name":"Debbie Stabenow"},
"industry":{"@attributes":{"industry_code":"H04","industry_name":"Pharmaceuticals/Health Products","indivs":"125000.4","pacs":"90500","total":"215500"}}}}}`

func newTestClient(url string, opts ...ClientOption) *Client {
	opts = append([]ClientOption{WithProviderOptions(provider.WithRate(0, 0))}, opts...)
	return NewClient(url, "key", opts...)
}

func TestContributors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "candContrib", q.Get("method"))
		assert.Equal(t, "json", q.Get("output"))
		assert.Equal(t, "N00004118", q.Get("cid"))
		assert.Empty(t, q.Get("cycle"))
		_, _ = w.Write([]byte(contributorsBody))
	}))
	defer server.Close()

	rows, err := newTestClient(server.URL).Contributors(context.Background(), "N00004118")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Contribution{Name: "Blue Cross/Blue Shield", Total: 67500, Committee: 10000, Individual: 57500}, rows[0])
}

func TestIndustriesSingleObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(singleIndustryBody))
	}))
	defer server.Close()

	rows, err := newTestClient(server.URL).Industries(context.Background(), "N00004118")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Contribution{Name: "Pharmaceuticals/Health Products", Total: 215500, Committee: 90500, Individual: 125000}, rows[0])
}

func TestIndustriesFallsBackToOlderCycles(t *testing.T) {
	var (
		mu     sync.Mutex
		cycles []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cycle := r.URL.Query().Get("cycle")
		mu.Lock()
		cycles = append(cycles, cycle)
		mu.Unlock()
		if cycle != "2018" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(singleIndustryBody))
	}))
	defer server.Close()

	rows, err := newTestClient(server.URL, WithFallbackCycles("2020", "2018")).Industries(context.Background(), "N1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, []string{"", "2020", "2018"}, cycles)
}

func TestFetchGivesUpAfterLastCycle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, WithFallbackCycles("2020")).Contributors(context.Background(), "N1")
	require.Error(t, err)
	assert.Equal(t, provider.CategoryOutage, provider.CategoryOf(err))
}

func TestFetchStopsOnAuthFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, WithFallbackCycles("2020", "2018")).Contributors(context.Background(), "N1")
	assert.Equal(t, provider.CategoryAuth, provider.CategoryOf(err))
	assert.Equal(t, 1, calls)
}

func TestQuotaExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(contributorsBody))
	}))
	defer server.Close()

	client := newTestClient(server.URL, WithQuota(provider.NewQuota(1, time.Hour)))
	_, err := client.Contributors(context.Background(), "N1")
	require.NoError(t, err)
	_, err = client.Contributors(context.Background(), "N1")
	assert.Equal(t, provider.CategoryQuotaExhausted, provider.CategoryOf(err))
}

func TestMissingKey(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:0", "").Industries(context.Background(), "N1")
	assert.Equal(t, provider.CategoryAuth, provider.CategoryOf(err))
}
