package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsUserAgentAndDecodesJSON(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Apple Inc."}`))
	}))
	defer srv.Close()

	monitor := NewHealthMonitor()
	c := NewClient(ClientConfig{Name: "edgar", UserAgent: "StockDDFinder test@example.com", Monitor: monitor})
	defer c.Close()

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &out))
	assert.Equal(t, "Apple Inc.", out.Name)
	assert.Equal(t, "StockDDFinder test@example.com", gotUA)
	assert.Equal(t, int64(1), monitor.GetHealthStatus().SuccessfulRequests)
}

func TestClientReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	monitor := NewHealthMonitor()
	c := NewClient(ClientConfig{Name: "edgar", Monitor: monitor})

	_, err := c.GetBytes(context.Background(), srv.URL, "")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Equal(t, int64(1), monitor.GetHealthStatus().FailedRequests)
}

func TestClientRateLimitsRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>ok</p></body></html>"))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Name: "edgar", RequestsPerSecond: 20})

	start := time.Now()
	for i := 0; i < 3; i++ {
		doc, err := c.GetDocument(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "ok", doc.Find("p").Text())
	}
	// burst of one: the 2nd and 3rd request each wait ~50ms
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestClientHonoursCancelledContext(t *testing.T) {
	c := NewClient(ClientConfig{Name: "edgar", RequestsPerSecond: 0.001})
	ctx, cancel := context.WithCancel(context.Background())

	// consume the single token, then cancel while waiting for the next
	_ = c.limiter.Allow()
	cancel()

	_, err := c.GetBytes(ctx, "http://127.0.0.1:1", "")
	assert.Error(t, err)
}
