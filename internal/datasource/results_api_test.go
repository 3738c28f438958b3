package datasource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func fastClientConfig() HTTPClientConfig {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = time.Millisecond
	cfg.RateLimit = 1000
	return cfg
}

func TestFetchResultsParsesPayload(t *testing.T) {
	competitorA := uuid.New()
	competitorB := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/results", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.NotEmpty(t, r.URL.Query().Get("from"))
		assert.NotEmpty(t, r.URL.Query().Get("to"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [{
			"source_id": "race-42",
			"ran_at": "2024-07-24T14:00:00Z",
			"entries": [
				{"competitor_id": "` + competitorA.String() + `", "rank": 1, "score": 98.5},
				{"competitor_id": "` + competitorB.String() + `", "rank": 2, "score": 91.0}
			]
		}]}`))
	}))
	defer server.Close()

	api := NewResultsAPI(ResultsAPIConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Client:  fastClientConfig(),
	}, testLogger())
	defer api.Close()

	from := time.Date(2024, time.July, 24, 13, 0, 0, 0, time.UTC)
	records, err := api.FetchResults(context.Background(), from, from.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	assert.Equal(t, "race-42", record.SourceID)
	assert.Equal(t, time.Date(2024, time.July, 24, 14, 0, 0, 0, time.UTC), record.RanAt.UTC())
	require.Len(t, record.Entries, 2)
	assert.Equal(t, competitorA, record.Entries[0].CompetitorID)
	assert.Equal(t, 1, record.Entries[0].Rank)
	assert.Equal(t, 98.5, record.Entries[0].Score)
}

func TestFetchResultsEmptyWindow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	api := NewResultsAPI(ResultsAPIConfig{BaseURL: server.URL, Client: fastClientConfig()}, testLogger())
	defer api.Close()

	records, err := api.FetchResults(context.Background(), time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchResultsRejectsNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	api := NewResultsAPI(ResultsAPIConfig{BaseURL: server.URL, Client: fastClientConfig()}, testLogger())
	defer api.Close()

	_, err := api.FetchResults(context.Background(), time.Now().Add(-time.Hour), time.Now())
	assert.Error(t, err)
}

func TestClientRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	cfg := fastClientConfig()
	cfg.MaxRetries = 5
	api := NewResultsAPI(ResultsAPIConfig{BaseURL: server.URL, Client: cfg}, testLogger())
	defer api.Close()

	_, err := api.FetchResults(context.Background(), time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cfg := fastClientConfig()
	cfg.CircuitBreakerMax = 2
	cfg.Timeout = 100 * time.Millisecond
	client := NewRateLimitedHTTPClient(cfg, testLogger())
	defer client.Close()

	// Unroutable host address fails fast.
	deadURL := "http://127.0.0.1:1"

	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), deadURL)
		require.Error(t, err)
	}

	_, err := client.Get(context.Background(), deadURL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
}
