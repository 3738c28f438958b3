package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// ResultsAPIConfig holds configuration for the league results API
type ResultsAPIConfig struct {
	BaseURL string
	APIKey  string
	Client  HTTPClientConfig
}

// ResultsAPI fetches completed races from the league results endpoint
type ResultsAPI struct {
	baseURL string
	apiKey  string
	client  *RateLimitedHTTPClient
	logger  *logrus.Logger
}

// NewResultsAPI creates a results provider backed by the league HTTP API
func NewResultsAPI(cfg ResultsAPIConfig, logger *logrus.Logger) *ResultsAPI {
	return &ResultsAPI{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  NewRateLimitedHTTPClient(cfg.Client, logger),
		logger:  logger,
	}
}

// Name returns the provider identifier
func (a *ResultsAPI) Name() string {
	return "league-results-api"
}

// FetchResults retrieves races that finished inside [from, to)
func (a *ResultsAPI) FetchResults(ctx context.Context, from, to time.Time) ([]ResultRecord, error) {
	endpoint, err := url.Parse(a.baseURL + "/v1/results")
	if err != nil {
		return nil, fmt.Errorf("invalid results endpoint: %w", err)
	}

	params := url.Values{}
	params.Set("from", from.UTC().Format(time.RFC3339))
	params.Set("to", to.UTC().Format(time.RFC3339))
	if a.apiKey != "" {
		params.Set("api_key", a.apiKey)
	}
	endpoint.RawQuery = params.Encode()

	resp, err := a.client.Get(ctx, endpoint.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("results API returned status %d", resp.StatusCode)
	}

	var payload struct {
		Results []ResultRecord `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode results payload: %w", err)
	}

	a.logger.WithFields(logrus.Fields{
		"provider": a.Name(),
		"count":    len(payload.Results),
		"from":     from.Format(time.RFC3339),
		"to":       to.Format(time.RFC3339),
	}).Debug("Fetched race results")

	return payload.Results, nil
}

// Close releases the underlying HTTP client
func (a *ResultsAPI) Close() error {
	return a.client.Close()
}
