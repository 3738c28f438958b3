package datasource

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ResultEntry is one competitor's finishing record in a race
type ResultEntry struct {
	CompetitorID uuid.UUID `json:"competitor_id"`
	Rank         int       `json:"rank"`
	Score        float64   `json:"score"`
}

// ResultRecord is a completed race as delivered by a results provider
type ResultRecord struct {
	SourceID string        `json:"source_id"`
	RanAt    time.Time     `json:"ran_at"`
	Entries  []ResultEntry `json:"entries"`
}

// ResultsProvider fetches completed race results from an external feed
type ResultsProvider interface {
	// Name returns the provider identifier
	Name() string

	// FetchResults retrieves races that finished inside [from, to)
	FetchResults(ctx context.Context, from, to time.Time) ([]ResultRecord, error)

	// Close releases provider resources
	Close() error
}
