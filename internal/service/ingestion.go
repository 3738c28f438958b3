// Package service orchestrates race ingestion, monthly rankings and the
// season rollover on top of the rating, odds and betting components.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/podium-engine/internal/betting"
	"github.com/yourusername/podium-engine/internal/datasource"
	"github.com/yourusername/podium-engine/internal/metrics"
	"github.com/yourusername/podium-engine/internal/models"
	"github.com/yourusername/podium-engine/internal/odds"
	"github.com/yourusername/podium-engine/internal/progression"
	"github.com/yourusername/podium-engine/internal/rating"
)

// IngestionService pulls completed races from the results provider, feeds
// them through the rating updater and refreshes the current week's odds.
type IngestionService struct {
	provider datasource.ResultsProvider
	updater  *rating.Updater
	engine   *odds.Engine
	cycle    *betting.Cycle
	tracker  *progression.Tracker
	logger   *logrus.Logger
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	provider datasource.ResultsProvider,
	updater *rating.Updater,
	engine *odds.Engine,
	cycle *betting.Cycle,
	tracker *progression.Tracker,
	logger *logrus.Logger,
) *IngestionService {
	return &IngestionService{
		provider: provider,
		updater:  updater,
		engine:   engine,
		cycle:    cycle,
		tracker:  tracker,
		logger:   logger,
	}
}

// IngestWindow fetches races that finished inside [from, to), applies
// rating updates and recomputes odds once at the end. A race that fails
// its rating update is skipped without blocking the rest of the window.
func (s *IngestionService) IngestWindow(ctx context.Context, from, to time.Time) (int, error) {
	records, err := s.provider.FetchResults(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch results window: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"provider": s.provider.Name(),
		"count":    len(records),
	}).Info("Ingesting race results")

	ingested := 0
	for i := range records {
		if err := s.IngestRecord(ctx, &records[i]); err != nil {
			s.logger.WithFields(logrus.Fields{
				"source_id": records[i].SourceID,
				"error":     err.Error(),
			}).Error("Failed to ingest race")
			continue
		}
		ingested++
	}

	if ingested > 0 {
		if err := s.recomputeCurrentOdds(ctx, to); err != nil {
			s.logger.WithField("error", err.Error()).Error("Failed to recompute odds after ingestion")
		}
	}

	return ingested, nil
}

// IngestRecord applies one race result record: the rating update persists
// the race and the new ratings atomically, then play streaks advance for
// every participant.
func (s *IngestionService) IngestRecord(ctx context.Context, record *datasource.ResultRecord) error {
	if len(record.Entries) < 2 {
		return fmt.Errorf("race %s has fewer than two entries", record.SourceID)
	}

	race := &models.Race{
		ID:         uuid.New(),
		RanAt:      record.RanAt,
		Entries:    len(record.Entries),
		RecordedAt: time.Now(),
	}

	results := make([]models.RaceResult, 0, len(record.Entries))
	for _, entry := range record.Entries {
		results = append(results, models.RaceResult{
			RaceID:       race.ID,
			CompetitorID: entry.CompetitorID,
			Rank:         entry.Rank,
			Score:        entry.Score,
			RecordedAt:   race.RecordedAt,
		})
	}

	if err := s.updater.UpdateRace(ctx, race, results); err != nil {
		metrics.RatingUpdateFailuresTotal.Inc()
		return fmt.Errorf("rating update failed: %w", err)
	}
	metrics.RecordRaceIngested()

	for _, entry := range record.Entries {
		if err := s.tracker.OnPlayDay(ctx, entry.CompetitorID, record.RanAt); err != nil {
			s.logger.WithFields(logrus.Fields{
				"competitor_id": entry.CompetitorID,
				"error":         err.Error(),
			}).Warn("Failed to advance play streak")
		}
	}

	return nil
}

func (s *IngestionService) recomputeCurrentOdds(ctx context.Context, now time.Time) error {
	week, err := s.cycle.EnsureCurrentWeek(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to resolve current week: %w", err)
	}

	if _, err := s.engine.Recompute(ctx, week.ID); err != nil {
		return fmt.Errorf("failed to recompute odds for week %s: %w", week.ID, err)
	}
	return nil
}
