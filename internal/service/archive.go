package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/podium-engine/internal/models"
	"github.com/yourusername/podium-engine/internal/rating"
	"github.com/yourusername/podium-engine/internal/repository"
)

// ArchiveService performs the month rollover: it freezes the closing
// month's leaderboards into a season archive and then applies the rating
// soft reset.
type ArchiveService struct {
	rankings  *RankingsService
	races     repository.RaceRepository
	archives  repository.ArchiveRepository
	softReset *rating.SoftReset
	logger    *logrus.Logger
}

// NewArchiveService creates a new archive service
func NewArchiveService(
	rankings *RankingsService,
	races repository.RaceRepository,
	archives repository.ArchiveRepository,
	softReset *rating.SoftReset,
	logger *logrus.Logger,
) *ArchiveService {
	return &ArchiveService{
		rankings:  rankings,
		races:     races,
		archives:  archives,
		softReset: softReset,
		logger:    logger,
	}
}

// RolloverMonth archives the month that ended before now and applies the
// soft reset. Safe to call more than once: the archive insert is unique
// per month and the reset holds its own once-per-month marker.
func (s *ArchiveService) RolloverMonth(ctx context.Context, now time.Time) error {
	monthEnd := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthStart := monthEnd.AddDate(0, -1, 0)

	if err := s.archiveMonth(ctx, monthStart, monthEnd); err != nil {
		return err
	}

	if err := s.softReset.Apply(ctx, now); err != nil {
		return fmt.Errorf("failed to apply soft reset: %w", err)
	}
	return nil
}

func (s *ArchiveService) archiveMonth(ctx context.Context, monthStart, monthEnd time.Time) error {
	competitorRankings, err := s.rankings.CompetitorRankings(ctx)
	if err != nil {
		return err
	}

	bettorRankings, err := s.rankings.BettorRankings(ctx, monthStart, monthEnd)
	if err != nil {
		return err
	}

	totalRaces, err := s.races.CountBetween(ctx, monthStart, monthEnd)
	if err != nil {
		return fmt.Errorf("failed to count races for archive: %w", err)
	}

	totalBets := 0
	for _, row := range bettorRankings {
		totalBets += row.BetsWon + row.BetsLost
	}

	competitorJSON, err := json.Marshal(competitorRankings)
	if err != nil {
		return fmt.Errorf("failed to encode competitor rankings: %w", err)
	}
	bettorJSON, err := json.Marshal(bettorRankings)
	if err != nil {
		return fmt.Errorf("failed to encode bettor rankings: %w", err)
	}

	archive := &models.SeasonArchive{
		ID:                 uuid.New(),
		Month:              int(monthStart.Month()),
		Year:               monthStart.Year(),
		TotalRaces:         totalRaces,
		TotalBets:          totalBets,
		CompetitorRankings: competitorJSON,
		BettorRankings:     bettorJSON,
		CreatedAt:          time.Now(),
	}

	if err := s.archives.Create(ctx, archive); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			s.logger.WithFields(logrus.Fields{
				"month": archive.Month,
				"year":  archive.Year,
			}).Info("Season archive already exists, skipping")
			return nil
		}
		return fmt.Errorf("failed to write season archive: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"month":       archive.Month,
		"year":        archive.Year,
		"total_races": totalRaces,
		"total_bets":  totalBets,
		"competitors": len(competitorRankings),
		"bettors":     len(bettorRankings),
	}).Info("Season archive written")

	return nil
}
