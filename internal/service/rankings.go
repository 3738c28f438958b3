package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/podium-engine/internal/betting"
	"github.com/yourusername/podium-engine/internal/models"
	"github.com/yourusername/podium-engine/internal/repository"
)

// RankingsService computes the monthly leaderboards: competitor standings
// by conservative score and bettor standings by settled points.
type RankingsService struct {
	competitors repository.CompetitorRepository
	bets        repository.BetRepository
	logger      *logrus.Logger
}

// NewRankingsService creates a new rankings service
func NewRankingsService(competitors repository.CompetitorRepository, bets repository.BetRepository, logger *logrus.Logger) *RankingsService {
	return &RankingsService{
		competitors: competitors,
		bets:        bets,
		logger:      logger,
	}
}

// CompetitorRankings returns the full competitor field ordered by
// conservative score, ties broken deterministically.
func (s *RankingsService) CompetitorRankings(ctx context.Context) ([]models.CompetitorRanking, error) {
	competitors, err := s.competitors.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load competitors: %w", err)
	}

	standings := betting.FinalStandings(competitors)

	rankings := make([]models.CompetitorRanking, 0, len(standings))
	for i, c := range standings {
		rankings = append(rankings, models.CompetitorRanking{
			Rank:              i + 1,
			CompetitorID:      c.ID,
			Name:              c.Name,
			Rating:            c.Rating,
			RD:                c.RD,
			ConservativeScore: c.ConservativeScore(),
			RacesLifetime:     c.RaceCountLifetime,
		})
	}
	return rankings, nil
}

// BettorRankings aggregates settled bets whose week started inside
// [from, to) into a leaderboard ordered by total points.
func (s *RankingsService) BettorRankings(ctx context.Context, from, to time.Time) ([]models.BettorRanking, error) {
	bets, err := s.bets.GetSettledBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load settled bets: %w", err)
	}

	totals := make(map[uuid.UUID]*models.BettorRanking)
	for _, bet := range bets {
		row, ok := totals[bet.UserID]
		if !ok {
			row = &models.BettorRanking{UserID: bet.UserID, TotalPoints: decimal.Zero}
			totals[bet.UserID] = row
		}

		row.TotalPoints = row.TotalPoints.Add(bet.PointsEarned)
		switch bet.Status {
		case models.BetStatusWon:
			row.BetsWon++
		case models.BetStatusLost:
			row.BetsLost++
		}
		if bet.IsPerfectPodium {
			row.PerfectPodium++
		}
	}

	rankings := make([]models.BettorRanking, 0, len(totals))
	for _, row := range totals {
		rankings = append(rankings, *row)
	}

	sort.Slice(rankings, func(i, j int) bool {
		cmp := rankings[i].TotalPoints.Cmp(rankings[j].TotalPoints)
		if cmp != 0 {
			return cmp > 0
		}
		return rankings[i].UserID.String() < rankings[j].UserID.String()
	})

	for i := range rankings {
		rankings[i].Rank = i + 1
	}
	return rankings, nil
}

// GetMonthlyRankings returns the bettor leaderboard for one calendar month
func (s *RankingsService) GetMonthlyRankings(ctx context.Context, month time.Month, year int) ([]models.BettorRanking, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return s.BettorRankings(ctx, from, from.AddDate(0, 1, 0))
}
