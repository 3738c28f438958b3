package betting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/podium-engine/internal/logger"
	"github.com/yourusername/podium-engine/internal/metrics"
	"github.com/yourusername/podium-engine/internal/models"
	"github.com/yourusername/podium-engine/internal/odds"
	"github.com/yourusername/podium-engine/internal/progression"
	"github.com/yourusername/podium-engine/internal/repository"
)

// PickRequest is one requested podium pick inside a placement
type PickRequest struct {
	CompetitorID uuid.UUID           `json:"competitor_id" validate:"required,uuid4"`
	Position     models.PickPosition `json:"position" validate:"required,oneof=FIRST SECOND THIRD"`
	UseBoost     bool                `json:"use_boost"`
}

// Service exposes the engine's betting operations to collaborators
type Service struct {
	weeks       repository.WeekRepository
	bets        repository.BetRepository
	competitors repository.CompetitorRepository
	odds        *odds.Engine
	tracker     *progression.Tracker
	audit       *logger.AuditLogger
	logger      *logrus.Logger
}

// NewService creates the betting service
func NewService(
	weeks repository.WeekRepository,
	bets repository.BetRepository,
	competitors repository.CompetitorRepository,
	oddsEngine *odds.Engine,
	tracker *progression.Tracker,
	audit *logger.AuditLogger,
	log *logrus.Logger,
) *Service {
	return &Service{
		weeks:       weeks,
		bets:        bets,
		competitors: competitors,
		odds:        oddsEngine,
		tracker:     tracker,
		audit:       audit,
		logger:      log,
	}
}

// CurrentWeek returns the betting week covering the current instant
func (s *Service) CurrentWeek(ctx context.Context) (*models.BettingWeek, error) {
	return s.weeks.GetCurrent(ctx, time.Now().UTC())
}

// WeekOdds returns the last completed odds snapshot for a week, eligible
// competitors only. Ineligible competitors are absent, not null-odded.
func (s *Service) WeekOdds(ctx context.Context, weekID uuid.UUID) ([]models.CompetitorOdds, error) {
	snapshot, err := s.odds.CurrentOdds(ctx, weekID)
	if err != nil {
		return nil, err
	}
	return snapshot.Entries, nil
}

// BetHistory returns a user's bets, newest first
func (s *Service) BetHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Bet, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.bets.GetHistory(ctx, userID, limit, offset)
}

// PlaceBet validates and commits a podium bet. All preconditions are
// checked against one consistent read: week OPEN, no existing
// non-cancelled bet, 3 distinct eligible competitors across 3 distinct
// positions, boost availability when requested. Odds are locked from the
// last completed snapshot at placement time.
func (s *Service) PlaceBet(ctx context.Context, userID, weekID uuid.UUID, picks []PickRequest) (*models.Bet, error) {
	start := time.Now()

	week, err := s.weeks.GetByID(ctx, weekID)
	if err != nil {
		return nil, fmt.Errorf("failed to load week: %w", err)
	}
	if !week.IsOpen() {
		return nil, fmt.Errorf("week %s is %s: %w", weekID, week.Status, models.ErrWeekNotOpen)
	}

	if err := validatePickSet(picks); err != nil {
		return nil, err
	}

	if _, err := s.bets.GetByUserAndWeek(ctx, userID, weekID); err == nil {
		return nil, models.ErrDuplicateBet
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing bet: %w", err)
	}

	ids := make([]uuid.UUID, len(picks))
	for i, p := range picks {
		ids[i] = p.CompetitorID
	}
	competitors, err := s.competitors.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load picked competitors: %w", err)
	}
	byID := make(map[uuid.UUID]*models.Competitor, len(competitors))
	for _, c := range competitors {
		byID[c.ID] = c
	}

	snapshot, err := s.odds.CurrentOdds(ctx, weekID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current odds: %w", err)
	}

	bet := &models.Bet{
		ID:       uuid.New(),
		UserID:   userID,
		WeekID:   weekID,
		PlacedAt: start.UTC(),
		Status:   models.BetStatusPending,
		Picks:    make([]models.BetPick, len(picks)),
	}

	var lockedOdds [3]float64
	boosted := false
	for i, p := range picks {
		competitor := byID[p.CompetitorID]
		if competitor == nil {
			return nil, fmt.Errorf("%w: %s", models.ErrCompetitorNotFound, p.CompetitorID)
		}
		if !competitor.IsEligible() {
			return nil, fmt.Errorf("%s: %w", competitor.Name, models.ErrCompetitorIneligible)
		}

		entry := snapshot.EntryFor(p.CompetitorID)
		if entry == nil {
			return nil, fmt.Errorf("%s has no odds in the current snapshot: %w", competitor.Name, models.ErrCompetitorIneligible)
		}

		odd := entry.OddForPosition(p.Position)
		lockedOdds[positionRank(p.Position)-1] = odd
		if p.UseBoost {
			boosted = true
		}

		bet.Picks[i] = models.BetPick{
			BetID:        bet.ID,
			CompetitorID: p.CompetitorID,
			Position:     p.Position,
			OddAtBet:     odd,
			HasBoost:     p.UseBoost,
		}
	}

	if boosted {
		if err := s.tracker.ConsumeBoost(ctx, userID, start); err != nil {
			return nil, err
		}
	}

	if err := s.bets.Create(ctx, bet); err != nil {
		if boosted {
			// The bet never committed, so the monthly token goes back.
			if rerr := s.tracker.RefundBoost(ctx, userID, start); rerr != nil {
				s.logger.WithError(rerr).WithField("user_id", userID).Error("Failed to refund boost after placement failure")
			}
		}
		if errors.Is(err, models.ErrDuplicateKey) {
			return nil, models.ErrDuplicateBet
		}
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	if err := s.tracker.OnBetPlaced(ctx, userID, week); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to advance betting streak")
	}

	metrics.RecordBetPlaced(time.Since(start).Seconds())
	s.audit.LogBetPlacement(bet.ID.String(), userID.String(), weekID.String(), lockedOdds, boosted, bet.PlacedAt)

	s.logger.WithFields(logrus.Fields{
		"bet_id":  bet.ID,
		"user_id": userID,
		"week_id": weekID,
		"boosted": boosted,
	}).Info("Bet placed")

	return bet, nil
}

// validatePickSet enforces the 3-distinct-competitors / 3-distinct-positions
// / at-most-one-boost invariant
func validatePickSet(picks []PickRequest) error {
	if len(picks) != len(models.PodiumPositions) {
		return models.ErrInvalidPickSet
	}

	positions := make(map[models.PickPosition]bool, len(picks))
	competitors := make(map[uuid.UUID]bool, len(picks))
	boosts := 0
	for _, p := range picks {
		if positions[p.Position] || competitors[p.CompetitorID] {
			return models.ErrInvalidPickSet
		}
		if positionRank(p.Position) == 0 {
			return models.ErrInvalidPickSet
		}
		positions[p.Position] = true
		competitors[p.CompetitorID] = true
		if p.UseBoost {
			boosts++
		}
	}
	if boosts > 1 {
		return models.ErrInvalidPickSet
	}
	return nil
}

// positionRank maps a podium position to its finishing rank, 0 if unknown
func positionRank(pos models.PickPosition) int {
	switch pos {
	case models.PositionFirst:
		return 1
	case models.PositionSecond:
		return 2
	case models.PositionThird:
		return 3
	}
	return 0
}
