package betting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/podium-engine/internal/events"
	"github.com/yourusername/podium-engine/internal/logger"
	"github.com/yourusername/podium-engine/internal/metrics"
	"github.com/yourusername/podium-engine/internal/models"
	"github.com/yourusername/podium-engine/internal/odds"
	"github.com/yourusername/podium-engine/internal/progression"
	"github.com/yourusername/podium-engine/internal/repository"
)

// minCorrectPickPoints is the guaranteed floor for a correct pick: a
// correct pick never scores zero.
var minCorrectPickPoints = decimal.RequireFromString("0.1")

var two = decimal.NewFromInt(2)

// Settler scores placed bets against final results at week finalization
type Settler struct {
	weeks       repository.WeekRepository
	bets        repository.BetRepository
	competitors repository.CompetitorRepository
	snapshots   repository.OddsRepository
	odds        *odds.Engine
	tracker     *progression.Tracker
	bus         *events.Bus
	audit       *logger.AuditLogger
	logger      *logrus.Logger
}

// NewSettler creates the settlement engine
func NewSettler(
	weeks repository.WeekRepository,
	bets repository.BetRepository,
	competitors repository.CompetitorRepository,
	snapshots repository.OddsRepository,
	oddsEngine *odds.Engine,
	tracker *progression.Tracker,
	bus *events.Bus,
	audit *logger.AuditLogger,
	log *logrus.Logger,
) *Settler {
	return &Settler{
		weeks:       weeks,
		bets:        bets,
		competitors: competitors,
		snapshots:   snapshots,
		odds:        oddsEngine,
		tracker:     tracker,
		bus:         bus,
		audit:       audit,
		logger:      log,
	}
}

// FinalStandings returns competitors ordered by conservative score
// (rating - 2*RD), best first. Equal scores are broken by ascending
// competitor id so reruns produce identical standings.
func FinalStandings(competitors []*models.Competitor) []*models.Competitor {
	standings := append([]*models.Competitor(nil), competitors...)
	sort.Slice(standings, func(i, j int) bool {
		si, sj := standings[i].ConservativeScore(), standings[j].ConservativeScore()
		if si != sj {
			return si > sj
		}
		return standings[i].ID.String() < standings[j].ID.String()
	})
	return standings
}

// FinalizeWeek atomically moves a CLOSED week to FINALIZED and settles its
// pending bets. The status compare-and-set decides the single winner among
// concurrent triggers; the loser gets ErrAlreadySettled. Re-invoking on a
// FINALIZED week settles any bets a prior interrupted run left PENDING,
// then returns the stored result set.
func (s *Settler) FinalizeWeek(ctx context.Context, weekID uuid.UUID) ([]*models.Bet, error) {
	start := time.Now()

	week, err := s.weeks.GetByID(ctx, weekID)
	if err != nil {
		return nil, fmt.Errorf("failed to load week for settlement: %w", err)
	}

	if week.IsFinalized() {
		stranded, err := s.bets.GetPendingByWeek(ctx, weekID)
		if err != nil {
			return nil, fmt.Errorf("failed to load pending bets: %w", err)
		}
		if err := s.settleBets(ctx, weekID, stranded); err != nil {
			return nil, err
		}
		return s.bets.GetByWeek(ctx, weekID)
	}
	if week.Status != models.WeekStatusClosed {
		return nil, fmt.Errorf("week %s is %s, settlement requires a closed week: %w", weekID, week.Status, models.ErrWeekNotFinalized)
	}

	// A final snapshot makes post-close races count as BOG candidates even
	// when no ingestion happened to trigger a recompute.
	if _, err := s.odds.Recompute(ctx, weekID); err != nil {
		s.logger.WithError(err).WithField("week_id", weekID).Warn("Pre-settlement odds recompute failed, settling on existing snapshots")
	}

	if err := s.weeks.TransitionStatus(ctx, weekID, models.WeekStatusClosed, models.WeekStatusFinalized); err != nil {
		if errors.Is(err, models.ErrVersionConflict) {
			// Lost the CAS race: the concurrent trigger settles.
			s.logger.WithField("week_id", weekID).Info("Finalization won by concurrent trigger")
			return nil, fmt.Errorf("week %s: %w", weekID, models.ErrAlreadySettled)
		}
		return nil, fmt.Errorf("failed to finalize week %s: %w", weekID, err)
	}
	s.audit.LogWeekTransition(weekID.String(), string(models.WeekStatusClosed), string(models.WeekStatusFinalized))

	pending, err := s.bets.GetPendingByWeek(ctx, weekID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending bets: %w", err)
	}
	if err := s.settleBets(ctx, weekID, pending); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.weeks.MarkSettled(ctx, weekID, now); err != nil {
		return nil, fmt.Errorf("failed to mark week settled: %w", err)
	}

	week.Status = models.WeekStatusFinalized
	week.SettledAt = &now
	if err := s.tracker.OnWeekFinalized(ctx, week); err != nil {
		s.logger.WithError(err).WithField("week_id", weekID).Error("Failed to process streak breaks")
	}

	metrics.RecordSettlement(len(pending), time.Since(start).Seconds())

	s.logger.WithFields(logrus.Fields{
		"week_id":      weekID,
		"bets_settled": len(pending),
	}).Info("Week finalized and settled")

	return pending, nil
}

// settleBets scores and persists the given PENDING bets against the final
// standings and the week's best-odds table. Scoring is pure, so re-running
// over bets an interrupted run left behind produces identical numbers.
func (s *Settler) settleBets(ctx context.Context, weekID uuid.UUID, pending []*models.Bet) error {
	if len(pending) == 0 {
		return nil
	}

	competitors, err := s.competitors.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load competitors for standings: %w", err)
	}
	positions := make(map[uuid.UUID]int, len(competitors))
	for i, c := range FinalStandings(competitors) {
		positions[c.ID] = i + 1
	}

	bestOdds, err := s.bestOddsForWeek(ctx, weekID)
	if err != nil {
		return err
	}

	for _, bet := range pending {
		scoreBet(bet, positions, bestOdds)

		if err := s.bets.UpdateSettlement(ctx, bet); err != nil {
			return fmt.Errorf("failed to persist settlement for bet %s: %w", bet.ID, err)
		}

		for i := range bet.Picks {
			pick := &bet.Picks[i]
			s.audit.LogPickSettlement(
				bet.ID.String(), pick.CompetitorID.String(), string(pick.Position),
				pick.OddAtBet, bestOdds.lockedOdd(pick), pick.UsedBogOdd, pick.IsCorrect, pick.PointsEarned,
			)
		}
		s.audit.LogBetSettlement(bet.ID.String(), bet.UserID.String(), weekID.String(), string(bet.Status), bet.PointsEarned, bet.IsPerfectPodium)

		if bet.IsPerfectPodium {
			metrics.PerfectPodiumsTotal.Inc()
		}
		if err := s.tracker.OnBetSettled(ctx, bet.UserID, bet.CorrectPickCount(), bet.IsPerfectPodium); err != nil {
			s.logger.WithError(err).WithField("bet_id", bet.ID).Error("Failed to award settlement XP")
		}

		s.bus.Publish(ctx, events.Event{
			Name: events.EventBetFinalized,
			Payload: events.BetFinalized{
				UserID:          bet.UserID,
				BetID:           bet.ID,
				WeekID:          weekID,
				PointsEarned:    bet.PointsEarned,
				IsPerfectPodium: bet.IsPerfectPodium,
			},
		})
	}
	return nil
}

// Resettle returns the stored settlement results of a FINALIZED week.
// It recomputes nothing, so a mistakenly mutated snapshot can never change
// already-settled numbers.
func (s *Settler) Resettle(ctx context.Context, weekID uuid.UUID) ([]*models.Bet, error) {
	week, err := s.weeks.GetByID(ctx, weekID)
	if err != nil {
		return nil, fmt.Errorf("failed to load week: %w", err)
	}
	if !week.IsFinalized() {
		return nil, fmt.Errorf("week %s is %s: %w", weekID, week.Status, models.ErrWeekNotFinalized)
	}
	return s.bets.GetByWeek(ctx, weekID)
}

// bestOddsTable holds the best observed odd per (competitor, position)
// across every snapshot taken for the week before finalization. All of
// them are Best-Odds-Guaranteed candidates, including CLOSED-period
// recomputes.
type bestOddsTable map[uuid.UUID]map[models.PickPosition]float64

// lockedOdd returns the BOG-settled odd for a pick: the better of the odd
// locked at placement and the best snapshot odd.
func (t bestOddsTable) lockedOdd(pick *models.BetPick) float64 {
	best := t[pick.CompetitorID][pick.Position]
	if best > pick.OddAtBet {
		return best
	}
	return pick.OddAtBet
}

func (s *Settler) bestOddsForWeek(ctx context.Context, weekID uuid.UUID) (bestOddsTable, error) {
	snapshots, err := s.snapshots.GetSnapshots(ctx, weekID)
	if err != nil {
		return nil, fmt.Errorf("failed to load odds snapshots for BOG: %w", err)
	}

	table := make(bestOddsTable)
	for _, snapshot := range snapshots {
		for i := range snapshot.Entries {
			entry := &snapshot.Entries[i]
			byPos := table[entry.CompetitorID]
			if byPos == nil {
				byPos = make(map[models.PickPosition]float64, len(models.PodiumPositions))
				table[entry.CompetitorID] = byPos
			}
			for _, pos := range models.PodiumPositions {
				if odd := entry.OddForPosition(pos); odd > byPos[pos] {
					byPos[pos] = odd
				}
			}
		}
	}
	return table, nil
}

// scoreBet settles a bet in place. Pure given its inputs: the final
// positions and the best-odds table fully determine every settlement field.
func scoreBet(bet *models.Bet, positions map[uuid.UUID]int, bestOdds bestOddsTable) {
	total := decimal.Zero
	correct := 0

	for i := range bet.Picks {
		pick := &bet.Picks[i]

		actual, raced := positions[pick.CompetitorID]
		pick.IsCorrect = raced && actual == positionRank(pick.Position)

		locked := bestOdds.lockedOdd(pick)
		pick.UsedBogOdd = locked > pick.OddAtBet

		if pick.IsCorrect {
			points := decimal.NewFromFloat(locked)
			if pick.HasBoost {
				points = points.Mul(two)
			}
			if points.LessThan(minCorrectPickPoints) {
				points = minCorrectPickPoints
			}
			pick.PointsEarned = points
			total = total.Add(points)
			correct++
		} else {
			pick.PointsEarned = decimal.Zero
		}
	}

	bet.IsPerfectPodium = correct == len(bet.Picks)
	if bet.IsPerfectPodium {
		total = total.Mul(two)
	}
	bet.PointsEarned = total

	if total.IsPositive() {
		bet.Status = models.BetStatusWon
	} else {
		bet.Status = models.BetStatusLost
	}
}
