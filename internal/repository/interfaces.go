// Package repository provides PostgreSQL persistence for the podium engine.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/podium-engine/internal/models"
)

// CompetitorRepository manages competitor rating state
type CompetitorRepository interface {
	Create(ctx context.Context, competitor *models.Competitor) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Competitor, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Competitor, error)
	GetAll(ctx context.Context) ([]*models.Competitor, error)
	GetEligible(ctx context.Context) ([]*models.Competitor, error)
	// UpdateRatingBatch persists new rating triples and race counters for a
	// whole race in one transaction, guarded by each competitor's version.
	UpdateRatingBatch(ctx context.Context, competitors []*models.Competitor) error
}

// RaceRepository manages the immutable race log
type RaceRepository interface {
	CreateWithResults(ctx context.Context, race *models.Race, results []models.RaceResult) error
	GetResults(ctx context.Context, raceID uuid.UUID) ([]models.RaceResult, error)
	CountForCompetitorSince(ctx context.Context, competitorID uuid.UUID, since time.Time) (int, error)
	CountsSince(ctx context.Context, since time.Time) (map[uuid.UUID]int, error)
	CountBetween(ctx context.Context, start, end time.Time) (int, error)
	LatestRaceDay(ctx context.Context, competitorID uuid.UUID) (*time.Time, error)
}

// WeekRepository manages betting week lifecycle records
type WeekRepository interface {
	Create(ctx context.Context, week *models.BettingWeek) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BettingWeek, error)
	GetCurrent(ctx context.Context, at time.Time) (*models.BettingWeek, error)
	GetByMonth(ctx context.Context, month time.Month, year int) ([]*models.BettingWeek, error)
	// TransitionStatus is a compare-and-set: it succeeds only when the week
	// still holds the expected status, so exactly one concurrent trigger wins.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.WeekStatus) error
	MarkSettled(ctx context.Context, id uuid.UUID, at time.Time) error
}

// OddsRepository manages append-only odds snapshots
type OddsRepository interface {
	SaveSnapshot(ctx context.Context, snapshot *models.OddsSnapshot) error
	GetLatestSnapshot(ctx context.Context, weekID uuid.UUID) (*models.OddsSnapshot, error)
	GetSnapshots(ctx context.Context, weekID uuid.UUID) ([]*models.OddsSnapshot, error)
}

// BetRepository manages bets and their picks
type BetRepository interface {
	Create(ctx context.Context, bet *models.Bet) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Bet, error)
	GetByUserAndWeek(ctx context.Context, userID, weekID uuid.UUID) (*models.Bet, error)
	GetByWeek(ctx context.Context, weekID uuid.UUID) ([]*models.Bet, error)
	GetPendingByWeek(ctx context.Context, weekID uuid.UUID) ([]*models.Bet, error)
	GetHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Bet, error)
	GetSettledBetween(ctx context.Context, start, end time.Time) ([]*models.Bet, error)
	UpdateSettlement(ctx context.Context, bet *models.Bet) error
}

// StreakRepository manages streak/XP state and streak-loss notices
type StreakRepository interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.StreakState, error)
	GetAll(ctx context.Context) ([]*models.StreakState, error)
	Save(ctx context.Context, state *models.StreakState) error
	CreateNotice(ctx context.Context, notice *models.StreakLossNotice) error
	GetUnseenNotices(ctx context.Context, userID uuid.UUID) ([]*models.StreakLossNotice, error)
	MarkNoticeSeen(ctx context.Context, noticeID uuid.UUID) error
}

// ArchiveRepository manages the monthly season rollups
type ArchiveRepository interface {
	Create(ctx context.Context, archive *models.SeasonArchive) error
	GetByMonth(ctx context.Context, month time.Month, year int) (*models.SeasonArchive, error)
}

// SoftResetRepository guards the monthly soft reset against double runs
type SoftResetRepository interface {
	// TryAcquire records the reset marker for month ("2006-01" format) and
	// reports whether this caller won the right to run it.
	TryAcquire(ctx context.Context, month string) (bool, error)
}
