package betting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/yourusername/podium-engine/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// MockWeekRepository mocks the betting week repository
type MockWeekRepository struct {
	mock.Mock
}

func (m *MockWeekRepository) Create(ctx context.Context, week *models.BettingWeek) error {
	args := m.Called(ctx, week)
	return args.Error(0)
}

func (m *MockWeekRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BettingWeek, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BettingWeek), args.Error(1)
}

func (m *MockWeekRepository) GetCurrent(ctx context.Context, at time.Time) (*models.BettingWeek, error) {
	args := m.Called(ctx, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BettingWeek), args.Error(1)
}

func (m *MockWeekRepository) GetByMonth(ctx context.Context, month time.Month, year int) ([]*models.BettingWeek, error) {
	args := m.Called(ctx, month, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BettingWeek), args.Error(1)
}

func (m *MockWeekRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.WeekStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockWeekRepository) MarkSettled(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockBetRepository mocks the bet repository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) Create(ctx context.Context, bet *models.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Bet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}

func (m *MockBetRepository) GetByUserAndWeek(ctx context.Context, userID, weekID uuid.UUID) (*models.Bet, error) {
	args := m.Called(ctx, userID, weekID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}

func (m *MockBetRepository) GetByWeek(ctx context.Context, weekID uuid.UUID) ([]*models.Bet, error) {
	args := m.Called(ctx, weekID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetRepository) GetPendingByWeek(ctx context.Context, weekID uuid.UUID) ([]*models.Bet, error) {
	args := m.Called(ctx, weekID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetRepository) GetHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Bet, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetRepository) GetSettledBetween(ctx context.Context, start, end time.Time) ([]*models.Bet, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetRepository) UpdateSettlement(ctx context.Context, bet *models.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

// MockCompetitorRepository mocks the competitor repository
type MockCompetitorRepository struct {
	mock.Mock
}

func (m *MockCompetitorRepository) Create(ctx context.Context, competitor *models.Competitor) error {
	args := m.Called(ctx, competitor)
	return args.Error(0)
}

func (m *MockCompetitorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Competitor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Competitor), args.Error(1)
}

func (m *MockCompetitorRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Competitor, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Competitor), args.Error(1)
}

func (m *MockCompetitorRepository) GetAll(ctx context.Context) ([]*models.Competitor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Competitor), args.Error(1)
}

func (m *MockCompetitorRepository) GetEligible(ctx context.Context) ([]*models.Competitor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Competitor), args.Error(1)
}

func (m *MockCompetitorRepository) UpdateRatingBatch(ctx context.Context, competitors []*models.Competitor) error {
	args := m.Called(ctx, competitors)
	return args.Error(0)
}

// MockOddsRepository mocks the odds snapshot repository
type MockOddsRepository struct {
	mock.Mock
}

func (m *MockOddsRepository) SaveSnapshot(ctx context.Context, snapshot *models.OddsSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockOddsRepository) GetLatestSnapshot(ctx context.Context, weekID uuid.UUID) (*models.OddsSnapshot, error) {
	args := m.Called(ctx, weekID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OddsSnapshot), args.Error(1)
}

func (m *MockOddsRepository) GetSnapshots(ctx context.Context, weekID uuid.UUID) ([]*models.OddsSnapshot, error) {
	args := m.Called(ctx, weekID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.OddsSnapshot), args.Error(1)
}

// MockStreakRepository mocks the streak repository backing the tracker
type MockStreakRepository struct {
	mock.Mock
}

func (m *MockStreakRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.StreakState, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StreakState), args.Error(1)
}

func (m *MockStreakRepository) GetAll(ctx context.Context) ([]*models.StreakState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.StreakState), args.Error(1)
}

func (m *MockStreakRepository) Save(ctx context.Context, state *models.StreakState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockStreakRepository) CreateNotice(ctx context.Context, notice *models.StreakLossNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

func (m *MockStreakRepository) GetUnseenNotices(ctx context.Context, userID uuid.UUID) ([]*models.StreakLossNotice, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.StreakLossNotice), args.Error(1)
}

func (m *MockStreakRepository) MarkNoticeSeen(ctx context.Context, noticeID uuid.UUID) error {
	args := m.Called(ctx, noticeID)
	return args.Error(0)
}
