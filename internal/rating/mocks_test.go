package rating

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/yourusername/podium-engine/internal/models"
)

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

// MockRaceRepository mocks the race repository
type MockRaceRepository struct {
	mock.Mock
}

func (m *MockRaceRepository) CreateWithResults(ctx context.Context, race *models.Race, results []models.RaceResult) error {
	args := m.Called(ctx, race, results)
	return args.Error(0)
}

func (m *MockRaceRepository) GetResults(ctx context.Context, raceID uuid.UUID) ([]models.RaceResult, error) {
	args := m.Called(ctx, raceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RaceResult), args.Error(1)
}

func (m *MockRaceRepository) CountForCompetitorSince(ctx context.Context, competitorID uuid.UUID, since time.Time) (int, error) {
	args := m.Called(ctx, competitorID, since)
	return args.Int(0), args.Error(1)
}

func (m *MockRaceRepository) CountsSince(ctx context.Context, since time.Time) (map[uuid.UUID]int, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]int), args.Error(1)
}

func (m *MockRaceRepository) CountBetween(ctx context.Context, start, end time.Time) (int, error) {
	args := m.Called(ctx, start, end)
	return args.Int(0), args.Error(1)
}

func (m *MockRaceRepository) LatestRaceDay(ctx context.Context, competitorID uuid.UUID) (*time.Time, error) {
	args := m.Called(ctx, competitorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

// MockSoftResetRepository mocks the soft reset marker repository
type MockSoftResetRepository struct {
	mock.Mock
}

func (m *MockSoftResetRepository) TryAcquire(ctx context.Context, month string) (bool, error) {
	args := m.Called(ctx, month)
	return args.Bool(0), args.Error(1)
}
