package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/podium-engine/internal/models"
	"github.com/yourusername/podium-engine/internal/rating"
)

type archiveFixture struct {
	competitors *MockCompetitorRepository
	races       *MockRaceRepository
	bets        *MockBetRepository
	archives    *MockArchiveRepository
	markers     *MockSoftResetRepository
	service     *ArchiveService
}

func newArchiveFixture() *archiveFixture {
	log := testLogger()
	f := &archiveFixture{
		competitors: new(MockCompetitorRepository),
		races:       new(MockRaceRepository),
		bets:        new(MockBetRepository),
		archives:    new(MockArchiveRepository),
		markers:     new(MockSoftResetRepository),
	}
	rankings := NewRankingsService(f.competitors, f.bets, log)
	softReset := rating.NewSoftReset(f.competitors, f.races, f.markers, log)
	f.service = NewArchiveService(rankings, f.races, f.archives, softReset, log)
	return f
}

func TestRolloverMonthArchivesClosingMonth(t *testing.T) {
	f := newArchiveFixture()
	now := time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)
	julyStart := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)

	leader := models.NewCompetitor("leader")
	leader.Rating, leader.RD = 1650, 60

	f.competitors.On("GetAll", mock.Anything).Return([]*models.Competitor{leader}, nil)
	f.bets.On("GetSettledBetween", mock.Anything, julyStart, now).Return([]*models.Bet{}, nil)
	f.races.On("CountBetween", mock.Anything, julyStart, now).Return(123, nil)

	var archived *models.SeasonArchive
	f.archives.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		archived = args.Get(1).(*models.SeasonArchive)
	}).Return(nil)

	// The reset marker is already held, so the soft reset is a no-op here.
	f.markers.On("TryAcquire", mock.Anything, "2024-08").Return(false, nil)

	require.NoError(t, f.service.RolloverMonth(context.Background(), now))
	require.NotNil(t, archived)

	assert.Equal(t, 7, archived.Month)
	assert.Equal(t, 2024, archived.Year)
	assert.Equal(t, 123, archived.TotalRaces)
	assert.Equal(t, 0, archived.TotalBets)

	rankings, err := archived.ParseCompetitorRankings()
	require.NoError(t, err)
	require.Len(t, rankings, 1)
	assert.Equal(t, leader.ID, rankings[0].CompetitorID)
}

func TestRolloverMonthSkipsExistingArchive(t *testing.T) {
	f := newArchiveFixture()
	now := time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)
	julyStart := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)

	f.competitors.On("GetAll", mock.Anything).Return([]*models.Competitor{}, nil)
	f.bets.On("GetSettledBetween", mock.Anything, julyStart, now).Return([]*models.Bet{}, nil)
	f.races.On("CountBetween", mock.Anything, julyStart, now).Return(0, nil)
	f.archives.On("Create", mock.Anything, mock.Anything).Return(models.ErrDuplicateKey)
	f.markers.On("TryAcquire", mock.Anything, "2024-08").Return(false, nil)

	assert.NoError(t, f.service.RolloverMonth(context.Background(), now))
}

func TestRolloverMonthCountsSettledBets(t *testing.T) {
	f := newArchiveFixture()
	now := time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)
	julyStart := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)

	hot := settledBet(uuid.New(), models.BetStatusWon, "21.4", true)
	cold := settledBet(uuid.New(), models.BetStatusLost, "0", false)

	f.competitors.On("GetAll", mock.Anything).Return([]*models.Competitor{}, nil)
	f.bets.On("GetSettledBetween", mock.Anything, julyStart, now).
		Return([]*models.Bet{hot, cold}, nil)
	f.races.On("CountBetween", mock.Anything, julyStart, now).Return(40, nil)

	var archived *models.SeasonArchive
	f.archives.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		archived = args.Get(1).(*models.SeasonArchive)
	}).Return(nil)
	f.markers.On("TryAcquire", mock.Anything, "2024-08").Return(false, nil)

	require.NoError(t, f.service.RolloverMonth(context.Background(), now))
	require.NotNil(t, archived)
	assert.Equal(t, 2, archived.TotalBets)

	bettors, err := archived.ParseBettorRankings()
	require.NoError(t, err)
	require.Len(t, bettors, 2)
	assert.Equal(t, hot.UserID, bettors[0].UserID)
}
