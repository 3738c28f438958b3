package betting

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/podium-engine/internal/logger"
	"github.com/yourusername/podium-engine/internal/models"
)

func TestWeekBounds(t *testing.T) {
	tests := []struct {
		name       string
		at         time.Time
		wantMonday time.Time
	}{
		{
			"midweek",
			time.Date(2024, time.July, 24, 15, 30, 0, 0, time.UTC),
			time.Date(2024, time.July, 22, 0, 0, 0, 0, time.UTC),
		},
		{
			"monday maps to itself",
			time.Date(2024, time.July, 22, 0, 0, 0, 0, time.UTC),
			time.Date(2024, time.July, 22, 0, 0, 0, 0, time.UTC),
		},
		{
			"sunday still belongs to the week behind it",
			time.Date(2024, time.July, 28, 23, 59, 59, 0, time.UTC),
			time.Date(2024, time.July, 22, 0, 0, 0, 0, time.UTC),
		},
		{
			"weeks span month boundaries",
			time.Date(2024, time.August, 1, 12, 0, 0, 0, time.UTC),
			time.Date(2024, time.July, 29, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			monday, sunday := WeekBounds(tc.at)
			assert.Equal(t, tc.wantMonday, monday)
			assert.Equal(t, tc.wantMonday.AddDate(0, 0, 7).Add(-time.Second), sunday)
			assert.Equal(t, time.Monday, monday.Weekday())
			assert.Equal(t, time.Sunday, sunday.Weekday())
		})
	}
}

func TestSeasonWeekNumberIsMonotonic(t *testing.T) {
	epochMonday := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, SeasonWeekNumber(epochMonday))

	for i := 1; i < 120; i++ {
		monday := epochMonday.AddDate(0, 0, 7*i)
		assert.Equal(t, i+1, SeasonWeekNumber(monday))
	}
}

func TestIsCalibrationWeek(t *testing.T) {
	tests := []struct {
		name   string
		monday time.Time
		want   bool
	}{
		{"first of the month", time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), true},
		{"seventh still calibrates", time.Date(2024, time.October, 7, 0, 0, 0, 0, time.UTC), true},
		{"eighth is a normal week", time.Date(2024, time.July, 8, 0, 0, 0, 0, time.UTC), false},
		{"late month", time.Date(2024, time.July, 22, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsCalibrationWeek(tc.monday))
		})
	}
}

func newTestCycle(weeks *MockWeekRepository) *Cycle {
	log := testLogger()
	return NewCycle(weeks, logger.NewAuditLogger(log), log)
}

func TestEnsureCurrentWeekReturnsExisting(t *testing.T) {
	weeks := new(MockWeekRepository)
	now := time.Date(2024, time.July, 24, 10, 0, 0, 0, time.UTC)
	existing := &models.BettingWeek{ID: uuid.New(), Status: models.WeekStatusOpen}
	weeks.On("GetCurrent", mock.Anything, now).Return(existing, nil)

	week, err := newTestCycle(weeks).EnsureCurrentWeek(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, week.ID)
	weeks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEnsureCurrentWeekCreatesOpenWeek(t *testing.T) {
	weeks := new(MockWeekRepository)
	now := time.Date(2024, time.July, 24, 10, 0, 0, 0, time.UTC)
	weeks.On("GetCurrent", mock.Anything, now).Return(nil, models.ErrNotFound)

	var created *models.BettingWeek
	weeks.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(*models.BettingWeek)
	}).Return(nil)

	week, err := newTestCycle(weeks).EnsureCurrentWeek(context.Background(), now)
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, models.WeekStatusOpen, week.Status)
	assert.Equal(t, time.Date(2024, time.July, 22, 0, 0, 0, 0, time.UTC), week.StartDate)
	assert.Equal(t, SeasonWeekNumber(week.StartDate), week.SeasonWeekNumber)
	assert.Equal(t, created.ID, week.ID)
}

func TestEnsureCurrentWeekCreatesCalibrationWeek(t *testing.T) {
	weeks := new(MockWeekRepository)
	// July 1 2024 is a Monday, so the week calibrates.
	now := time.Date(2024, time.July, 2, 9, 0, 0, 0, time.UTC)
	weeks.On("GetCurrent", mock.Anything, now).Return(nil, models.ErrNotFound)
	weeks.On("Create", mock.Anything, mock.Anything).Return(nil)

	week, err := newTestCycle(weeks).EnsureCurrentWeek(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, models.WeekStatusCalibration, week.Status)
}

func TestEnsureCurrentWeekSurvivesCreateRace(t *testing.T) {
	weeks := new(MockWeekRepository)
	now := time.Date(2024, time.July, 24, 10, 0, 0, 0, time.UTC)
	winner := &models.BettingWeek{ID: uuid.New(), Status: models.WeekStatusOpen}

	weeks.On("GetCurrent", mock.Anything, now).Return(nil, models.ErrNotFound).Once()
	weeks.On("Create", mock.Anything, mock.Anything).Return(models.ErrDuplicateKey)
	weeks.On("GetCurrent", mock.Anything, now).Return(winner, nil)

	week, err := newTestCycle(weeks).EnsureCurrentWeek(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, week.ID)
}

func TestCloseWeek(t *testing.T) {
	tests := []struct {
		name           string
		status         models.WeekStatus
		wantTransition bool
	}{
		{"open week closes", models.WeekStatusOpen, true},
		{"calibration week closes", models.WeekStatusCalibration, true},
		{"closed week is a no-op", models.WeekStatusClosed, false},
		{"finalized week is a no-op", models.WeekStatusFinalized, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			weeks := new(MockWeekRepository)
			weekID := uuid.New()
			weeks.On("GetByID", mock.Anything, weekID).Return(&models.BettingWeek{
				ID: weekID, Status: tc.status,
			}, nil)
			if tc.wantTransition {
				weeks.On("TransitionStatus", mock.Anything, weekID, tc.status, models.WeekStatusClosed).Return(nil)
			}

			err := newTestCycle(weeks).CloseWeek(context.Background(), weekID)
			require.NoError(t, err)
			if tc.wantTransition {
				weeks.AssertCalled(t, "TransitionStatus", mock.Anything, weekID, tc.status, models.WeekStatusClosed)
			} else {
				weeks.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestCloseWeekToleratesLostCas(t *testing.T) {
	weeks := new(MockWeekRepository)
	weekID := uuid.New()
	weeks.On("GetByID", mock.Anything, weekID).Return(&models.BettingWeek{
		ID: weekID, Status: models.WeekStatusOpen,
	}, nil)
	weeks.On("TransitionStatus", mock.Anything, weekID, models.WeekStatusOpen, models.WeekStatusClosed).
		Return(models.ErrVersionConflict)

	err := newTestCycle(weeks).CloseWeek(context.Background(), weekID)
	assert.NoError(t, err)
}
