package rating

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/podium-engine/internal/models"
)

func TestSoftResetValues(t *testing.T) {
	tests := []struct {
		name       string
		rating     float64
		rd         float64
		wantRating float64
		wantRD     float64
	}{
		{"above the prior", 2000, 100, 1875, 150},
		{"below the prior", 1000, 100, 1125, 150},
		{"at the prior", 1500, 200, 1500, 250},
		{"rd capped at ceiling", 1600, 340, 1575, 350},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gotRating, gotRD := SoftResetValues(tc.rating, tc.rd)
			assert.InDelta(t, tc.wantRating, gotRating, 1e-9)
			assert.InDelta(t, tc.wantRD, gotRD, 1e-9)
		})
	}
}

func TestSoftResetApplySkipsWhenMarkerHeld(t *testing.T) {
	competitors := new(MockCompetitorRepository)
	races := new(MockRaceRepository)
	markers := new(MockSoftResetRepository)
	reset := NewSoftReset(competitors, races, markers, testLogger())

	markers.On("TryAcquire", mock.Anything, "2025-06").Return(false, nil)

	err := reset.Apply(context.Background(), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	competitors.AssertNotCalled(t, "GetAll", mock.Anything)
	competitors.AssertNotCalled(t, "UpdateRatingBatch", mock.Anything, mock.Anything)
}

func TestSoftResetApplyRegressesAllCompetitors(t *testing.T) {
	competitors := new(MockCompetitorRepository)
	races := new(MockRaceRepository)
	markers := new(MockSoftResetRepository)
	reset := NewSoftReset(competitors, races, markers, testLogger())

	hot := models.NewCompetitor("hot")
	hot.Rating, hot.RD = 1900, 60
	cold := models.NewCompetitor("cold")
	cold.Rating, cold.RD = 1200, 320

	markers.On("TryAcquire", mock.Anything, "2025-07").Return(true, nil)
	competitors.On("GetAll", mock.Anything).Return([]*models.Competitor{hot, cold}, nil)
	races.On("CountsSince", mock.Anything, mock.Anything).Return(map[uuid.UUID]int{hot.ID: 2}, nil)

	var persisted []*models.Competitor
	competitors.On("UpdateRatingBatch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			persisted = args.Get(1).([]*models.Competitor)
		}).
		Return(nil)

	err := reset.Apply(context.Background(), time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, persisted, 2)

	byID := make(map[uuid.UUID]*models.Competitor)
	for _, c := range persisted {
		byID[c.ID] = c
	}

	assert.InDelta(t, 1800.0, byID[hot.ID].Rating, 1e-9)
	assert.InDelta(t, 110.0, byID[hot.ID].RD, 1e-9)
	assert.InDelta(t, 1275.0, byID[cold.ID].Rating, 1e-9)
	assert.InDelta(t, 350.0, byID[cold.ID].RD, 1e-9)

	// Window counts refresh alongside the reset.
	assert.Equal(t, 2, byID[hot.ID].RaceCountLast30)
	assert.Equal(t, 0, byID[cold.ID].RaceCountLast30)

	// Stored competitors are not mutated in place.
	assert.Equal(t, 1900.0, hot.Rating)
}
