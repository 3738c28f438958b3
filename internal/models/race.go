package models

import (
	"time"

	"github.com/google/uuid"
)

// Race represents a single completed race submitted to the engine
type Race struct {
	ID         uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	RanAt      time.Time `db:"ran_at" json:"ran_at" validate:"required"`
	Entries    int       `db:"entries" json:"entries" validate:"gte=2"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}

// RaceResult represents one competitor's finishing position in a race.
// Results are immutable once recorded; ties share the same rank.
type RaceResult struct {
	RaceID       uuid.UUID `db:"race_id" json:"race_id" validate:"required,uuid4"`
	CompetitorID uuid.UUID `db:"competitor_id" json:"competitor_id" validate:"required,uuid4"`
	Rank         int       `db:"rank" json:"rank" validate:"required,gte=1"`
	Score        float64   `db:"score" json:"score"`
	RecordedAt   time.Time `db:"recorded_at" json:"recorded_at"`
}

// PairwiseScore returns the virtual match score of this result against an
// opponent's: 1 for beating it, 0 for losing, 0.5 for a shared rank.
func (rr *RaceResult) PairwiseScore(opponent *RaceResult) float64 {
	switch {
	case rr.Rank < opponent.Rank:
		return 1.0
	case rr.Rank > opponent.Rank:
		return 0.0
	default:
		return 0.5
	}
}
