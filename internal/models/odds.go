package models

import (
	"time"

	"github.com/google/uuid"
)

// Decimal odds are clamped to this range; a competitor never seen at a
// podium position in the simulation gets MaxOdd, never infinity.
const (
	MinOdd = 1.1
	MaxOdd = 50.0
)

// CompetitorOdds holds one competitor's podium odds inside a snapshot
type CompetitorOdds struct {
	SnapshotID   uuid.UUID `db:"snapshot_id" json:"snapshot_id" validate:"required,uuid4"`
	WeekID       uuid.UUID `db:"week_id" json:"week_id" validate:"required,uuid4"`
	CompetitorID uuid.UUID `db:"competitor_id" json:"competitor_id" validate:"required,uuid4"`
	OddFirst     float64   `db:"odd_first" json:"odd_first" validate:"gte=1.1,lte=50"`
	OddSecond    float64   `db:"odd_second" json:"odd_second" validate:"gte=1.1,lte=50"`
	OddThird     float64   `db:"odd_third" json:"odd_third" validate:"gte=1.1,lte=50"`
	IsEligible   bool      `db:"is_eligible" json:"is_eligible"`
	ComputedAt   time.Time `db:"computed_at" json:"computed_at"`
}

// OddForPosition returns the decimal odd for a podium position
func (o *CompetitorOdds) OddForPosition(pos PickPosition) float64 {
	switch pos {
	case PositionFirst:
		return o.OddFirst
	case PositionSecond:
		return o.OddSecond
	case PositionThird:
		return o.OddThird
	}
	return 0
}

// OddsSnapshot is a full, immutable odds computation for a week. Snapshots
// are replaced wholesale on every recompute and old ones are retained for
// Best-Odds-Guaranteed comparison at settlement.
type OddsSnapshot struct {
	ID         uuid.UUID        `db:"id" json:"id" validate:"required,uuid4"`
	WeekID     uuid.UUID        `db:"week_id" json:"week_id" validate:"required,uuid4"`
	Seed       int64            `db:"seed" json:"seed"`
	Trials     int              `db:"trials" json:"trials" validate:"gt=0"`
	ComputedAt time.Time        `db:"computed_at" json:"computed_at"`
	Entries    []CompetitorOdds `json:"entries"`
}

// EntryFor returns the snapshot entry for a competitor, or nil
func (s *OddsSnapshot) EntryFor(competitorID uuid.UUID) *CompetitorOdds {
	for i := range s.Entries {
		if s.Entries[i].CompetitorID == competitorID {
			return &s.Entries[i]
		}
	}
	return nil
}
