package models

import (
	"time"

	"github.com/google/uuid"
)

// WeekStatus represents the lifecycle state of a betting week
type WeekStatus string

const (
	WeekStatusCalibration WeekStatus = "CALIBRATION"
	WeekStatusOpen        WeekStatus = "OPEN"
	WeekStatusClosed      WeekStatus = "CLOSED"
	WeekStatusFinalized   WeekStatus = "FINALIZED"
)

// statusOrder encodes the one-directional progression of week statuses
var statusOrder = map[WeekStatus]int{
	WeekStatusCalibration: 0,
	WeekStatusOpen:        1,
	WeekStatusClosed:      2,
	WeekStatusFinalized:   3,
}

// BettingWeek represents one calendar week of the betting cycle
type BettingWeek struct {
	ID               uuid.UUID  `db:"id" json:"id" validate:"required,uuid4"`
	SeasonWeekNumber int        `db:"season_week_number" json:"season_week_number" validate:"gte=1"`
	StartDate        time.Time  `db:"start_date" json:"start_date" validate:"required"`
	EndDate          time.Time  `db:"end_date" json:"end_date" validate:"required"`
	Status           WeekStatus `db:"status" json:"status" validate:"required,oneof=CALIBRATION OPEN CLOSED FINALIZED"`
	SettledAt        *time.Time `db:"settled_at" json:"settled_at"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// CanTransitionTo reports whether moving to next respects the monotonic
// status progression. Transitions never go backward.
func (w *BettingWeek) CanTransitionTo(next WeekStatus) bool {
	cur, ok := statusOrder[w.Status]
	if !ok {
		return false
	}
	nxt, ok := statusOrder[next]
	if !ok {
		return false
	}
	return nxt > cur
}

// IsOpen reports whether bet placement is currently allowed
func (w *BettingWeek) IsOpen() bool {
	return w.Status == WeekStatusOpen
}

// IsCalibration reports whether this week started as the first week of
// its calendar month. Derived from the start date, so it stays true after
// the status moves past CALIBRATION.
func (w *BettingWeek) IsCalibration() bool {
	return w.StartDate.Day() <= 7
}

// IsFinalized reports whether settlement has run for this week
func (w *BettingWeek) IsFinalized() bool {
	return w.Status == WeekStatusFinalized
}
