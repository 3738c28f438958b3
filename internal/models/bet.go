package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BetStatus represents the lifecycle status of a bet
type BetStatus string

const (
	BetStatusPending   BetStatus = "PENDING"
	BetStatusWon       BetStatus = "WON"
	BetStatusLost      BetStatus = "LOST"
	BetStatusCancelled BetStatus = "CANCELLED"
)

// PickPosition represents the podium position a pick targets
type PickPosition string

const (
	PositionFirst  PickPosition = "FIRST"
	PositionSecond PickPosition = "SECOND"
	PositionThird  PickPosition = "THIRD"
)

// PodiumPositions lists the three podium positions in finishing order
var PodiumPositions = []PickPosition{PositionFirst, PositionSecond, PositionThird}

// Bet represents one user's podium bet for a betting week. At most one
// non-cancelled bet exists per (user, week).
type Bet struct {
	ID              uuid.UUID       `db:"id" json:"id" validate:"required,uuid4"`
	UserID          uuid.UUID       `db:"user_id" json:"user_id" validate:"required,uuid4"`
	WeekID          uuid.UUID       `db:"week_id" json:"week_id" validate:"required,uuid4"`
	PlacedAt        time.Time       `db:"placed_at" json:"placed_at" validate:"required"`
	Status          BetStatus       `db:"status" json:"status" validate:"required,oneof=PENDING WON LOST CANCELLED"`
	PointsEarned    decimal.Decimal `db:"points_earned" json:"points_earned"`
	IsPerfectPodium bool            `db:"is_perfect_podium" json:"is_perfect_podium"`
	Picks           []BetPick       `json:"picks" validate:"len=3,dive"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// BetPick represents a single podium pick inside a bet. The odd is locked
// at placement; settlement fields are written exactly once.
type BetPick struct {
	BetID        uuid.UUID       `db:"bet_id" json:"bet_id" validate:"required,uuid4"`
	CompetitorID uuid.UUID       `db:"competitor_id" json:"competitor_id" validate:"required,uuid4"`
	Position     PickPosition    `db:"position" json:"position" validate:"required,oneof=FIRST SECOND THIRD"`
	OddAtBet     float64         `db:"odd_at_bet" json:"odd_at_bet" validate:"gte=1.1,lte=50"`
	HasBoost     bool            `db:"has_boost" json:"has_boost"`
	IsCorrect    bool            `db:"is_correct" json:"is_correct"`
	PointsEarned decimal.Decimal `db:"points_earned" json:"points_earned"`
	UsedBogOdd   bool            `db:"used_bog_odd" json:"used_bog_odd"`
}

// IsSettled reports whether the bet has reached a terminal settled state
func (b *Bet) IsSettled() bool {
	return b.Status == BetStatusWon || b.Status == BetStatusLost
}

// BoostedPick returns the pick carrying the boost token, or nil
func (b *Bet) BoostedPick() *BetPick {
	for i := range b.Picks {
		if b.Picks[i].HasBoost {
			return &b.Picks[i]
		}
	}
	return nil
}

// CorrectPickCount returns how many picks matched their exact position
func (b *Bet) CorrectPickCount() int {
	count := 0
	for i := range b.Picks {
		if b.Picks[i].IsCorrect {
			count++
		}
	}
	return count
}
