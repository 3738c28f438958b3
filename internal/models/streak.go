package models

import (
	"time"

	"github.com/google/uuid"
)

// StreakType distinguishes the two tracked streaks
type StreakType string

const (
	StreakTypeBetting StreakType = "BETTING"
	StreakTypePlay    StreakType = "PLAY"
)

// StreakState tracks one user's streaks, XP progression and monthly boost
type StreakState struct {
	UserID               uuid.UUID  `db:"user_id" json:"user_id" validate:"required,uuid4"`
	CurrentBettingStreak int        `db:"current_betting_streak" json:"current_betting_streak" validate:"gte=0"`
	LongestBettingStreak int        `db:"longest_betting_streak" json:"longest_betting_streak" validate:"gte=0"`
	CurrentPlayStreak    int        `db:"current_play_streak" json:"current_play_streak" validate:"gte=0"`
	LongestPlayStreak    int        `db:"longest_play_streak" json:"longest_play_streak" validate:"gte=0"`
	LastBetWeek          *uuid.UUID `db:"last_bet_week" json:"last_bet_week"`
	LastBetWeekNumber    int        `db:"last_bet_week_number" json:"last_bet_week_number"`
	LastPlayDate         *time.Time `db:"last_play_date" json:"last_play_date"`
	BoostUsedMonth       string     `db:"boost_used_month" json:"boost_used_month"` // "YYYY-MM" of last boost use
	Bonus3Awarded        bool       `db:"bonus3_awarded" json:"bonus3_awarded"`
	Bonus5Awarded        bool       `db:"bonus5_awarded" json:"bonus5_awarded"`
	XP                   int        `db:"xp" json:"xp" validate:"gte=0"`
	Level                int        `db:"level" json:"level" validate:"gte=0"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// BoostAvailable reports whether the monthly boost token is unused for month
func (s *StreakState) BoostAvailable(month time.Time) bool {
	return s.BoostUsedMonth != month.Format("2006-01")
}

// StreakLossNotice is an unseen-until-acknowledged payload produced when a
// streak breaks. Acknowledging it is a separate, retryable call that never
// touches settlement state.
type StreakLossNotice struct {
	ID        uuid.UUID  `db:"id" json:"id" validate:"required,uuid4"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id" validate:"required,uuid4"`
	Type      StreakType `db:"type" json:"type" validate:"required,oneof=BETTING PLAY"`
	LostValue int        `db:"lost_value" json:"lost_value" validate:"gte=1"`
	Seen      bool       `db:"seen" json:"seen"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
