package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompetitorRanking is one row of the end-of-month competitor standings,
// ordered by conservative score.
type CompetitorRanking struct {
	Rank              int       `json:"rank"`
	CompetitorID      uuid.UUID `json:"competitor_id"`
	Name              string    `json:"name"`
	Rating            float64   `json:"rating"`
	RD                float64   `json:"rd"`
	ConservativeScore float64   `json:"conservative_score"`
	RacesLifetime     int       `json:"races_lifetime"`
}

// BettorRanking is one row of the monthly bettor leaderboard, ordered by
// total settled points.
type BettorRanking struct {
	Rank          int             `json:"rank"`
	UserID        uuid.UUID       `json:"user_id"`
	TotalPoints   decimal.Decimal `json:"total_points"`
	BetsWon       int             `json:"bets_won"`
	BetsLost      int             `json:"bets_lost"`
	PerfectPodium int             `json:"perfect_podiums"`
}

// SeasonArchive is the monthly rollup written at month rollover, before the
// soft reset and the new calibration week.
type SeasonArchive struct {
	ID                 uuid.UUID       `db:"id" json:"id" validate:"required,uuid4"`
	Month              int             `db:"month" json:"month" validate:"gte=1,lte=12"`
	Year               int             `db:"year" json:"year" validate:"gte=2000"`
	TotalRaces         int             `db:"total_races" json:"total_races" validate:"gte=0"`
	TotalBets          int             `db:"total_bets" json:"total_bets" validate:"gte=0"`
	CompetitorRankings json.RawMessage `db:"competitor_rankings" json:"competitor_rankings"`
	BettorRankings     json.RawMessage `db:"bettor_rankings" json:"bettor_rankings"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
}

// ParseCompetitorRankings decodes the archived competitor standings
func (a *SeasonArchive) ParseCompetitorRankings() ([]CompetitorRanking, error) {
	if a.CompetitorRankings == nil {
		return nil, nil
	}
	var rankings []CompetitorRanking
	if err := json.Unmarshal(a.CompetitorRankings, &rankings); err != nil {
		return nil, err
	}
	return rankings, nil
}

// ParseBettorRankings decodes the archived bettor leaderboard
func (a *SeasonArchive) ParseBettorRankings() ([]BettorRanking, error) {
	if a.BettorRankings == nil {
		return nil, nil
	}
	var rankings []BettorRanking
	if err := json.Unmarshal(a.BettorRankings, &rankings); err != nil {
		return nil, err
	}
	return rankings, nil
}
