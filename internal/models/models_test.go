package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestWeekStatusProgressionIsForwardOnly(t *testing.T) {
	tests := []struct {
		from WeekStatus
		to   WeekStatus
		want bool
	}{
		{WeekStatusCalibration, WeekStatusOpen, true},
		{WeekStatusCalibration, WeekStatusClosed, true},
		{WeekStatusOpen, WeekStatusClosed, true},
		{WeekStatusClosed, WeekStatusFinalized, true},
		{WeekStatusOpen, WeekStatusCalibration, false},
		{WeekStatusClosed, WeekStatusOpen, false},
		{WeekStatusFinalized, WeekStatusClosed, false},
		{WeekStatusFinalized, WeekStatusFinalized, false},
		{WeekStatusOpen, "UNKNOWN", false},
	}

	for _, tc := range tests {
		week := &BettingWeek{Status: tc.from}
		if got := week.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestWeekIsCalibration(t *testing.T) {
	tests := []struct {
		start time.Time
		want  bool
	}{
		{time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2024, time.October, 7, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2024, time.July, 8, 0, 0, 0, 0, time.UTC), false},
		{time.Date(2024, time.July, 22, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tc := range tests {
		// Status no longer matters once the week is finalized.
		week := &BettingWeek{StartDate: tc.start, Status: WeekStatusFinalized}
		if got := week.IsCalibration(); got != tc.want {
			t.Errorf("IsCalibration(start %s) = %v, want %v", tc.start.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestCompetitorEligibility(t *testing.T) {
	tests := []struct {
		name     string
		lifetime int
		last30   int
		want     bool
	}{
		{"meets both thresholds", 5, 2, true},
		{"well above thresholds", 50, 10, true},
		{"too few lifetime races", 4, 2, false},
		{"too few recent races", 5, 1, false},
		{"new competitor", 0, 0, false},
	}

	for _, tc := range tests {
		c := NewCompetitor(tc.name)
		c.RaceCountLifetime = tc.lifetime
		c.RaceCountLast30 = tc.last30
		if got := c.IsEligible(); got != tc.want {
			t.Errorf("%s: IsEligible() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestNewCompetitorDefaults(t *testing.T) {
	c := NewCompetitor("newcomer")
	if c.Rating != DefaultRating || c.RD != DefaultRD || c.Volatility != DefaultVolatility {
		t.Errorf("unexpected defaults: %v/%v/%v", c.Rating, c.RD, c.Volatility)
	}
	if c.IsEligible() {
		t.Error("a competitor with no races must not be eligible")
	}
}

func TestConservativeScore(t *testing.T) {
	c := NewCompetitor("c")
	c.Rating, c.RD = 1700, 150
	if got := c.ConservativeScore(); got != 1400 {
		t.Errorf("ConservativeScore() = %v, want 1400", got)
	}
}

func TestRacePairwiseScore(t *testing.T) {
	tests := []struct {
		rankA, rankB int
		want         float64
	}{
		{1, 2, 1.0},
		{3, 1, 0.0},
		{2, 2, 0.5},
	}
	for _, tc := range tests {
		a := &RaceResult{Rank: tc.rankA}
		b := &RaceResult{Rank: tc.rankB}
		if got := a.PairwiseScore(b); got != tc.want {
			t.Errorf("PairwiseScore(%d, %d) = %v, want %v", tc.rankA, tc.rankB, got, tc.want)
		}
	}
}

func TestBetCorrectPickCount(t *testing.T) {
	bet := &Bet{Picks: []BetPick{
		{IsCorrect: true},
		{IsCorrect: false},
		{IsCorrect: true},
	}}
	if got := bet.CorrectPickCount(); got != 2 {
		t.Errorf("CorrectPickCount() = %d, want 2", got)
	}
}

func TestBetBoostedPick(t *testing.T) {
	competitorID := uuid.New()
	bet := &Bet{Picks: []BetPick{
		{CompetitorID: uuid.New()},
		{CompetitorID: competitorID, HasBoost: true},
		{CompetitorID: uuid.New()},
	}}
	boosted := bet.BoostedPick()
	if boosted == nil || boosted.CompetitorID != competitorID {
		t.Errorf("BoostedPick() = %v, want pick for %s", boosted, competitorID)
	}

	plain := &Bet{Picks: []BetPick{{}, {}, {}}}
	if plain.BoostedPick() != nil {
		t.Error("BoostedPick() on an unboosted bet must be nil")
	}
}

func TestStreakBoostAvailable(t *testing.T) {
	july := time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC)

	fresh := &StreakState{}
	if !fresh.BoostAvailable(july) {
		t.Error("a fresh state must have the boost available")
	}

	spent := &StreakState{BoostUsedMonth: "2024-07"}
	if spent.BoostAvailable(july) {
		t.Error("boost must be unavailable within the month it was used")
	}
	if !spent.BoostAvailable(july.AddDate(0, 1, 0)) {
		t.Error("boost must refresh the following month")
	}
}

func TestOddsSnapshotEntryFor(t *testing.T) {
	competitorID := uuid.New()
	snapshot := &OddsSnapshot{Entries: []CompetitorOdds{
		{CompetitorID: uuid.New(), OddFirst: 2.0},
		{CompetitorID: competitorID, OddFirst: 3.0, OddSecond: 4.0, OddThird: 5.0},
	}}

	entry := snapshot.EntryFor(competitorID)
	if entry == nil {
		t.Fatal("EntryFor() returned nil for a present competitor")
	}
	if entry.OddForPosition(PositionSecond) != 4.0 {
		t.Errorf("OddForPosition(SECOND) = %v, want 4.0", entry.OddForPosition(PositionSecond))
	}
	if entry.OddForPosition("FOURTH") != 0 {
		t.Errorf("unknown position must yield 0")
	}
	if snapshot.EntryFor(uuid.New()) != nil {
		t.Error("EntryFor() must return nil for an absent competitor")
	}
}
