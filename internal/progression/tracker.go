// Package progression derives betting/play streaks and XP/level progression
// from placement and settlement events.
package progression

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/podium-engine/internal/events"
	"github.com/yourusername/podium-engine/internal/models"
	"github.com/yourusername/podium-engine/internal/repository"
)

// XP awards. Streak bonuses fire once on the 3- and 5-week transitions,
// not every week the streak stays above the threshold.
const (
	XPBetPlaced     = 10
	XPCorrectPick   = 25
	XPPerfectPodium = 100
	XPStreak3Bonus  = 50
	XPStreak5Bonus  = 100
)

// XPForLevel returns the cumulative XP required to reach level L
func XPForLevel(level int) int {
	if level <= 0 {
		return 0
	}
	return 100 * level * (level + 1) / 2
}

// LevelForXP returns the highest level whose cumulative requirement is met
func LevelForXP(xp int) int {
	level := 0
	for XPForLevel(level+1) <= xp {
		level++
	}
	return level
}

// previousBettableWeek returns the season number of the nearest earlier
// week that accepted bets. The first week of each month is CALIBRATION and
// rejects placement, so a bet in the week after one continues a streak.
// Calibration weeks are at least four weeks apart, so at most one is skipped.
func previousBettableWeek(week *models.BettingWeek) int {
	prev := week.SeasonWeekNumber - 1
	if week.StartDate.AddDate(0, 0, -7).Day() <= 7 {
		prev--
	}
	return prev
}

// Tracker maintains per-user streak and XP state
type Tracker struct {
	streaks repository.StreakRepository
	bus     *events.Bus
	logger  *logrus.Logger
}

// NewTracker creates a progression tracker
func NewTracker(streaks repository.StreakRepository, bus *events.Bus, logger *logrus.Logger) *Tracker {
	return &Tracker{
		streaks: streaks,
		bus:     bus,
		logger:  logger,
	}
}

// OnBetPlaced advances the betting streak and awards placement XP. Called
// inside the placement flow after the bet is committed.
func (t *Tracker) OnBetPlaced(ctx context.Context, userID uuid.UUID, week *models.BettingWeek) error {
	state, err := t.streaks.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load streak state: %w", err)
	}

	switch {
	case state.LastBetWeekNumber == week.SeasonWeekNumber:
		// Duplicate placement events for the same week do not re-advance.
	case state.LastBetWeekNumber >= previousBettableWeek(week):
		state.CurrentBettingStreak++
	default:
		state.CurrentBettingStreak = 1
		state.Bonus3Awarded = false
		state.Bonus5Awarded = false
	}
	state.LastBetWeekNumber = week.SeasonWeekNumber
	weekID := week.ID
	state.LastBetWeek = &weekID

	if state.CurrentBettingStreak > state.LongestBettingStreak {
		state.LongestBettingStreak = state.CurrentBettingStreak
	}

	gained := XPBetPlaced
	if state.CurrentBettingStreak >= 3 && !state.Bonus3Awarded {
		gained += XPStreak3Bonus
		state.Bonus3Awarded = true
	}
	if state.CurrentBettingStreak >= 5 && !state.Bonus5Awarded {
		gained += XPStreak5Bonus
		state.Bonus5Awarded = true
	}

	t.addXP(ctx, state, gained)

	if err := t.streaks.Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save streak state: %w", err)
	}

	t.logger.WithFields(logrus.Fields{
		"user_id":        userID,
		"betting_streak": state.CurrentBettingStreak,
		"xp_gained":      gained,
	}).Debug("Betting streak advanced")

	return nil
}

// OnBetSettled awards settlement XP for correct picks and perfect podiums
func (t *Tracker) OnBetSettled(ctx context.Context, userID uuid.UUID, correctPicks int, perfectPodium bool) error {
	state, err := t.streaks.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load streak state: %w", err)
	}

	gained := correctPicks * XPCorrectPick
	if perfectPodium {
		gained += XPPerfectPodium
	}
	if gained == 0 {
		return nil
	}

	t.addXP(ctx, state, gained)

	if err := t.streaks.Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save streak state: %w", err)
	}
	return nil
}

// OnPlayDay advances the play streak for a day with at least one race
func (t *Tracker) OnPlayDay(ctx context.Context, userID uuid.UUID, day time.Time) error {
	state, err := t.streaks.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load streak state: %w", err)
	}

	day = day.Truncate(24 * time.Hour)
	switch {
	case state.LastPlayDate != nil && state.LastPlayDate.Equal(day):
		return nil
	case state.LastPlayDate != nil && state.LastPlayDate.Equal(day.Add(-24*time.Hour)):
		state.CurrentPlayStreak++
	default:
		if state.CurrentPlayStreak > 1 {
			if err := t.recordStreakLoss(ctx, state.UserID, models.StreakTypePlay, state.CurrentPlayStreak); err != nil {
				return err
			}
		}
		state.CurrentPlayStreak = 1
	}
	state.LastPlayDate = &day

	if state.CurrentPlayStreak > state.LongestPlayStreak {
		state.LongestPlayStreak = state.CurrentPlayStreak
	}

	if err := t.streaks.Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save streak state: %w", err)
	}
	return nil
}

// OnWeekFinalized resets every betting streak whose owner skipped the
// just-finalized OPEN week, recording an unseen streak-loss notice per user.
// Calibration weeks never accepted bets, so finalizing one breaks nothing.
func (t *Tracker) OnWeekFinalized(ctx context.Context, week *models.BettingWeek) error {
	if week.Status != models.WeekStatusFinalized {
		return fmt.Errorf("week %s: %w", week.ID, models.ErrWeekNotFinalized)
	}
	if week.IsCalibration() {
		return nil
	}

	states, err := t.streaks.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load streak states: %w", err)
	}

	for _, state := range states {
		if state.CurrentBettingStreak == 0 || state.LastBetWeekNumber >= week.SeasonWeekNumber {
			continue
		}

		lost := state.CurrentBettingStreak
		state.CurrentBettingStreak = 0
		state.Bonus3Awarded = false
		state.Bonus5Awarded = false

		if err := t.recordStreakLoss(ctx, state.UserID, models.StreakTypeBetting, lost); err != nil {
			return err
		}
		if err := t.streaks.Save(ctx, state); err != nil {
			return fmt.Errorf("failed to save streak state: %w", err)
		}
	}
	return nil
}

// ConsumeBoost marks the monthly boost token as used. Returns
// ErrBoostAlreadyUsed when the token was already spent this month.
func (t *Tracker) ConsumeBoost(ctx context.Context, userID uuid.UUID, month time.Time) error {
	state, err := t.streaks.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load streak state: %w", err)
	}

	if !state.BoostAvailable(month) {
		return models.ErrBoostAlreadyUsed
	}

	state.BoostUsedMonth = month.Format("2006-01")
	if err := t.streaks.Save(ctx, state); err != nil {
		return fmt.Errorf("failed to consume boost: %w", err)
	}
	return nil
}

// RefundBoost returns the monthly boost token after a placement that
// consumed it failed to commit. A no-op when the token was spent in a
// different month.
func (t *Tracker) RefundBoost(ctx context.Context, userID uuid.UUID, month time.Time) error {
	state, err := t.streaks.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load streak state: %w", err)
	}

	if state.BoostUsedMonth != month.Format("2006-01") {
		return nil
	}

	state.BoostUsedMonth = ""
	if err := t.streaks.Save(ctx, state); err != nil {
		return fmt.Errorf("failed to refund boost: %w", err)
	}
	return nil
}

// UnseenNotices returns a user's unacknowledged streak-loss notices
func (t *Tracker) UnseenNotices(ctx context.Context, userID uuid.UUID) ([]*models.StreakLossNotice, error) {
	return t.streaks.GetUnseenNotices(ctx, userID)
}

// AcknowledgeNotice marks a streak-loss notice as seen. Safe to retry;
// it never touches settlement state.
func (t *Tracker) AcknowledgeNotice(ctx context.Context, noticeID uuid.UUID) error {
	return t.streaks.MarkNoticeSeen(ctx, noticeID)
}

func (t *Tracker) recordStreakLoss(ctx context.Context, userID uuid.UUID, streakType models.StreakType, lostValue int) error {
	notice := &models.StreakLossNotice{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      streakType,
		LostValue: lostValue,
		CreatedAt: time.Now().UTC(),
	}
	if err := t.streaks.CreateNotice(ctx, notice); err != nil {
		return fmt.Errorf("failed to record streak loss: %w", err)
	}

	t.bus.Publish(ctx, events.Event{
		Name: events.EventStreakLost,
		Payload: events.StreakLost{
			UserID:    userID,
			Type:      string(streakType),
			LostValue: lostValue,
		},
	})
	return nil
}

// addXP applies an XP gain and publishes level.up on a level transition
func (t *Tracker) addXP(ctx context.Context, state *models.StreakState, gained int) {
	state.XP += gained
	newLevel := LevelForXP(state.XP)
	if newLevel > state.Level {
		state.Level = newLevel
		t.bus.Publish(ctx, events.Event{
			Name:    events.EventLevelUp,
			Payload: events.LevelUp{UserID: state.UserID, NewLevel: newLevel},
		})
	}
}
