// Package betting implements the weekly betting lifecycle: the week state
// machine, bet placement and settlement.
package betting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/podium-engine/internal/logger"
	"github.com/yourusername/podium-engine/internal/models"
	"github.com/yourusername/podium-engine/internal/repository"
)

// seasonEpoch anchors the monotonic season week numbering. It is a Monday;
// week numbers count Mondays elapsed since it.
var seasonEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Cycle manages betting week records and their time-driven transitions
type Cycle struct {
	weeks  repository.WeekRepository
	audit  *logger.AuditLogger
	logger *logrus.Logger
}

// NewCycle creates the weekly cycle manager
func NewCycle(weeks repository.WeekRepository, audit *logger.AuditLogger, log *logrus.Logger) *Cycle {
	return &Cycle{
		weeks:  weeks,
		audit:  audit,
		logger: log,
	}
}

// WeekBounds returns the Monday 00:00 UTC start and Sunday 23:59:59 end of
// the calendar week containing at.
func WeekBounds(at time.Time) (time.Time, time.Time) {
	at = at.UTC()
	daysSinceMonday := (int(at.Weekday()) + 6) % 7
	monday := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -daysSinceMonday)
	sunday := monday.AddDate(0, 0, 7).Add(-time.Second)
	return monday, sunday
}

// SeasonWeekNumber returns the monotonic week number for the week whose
// Monday is monday. Consecutive calendar weeks get consecutive numbers,
// which is what the betting streak logic relies on.
func SeasonWeekNumber(monday time.Time) int {
	return int(monday.Sub(seasonEpoch).Hours()/(24*7)) + 1
}

// IsCalibrationWeek reports whether the week starting at monday is the
// first week of its calendar month, during which betting is disabled
// while ratings stabilize after the soft reset.
func IsCalibrationWeek(monday time.Time) bool {
	return monday.Day() <= 7
}

// EnsureCurrentWeek returns the betting week covering now, creating it if
// this is the first touch of a new calendar week. New weeks start as
// CALIBRATION or OPEN depending on their position in the month.
func (c *Cycle) EnsureCurrentWeek(ctx context.Context, now time.Time) (*models.BettingWeek, error) {
	week, err := c.weeks.GetCurrent(ctx, now)
	if err == nil {
		return week, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to load current week: %w", err)
	}

	monday, sunday := WeekBounds(now)
	status := models.WeekStatusOpen
	if IsCalibrationWeek(monday) {
		status = models.WeekStatusCalibration
	}

	week = &models.BettingWeek{
		ID:               uuid.New(),
		SeasonWeekNumber: SeasonWeekNumber(monday),
		StartDate:        monday,
		EndDate:          sunday,
		Status:           status,
	}
	if err := c.weeks.Create(ctx, week); err != nil {
		// A concurrent trigger may have created it first.
		if errors.Is(err, models.ErrDuplicateKey) {
			return c.weeks.GetCurrent(ctx, now)
		}
		return nil, fmt.Errorf("failed to create betting week: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"week_id":     week.ID,
		"week_number": week.SeasonWeekNumber,
		"status":      week.Status,
	}).Info("Betting week created")

	return week, nil
}

// CloseWeek moves a week out of its placement phase at Thursday 23:59.
// Races may still run and odds may still recompute while CLOSED.
func (c *Cycle) CloseWeek(ctx context.Context, weekID uuid.UUID) error {
	week, err := c.weeks.GetByID(ctx, weekID)
	if err != nil {
		return fmt.Errorf("failed to load week for close: %w", err)
	}

	switch week.Status {
	case models.WeekStatusClosed, models.WeekStatusFinalized:
		return nil
	case models.WeekStatusOpen, models.WeekStatusCalibration:
		if err := c.weeks.TransitionStatus(ctx, weekID, week.Status, models.WeekStatusClosed); err != nil {
			if errors.Is(err, models.ErrVersionConflict) {
				return nil
			}
			return fmt.Errorf("failed to close week %s: %w", weekID, err)
		}
		c.audit.LogWeekTransition(weekID.String(), string(week.Status), string(models.WeekStatusClosed))
		return nil
	default:
		return fmt.Errorf("week %s in unknown status %q", weekID, week.Status)
	}
}
