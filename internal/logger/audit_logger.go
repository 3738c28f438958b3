// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// AuditLogger provides the dedicated settlement audit trail.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogBetPlacement logs a bet placement with its locked odds.
func (al *AuditLogger) LogBetPlacement(betID, userID, weekID string, lockedOdds [3]float64, boosted bool, timestamp time.Time) {
	al.WithFields(logrus.Fields{
		"bet_id":     betID,
		"user_id":    userID,
		"week_id":    weekID,
		"odd_first":  lockedOdds[0],
		"odd_second": lockedOdds[1],
		"odd_third":  lockedOdds[2],
		"boosted":    boosted,
		"timestamp":  timestamp.Unix(),
	}).Info("Bet placement recorded")
}

// LogPickSettlement logs the settlement of a single pick.
func (al *AuditLogger) LogPickSettlement(betID, competitorID, position string, oddAtBet, lockedOdd float64, usedBog, correct bool, points decimal.Decimal) {
	al.WithFields(logrus.Fields{
		"bet_id":        betID,
		"competitor_id": competitorID,
		"position":      position,
		"odd_at_bet":    oddAtBet,
		"locked_odd":    lockedOdd,
		"used_bog_odd":  usedBog,
		"is_correct":    correct,
		"points":        points.String(),
	}).Info("Pick settled")
}

// LogBetSettlement logs a bet's final settlement result.
func (al *AuditLogger) LogBetSettlement(betID, userID, weekID string, status string, points decimal.Decimal, perfectPodium bool) {
	al.WithFields(logrus.Fields{
		"bet_id":         betID,
		"user_id":        userID,
		"week_id":        weekID,
		"status":         status,
		"points_earned":  points.String(),
		"perfect_podium": perfectPodium,
	}).Info("Bet settlement recorded")
}

// LogWeekTransition logs a betting week status change.
func (al *AuditLogger) LogWeekTransition(weekID string, oldStatus, newStatus string) {
	al.WithFields(logrus.Fields{
		"week_id":    weekID,
		"old_status": oldStatus,
		"new_status": newStatus,
	}).Info("Week status changed")
}
