// Package events provides the in-process event bus connecting the engine
// to delivery collaborators (feed, notifications).
package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Event names emitted by the engine
const (
	EventBetFinalized = "bet.finalized"
	EventStreakLost   = "streak.lost"
	EventLevelUp      = "level.up"
	EventOddsUpdated  = "odds.updated"
)

// BetFinalized is the payload for a settled bet
type BetFinalized struct {
	UserID          uuid.UUID       `json:"user_id"`
	BetID           uuid.UUID       `json:"bet_id"`
	WeekID          uuid.UUID       `json:"week_id"`
	PointsEarned    decimal.Decimal `json:"points_earned"`
	IsPerfectPodium bool            `json:"is_perfect_podium"`
}

// StreakLost is the payload for a broken streak
type StreakLost struct {
	UserID    uuid.UUID `json:"user_id"`
	Type      string    `json:"type"`
	LostValue int       `json:"lost_value"`
}

// LevelUp is the payload for an XP level transition
type LevelUp struct {
	UserID   uuid.UUID `json:"user_id"`
	NewLevel int       `json:"new_level"`
}

// OddsUpdated is the payload for a completed odds recompute
type OddsUpdated struct {
	WeekID     uuid.UUID `json:"week_id"`
	SnapshotID uuid.UUID `json:"snapshot_id"`
}

// Event is a named payload published on the bus
type Event struct {
	Name    string
	Payload any
}

// Handler consumes a published event
type Handler func(context.Context, Event)

// Bus is a synchronous in-process publish/subscribe bus. Handler panics
// are not recovered; handlers are expected to log their own failures.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *logrus.Logger
}

// NewBus creates an empty event bus
func NewBus(logger *logrus.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for an event name
func (b *Bus) Subscribe(name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], handler)
}

// Publish delivers an event to every subscribed handler in order
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Name]...)
	b.mu.RUnlock()

	b.logger.WithFields(logrus.Fields{
		"event":    event.Name,
		"handlers": len(handlers),
	}).Debug("Publishing event")

	for _, handler := range handlers {
		handler(ctx, event)
	}
}
