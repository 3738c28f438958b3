package rating

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/podium-engine/internal/models"
	"github.com/yourusername/podium-engine/internal/repository"
)

// EligibilityWindow is the trailing period for the recent-race count
const EligibilityWindow = 30 * 24 * time.Hour

// Updater applies Glicko-2 updates to the rating store from race results
type Updater struct {
	competitors repository.CompetitorRepository
	races       repository.RaceRepository
	tau         float64
	logger      *logrus.Logger
}

// NewUpdater creates a rating updater. tau <= 0 falls back to DefaultTau.
func NewUpdater(competitors repository.CompetitorRepository, races repository.RaceRepository, tau float64, logger *logrus.Logger) *Updater {
	if tau <= 0 {
		tau = DefaultTau
	}
	return &Updater{
		competitors: competitors,
		races:       races,
		tau:         tau,
		logger:      logger,
	}
}

// UpdateRace decomposes a race into pairwise virtual matches and updates
// every participant from the pre-race snapshot of all the others. A
// participant missing from the store fails the whole race: a silent skip
// would corrupt every other participant's pairwise comparisons.
func (u *Updater) UpdateRace(ctx context.Context, race *models.Race, results []models.RaceResult) error {
	if len(results) < 2 {
		return fmt.Errorf("race %s needs at least 2 results, got %d", race.ID, len(results))
	}

	ids := make([]uuid.UUID, 0, len(results))
	seen := make(map[uuid.UUID]bool, len(results))
	for _, res := range results {
		if seen[res.CompetitorID] {
			return fmt.Errorf("race %s lists competitor %s twice", race.ID, res.CompetitorID)
		}
		seen[res.CompetitorID] = true
		ids = append(ids, res.CompetitorID)
	}

	competitors, err := u.competitors.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load race participants: %w", err)
	}
	byID := make(map[uuid.UUID]*models.Competitor, len(competitors))
	for _, c := range competitors {
		byID[c.ID] = c
	}
	for _, id := range ids {
		if byID[id] == nil {
			return fmt.Errorf("race %s: %w: %s", race.ID, models.ErrCompetitorNotFound, id)
		}
	}

	// Pre-race snapshot: every participant is scored against the ratings
	// all others held before this race, never against already-updated ones.
	updated := make([]*models.Competitor, 0, len(results))
	for i := range results {
		self := byID[results[i].CompetitorID]
		opponents := make([]opponent, 0, len(results)-1)
		for j := range results {
			if i == j {
				continue
			}
			other := byID[results[j].CompetitorID]
			mu, phi := toMuPhi(other.Rating, other.RD)
			opponents = append(opponents, opponent{
				mu:    mu,
				phi:   phi,
				score: results[i].PairwiseScore(&results[j]),
			})
		}

		next := *self
		next.Rating, next.RD, next.Volatility = updateOne(self, opponents, u.tau)
		next.RaceCountLifetime++
		updated = append(updated, &next)
	}

	if err := u.races.CreateWithResults(ctx, race, results); err != nil {
		return fmt.Errorf("failed to record race %s: %w", race.ID, err)
	}

	// The just-recorded race counts toward the trailing window.
	counts, err := u.races.CountsSince(ctx, race.RanAt.Add(-EligibilityWindow))
	if err != nil {
		return fmt.Errorf("failed to recompute eligibility windows: %w", err)
	}
	for _, c := range updated {
		c.RaceCountLast30 = counts[c.ID]
	}

	if err := u.competitors.UpdateRatingBatch(ctx, updated); err != nil {
		return fmt.Errorf("failed to persist rating updates for race %s: %w", race.ID, err)
	}

	u.logger.WithFields(logrus.Fields{
		"race_id":      race.ID,
		"participants": len(results),
	}).Info("Race ratings updated")

	return nil
}

// RefreshWindowCounts recomputes every competitor's trailing-window race
// count. Run daily so inactivity decays eligibility between races.
func (u *Updater) RefreshWindowCounts(ctx context.Context, now time.Time) error {
	counts, err := u.races.CountsSince(ctx, now.Add(-EligibilityWindow))
	if err != nil {
		return fmt.Errorf("failed to count recent races: %w", err)
	}

	competitors, err := u.competitors.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load competitors: %w", err)
	}

	changed := make([]*models.Competitor, 0)
	for _, c := range competitors {
		if c.RaceCountLast30 != counts[c.ID] {
			next := *c
			next.RaceCountLast30 = counts[c.ID]
			changed = append(changed, &next)
		}
	}
	if len(changed) == 0 {
		return nil
	}

	if err := u.competitors.UpdateRatingBatch(ctx, changed); err != nil {
		return fmt.Errorf("failed to persist window counts: %w", err)
	}

	u.logger.WithField("competitors", len(changed)).Debug("Eligibility windows refreshed")
	return nil
}
