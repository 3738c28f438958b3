package rating

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/podium-engine/internal/metrics"
	"github.com/yourusername/podium-engine/internal/models"
	"github.com/yourusername/podium-engine/internal/repository"
)

// Soft reset constants: ratings regress a quarter of the way to the prior
// and uncertainty grows by a fixed step, capped at the RD ceiling.
const (
	softResetRetain = 0.75
	softResetRDStep = 50.0
)

// SoftReset applies the monthly regression of ratings toward the prior
type SoftReset struct {
	competitors repository.CompetitorRepository
	races       repository.RaceRepository
	markers     repository.SoftResetRepository
	logger      *logrus.Logger
}

// NewSoftReset creates the monthly soft reset job
func NewSoftReset(competitors repository.CompetitorRepository, races repository.RaceRepository, markers repository.SoftResetRepository, logger *logrus.Logger) *SoftReset {
	return &SoftReset{
		competitors: competitors,
		races:       races,
		markers:     markers,
		logger:      logger,
	}
}

// SoftResetValues returns the post-reset rating and RD for a competitor.
// Exact arithmetic: rating' = 0.75*rating + 0.25*1500, RD' = min(RD+50, 350).
func SoftResetValues(rating, rd float64) (float64, float64) {
	newRating := softResetRetain*rating + (1-softResetRetain)*models.DefaultRating
	newRD := rd + softResetRDStep
	if newRD > models.MaxRD {
		newRD = models.MaxRD
	}
	return newRating, newRD
}

// Apply runs the soft reset for the month containing now. The per-month
// marker makes a rerun a no-op, so concurrent or repeated triggers cannot
// double-apply the decay.
func (s *SoftReset) Apply(ctx context.Context, now time.Time) error {
	month := now.Format("2006-01")

	acquired, err := s.markers.TryAcquire(ctx, month)
	if err != nil {
		return fmt.Errorf("failed to acquire soft reset marker for %s: %w", month, err)
	}
	if !acquired {
		s.logger.WithField("month", month).Info("Soft reset already applied, skipping")
		return nil
	}

	competitors, err := s.competitors.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load competitors for soft reset: %w", err)
	}

	counts, err := s.races.CountsSince(ctx, now.Add(-EligibilityWindow))
	if err != nil {
		return fmt.Errorf("failed to recompute eligibility windows: %w", err)
	}

	updated := make([]*models.Competitor, 0, len(competitors))
	for _, c := range competitors {
		next := *c
		next.Rating, next.RD = SoftResetValues(c.Rating, c.RD)
		next.RaceCountLast30 = counts[c.ID]
		updated = append(updated, &next)
	}

	if err := s.competitors.UpdateRatingBatch(ctx, updated); err != nil {
		return fmt.Errorf("failed to persist soft reset for %s: %w", month, err)
	}
	metrics.SoftResetsTotal.Inc()

	s.logger.WithFields(logrus.Fields{
		"month":       month,
		"competitors": len(updated),
	}).Info("Monthly soft reset applied")

	return nil
}
