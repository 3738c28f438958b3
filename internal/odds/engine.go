// Package odds derives podium probabilities and decimal odds from current
// ratings using a Plackett-Luce strength model sampled by Monte Carlo.
package odds

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/podium-engine/internal/events"
	"github.com/yourusername/podium-engine/internal/metrics"
	"github.com/yourusername/podium-engine/internal/models"
	"github.com/yourusername/podium-engine/internal/rating"
	"github.com/yourusername/podium-engine/internal/repository"
)

const podiumSize = 3

// Config configures the Monte Carlo podium simulation
type Config struct {
	Trials  int
	Seed    int64
	Workers int
}

// Engine computes odds snapshots for a betting week
type Engine struct {
	competitors repository.CompetitorRepository
	snapshots   repository.OddsRepository
	cache       *SnapshotCache
	bus         *events.Bus
	cfg         Config
	logger      *logrus.Logger
}

// NewEngine creates an odds engine. Zero config fields get defaults:
// 50,000 trials, time-based seed, one worker per CPU. The bus may be nil
// when no feed is attached.
func NewEngine(competitors repository.CompetitorRepository, snapshots repository.OddsRepository, cache *SnapshotCache, bus *events.Bus, cfg Config, logger *logrus.Logger) *Engine {
	if cfg.Trials <= 0 {
		cfg.Trials = 50000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Engine{
		competitors: competitors,
		snapshots:   snapshots,
		cache:       cache,
		bus:         bus,
		cfg:         cfg,
		logger:      logger,
	}
}

// Recompute builds, persists and caches a fresh odds snapshot for the week.
// Eligibility and ratings are read once up front; the simulation itself
// touches no external state. Ineligible competitors are excluded from both
// the sampling and the snapshot. Zero eligible competitors produce an
// empty snapshot, not an error.
func (e *Engine) Recompute(ctx context.Context, weekID uuid.UUID) (*models.OddsSnapshot, error) {
	start := time.Now()
	defer func() {
		metrics.OddsComputeDuration.Observe(time.Since(start).Seconds())
	}()

	eligible, err := e.competitors.GetEligible(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load eligible competitors: %w", err)
	}

	seed := e.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	snapshot := &models.OddsSnapshot{
		ID:         uuid.New(),
		WeekID:     weekID,
		Seed:       seed,
		Trials:     e.cfg.Trials,
		ComputedAt: time.Now().UTC(),
	}

	if len(eligible) > 0 {
		strengths := make([]float64, len(eligible))
		for i, c := range eligible {
			strengths[i] = rating.Strength(c.Rating, c.RD)
		}

		counts := simulatePodium(strengths, e.cfg.Trials, e.cfg.Workers, seed)

		snapshot.Entries = make([]models.CompetitorOdds, len(eligible))
		for i, c := range eligible {
			snapshot.Entries[i] = models.CompetitorOdds{
				SnapshotID:   snapshot.ID,
				WeekID:       weekID,
				CompetitorID: c.ID,
				OddFirst:     oddFromCount(counts[i][0], e.cfg.Trials),
				OddSecond:    oddFromCount(counts[i][1], e.cfg.Trials),
				OddThird:     oddFromCount(counts[i][2], e.cfg.Trials),
				IsEligible:   true,
				ComputedAt:   snapshot.ComputedAt,
			}
		}
	}

	if err := e.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save odds snapshot: %w", err)
	}
	e.cache.Set(weekID, snapshot)
	metrics.OddsSnapshotsTotal.Inc()
	metrics.EligibleCompetitors.Set(float64(len(eligible)))

	if e.bus != nil {
		e.bus.Publish(ctx, events.Event{
			Name: events.EventOddsUpdated,
			Payload: events.OddsUpdated{
				WeekID:     weekID,
				SnapshotID: snapshot.ID,
			},
		})
	}

	e.logger.WithFields(logrus.Fields{
		"week_id":     weekID,
		"snapshot_id": snapshot.ID,
		"eligible":    len(eligible),
		"trials":      e.cfg.Trials,
	}).Info("Odds snapshot computed")

	return snapshot, nil
}

// CurrentOdds serves the last completed snapshot for a week. Reads never
// block on an in-flight simulation: the cache holds the previous snapshot
// until Recompute replaces it.
func (e *Engine) CurrentOdds(ctx context.Context, weekID uuid.UUID) (*models.OddsSnapshot, error) {
	if snapshot := e.cache.Get(weekID); snapshot != nil {
		return snapshot, nil
	}

	snapshot, err := e.snapshots.GetLatestSnapshot(ctx, weekID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest odds snapshot: %w", err)
	}
	e.cache.Set(weekID, snapshot)
	return snapshot, nil
}

// simulatePodium estimates podium position counts per competitor. Trials
// are sharded across workers; each worker owns a rand.Rand seeded from the
// base seed and its shard index, so a run is repeatable for a given seed
// and reduction is a plain sum. Each trial draws 1st, 2nd and 3rd by
// weighted sampling without replacement, never by permutation enumeration.
func simulatePodium(strengths []float64, trials, workers int, seed int64) [][podiumSize]int {
	n := len(strengths)
	counts := make([][podiumSize]int, n)
	if n == 0 || trials <= 0 {
		return counts
	}
	if workers > trials {
		workers = trials
	}

	partials := make([][][podiumSize]int, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		share := trials / workers
		if w < trials%workers {
			share++
		}

		wg.Add(1)
		go func(w, share int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed + int64(w)))
			local := make([][podiumSize]int, n)
			idx := make([]int, n)
			weights := make([]float64, n)

			for t := 0; t < share; t++ {
				remaining := n
				total := 0.0
				for i := 0; i < n; i++ {
					idx[i] = i
					weights[i] = strengths[i]
					total += strengths[i]
				}

				for pos := 0; pos < podiumSize && remaining > 0; pos++ {
					r := rng.Float64() * total
					chosen := remaining - 1
					for i := 0; i < remaining; i++ {
						r -= weights[i]
						if r < 0 {
							chosen = i
							break
						}
					}
					local[idx[chosen]][pos]++

					total -= weights[chosen]
					remaining--
					idx[chosen] = idx[remaining]
					weights[chosen] = weights[remaining]
				}
			}
			partials[w] = local
		}(w, share)
	}
	wg.Wait()

	for _, local := range partials {
		for i := range local {
			for pos := 0; pos < podiumSize; pos++ {
				counts[i][pos] += local[i][pos]
			}
		}
	}
	return counts
}

// oddFromCount converts a simulated occurrence count into a decimal odd,
// clamped to [MinOdd, MaxOdd]. Zero occurrences get the ceiling, never an
// infinite odd.
func oddFromCount(count, trials int) float64 {
	if count == 0 {
		return models.MaxOdd
	}
	odd := float64(trials) / float64(count)
	if odd < models.MinOdd {
		return models.MinOdd
	}
	if odd > models.MaxOdd {
		return models.MaxOdd
	}
	return odd
}
