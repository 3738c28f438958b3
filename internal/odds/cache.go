package odds

import (
	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/podium-engine/internal/models"
)

// SnapshotCache holds the last completed odds snapshot per week so the
// read path never waits on a simulation. Entries never expire; they are
// replaced when a recompute finishes.
type SnapshotCache struct {
	cache *cache.Cache
}

// NewSnapshotCache creates the read-side odds cache
func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{
		cache: cache.New(cache.NoExpiration, cache.NoExpiration),
	}
}

// Get returns the cached snapshot for a week, or nil
func (sc *SnapshotCache) Get(weekID uuid.UUID) *models.OddsSnapshot {
	if v, found := sc.cache.Get(weekID.String()); found {
		if snapshot, ok := v.(*models.OddsSnapshot); ok {
			return snapshot
		}
	}
	return nil
}

// Set replaces the cached snapshot for a week
func (sc *SnapshotCache) Set(weekID uuid.UUID, snapshot *models.OddsSnapshot) {
	if snapshot == nil {
		return
	}
	sc.cache.Set(weekID.String(), snapshot, cache.NoExpiration)
}

// Invalidate drops the cached snapshot for a week
func (sc *SnapshotCache) Invalidate(weekID uuid.UUID) {
	sc.cache.Delete(weekID.String())
}
