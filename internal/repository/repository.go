package repository

import (
	"fmt"

	"github.com/yourusername/podium-engine/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Competitor CompetitorRepository
	Race       RaceRepository
	Week       WeekRepository
	Odds       OddsRepository
	Bet        BetRepository
	Streak     StreakRepository
	Archive    ArchiveRepository
	SoftReset  SoftResetRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Competitor: NewPostgresCompetitorRepository(db),
		Race:       NewPostgresRaceRepository(db),
		Week:       NewPostgresWeekRepository(db),
		Odds:       NewPostgresOddsRepository(db),
		Bet:        NewPostgresBetRepository(db),
		Streak:     NewPostgresStreakRepository(db),
		Archive:    NewPostgresArchiveRepository(db),
		SoftReset:  NewPostgresSoftResetRepository(db),
	}, nil
}
