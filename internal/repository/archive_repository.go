package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/podium-engine/internal/database"
	"github.com/yourusername/podium-engine/internal/models"
)

// PostgresArchiveRepository implements ArchiveRepository for PostgreSQL
type PostgresArchiveRepository struct {
	db *database.DB
}

// NewPostgresArchiveRepository creates a new season archive repository
func NewPostgresArchiveRepository(db *database.DB) ArchiveRepository {
	return &PostgresArchiveRepository{db: db}
}

// Create persists a season archive. (month, year) is unique, so re-running
// a rollover for the same month surfaces as ErrDuplicateKey.
func (r *PostgresArchiveRepository) Create(ctx context.Context, archive *models.SeasonArchive) error {
	query := `
		INSERT INTO season_archives (id, month, year, total_races, total_bets, competitor_rankings, bettor_rankings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		archive.ID, archive.Month, archive.Year, archive.TotalRaces, archive.TotalBets,
		archive.CompetitorRankings, archive.BettorRankings, archive.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create season archive: %w", translateError(err))
	}
	return nil
}

// GetByMonth retrieves the archive for a calendar month
func (r *PostgresArchiveRepository) GetByMonth(ctx context.Context, month time.Month, year int) (*models.SeasonArchive, error) {
	query := `
		SELECT id, month, year, total_races, total_bets, competitor_rankings, bettor_rankings, created_at
		FROM season_archives
		WHERE month = $1 AND year = $2
	`

	archive := &models.SeasonArchive{}
	err := r.db.GetPool().QueryRow(ctx, query, int(month), year).Scan(
		&archive.ID, &archive.Month, &archive.Year, &archive.TotalRaces, &archive.TotalBets,
		&archive.CompetitorRankings, &archive.BettorRankings, &archive.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get season archive: %w", err)
	}
	return archive, nil
}
