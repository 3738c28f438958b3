package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yourusername/podium-engine/internal/database"
	"github.com/yourusername/podium-engine/internal/models"
)

// translateError maps driver-level errors onto domain sentinels
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return models.ErrDuplicateKey
	}
	return err
}

// PostgresRaceRepository implements RaceRepository for PostgreSQL
type PostgresRaceRepository struct {
	db *database.DB
}

// NewPostgresRaceRepository creates a new race repository
func NewPostgresRaceRepository(db *database.DB) RaceRepository {
	return &PostgresRaceRepository{db: db}
}

// CreateWithResults records a race and its results in one transaction.
// The race log is append-only; results are never updated.
func (r *PostgresRaceRepository) CreateWithResults(ctx context.Context, race *models.Race, results []models.RaceResult) error {
	raceQuery := `
		INSERT INTO races (id, ran_at, entries)
		VALUES ($1, $2, $3)
	`
	resultQuery := `
		INSERT INTO race_results (race_id, competitor_id, rank, score)
		VALUES ($1, $2, $3, $4)
	`

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, raceQuery, race.ID, race.RanAt, len(results)); err != nil {
			return fmt.Errorf("failed to create race: %w", translateError(err))
		}
		for _, res := range results {
			if _, err := tx.Exec(ctx, resultQuery, race.ID, res.CompetitorID, res.Rank, res.Score); err != nil {
				return fmt.Errorf("failed to record result for competitor %s: %w", res.CompetitorID, translateError(err))
			}
		}
		return nil
	})
}

// GetResults retrieves the results of a race ordered by rank
func (r *PostgresRaceRepository) GetResults(ctx context.Context, raceID uuid.UUID) ([]models.RaceResult, error) {
	query := `
		SELECT race_id, competitor_id, rank, score, recorded_at
		FROM race_results
		WHERE race_id = $1
		ORDER BY rank ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query race results: %w", err)
	}
	defer rows.Close()

	var results []models.RaceResult
	for rows.Next() {
		var res models.RaceResult
		if err := rows.Scan(&res.RaceID, &res.CompetitorID, &res.Rank, &res.Score, &res.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan race result: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// CountForCompetitorSince counts a competitor's races since a point in time
func (r *PostgresRaceRepository) CountForCompetitorSince(ctx context.Context, competitorID uuid.UUID, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM race_results rr
		JOIN races ra ON ra.id = rr.race_id
		WHERE rr.competitor_id = $1 AND ra.ran_at >= $2
	`

	var count int
	if err := r.db.GetPool().QueryRow(ctx, query, competitorID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count races for competitor: %w", err)
	}
	return count, nil
}

// CountsSince counts every competitor's races since a point in time.
// Competitors without races in the window are absent from the map.
func (r *PostgresRaceRepository) CountsSince(ctx context.Context, since time.Time) (map[uuid.UUID]int, error) {
	query := `
		SELECT rr.competitor_id, COUNT(*)
		FROM race_results rr
		JOIN races ra ON ra.id = rr.race_id
		WHERE ra.ran_at >= $1
		GROUP BY rr.competitor_id
	`

	rows, err := r.db.GetPool().Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count recent races: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("failed to scan race count: %w", err)
		}
		counts[id] = count
	}
	return counts, rows.Err()
}

// CountBetween counts races run inside a time range
func (r *PostgresRaceRepository) CountBetween(ctx context.Context, start, end time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM races WHERE ran_at >= $1 AND ran_at <= $2`

	var count int
	if err := r.db.GetPool().QueryRow(ctx, query, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count races: %w", err)
	}
	return count, nil
}

// LatestRaceDay returns the most recent day a competitor raced, or nil
func (r *PostgresRaceRepository) LatestRaceDay(ctx context.Context, competitorID uuid.UUID) (*time.Time, error) {
	query := `
		SELECT MAX(ra.ran_at)
		FROM race_results rr
		JOIN races ra ON ra.id = rr.race_id
		WHERE rr.competitor_id = $1
	`

	var latest *time.Time
	if err := r.db.GetPool().QueryRow(ctx, query, competitorID).Scan(&latest); err != nil {
		return nil, fmt.Errorf("failed to get latest race day: %w", err)
	}
	return latest, nil
}
