package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/podium-engine/internal/database"
	"github.com/yourusername/podium-engine/internal/models"
)

const competitorColumns = `id, name, rating, rd, volatility, race_count_lifetime, race_count_last30, version, created_at, updated_at`

const errScanCompetitor = "failed to scan competitor: %w"

// PostgresCompetitorRepository implements CompetitorRepository for PostgreSQL
type PostgresCompetitorRepository struct {
	db *database.DB
}

// NewPostgresCompetitorRepository creates a new competitor repository
func NewPostgresCompetitorRepository(db *database.DB) CompetitorRepository {
	return &PostgresCompetitorRepository{db: db}
}

// Create inserts a new competitor at its current rating state
func (r *PostgresCompetitorRepository) Create(ctx context.Context, c *models.Competitor) error {
	query := `
		INSERT INTO competitors (id, name, rating, rd, volatility, race_count_lifetime, race_count_last30, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		c.ID, c.Name, c.Rating, c.RD, c.Volatility,
		c.RaceCountLifetime, c.RaceCountLast30, c.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to create competitor: %w", translateError(err))
	}

	return nil
}

// GetByID retrieves a competitor by ID
func (r *PostgresCompetitorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Competitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM competitors WHERE id = $1`

	c := &models.Competitor{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Rating, &c.RD, &c.Volatility,
		&c.RaceCountLifetime, &c.RaceCountLast30, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get competitor: %w", err)
	}

	return c, nil
}

// GetByIDs retrieves multiple competitors in one query. Missing IDs are
// simply absent from the result; callers decide whether that is fatal.
func (r *PostgresCompetitorRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Competitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM competitors WHERE id = ANY($1)`

	rows, err := r.db.GetPool().Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitors by ids: %w", err)
	}
	defer rows.Close()

	return scanCompetitors(rows)
}

// GetAll retrieves every competitor
func (r *PostgresCompetitorRepository) GetAll(ctx context.Context) ([]*models.Competitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM competitors ORDER BY name ASC`

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitors: %w", err)
	}
	defer rows.Close()

	return scanCompetitors(rows)
}

// GetEligible retrieves competitors meeting the bettability thresholds
func (r *PostgresCompetitorRepository) GetEligible(ctx context.Context) ([]*models.Competitor, error) {
	query := `
		SELECT ` + competitorColumns + `
		FROM competitors
		WHERE race_count_lifetime >= $1 AND race_count_last30 >= $2
		ORDER BY name ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, models.MinLifetimeRaces, models.MinRacesLast30)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible competitors: %w", err)
	}
	defer rows.Close()

	return scanCompetitors(rows)
}

// UpdateRatingBatch persists new rating triples and counters for a whole
// race in one transaction. Each row is guarded by its version: a conflict
// aborts the transaction so a race never half-applies.
func (r *PostgresCompetitorRepository) UpdateRatingBatch(ctx context.Context, competitors []*models.Competitor) error {
	query := `
		UPDATE competitors SET
			rating = $2, rd = $3, volatility = $4,
			race_count_lifetime = $5, race_count_last30 = $6,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $7
	`

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, c := range competitors {
			tag, err := tx.Exec(ctx, query,
				c.ID, c.Rating, c.RD, c.Volatility,
				c.RaceCountLifetime, c.RaceCountLast30, c.Version,
			)
			if err != nil {
				return fmt.Errorf("failed to update competitor %s: %w", c.ID, err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("competitor %s: %w", c.ID, models.ErrVersionConflict)
			}
		}
		return nil
	})
}

func scanCompetitors(rows pgx.Rows) ([]*models.Competitor, error) {
	var competitors []*models.Competitor
	for rows.Next() {
		c := &models.Competitor{}
		err := rows.Scan(
			&c.ID, &c.Name, &c.Rating, &c.RD, &c.Volatility,
			&c.RaceCountLifetime, &c.RaceCountLast30, &c.Version, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf(errScanCompetitor, err)
		}
		competitors = append(competitors, c)
	}
	return competitors, rows.Err()
}
