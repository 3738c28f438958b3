package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/podium-engine/internal/database"
	"github.com/yourusername/podium-engine/internal/models"
)

// PostgresOddsRepository implements OddsRepository for PostgreSQL.
// Snapshots are append-only: settlement needs every snapshot ever taken
// for a week to resolve Best-Odds-Guaranteed.
type PostgresOddsRepository struct {
	db *database.DB
}

// NewPostgresOddsRepository creates a new odds snapshot repository
func NewPostgresOddsRepository(db *database.DB) OddsRepository {
	return &PostgresOddsRepository{db: db}
}

// SaveSnapshot persists a snapshot and its entries in one transaction
func (r *PostgresOddsRepository) SaveSnapshot(ctx context.Context, snapshot *models.OddsSnapshot) error {
	snapshotQuery := `
		INSERT INTO odds_snapshots (id, week_id, seed, trials, computed_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	entryQuery := `
		INSERT INTO competitor_odds (snapshot_id, week_id, competitor_id, odd_first, odd_second, odd_third, is_eligible, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, snapshotQuery,
			snapshot.ID, snapshot.WeekID, snapshot.Seed, snapshot.Trials, snapshot.ComputedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save odds snapshot: %w", translateError(err))
		}

		for i := range snapshot.Entries {
			e := &snapshot.Entries[i]
			_, err := tx.Exec(ctx, entryQuery,
				e.SnapshotID, e.WeekID, e.CompetitorID,
				e.OddFirst, e.OddSecond, e.OddThird, e.IsEligible, e.ComputedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to save odds entry for competitor %s: %w", e.CompetitorID, err)
			}
		}
		return nil
	})
}

// GetLatestSnapshot retrieves the most recent snapshot for a week
func (r *PostgresOddsRepository) GetLatestSnapshot(ctx context.Context, weekID uuid.UUID) (*models.OddsSnapshot, error) {
	query := `
		SELECT id, week_id, seed, trials, computed_at
		FROM odds_snapshots
		WHERE week_id = $1
		ORDER BY computed_at DESC
		LIMIT 1
	`

	snapshot := &models.OddsSnapshot{}
	err := r.db.GetPool().QueryRow(ctx, query, weekID).Scan(
		&snapshot.ID, &snapshot.WeekID, &snapshot.Seed, &snapshot.Trials, &snapshot.ComputedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest odds snapshot: %w", err)
	}

	if err := r.loadEntries(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// GetSnapshots retrieves every snapshot taken for a week, oldest first
func (r *PostgresOddsRepository) GetSnapshots(ctx context.Context, weekID uuid.UUID) ([]*models.OddsSnapshot, error) {
	query := `
		SELECT id, week_id, seed, trials, computed_at
		FROM odds_snapshots
		WHERE week_id = $1
		ORDER BY computed_at ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, weekID)
	if err != nil {
		return nil, fmt.Errorf("failed to query odds snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.OddsSnapshot
	for rows.Next() {
		snapshot := &models.OddsSnapshot{}
		err := rows.Scan(&snapshot.ID, &snapshot.WeekID, &snapshot.Seed, &snapshot.Trials, &snapshot.ComputedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan odds snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, snapshot := range snapshots {
		if err := r.loadEntries(ctx, snapshot); err != nil {
			return nil, err
		}
	}
	return snapshots, nil
}

func (r *PostgresOddsRepository) loadEntries(ctx context.Context, snapshot *models.OddsSnapshot) error {
	query := `
		SELECT snapshot_id, week_id, competitor_id, odd_first, odd_second, odd_third, is_eligible, computed_at
		FROM competitor_odds
		WHERE snapshot_id = $1
	`

	rows, err := r.db.GetPool().Query(ctx, query, snapshot.ID)
	if err != nil {
		return fmt.Errorf("failed to query odds entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.CompetitorOdds
		err := rows.Scan(
			&e.SnapshotID, &e.WeekID, &e.CompetitorID,
			&e.OddFirst, &e.OddSecond, &e.OddThird, &e.IsEligible, &e.ComputedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan odds entry: %w", err)
		}
		snapshot.Entries = append(snapshot.Entries, e)
	}
	return rows.Err()
}
