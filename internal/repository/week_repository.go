package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/podium-engine/internal/database"
	"github.com/yourusername/podium-engine/internal/models"
)

const weekColumns = `id, season_week_number, start_date, end_date, status, settled_at, created_at, updated_at`

// PostgresWeekRepository implements WeekRepository for PostgreSQL
type PostgresWeekRepository struct {
	db *database.DB
}

// NewPostgresWeekRepository creates a new betting week repository
func NewPostgresWeekRepository(db *database.DB) WeekRepository {
	return &PostgresWeekRepository{db: db}
}

// Create inserts a new betting week. A unique index on start_date turns a
// concurrent create into ErrDuplicateKey.
func (r *PostgresWeekRepository) Create(ctx context.Context, week *models.BettingWeek) error {
	query := `
		INSERT INTO betting_weeks (id, season_week_number, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		week.ID, week.SeasonWeekNumber, week.StartDate, week.EndDate, week.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create betting week: %w", translateError(err))
	}

	return nil
}

// GetByID retrieves a betting week by ID
func (r *PostgresWeekRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BettingWeek, error) {
	query := `SELECT ` + weekColumns + ` FROM betting_weeks WHERE id = $1`
	return r.scanOne(r.db.GetPool().QueryRow(ctx, query, id))
}

// GetCurrent retrieves the betting week covering at
func (r *PostgresWeekRepository) GetCurrent(ctx context.Context, at time.Time) (*models.BettingWeek, error) {
	query := `
		SELECT ` + weekColumns + `
		FROM betting_weeks
		WHERE start_date <= $1 AND end_date >= $1
	`
	return r.scanOne(r.db.GetPool().QueryRow(ctx, query, at))
}

// GetByMonth retrieves the weeks starting inside a calendar month
func (r *PostgresWeekRepository) GetByMonth(ctx context.Context, month time.Month, year int) ([]*models.BettingWeek, error) {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	query := `
		SELECT ` + weekColumns + `
		FROM betting_weeks
		WHERE start_date >= $1 AND start_date < $2
		ORDER BY start_date ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, monthStart, monthEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to query weeks by month: %w", err)
	}
	defer rows.Close()

	var weeks []*models.BettingWeek
	for rows.Next() {
		week := &models.BettingWeek{}
		err := rows.Scan(
			&week.ID, &week.SeasonWeekNumber, &week.StartDate, &week.EndDate,
			&week.Status, &week.SettledAt, &week.CreatedAt, &week.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan betting week: %w", err)
		}
		weeks = append(weeks, week)
	}
	return weeks, rows.Err()
}

// TransitionStatus is the compare-and-set status update: it only succeeds
// when the week still holds the expected previous status. Exactly one of
// N concurrent finalize triggers gets a row affected.
func (r *PostgresWeekRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.WeekStatus) error {
	query := `
		UPDATE betting_weeks SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	tag, err := r.db.GetPool().Exec(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("failed to transition week status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("week %s no longer %s: %w", id, from, models.ErrVersionConflict)
	}

	return nil
}

// MarkSettled records the settlement completion time
func (r *PostgresWeekRepository) MarkSettled(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE betting_weeks SET settled_at = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.GetPool().Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark week settled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *PostgresWeekRepository) scanOne(row pgx.Row) (*models.BettingWeek, error) {
	week := &models.BettingWeek{}
	err := row.Scan(
		&week.ID, &week.SeasonWeekNumber, &week.StartDate, &week.EndDate,
		&week.Status, &week.SettledAt, &week.CreatedAt, &week.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get betting week: %w", err)
	}
	return week, nil
}
