package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/podium-engine/internal/database"
)

// PostgresSoftResetRepository implements SoftResetRepository for PostgreSQL.
// A marker row per month guarantees the soft reset runs exactly once even
// when several instances race on the rollover schedule.
type PostgresSoftResetRepository struct {
	db *database.DB
}

// NewPostgresSoftResetRepository creates a new soft reset marker repository
func NewPostgresSoftResetRepository(db *database.DB) SoftResetRepository {
	return &PostgresSoftResetRepository{db: db}
}

// TryAcquire claims the reset marker for a month in "2006-01" form.
// Returns true only for the caller that inserted the row.
func (r *PostgresSoftResetRepository) TryAcquire(ctx context.Context, month string) (bool, error) {
	query := `
		INSERT INTO soft_reset_markers (month, applied_at)
		VALUES ($1, $2)
		ON CONFLICT (month) DO NOTHING
	`

	result, err := r.db.GetPool().Exec(ctx, query, month, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to acquire soft reset marker: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
