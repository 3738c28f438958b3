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

// PostgresStreakRepository implements StreakRepository for PostgreSQL
type PostgresStreakRepository struct {
	db *database.DB
}

// NewPostgresStreakRepository creates a new streak repository
func NewPostgresStreakRepository(db *database.DB) StreakRepository {
	return &PostgresStreakRepository{db: db}
}

const streakColumns = `user_id, current_betting_streak, longest_betting_streak, current_play_streak, longest_play_streak,
	last_bet_week, last_bet_week_number, last_play_date, boost_used_month, bonus3_awarded, bonus5_awarded, xp, level, updated_at`

// GetOrCreate returns a user's streak state, inserting a fresh row on first touch
func (r *PostgresStreakRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.StreakState, error) {
	insertQuery := `
		INSERT INTO streak_states (user_id, level, updated_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.db.GetPool().Exec(ctx, insertQuery, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to ensure streak state: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM streak_states WHERE user_id = $1`, streakColumns)
	state := &models.StreakState{}
	err = r.db.GetPool().QueryRow(ctx, query, userID).Scan(
		&state.UserID, &state.CurrentBettingStreak, &state.LongestBettingStreak,
		&state.CurrentPlayStreak, &state.LongestPlayStreak,
		&state.LastBetWeek, &state.LastBetWeekNumber, &state.LastPlayDate,
		&state.BoostUsedMonth, &state.Bonus3Awarded, &state.Bonus5Awarded,
		&state.XP, &state.Level, &state.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get streak state: %w", err)
	}
	return state, nil
}

// GetAll retrieves every streak state
func (r *PostgresStreakRepository) GetAll(ctx context.Context) ([]*models.StreakState, error) {
	query := fmt.Sprintf(`SELECT %s FROM streak_states`, streakColumns)

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query streak states: %w", err)
	}
	defer rows.Close()

	var states []*models.StreakState
	for rows.Next() {
		state := &models.StreakState{}
		err := rows.Scan(
			&state.UserID, &state.CurrentBettingStreak, &state.LongestBettingStreak,
			&state.CurrentPlayStreak, &state.LongestPlayStreak,
			&state.LastBetWeek, &state.LastBetWeekNumber, &state.LastPlayDate,
			&state.BoostUsedMonth, &state.Bonus3Awarded, &state.Bonus5Awarded,
			&state.XP, &state.Level, &state.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan streak state: %w", err)
		}
		states = append(states, state)
	}
	return states, rows.Err()
}

// Save writes the full streak state for a user
func (r *PostgresStreakRepository) Save(ctx context.Context, state *models.StreakState) error {
	query := `
		UPDATE streak_states
		SET current_betting_streak = $2, longest_betting_streak = $3,
		    current_play_streak = $4, longest_play_streak = $5,
		    last_bet_week = $6, last_bet_week_number = $7, last_play_date = $8,
		    boost_used_month = $9, bonus3_awarded = $10, bonus5_awarded = $11,
		    xp = $12, level = $13, updated_at = $14
		WHERE user_id = $1
	`

	result, err := r.db.GetPool().Exec(ctx, query,
		state.UserID, state.CurrentBettingStreak, state.LongestBettingStreak,
		state.CurrentPlayStreak, state.LongestPlayStreak,
		state.LastBetWeek, state.LastBetWeekNumber, state.LastPlayDate,
		state.BoostUsedMonth, state.Bonus3Awarded, state.Bonus5Awarded,
		state.XP, state.Level, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save streak state: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CreateNotice records a streak loss notification
func (r *PostgresStreakRepository) CreateNotice(ctx context.Context, notice *models.StreakLossNotice) error {
	query := `
		INSERT INTO streak_loss_notices (id, user_id, streak_type, lost_value, seen, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		notice.ID, notice.UserID, notice.Type, notice.LostValue, notice.Seen, notice.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create streak loss notice: %w", translateError(err))
	}
	return nil
}

// GetUnseenNotices retrieves a user's unacknowledged streak loss notices
func (r *PostgresStreakRepository) GetUnseenNotices(ctx context.Context, userID uuid.UUID) ([]*models.StreakLossNotice, error) {
	query := `
		SELECT id, user_id, streak_type, lost_value, seen, created_at
		FROM streak_loss_notices
		WHERE user_id = $1 AND seen = false
		ORDER BY created_at ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query streak loss notices: %w", err)
	}
	defer rows.Close()

	var notices []*models.StreakLossNotice
	for rows.Next() {
		notice := &models.StreakLossNotice{}
		err := rows.Scan(&notice.ID, &notice.UserID, &notice.Type, &notice.LostValue, &notice.Seen, &notice.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan streak loss notice: %w", err)
		}
		notices = append(notices, notice)
	}
	return notices, rows.Err()
}

// MarkNoticeSeen acknowledges a streak loss notice
func (r *PostgresStreakRepository) MarkNoticeSeen(ctx context.Context, noticeID uuid.UUID) error {
	query := `UPDATE streak_loss_notices SET seen = true WHERE id = $1`

	result, err := r.db.GetPool().Exec(ctx, query, noticeID)
	if err != nil {
		return fmt.Errorf("failed to mark notice seen: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
