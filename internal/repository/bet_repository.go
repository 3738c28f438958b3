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

// PostgresBetRepository implements BetRepository for PostgreSQL
type PostgresBetRepository struct {
	db *database.DB
}

// NewPostgresBetRepository creates a new bet repository
func NewPostgresBetRepository(db *database.DB) BetRepository {
	return &PostgresBetRepository{db: db}
}

const betColumns = `id, user_id, week_id, status, points_earned, is_perfect_podium, placed_at, settled_at`

// Create persists a bet and its three picks in one transaction.
// A unique index on (user_id, week_id) enforces one-bet-per-week,
// surfacing as ErrDuplicateKey.
func (r *PostgresBetRepository) Create(ctx context.Context, bet *models.Bet) error {
	betQuery := `
		INSERT INTO bets (id, user_id, week_id, status, points_earned, is_perfect_podium, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	pickQuery := `
		INSERT INTO bet_picks (id, bet_id, competitor_id, position, odd_at_bet, has_boost, is_correct, points_earned, used_bog_odd)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, betQuery,
			bet.ID, bet.UserID, bet.WeekID, bet.Status,
			bet.PointsEarned, bet.IsPerfectPodium, bet.PlacedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create bet: %w", translateError(err))
		}

		for i := range bet.Picks {
			p := &bet.Picks[i]
			_, err := tx.Exec(ctx, pickQuery,
				p.ID, p.BetID, p.CompetitorID, p.Position,
				p.OddAtBet, p.HasBoost, p.IsCorrect, p.PointsEarned, p.UsedBogOdd,
			)
			if err != nil {
				return fmt.Errorf("failed to create bet pick: %w", translateError(err))
			}
		}
		return nil
	})
}

// GetByID retrieves a bet with its picks
func (r *PostgresBetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Bet, error) {
	query := fmt.Sprintf(`SELECT %s FROM bets WHERE id = $1`, betColumns)

	bet, err := r.scanOne(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if err := r.loadPicks(ctx, bet); err != nil {
		return nil, err
	}
	return bet, nil
}

// GetByUserAndWeek retrieves a user's active bet for a week.
// Cancelled bets do not count against the one-bet-per-week rule.
func (r *PostgresBetRepository) GetByUserAndWeek(ctx context.Context, userID, weekID uuid.UUID) (*models.Bet, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bets
		WHERE user_id = $1 AND week_id = $2 AND status != 'CANCELLED'
	`, betColumns)

	bet, err := r.scanOne(ctx, query, userID, weekID)
	if err != nil {
		return nil, err
	}
	if err := r.loadPicks(ctx, bet); err != nil {
		return nil, err
	}
	return bet, nil
}

// GetByWeek retrieves all non-cancelled bets for a week
func (r *PostgresBetRepository) GetByWeek(ctx context.Context, weekID uuid.UUID) ([]*models.Bet, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bets
		WHERE week_id = $1 AND status != 'CANCELLED'
		ORDER BY placed_at ASC
	`, betColumns)

	return r.queryBets(ctx, query, weekID)
}

// GetPendingByWeek retrieves the bets still awaiting settlement for a week
func (r *PostgresBetRepository) GetPendingByWeek(ctx context.Context, weekID uuid.UUID) ([]*models.Bet, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bets
		WHERE week_id = $1 AND status = 'PENDING'
		ORDER BY placed_at ASC
	`, betColumns)

	return r.queryBets(ctx, query, weekID)
}

// GetHistory retrieves a user's bets, most recent first
func (r *PostgresBetRepository) GetHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Bet, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bets
		WHERE user_id = $1
		ORDER BY placed_at DESC
		LIMIT $2 OFFSET $3
	`, betColumns)

	return r.queryBets(ctx, query, userID, limit, offset)
}

// GetSettledBetween retrieves settled bets whose week falls inside [from, to)
func (r *PostgresBetRepository) GetSettledBetween(ctx context.Context, from, to time.Time) ([]*models.Bet, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bets b
		WHERE b.status IN ('WON', 'LOST')
		  AND b.week_id IN (
			SELECT id FROM betting_weeks
			WHERE start_date >= $1 AND start_date < $2
		  )
		ORDER BY b.settled_at ASC
	`, prefixedBetColumns("b"))

	return r.queryBets(ctx, query, from, to)
}

// UpdateSettlement writes the settlement outcome for a bet and its picks
func (r *PostgresBetRepository) UpdateSettlement(ctx context.Context, bet *models.Bet) error {
	betQuery := `
		UPDATE bets
		SET status = $2, points_earned = $3, is_perfect_podium = $4, settled_at = $5
		WHERE id = $1
	`
	pickQuery := `
		UPDATE bet_picks
		SET is_correct = $2, points_earned = $3, used_bog_odd = $4
		WHERE id = $1
	`

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, betQuery,
			bet.ID, bet.Status, bet.PointsEarned, bet.IsPerfectPodium, bet.SettledAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update bet settlement: %w", err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		for i := range bet.Picks {
			p := &bet.Picks[i]
			_, err := tx.Exec(ctx, pickQuery, p.ID, p.IsCorrect, p.PointsEarned, p.UsedBogOdd)
			if err != nil {
				return fmt.Errorf("failed to update pick settlement: %w", err)
			}
		}
		return nil
	})
}

func (r *PostgresBetRepository) scanOne(ctx context.Context, query string, args ...interface{}) (*models.Bet, error) {
	bet := &models.Bet{}
	err := r.db.GetPool().QueryRow(ctx, query, args...).Scan(
		&bet.ID, &bet.UserID, &bet.WeekID, &bet.Status,
		&bet.PointsEarned, &bet.IsPerfectPodium, &bet.PlacedAt, &bet.SettledAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	return bet, nil
}

func (r *PostgresBetRepository) queryBets(ctx context.Context, query string, args ...interface{}) ([]*models.Bet, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bets: %w", err)
	}
	defer rows.Close()

	var bets []*models.Bet
	for rows.Next() {
		bet := &models.Bet{}
		err := rows.Scan(
			&bet.ID, &bet.UserID, &bet.WeekID, &bet.Status,
			&bet.PointsEarned, &bet.IsPerfectPodium, &bet.PlacedAt, &bet.SettledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, bet := range bets {
		if err := r.loadPicks(ctx, bet); err != nil {
			return nil, err
		}
	}
	return bets, nil
}

func (r *PostgresBetRepository) loadPicks(ctx context.Context, bet *models.Bet) error {
	query := `
		SELECT id, bet_id, competitor_id, position, odd_at_bet, has_boost, is_correct, points_earned, used_bog_odd
		FROM bet_picks
		WHERE bet_id = $1
		ORDER BY position ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, bet.ID)
	if err != nil {
		return fmt.Errorf("failed to query bet picks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.BetPick
		err := rows.Scan(
			&p.ID, &p.BetID, &p.CompetitorID, &p.Position,
			&p.OddAtBet, &p.HasBoost, &p.IsCorrect, &p.PointsEarned, &p.UsedBogOdd,
		)
		if err != nil {
			return fmt.Errorf("failed to scan bet pick: %w", err)
		}
		bet.Picks = append(bet.Picks, p)
	}
	return rows.Err()
}

func prefixedBetColumns(alias string) string {
	return fmt.Sprintf(
		"%s.id, %s.user_id, %s.week_id, %s.status, %s.points_earned, %s.is_perfect_podium, %s.placed_at, %s.settled_at",
		alias, alias, alias, alias, alias, alias, alias, alias,
	)
}
