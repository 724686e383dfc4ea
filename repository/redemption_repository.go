package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"creditbot/database"
	"creditbot/models"
	"creditbot/service"
)

const uniqueViolation = "23505"

// RedemptionRepository implements the RedemptionRepository interface
type RedemptionRepository struct {
	q queryable
}

// NewRedemptionRepository creates a new redemption repository
func NewRedemptionRepository(db *database.DB) *RedemptionRepository {
	return &RedemptionRepository{q: db.Pool}
}

func newRedemptionRepositoryWithTx(tx queryable) *RedemptionRepository {
	return &RedemptionRepository{q: tx}
}

// Exists reports whether the user already claimed the code
func (r *RedemptionRepository) Exists(ctx context.Context, userID int64, code string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM redemptions WHERE user_id = $1 AND code = $2)`,
		userID, code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check redemption of %s by %d: %w", code, userID, err)
	}
	return exists, nil
}

// Create records a claim
func (r *RedemptionRepository) Create(ctx context.Context, userID int64, code string, claimedAt time.Time) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO redemptions (user_id, code, claimed_at) VALUES ($1, $2, $3)`,
		userID, code, claimedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return service.ErrDuplicateRedemption
		}
		return fmt.Errorf("failed to record redemption of %s by %d: %w", code, userID, err)
	}
	return nil
}

// ListByCode returns every claim of the code, oldest first
func (r *RedemptionRepository) ListByCode(ctx context.Context, code string) ([]*models.RedemptionDetail, error) {
	query := `
		SELECT r.id, r.user_id, r.code, r.claimed_at, u.username
		FROM redemptions r
		JOIN users u ON u.user_id = r.user_id
		WHERE r.code = $1
		ORDER BY r.claimed_at
	`

	rows, err := r.q.Query(ctx, query, code)
	if err != nil {
		return nil, fmt.Errorf("failed to list redemptions of %s: %w", code, err)
	}
	defer rows.Close()

	var details []*models.RedemptionDetail
	for rows.Next() {
		var d models.RedemptionDetail
		if err := rows.Scan(&d.ID, &d.UserID, &d.Code, &d.ClaimedAt, &d.Username); err != nil {
			return nil, fmt.Errorf("failed to scan redemption: %w", err)
		}
		details = append(details, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate redemptions: %w", err)
	}
	return details, nil
}
