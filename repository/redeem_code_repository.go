package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"creditbot/database"
	"creditbot/models"
)

const codeColumns = `code, amount, max_uses, current_uses, expiry_minutes, created_at, is_active`

// expiredPredicate matches active codes whose window closed before $1
const expiredPredicate = `
	is_active
	AND expiry_minutes IS NOT NULL
	AND created_at IS NOT NULL
	AND created_at + make_interval(mins => expiry_minutes) < $1
`

// RedeemCodeRepository implements the RedeemCodeRepository interface
type RedeemCodeRepository struct {
	q queryable
}

// NewRedeemCodeRepository creates a new code repository
func NewRedeemCodeRepository(db *database.DB) *RedeemCodeRepository {
	return &RedeemCodeRepository{q: db.Pool}
}

func newRedeemCodeRepositoryWithTx(tx queryable) *RedeemCodeRepository {
	return &RedeemCodeRepository{q: tx}
}

// Create inserts a code. A nil CreatedAt defaults to NOW().
func (r *RedeemCodeRepository) Create(ctx context.Context, code *models.RedeemCode) (bool, error) {
	query := `
		INSERT INTO redeem_codes (code, amount, max_uses, expiry_minutes, created_at, is_active)
		VALUES ($1, $2, $3, $4, COALESCE($5, NOW()), TRUE)
		ON CONFLICT (code) DO NOTHING
		RETURNING current_uses, created_at, is_active
	`

	err := r.q.QueryRow(ctx, query,
		code.Code,
		code.Amount,
		code.MaxUses,
		code.ExpiryMinutes,
		code.CreatedAt,
	).Scan(&code.CurrentUses, &code.CreatedAt, &code.IsActive)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create code %s: %w", code.Code, err)
	}
	return true, nil
}

// Get retrieves a code
func (r *RedeemCodeRepository) Get(ctx context.Context, code string) (*models.RedeemCode, error) {
	return r.getOne(ctx, `SELECT `+codeColumns+` FROM redeem_codes WHERE code = $1`, code)
}

// GetForUpdate retrieves a code and locks the row
func (r *RedeemCodeRepository) GetForUpdate(ctx context.Context, code string) (*models.RedeemCode, error) {
	return r.getOne(ctx, `SELECT `+codeColumns+` FROM redeem_codes WHERE code = $1 FOR UPDATE`, code)
}

func (r *RedeemCodeRepository) getOne(ctx context.Context, query, code string) (*models.RedeemCode, error) {
	rc, err := scanCode(r.q.QueryRow(ctx, query, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get code %s: %w", code, err)
	}
	return rc, nil
}

// IncrementUses bumps current_uses; the table CHECK rejects going past max_uses
func (r *RedeemCodeRepository) IncrementUses(ctx context.Context, code string) error {
	result, err := r.q.Exec(ctx, `UPDATE redeem_codes SET current_uses = current_uses + 1 WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("failed to increment uses for code %s: %w", code, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("code %s not found", code)
	}
	return nil
}

// Deactivate marks the code inactive
func (r *RedeemCodeRepository) Deactivate(ctx context.Context, code string) (bool, error) {
	result, err := r.q.Exec(ctx, `UPDATE redeem_codes SET is_active = FALSE WHERE code = $1`, code)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate code %s: %w", code, err)
	}
	return result.RowsAffected() > 0, nil
}

// Delete removes the code
func (r *RedeemCodeRepository) Delete(ctx context.Context, code string) (bool, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM redeem_codes WHERE code = $1`, code)
	if err != nil {
		return false, fmt.Errorf("failed to delete code %s: %w", code, err)
	}
	return result.RowsAffected() > 0, nil
}

// DeactivateExpired flips every active code whose expiry elapsed before now
func (r *RedeemCodeRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.q.Exec(ctx, `UPDATE redeem_codes SET is_active = FALSE WHERE `+expiredPredicate, now)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired codes: %w", err)
	}
	return result.RowsAffected(), nil
}

// ListExpired returns active codes whose expiry elapsed before now
func (r *RedeemCodeRepository) ListExpired(ctx context.Context, now time.Time) ([]*models.RedeemCode, error) {
	query := `SELECT ` + codeColumns + ` FROM redeem_codes WHERE ` + expiredPredicate + ` ORDER BY created_at`

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired codes: %w", err)
	}
	return collectCodes(rows)
}

// List returns codes, optionally filtered by active flag
func (r *RedeemCodeRepository) List(ctx context.Context, active *bool) ([]*models.RedeemCode, error) {
	query := `
		SELECT ` + codeColumns + `
		FROM redeem_codes
		WHERE ($1::boolean IS NULL OR is_active = $1)
		ORDER BY created_at DESC NULLS LAST, code
	`

	rows, err := r.q.Query(ctx, query, active)
	if err != nil {
		return nil, fmt.Errorf("failed to list codes: %w", err)
	}
	return collectCodes(rows)
}

func scanCode(row pgx.Row) (*models.RedeemCode, error) {
	var rc models.RedeemCode
	err := row.Scan(
		&rc.Code,
		&rc.Amount,
		&rc.MaxUses,
		&rc.CurrentUses,
		&rc.ExpiryMinutes,
		&rc.CreatedAt,
		&rc.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

func collectCodes(rows pgx.Rows) ([]*models.RedeemCode, error) {
	defer rows.Close()

	var codes []*models.RedeemCode
	for rows.Next() {
		rc, err := scanCode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan code: %w", err)
		}
		codes = append(codes, rc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate codes: %w", err)
	}
	return codes, nil
}
