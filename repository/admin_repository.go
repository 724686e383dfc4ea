package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"creditbot/database"
	"creditbot/models"
)

// AdminRepository implements the AdminRepository interface
type AdminRepository struct {
	q queryable
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db *database.DB) *AdminRepository {
	return &AdminRepository{q: db.Pool}
}

func newAdminRepositoryWithTx(tx queryable) *AdminRepository {
	return &AdminRepository{q: tx}
}

// Get retrieves an admin entry
func (r *AdminRepository) Get(ctx context.Context, userID int64) (*models.Admin, error) {
	var a models.Admin
	err := r.q.QueryRow(ctx,
		`SELECT user_id, level, added_by, added_at FROM admins WHERE user_id = $1`,
		userID,
	).Scan(&a.UserID, &a.Level, &a.AddedBy, &a.AddedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin %d: %w", userID, err)
	}
	return &a, nil
}

// Create inserts an admin entry
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) (bool, error) {
	query := `
		INSERT INTO admins (user_id, level, added_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING added_at
	`

	err := r.q.QueryRow(ctx, query, admin.UserID, admin.Level, admin.AddedBy).Scan(&admin.AddedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to add admin %d: %w", admin.UserID, err)
	}
	return true, nil
}

// Upsert inserts or refreshes the level of an admin entry
func (r *AdminRepository) Upsert(ctx context.Context, admin *models.Admin) error {
	query := `
		INSERT INTO admins (user_id, level, added_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET level = EXCLUDED.level
	`

	if _, err := r.q.Exec(ctx, query, admin.UserID, admin.Level, admin.AddedBy); err != nil {
		return fmt.Errorf("failed to upsert admin %d: %w", admin.UserID, err)
	}
	return nil
}

// Delete removes an admin entry
func (r *AdminRepository) Delete(ctx context.Context, userID int64) (bool, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM admins WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove admin %d: %w", userID, err)
	}
	return result.RowsAffected() > 0, nil
}

// List returns every admin with the username when known
func (r *AdminRepository) List(ctx context.Context) ([]*models.Admin, error) {
	query := `
		SELECT a.user_id, a.level, a.added_by, a.added_at, u.username
		FROM admins a
		LEFT JOIN users u ON u.user_id = a.user_id
		ORDER BY a.added_at DESC, a.user_id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var admins []*models.Admin
	for rows.Next() {
		var a models.Admin
		if err := rows.Scan(&a.UserID, &a.Level, &a.AddedBy, &a.AddedAt, &a.Username); err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate admins: %w", err)
	}
	return admins, nil
}
