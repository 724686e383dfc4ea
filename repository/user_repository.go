package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"creditbot/database"
	"creditbot/models"
)

const userColumns = `user_id, username, credits, total_earned, joined_at, referrer_id, is_banned, last_active`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// GetByID retrieves a user by platform id
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return r.getOne(ctx, query, userID)
}

// GetByIDForUpdate retrieves a user and holds a row lock for the rest of the transaction
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1 FOR UPDATE`
	return r.getOne(ctx, query, userID)
}

func (r *UserRepository) getOne(ctx context.Context, query string, userID int64) (*models.User, error) {
	user, err := scanUser(r.q.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return user, nil
}

// Create inserts a new user with the starting balance. Returns nil, nil when the id is taken.
func (r *UserRepository) Create(ctx context.Context, userID int64, username *string, referrerID *int64, initialCredits int64) (*models.User, error) {
	query := `
		INSERT INTO users (user_id, username, credits, referrer_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, userID, username, initialCredits, referrerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user %d: %w", userID, err)
	}
	return user, nil
}

// EnsureExists inserts a bare user row when the id is unknown
func (r *UserRepository) EnsureExists(ctx context.Context, userID int64) error {
	query := `INSERT INTO users (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to ensure user %d exists: %w", userID, err)
	}
	return nil
}

// AddCredits applies delta as a single read-modify-write statement
func (r *UserRepository) AddCredits(ctx context.Context, userID int64, delta int64) (bool, error) {
	query := `
		UPDATE users
		SET credits = credits + $1,
		    total_earned = total_earned + GREATEST($1, 0),
		    last_active = NOW()
		WHERE user_id = $2
	`

	result, err := r.q.Exec(ctx, query, delta, userID)
	if err != nil {
		return false, fmt.Errorf("failed to add %d credits for user %d: %w", delta, userID, err)
	}
	return result.RowsAffected() > 0, nil
}

// AddBonus credits a bonus to balance and total_earned. The recipient did not
// act, so last_active is left alone.
func (r *UserRepository) AddBonus(ctx context.Context, userID int64, amount int64) (bool, error) {
	query := `
		UPDATE users
		SET credits = credits + $1,
		    total_earned = total_earned + $1
		WHERE user_id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return false, fmt.Errorf("failed to add %d bonus credits for user %d: %w", amount, userID, err)
	}
	return result.RowsAffected() > 0, nil
}

// SetCredits overwrites the balance
func (r *UserRepository) SetCredits(ctx context.Context, userID int64, credits int64) (bool, error) {
	query := `UPDATE users SET credits = $1, last_active = NOW() WHERE user_id = $2`

	result, err := r.q.Exec(ctx, query, credits, userID)
	if err != nil {
		return false, fmt.Errorf("failed to set credits for user %d: %w", userID, err)
	}
	return result.RowsAffected() > 0, nil
}

// SetBanned toggles the ban flag
func (r *UserRepository) SetBanned(ctx context.Context, userID int64, banned bool) (bool, error) {
	query := `UPDATE users SET is_banned = $1, last_active = NOW() WHERE user_id = $2`

	result, err := r.q.Exec(ctx, query, banned, userID)
	if err != nil {
		return false, fmt.Errorf("failed to set ban status for user %d: %w", userID, err)
	}
	return result.RowsAffected() > 0, nil
}

// Touch refreshes last_active
func (r *UserRepository) Touch(ctx context.Context, userID int64) error {
	if _, err := r.q.Exec(ctx, `UPDATE users SET last_active = NOW() WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to touch user %d: %w", userID, err)
	}
	return nil
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, userID int64) (bool, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete user %d: %w", userID, err)
	}
	return result.RowsAffected() > 0, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.UserID,
		&user.Username,
		&user.Credits,
		&user.TotalEarned,
		&user.JoinedAt,
		&user.ReferrerID,
		&user.IsBanned,
		&user.LastActive,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func collectUsers(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}
