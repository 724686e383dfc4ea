package repository

import (
	"context"
	"fmt"

	"creditbot/database"
	"creditbot/models"
)

// LookupRepository implements the LookupRepository interface
type LookupRepository struct {
	q queryable
}

// NewLookupRepository creates a new lookup log repository
func NewLookupRepository(db *database.DB) *LookupRepository {
	return &LookupRepository{q: db.Pool}
}

func newLookupRepositoryWithTx(tx queryable) *LookupRepository {
	return &LookupRepository{q: tx}
}

// Create appends a lookup record
func (r *LookupRepository) Create(ctx context.Context, record *models.LookupRecord) error {
	query := `
		INSERT INTO lookup_logs (user_id, api_type, input_data, result)
		VALUES ($1, $2, $3, $4)
		RETURNING id, lookup_at
	`

	err := r.q.QueryRow(ctx, query,
		record.UserID,
		record.APIType,
		record.InputData,
		record.Result,
	).Scan(&record.ID, &record.LookupAt)
	if err != nil {
		return fmt.Errorf("failed to record lookup for user %d: %w", record.UserID, err)
	}
	return nil
}

// ListByUser returns a user's most recent lookups
func (r *LookupRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.LookupRecord, error) {
	query := `
		SELECT id, user_id, api_type, input_data, result, lookup_at
		FROM lookup_logs
		WHERE user_id = $1
		ORDER BY lookup_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list lookups for user %d: %w", userID, err)
	}
	defer rows.Close()

	var records []*models.LookupRecord
	for rows.Next() {
		var rec models.LookupRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.APIType, &rec.InputData, &rec.Result, &rec.LookupAt); err != nil {
			return nil, fmt.Errorf("failed to scan lookup: %w", err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lookups: %w", err)
	}
	return records, nil
}

// CountByCategory returns lookup counts per category
func (r *LookupRepository) CountByCategory(ctx context.Context) ([]*models.LookupCategoryCount, error) {
	query := `
		SELECT api_type, COUNT(*)
		FROM lookup_logs
		GROUP BY api_type
		ORDER BY COUNT(*) DESC, api_type
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count lookups: %w", err)
	}
	defer rows.Close()

	var counts []*models.LookupCategoryCount
	for rows.Next() {
		var c models.LookupCategoryCount
		if err := rows.Scan(&c.APIType, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan lookup count: %w", err)
		}
		counts = append(counts, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lookup counts: %w", err)
	}
	return counts, nil
}
