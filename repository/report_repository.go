package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"creditbot/database"
	"creditbot/models"
)

// ReportRepository implements read-only aggregate queries
type ReportRepository struct {
	q queryable
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{q: db.Pool}
}

func newReportRepositoryWithTx(tx queryable) *ReportRepository {
	return &ReportRepository{q: tx}
}

// Stats summarises the ledger
func (r *ReportRepository) Stats(ctx context.Context) (*models.LedgerStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE credits > 0),
			(SELECT COALESCE(SUM(credits), 0) FROM users),
			(SELECT COALESCE(SUM(total_earned), 0) FROM users),
			(SELECT COUNT(*) FROM lookup_logs),
			(SELECT COUNT(*) FROM users WHERE is_banned),
			(SELECT COUNT(*) FROM redeem_codes WHERE is_active)
	`

	var s models.LedgerStats
	err := r.q.QueryRow(ctx, query).Scan(
		&s.TotalUsers,
		&s.UsersWithCredits,
		&s.CreditsOutstanding,
		&s.CreditsDistributed,
		&s.TotalLookups,
		&s.BannedUsers,
		&s.ActiveCodes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger stats: %w", err)
	}
	return &s, nil
}

// UserStats returns referral and redemption counters for one user. The User field is left nil.
func (r *ReportRepository) UserStats(ctx context.Context, userID int64) (*models.UserStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE referrer_id = $1),
			(SELECT COUNT(*) FROM redemptions WHERE user_id = $1),
			(SELECT COALESCE(SUM(rc.amount), 0)
			   FROM redemptions r JOIN redeem_codes rc ON rc.code = r.code
			  WHERE r.user_id = $1),
			(SELECT COUNT(*) FROM lookup_logs WHERE user_id = $1)
	`

	var s models.UserStats
	if err := r.q.QueryRow(ctx, query, userID).Scan(&s.Referrals, &s.CodesClaimed, &s.CreditsFromCode, &s.Lookups); err != nil {
		return nil, fmt.Errorf("failed to get stats for user %d: %w", userID, err)
	}
	return &s, nil
}

// Leaderboard returns unbanned users by balance
func (r *ReportRepository) Leaderboard(ctx context.Context, limit int) ([]*models.User, error) {
	return r.users(ctx, `WHERE NOT is_banned ORDER BY credits DESC, user_id LIMIT $1`, limit)
}

// TopReferrers ranks referrers by number of referred users
func (r *ReportRepository) TopReferrers(ctx context.Context, limit int) ([]*models.ReferrerEntry, error) {
	query := `
		SELECT r.referrer_id, u.username, COUNT(*) AS referrals
		FROM users r
		LEFT JOIN users u ON u.user_id = r.referrer_id
		WHERE r.referrer_id IS NOT NULL
		GROUP BY r.referrer_id, u.username
		ORDER BY referrals DESC, r.referrer_id
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top referrers: %w", err)
	}
	defer rows.Close()

	var entries []*models.ReferrerEntry
	for rows.Next() {
		var e models.ReferrerEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Referrals); err != nil {
			return nil, fmt.Errorf("failed to scan referrer: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate referrers: %w", err)
	}
	return entries, nil
}

// RecentUsers returns the newest users
func (r *ReportRepository) RecentUsers(ctx context.Context, limit int) ([]*models.User, error) {
	return r.users(ctx, `ORDER BY joined_at DESC, user_id DESC LIMIT $1`, limit)
}

// UsersJoinedBetween returns users who joined in [from, to]
func (r *ReportRepository) UsersJoinedBetween(ctx context.Context, from, to time.Time) ([]*models.User, error) {
	return r.users(ctx, `WHERE joined_at BETWEEN $1 AND $2 ORDER BY joined_at DESC`, from, to)
}

// DailySignups counts joins per UTC day since the given instant
func (r *ReportRepository) DailySignups(ctx context.Context, since time.Time) ([]*models.DailyCount, error) {
	query := `
		SELECT date_trunc('day', joined_at AT TIME ZONE 'UTC') AS day, COUNT(*)
		FROM users
		WHERE joined_at >= $1
		GROUP BY day
		ORDER BY day DESC
	`

	rows, err := r.q.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily signups: %w", err)
	}
	defer rows.Close()

	var counts []*models.DailyCount
	for rows.Next() {
		var c models.DailyCount
		if err := rows.Scan(&c.Day, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", err)
		}
		counts = append(counts, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily counts: %w", err)
	}
	return counts, nil
}

// UsersWithCreditsAtLeast returns unbanned users holding at least min credits
func (r *ReportRepository) UsersWithCreditsAtLeast(ctx context.Context, min int64, limit int) ([]*models.User, error) {
	return r.users(ctx, `WHERE credits >= $1 AND NOT is_banned ORDER BY credits DESC, user_id LIMIT $2`, min, limit)
}

// UsersWithCreditsAtMost returns unbanned users holding at most max credits
func (r *ReportRepository) UsersWithCreditsAtMost(ctx context.Context, max int64, limit int) ([]*models.User, error) {
	return r.users(ctx, `WHERE credits <= $1 AND NOT is_banned ORDER BY credits ASC, user_id LIMIT $2`, max, limit)
}

// InactiveSince returns non-admin users whose last activity predates since
func (r *ReportRepository) InactiveSince(ctx context.Context, since time.Time, limit int) ([]*models.User, error) {
	return r.users(ctx, `
		WHERE last_active < $1
		  AND user_id NOT IN (SELECT user_id FROM admins)
		ORDER BY last_active ASC
		LIMIT $2`, since, limit)
}

// SearchUsers matches a username substring or an id prefix
func (r *ReportRepository) SearchUsers(ctx context.Context, query string, limit int) ([]*models.User, error) {
	pattern := "%" + escapeLike(strings.TrimPrefix(query, "@")) + "%"
	return r.users(ctx, `
		WHERE username ILIKE $1 OR user_id::text LIKE $1
		ORDER BY user_id
		LIMIT $2`, pattern, limit)
}

// AllUserIDs returns every user id
func (r *ReportRepository) AllUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT user_id FROM users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user ids: %w", err)
	}
	return ids, nil
}

// TableCounts reports row counts for each table
func (r *ReportRepository) TableCounts(ctx context.Context) (*models.TableCounts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM redeem_codes),
			(SELECT COUNT(*) FROM redemptions),
			(SELECT COUNT(*) FROM lookup_logs),
			(SELECT COUNT(*) FROM admins)
	`

	var c models.TableCounts
	if err := r.q.QueryRow(ctx, query).Scan(&c.Users, &c.Codes, &c.Redemptions, &c.Lookups, &c.Admins); err != nil {
		return nil, fmt.Errorf("failed to count tables: %w", err)
	}
	return &c, nil
}

func (r *ReportRepository) users(ctx context.Context, clause string, args ...any) ([]*models.User, error) {
	rows, err := r.q.Query(ctx, `SELECT `+userColumns+` FROM users `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return collectUsers(rows)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
