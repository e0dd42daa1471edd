package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pathik-bd/pathik-api/internal/model"
	"github.com/pathik-bd/pathik-api/internal/store"
)

// LedgerRepo maintains the two ledger tables.  user_stats is the canonical
// per-user row; leaderboard is the public projection that also carries the
// display name and photo.  Every write touches both tables and callers are
// expected to pass a transaction so the pair commits together.
type LedgerRepo struct {
	db *sql.DB
}

func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// categoryColumn maps a category onto its counter column.  The result is
// interpolated into SQL, so only these fixed names may ever be returned.
func categoryColumn(c model.Category) (string, error) {
	switch c {
	case model.CategoryRestaurant:
		return "restaurants", nil
	case model.CategoryHotel:
		return "hotels", nil
	case model.CategoryMarket:
		return "markets", nil
	case model.CategoryTravelGuide:
		return "travel_guides", nil
	}
	return "", fmt.Errorf("unknown category %q", c)
}

// Increment adds points and one category count to both ledger rows with
// INSERT … ON DUPLICATE KEY UPDATE, so the rows are created on first award
// and incremented server-side afterwards.
func (r *LedgerRepo) Increment(ctx context.Context, q querier, user model.User, category model.Category, points int) error {
	col, err := categoryColumn(category)
	if err != nil {
		return err
	}
	statsQ := fmt.Sprintf(`INSERT INTO user_stats (user_id, total_points, %[1]s)
		VALUES (?, ?, 1)
		ON DUPLICATE KEY UPDATE total_points = total_points + ?, %[1]s = %[1]s + 1`, col)
	if _, err := q.ExecContext(ctx, statsQ, user.ID, points, points); err != nil {
		return fmt.Errorf("increment user_stats: %w", err)
	}
	boardQ := fmt.Sprintf(`INSERT INTO leaderboard (user_id, display_name, photo_url, total_points, %[1]s)
		VALUES (?, ?, ?, ?, 1)
		ON DUPLICATE KEY UPDATE total_points = total_points + ?, %[1]s = %[1]s + 1,
			display_name = ?, photo_url = ?`, col)
	if _, err := q.ExecContext(ctx, boardQ,
		user.ID, user.DisplayName, user.PhotoURL, points,
		points, user.DisplayName, user.PhotoURL); err != nil {
		return fmt.Errorf("increment leaderboard: %w", err)
	}
	return nil
}

// Replace overwrites both rows with entry.  Used by the reconciler.
func (r *LedgerRepo) Replace(ctx context.Context, q querier, e model.LedgerEntry) error {
	b := e.Breakdown
	const statsQ = `INSERT INTO user_stats (user_id, total_points, restaurants, hotels, markets, travel_guides)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE total_points = ?, restaurants = ?, hotels = ?, markets = ?, travel_guides = ?`
	if _, err := q.ExecContext(ctx, statsQ,
		e.UserID, e.TotalPoints, b.Restaurants, b.Hotels, b.Markets, b.TravelGuides,
		e.TotalPoints, b.Restaurants, b.Hotels, b.Markets, b.TravelGuides); err != nil {
		return fmt.Errorf("replace user_stats: %w", err)
	}
	const boardQ = `INSERT INTO leaderboard (user_id, display_name, photo_url, total_points, restaurants, hotels, markets, travel_guides)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE display_name = ?, photo_url = ?, total_points = ?,
			restaurants = ?, hotels = ?, markets = ?, travel_guides = ?`
	if _, err := q.ExecContext(ctx, boardQ,
		e.UserID, e.DisplayName, e.PhotoURL, e.TotalPoints, b.Restaurants, b.Hotels, b.Markets, b.TravelGuides,
		e.DisplayName, e.PhotoURL, e.TotalPoints, b.Restaurants, b.Hotels, b.Markets, b.TravelGuides); err != nil {
		return fmt.Errorf("replace leaderboard: %w", err)
	}
	return nil
}

const statsSelect = `SELECT s.user_id, u.display_name, u.photo_url, s.total_points,
		s.restaurants, s.hotels, s.markets, s.travel_guides, s.updated_at
	FROM user_stats s JOIN users u ON u.id = s.user_id`

// Get reads the canonical stats row for a user.
func (r *LedgerRepo) Get(ctx context.Context, q querier, userID string) (model.LedgerEntry, error) {
	e, err := scanEntry(q.QueryRowContext(ctx, statsSelect+" WHERE s.user_id = ?", userID))
	if errors.Is(err, sql.ErrNoRows) {
		return e, store.ErrEntryNotFound
	}
	return e, err
}

// All returns every stats row.
func (r *LedgerRepo) All(ctx context.Context) ([]model.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, statsSelect)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

const boardSelect = `SELECT user_id, display_name, photo_url, total_points,
		restaurants, hotels, markets, travel_guides, updated_at
	FROM leaderboard`

// AllBoard returns every leaderboard row.
func (r *LedgerRepo) AllBoard(ctx context.Context) ([]model.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, boardSelect)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Lock reads the counters of both rows FOR UPDATE; q must be a transaction.
// Absent rows come back as zero entries.
func (r *LedgerRepo) Lock(ctx context.Context, q querier, userID string) (stats, board model.LedgerEntry, err error) {
	if stats, err = lockCounters(ctx, q, "user_stats", userID); err != nil {
		return stats, board, fmt.Errorf("lock user_stats: %w", err)
	}
	if board, err = lockCounters(ctx, q, "leaderboard", userID); err != nil {
		return stats, board, fmt.Errorf("lock leaderboard: %w", err)
	}
	return stats, board, nil
}

// lockCounters takes table from Lock only.
func lockCounters(ctx context.Context, q querier, table, userID string) (model.LedgerEntry, error) {
	e := model.LedgerEntry{UserID: userID}
	query := "SELECT total_points, restaurants, hotels, markets, travel_guides FROM " + table +
		" WHERE user_id = ? FOR UPDATE"
	err := q.QueryRowContext(ctx, query, userID).Scan(&e.TotalPoints,
		&e.Breakdown.Restaurants, &e.Breakdown.Hotels, &e.Breakdown.Markets, &e.Breakdown.TravelGuides)
	if errors.Is(err, sql.ErrNoRows) {
		return e, nil
	}
	return e, err
}

// Top returns the leaderboard projection ordered by points.  Ties go to
// whoever reached the score first.
func (r *LedgerRepo) Top(ctx context.Context, limit int) ([]model.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		boardSelect+" WHERE total_points > 0 ORDER BY total_points DESC, updated_at ASC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]model.LedgerEntry, error) {
	out := []model.LedgerEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(s rowScanner) (model.LedgerEntry, error) {
	var e model.LedgerEntry
	err := s.Scan(&e.UserID, &e.DisplayName, &e.PhotoURL, &e.TotalPoints,
		&e.Breakdown.Restaurants, &e.Breakdown.Hotels, &e.Breakdown.Markets, &e.Breakdown.TravelGuides,
		&e.UpdatedAt)
	return e, err
}
