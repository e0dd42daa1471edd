package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/pathik-bd/pathik-api/internal/model"
	"github.com/pathik-bd/pathik-api/internal/store"
)

// ContributionRepo provides access to the contributions table: submissions
// waiting for moderation, approved directory entries and the auto-approved
// records written for travel guides.
type ContributionRepo struct {
	db *sql.DB
}

func NewContributionRepo(db *sql.DB) *ContributionRepo { return &ContributionRepo{db: db} }

const contributionColumns = `id, owner_user_id, category, status, points_awarded, title, location,
	details, reject_reason, reviewed_by, created_at, reviewed_at`

// Create inserts a record.  CreatedAt is filled by the database default when
// zero.
func (r *ContributionRepo) Create(ctx context.Context, q querier, c model.Contribution) error {
	var details any
	if len(c.Details) > 0 {
		details = []byte(c.Details)
	}
	var reviewedAt any
	if c.ReviewedAt != nil {
		reviewedAt = c.ReviewedAt.UTC()
	}
	const ins = `INSERT INTO contributions
		(id, owner_user_id, category, status, points_awarded, title, location, details, reviewed_by, created_at, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, UTC_TIMESTAMP()), ?)`
	var createdAt any
	if !c.CreatedAt.IsZero() {
		createdAt = c.CreatedAt.UTC()
	}
	_, err := q.ExecContext(ctx, ins,
		c.ID, c.OwnerUserID, string(c.Category), string(c.Status), c.PointsAwarded,
		c.Title, c.Location, details, c.ReviewedBy, createdAt, reviewedAt)
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// Get fetches a record by id.  With lock set the row is read FOR UPDATE and
// q must be a transaction.
func (r *ContributionRepo) Get(ctx context.Context, q querier, id string, lock bool) (model.Contribution, error) {
	query := "SELECT " + contributionColumns + " FROM contributions WHERE id = ?"
	if lock {
		query += " FOR UPDATE"
	}
	c, err := scanContribution(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return c, store.ErrContributionNotFound
	}
	return c, err
}

// Approve is the pending → approved compare-and-swap.
func (r *ContributionRepo) Approve(ctx context.Context, q querier, id, reviewerID string, points int) error {
	const upd = `UPDATE contributions
		SET status = 'approved', points_awarded = ?, reviewed_by = ?, reviewed_at = UTC_TIMESTAMP()
		WHERE id = ? AND status = 'pending'`
	return expectOneRow(q.ExecContext(ctx, upd, points, reviewerID, id))
}

// Reject is the pending → rejected compare-and-swap.  points_awarded is left
// at zero.
func (r *ContributionRepo) Reject(ctx context.Context, q querier, id, reviewerID, reason string) error {
	const upd = `UPDATE contributions
		SET status = 'rejected', reject_reason = ?, reviewed_by = ?, reviewed_at = UTC_TIMESTAMP()
		WHERE id = ? AND status = 'pending'`
	return expectOneRow(q.ExecContext(ctx, upd, reason, reviewerID, id))
}

func expectOneRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotPending
	}
	return nil
}

// List returns records matching f, newest first.  Limit defaults to 50.
func (r *ContributionRepo) List(ctx context.Context, f store.ContributionFilter) ([]model.Contribution, error) {
	var (
		where []string
		args  []any
	)
	if f.OwnerUserID != "" {
		where = append(where, "owner_user_id = ?")
		args = append(args, f.OwnerUserID)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(f.Category))
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	query := "SELECT " + contributionColumns + " FROM contributions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Contribution{}
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ApprovedTotals aggregates approved records per owner: the sum of
// points_awarded and the count per category.
func (r *ContributionRepo) ApprovedTotals(ctx context.Context) (map[string]model.LedgerEntry, error) {
	const q = `SELECT c.owner_user_id, u.display_name, u.photo_url, c.category, COUNT(*), COALESCE(SUM(c.points_awarded), 0)
		FROM contributions c
		JOIN users u ON u.id = c.owner_user_id
		WHERE c.status = 'approved'
		GROUP BY c.owner_user_id, u.display_name, u.photo_url, c.category`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]model.LedgerEntry)
	for rows.Next() {
		var (
			userID, name, photo, cat string
			count, points            int
		)
		if err := rows.Scan(&userID, &name, &photo, &cat, &count, &points); err != nil {
			return nil, err
		}
		e := out[userID]
		e.UserID, e.DisplayName, e.PhotoURL = userID, name, photo
		e.TotalPoints += points
		e.Breakdown.Add(model.Category(cat), count)
		out[userID] = e
	}
	return out, rows.Err()
}

// ApprovedTotal aggregates the approved records of one owner.  It runs on q
// so the reconciler can read it inside the transaction that holds the
// ledger row locks.
func (r *ContributionRepo) ApprovedTotal(ctx context.Context, q querier, userID string) (model.LedgerEntry, error) {
	const query = `SELECT category, COUNT(*), COALESCE(SUM(points_awarded), 0)
		FROM contributions
		WHERE owner_user_id = ? AND status = 'approved'
		GROUP BY category`
	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return model.LedgerEntry{}, err
	}
	defer rows.Close()
	e := model.LedgerEntry{UserID: userID}
	for rows.Next() {
		var (
			cat           string
			count, points int
		)
		if err := rows.Scan(&cat, &count, &points); err != nil {
			return model.LedgerEntry{}, err
		}
		e.TotalPoints += points
		e.Breakdown.Add(model.Category(cat), count)
	}
	return e, rows.Err()
}

func scanContribution(s rowScanner) (model.Contribution, error) {
	var (
		c          model.Contribution
		cat, st    string
		details    []byte
		reviewedAt sql.NullTime
	)
	err := s.Scan(&c.ID, &c.OwnerUserID, &cat, &st, &c.PointsAwarded, &c.Title, &c.Location,
		&details, &c.RejectReason, &c.ReviewedBy, &c.CreatedAt, &reviewedAt)
	if err != nil {
		return c, err
	}
	c.Category = model.Category(cat)
	c.Status = model.Status(st)
	if len(details) > 0 {
		c.Details = append([]byte(nil), details...)
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		c.ReviewedAt = &t
	}
	return c, nil
}
