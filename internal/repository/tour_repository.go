package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pathik-bd/pathik-api/internal/model"
	"github.com/pathik-bd/pathik-api/internal/store"
)

// TourRepo stores tours as single rows.  Members, expenses, places and todos
// live in JSON columns so a tour is read and written as one document; writers
// lock the row with Get(..., lock=true) before saving.
type TourRepo struct {
	db *sql.DB
}

func NewTourRepo(db *sql.DB) *TourRepo { return &TourRepo{db: db} }

const tourColumns = `id, owner_user_id, name, destination, start_date, end_date, members, budget,
	expenses, places, todos, is_active, converted_to_guide, created_at, updated_at`

type tourDocs struct {
	members, expenses, places, todos []byte
}

func encodeTour(t *model.Tour) (tourDocs, error) {
	var (
		d   tourDocs
		err error
	)
	if d.members, err = json.Marshal(nonNil(t.Members)); err != nil {
		return d, err
	}
	expenses := t.Expenses
	if expenses == nil {
		expenses = []model.Expense{}
	}
	if d.expenses, err = json.Marshal(expenses); err != nil {
		return d, err
	}
	if d.places, err = json.Marshal(nonNil(t.Places)); err != nil {
		return d, err
	}
	todos := t.Todos
	if todos == nil {
		todos = []model.Todo{}
	}
	if d.todos, err = json.Marshal(todos); err != nil {
		return d, err
	}
	return d, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Create inserts a new tour.
func (r *TourRepo) Create(ctx context.Context, t *model.Tour) error {
	d, err := encodeTour(t)
	if err != nil {
		return err
	}
	const q = `INSERT INTO tours
		(id, owner_user_id, name, destination, start_date, end_date, members, budget, expenses, places, todos, is_active, converted_to_guide)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, q,
		t.ID, t.OwnerUserID, t.Name, t.Destination, t.StartDate, t.EndDate,
		d.members, t.Budget, d.expenses, d.places, d.todos, t.IsActive, t.ConvertedToGuide)
	return err
}

// Get loads a tour.  With lock set the row is read FOR UPDATE.
func (r *TourRepo) Get(ctx context.Context, q querier, id string, lock bool) (*model.Tour, error) {
	query := "SELECT " + tourColumns + " FROM tours WHERE id = ?"
	if lock {
		query += " FOR UPDATE"
	}
	t, err := scanTour(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTourNotFound
	}
	return t, err
}

// Save writes back every mutable field except converted_to_guide, which only
// MarkConverted may change.
func (r *TourRepo) Save(ctx context.Context, q querier, t *model.Tour) error {
	d, err := encodeTour(t)
	if err != nil {
		return err
	}
	const upd = `UPDATE tours SET name = ?, destination = ?, start_date = ?, end_date = ?, members = ?,
		budget = ?, expenses = ?, places = ?, todos = ?, is_active = ?
		WHERE id = ?`
	// RowsAffected is 0 for an unchanged row in MySQL, so existence is not
	// checked here; callers hold the row lock from Get.
	_, err = q.ExecContext(ctx, upd,
		t.Name, t.Destination, t.StartDate, t.EndDate, d.members,
		t.Budget, d.expenses, d.places, d.todos, t.IsActive, t.ID)
	return err
}

// MarkConverted is a conditional write: it succeeds only while the flag is
// still unset, so two concurrent conversions cannot both pass.  is_active is
// left to End.
func (r *TourRepo) MarkConverted(ctx context.Context, q querier, id string) error {
	res, err := q.ExecContext(ctx,
		"UPDATE tours SET converted_to_guide = 1 WHERE id = ? AND converted_to_guide = 0", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrAlreadyConverted
	}
	return nil
}

// ListByOwner returns the owner's tours, newest first.
func (r *TourRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Tour, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+tourColumns+" FROM tours WHERE owner_user_id = ? ORDER BY created_at DESC", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Tour{}
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func scanTour(s rowScanner) (*model.Tour, error) {
	var (
		t                                 model.Tour
		members, expenses, places, todos []byte
	)
	err := s.Scan(&t.ID, &t.OwnerUserID, &t.Name, &t.Destination, &t.StartDate, &t.EndDate,
		&members, &t.Budget, &expenses, &places, &todos, &t.IsActive, &t.ConvertedToGuide,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	for _, doc := range []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"members", members, &t.Members},
		{"expenses", expenses, &t.Expenses},
		{"places", places, &t.Places},
		{"todos", todos, &t.Todos},
	} {
		if len(doc.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(doc.raw, doc.dst); err != nil {
			return nil, fmt.Errorf("decode tour %s: %w", doc.name, err)
		}
	}
	return &t, nil
}
