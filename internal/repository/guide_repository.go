package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/pathik-bd/pathik-api/internal/model"
	"github.com/pathik-bd/pathik-api/internal/store"
)

// GuideRepo persists travel guides.
type GuideRepo struct {
	db *sql.DB
}

func NewGuideRepo(db *sql.DB) *GuideRepo { return &GuideRepo{db: db} }

const guideColumns = `id, author_user_id, source_tour_id, title, destination, how_to_go, must_visit,
	members, start_date, end_date, total_expense, tips, created_at`

// Create inserts a guide.  A second guide for the same source tour hits the
// unique key and is reported as store.ErrAlreadyConverted.
func (r *GuideRepo) Create(ctx context.Context, q querier, g model.Guide) error {
	mustVisit, err := json.Marshal(nonNil(g.MustVisit))
	if err != nil {
		return err
	}
	var members any
	if len(g.Members) > 0 {
		b, err := json.Marshal(g.Members)
		if err != nil {
			return err
		}
		members = b
	}
	const ins = `INSERT INTO travel_guides
		(id, author_user_id, source_tour_id, title, destination, how_to_go, must_visit, members,
		 start_date, end_date, total_expense, tips)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = q.ExecContext(ctx, ins,
		g.ID, g.AuthorUserID, g.SourceTourID, g.Title, g.Destination, g.HowToGo, mustVisit, members,
		g.StartDate, g.EndDate, g.TotalExpense, g.Tips)
	if isDuplicate(err) {
		return store.ErrAlreadyConverted
	}
	return err
}

func (r *GuideRepo) Get(ctx context.Context, id string) (model.Guide, error) {
	g, err := scanGuide(r.db.QueryRowContext(ctx, "SELECT "+guideColumns+" FROM travel_guides WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return g, store.ErrGuideNotFound
	}
	return g, err
}

// List returns guides newest first.
func (r *GuideRepo) List(ctx context.Context, limit, offset int) ([]model.Guide, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+guideColumns+" FROM travel_guides ORDER BY created_at DESC, id LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Guide{}
	for rows.Next() {
		g, err := scanGuide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanGuide(s rowScanner) (model.Guide, error) {
	var (
		g                  model.Guide
		source, tips       sql.NullString
		mustVisit, members []byte
	)
	err := s.Scan(&g.ID, &g.AuthorUserID, &source, &g.Title, &g.Destination, &g.HowToGo, &mustVisit,
		&members, &g.StartDate, &g.EndDate, &g.TotalExpense, &tips, &g.CreatedAt)
	if err != nil {
		return g, err
	}
	if source.Valid {
		s := source.String
		g.SourceTourID = &s
	}
	g.Tips = tips.String
	g.MustVisit = []string{}
	if len(mustVisit) > 0 {
		if err := json.Unmarshal(mustVisit, &g.MustVisit); err != nil {
			return g, err
		}
	}
	if len(members) > 0 {
		if err := json.Unmarshal(members, &g.Members); err != nil {
			return g, err
		}
	}
	return g, nil
}
