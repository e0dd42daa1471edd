package repository

import (
	"context"
	"database/sql"

	"github.com/pathik-bd/pathik-api/internal/model"
	"github.com/pathik-bd/pathik-api/internal/store"
)

// Store bundles the repositories behind store.Store.
type Store struct {
	db            *sql.DB
	Users         *UserRepo
	Contributions *ContributionRepo
	Ledger        *LedgerRepo
	Tours         *TourRepo
	Guides        *GuideRepo
}

var _ store.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepo(db),
		Contributions: NewContributionRepo(db),
		Ledger:        NewLedgerRepo(db),
		Tours:         NewTourRepo(db),
		Guides:        NewGuideRepo(db),
	}
}

// InTx begins a transaction, hands fn a Tx bound to it and commits when fn
// succeeds.  Any error, or a panic inside fn, rolls back.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&txStore{s: s, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) User(ctx context.Context, id string) (model.User, error) {
	return getUser(ctx, s.db, id)
}

func (s *Store) CreateContribution(ctx context.Context, c model.Contribution) error {
	return s.Contributions.Create(ctx, s.db, c)
}

func (s *Store) Contribution(ctx context.Context, id string) (model.Contribution, error) {
	return s.Contributions.Get(ctx, s.db, id, false)
}

func (s *Store) ListContributions(ctx context.Context, f store.ContributionFilter) ([]model.Contribution, error) {
	return s.Contributions.List(ctx, f)
}

func (s *Store) ApprovedTotals(ctx context.Context) (map[string]model.LedgerEntry, error) {
	return s.Contributions.ApprovedTotals(ctx)
}

func (s *Store) LedgerEntry(ctx context.Context, userID string) (model.LedgerEntry, error) {
	return s.Ledger.Get(ctx, s.db, userID)
}

func (s *Store) LedgerEntries(ctx context.Context) ([]model.LedgerEntry, error) {
	return s.Ledger.All(ctx)
}

func (s *Store) LeaderboardEntries(ctx context.Context) ([]model.LedgerEntry, error) {
	return s.Ledger.AllBoard(ctx)
}

func (s *Store) Leaderboard(ctx context.Context, limit int) ([]model.LedgerEntry, error) {
	return s.Ledger.Top(ctx, limit)
}

func (s *Store) CreateTour(ctx context.Context, t *model.Tour) error {
	return s.Tours.Create(ctx, t)
}

func (s *Store) Tour(ctx context.Context, id string) (*model.Tour, error) {
	return s.Tours.Get(ctx, s.db, id, false)
}

func (s *Store) ListTours(ctx context.Context, ownerID string) ([]model.Tour, error) {
	return s.Tours.ListByOwner(ctx, ownerID)
}

func (s *Store) Guide(ctx context.Context, id string) (model.Guide, error) {
	return s.Guides.Get(ctx, id)
}

func (s *Store) ListGuides(ctx context.Context, limit, offset int) ([]model.Guide, error) {
	return s.Guides.List(ctx, limit, offset)
}

// txStore is the store.Tx handed to InTx callbacks.
type txStore struct {
	s  *Store
	tx *sql.Tx
}

func (t *txStore) User(ctx context.Context, id string) (model.User, error) {
	return getUser(ctx, t.tx, id)
}

func (t *txStore) LockContribution(ctx context.Context, id string) (model.Contribution, error) {
	return t.s.Contributions.Get(ctx, t.tx, id, true)
}

func (t *txStore) InsertContribution(ctx context.Context, c model.Contribution) error {
	return t.s.Contributions.Create(ctx, t.tx, c)
}

func (t *txStore) ApproveContribution(ctx context.Context, id, reviewerID string, points int) error {
	return t.s.Contributions.Approve(ctx, t.tx, id, reviewerID, points)
}

func (t *txStore) RejectContribution(ctx context.Context, id, reviewerID, reason string) error {
	return t.s.Contributions.Reject(ctx, t.tx, id, reviewerID, reason)
}

func (t *txStore) IncrementLedger(ctx context.Context, user model.User, category model.Category, points int) error {
	return t.s.Ledger.Increment(ctx, t.tx, user, category, points)
}

func (t *txStore) LedgerEntry(ctx context.Context, userID string) (model.LedgerEntry, error) {
	return t.s.Ledger.Get(ctx, t.tx, userID)
}

func (t *txStore) LockLedger(ctx context.Context, userID string) (model.LedgerEntry, model.LedgerEntry, error) {
	return t.s.Ledger.Lock(ctx, t.tx, userID)
}

func (t *txStore) ApprovedTotal(ctx context.Context, userID string) (model.LedgerEntry, error) {
	return t.s.Contributions.ApprovedTotal(ctx, t.tx, userID)
}

func (t *txStore) ReplaceLedger(ctx context.Context, entry model.LedgerEntry) error {
	return t.s.Ledger.Replace(ctx, t.tx, entry)
}

func (t *txStore) LockTour(ctx context.Context, id string) (*model.Tour, error) {
	return t.s.Tours.Get(ctx, t.tx, id, true)
}

func (t *txStore) SaveTour(ctx context.Context, tour *model.Tour) error {
	return t.s.Tours.Save(ctx, t.tx, tour)
}

func (t *txStore) MarkTourConverted(ctx context.Context, id string) error {
	return t.s.Tours.MarkConverted(ctx, t.tx, id)
}

func (t *txStore) InsertGuide(ctx context.Context, g model.Guide) error {
	return t.s.Guides.Create(ctx, t.tx, g)
}
