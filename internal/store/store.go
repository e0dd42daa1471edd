// Package store declares the persistence contract the service layer depends
// on.  The MySQL implementation lives in internal/repository; tests supply
// in-memory fakes.
//
// Point and count changes are only ever expressed through IncrementLedger,
// which implementations must perform as an atomic server-side increment,
// never as read-modify-write.  Status transitions are conditional writes
// guarded on the current status.
package store

import (
	"context"
	"errors"

	"github.com/pathik-bd/pathik-api/internal/model"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrContributionNotFound = errors.New("contribution not found")
	ErrTourNotFound         = errors.New("tour not found")
	ErrGuideNotFound        = errors.New("guide not found")
	ErrEntryNotFound        = errors.New("ledger entry not found")
	// ErrNotPending is returned by a conditional status update that matched
	// no pending row.
	ErrNotPending = errors.New("contribution is not pending")
	// ErrAlreadyConverted is returned when a tour has already produced a guide.
	ErrAlreadyConverted = errors.New("tour already converted to a guide")
)

// ContributionFilter narrows ListContributions.  Zero values mean "any".
type ContributionFilter struct {
	OwnerUserID string
	Category    model.Category
	Status      model.Status
	Limit       int
	Offset      int
}

// Store is the non-transactional read side plus a transaction entry point.
type Store interface {
	// InTx runs fn in a single transaction.  The transaction is committed
	// when fn returns nil and rolled back otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	User(ctx context.Context, id string) (model.User, error)
	CreateContribution(ctx context.Context, c model.Contribution) error
	Contribution(ctx context.Context, id string) (model.Contribution, error)
	ListContributions(ctx context.Context, f ContributionFilter) ([]model.Contribution, error)
	// ApprovedTotals sums approved contributions per owner straight from the
	// contribution records.
	ApprovedTotals(ctx context.Context) (map[string]model.LedgerEntry, error)

	LedgerEntry(ctx context.Context, userID string) (model.LedgerEntry, error)
	LedgerEntries(ctx context.Context) ([]model.LedgerEntry, error)
	// LeaderboardEntries returns every leaderboard row, including those with
	// zero points.
	LeaderboardEntries(ctx context.Context) ([]model.LedgerEntry, error)
	Leaderboard(ctx context.Context, limit int) ([]model.LedgerEntry, error)

	CreateTour(ctx context.Context, t *model.Tour) error
	Tour(ctx context.Context, id string) (*model.Tour, error)
	ListTours(ctx context.Context, ownerID string) ([]model.Tour, error)

	Guide(ctx context.Context, id string) (model.Guide, error)
	ListGuides(ctx context.Context, limit, offset int) ([]model.Guide, error)
}

// Tx is the write side available inside InTx.
type Tx interface {
	User(ctx context.Context, id string) (model.User, error)

	// LockContribution reads a record and holds it until the transaction ends.
	LockContribution(ctx context.Context, id string) (model.Contribution, error)
	InsertContribution(ctx context.Context, c model.Contribution) error
	// ApproveContribution moves a pending record to approved with the given
	// points.  It returns ErrNotPending when the record is no longer pending.
	ApproveContribution(ctx context.Context, id, reviewerID string, points int) error
	// RejectContribution moves a pending record to rejected.  It returns
	// ErrNotPending when the record is no longer pending.
	RejectContribution(ctx context.Context, id, reviewerID, reason string) error

	// IncrementLedger adds points to the user's total and one to the category
	// counter, on both the user stats row and the leaderboard projection,
	// creating the rows when absent.
	IncrementLedger(ctx context.Context, user model.User, category model.Category, points int) error
	LedgerEntry(ctx context.Context, userID string) (model.LedgerEntry, error)
	// LockLedger reads the user's stats and leaderboard rows FOR UPDATE.  An
	// absent row is returned as a zero entry.
	LockLedger(ctx context.Context, userID string) (stats, board model.LedgerEntry, err error)
	// ApprovedTotal sums the user's approved contributions.  Called after
	// LockLedger it sees every award whose increment has committed.
	ApprovedTotal(ctx context.Context, userID string) (model.LedgerEntry, error)
	// ReplaceLedger overwrites both ledger rows with entry.
	ReplaceLedger(ctx context.Context, entry model.LedgerEntry) error

	LockTour(ctx context.Context, id string) (*model.Tour, error)
	SaveTour(ctx context.Context, t *model.Tour) error
	// MarkTourConverted flips converted_to_guide to true.  It returns
	// ErrAlreadyConverted when the flag was already set.
	MarkTourConverted(ctx context.Context, id string) error
	InsertGuide(ctx context.Context, g model.Guide) error
}
