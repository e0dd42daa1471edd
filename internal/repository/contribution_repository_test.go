package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/pathik-bd/pathik-api/internal/model"
	"github.com/pathik-bd/pathik-api/internal/store"
)

var errDriver = errors.New("driver failure")

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func sqlLike(fragment string) string { return regexp.QuoteMeta(fragment) }

func TestApproveOnlyMovesPendingRecords(t *testing.T) {
	const approveSQL = "UPDATE contributions SET status = 'approved', points_awarded = ?, reviewed_by = ?, reviewed_at = UTC_TIMESTAMP() WHERE id = ? AND status = 'pending'"
	cases := []struct {
		name     string
		affected int64
		want     error
	}{
		{"pending", 1, nil},
		{"already processed", 0, store.ErrNotPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMock(t)
			mock.ExpectExec(sqlLike(approveSQL)).
				WithArgs(10, "u-admin", "r1").
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			err := NewContributionRepo(db).Approve(context.Background(), db, "r1", "u-admin", 10)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRejectOnlyMovesPendingRecords(t *testing.T) {
	const rejectSQL = "UPDATE contributions SET status = 'rejected', reject_reason = ?, reviewed_by = ?, reviewed_at = UTC_TIMESTAMP() WHERE id = ? AND status = 'pending'"
	cases := []struct {
		name     string
		affected int64
		want     error
	}{
		{"pending", 1, nil},
		{"already processed", 0, store.ErrNotPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMock(t)
			mock.ExpectExec(sqlLike(rejectSQL)).
				WithArgs("closed down", "u-admin", "r1").
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			err := NewContributionRepo(db).Reject(context.Background(), db, "r1", "u-admin", "closed down")
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestApprovePassesDriverErrorsThrough(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(sqlLike("WHERE id = ? AND status = 'pending'")).WillReturnError(errDriver)

	err := NewContributionRepo(db).Approve(context.Background(), db, "r1", "u-admin", 10)
	if !errors.Is(err, errDriver) {
		t.Fatalf("err = %v", err)
	}
}

func TestApprovedTotalSumsOneOwner(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(sqlLike("FROM contributions WHERE owner_user_id = ? AND status = 'approved' GROUP BY category")).
		WithArgs("u-alice").
		WillReturnRows(sqlmock.NewRows([]string{"category", "count", "points"}).
			AddRow("restaurant", 2, 20).
			AddRow("travelGuide", 1, 15))

	e, err := NewContributionRepo(db).ApprovedTotal(context.Background(), db, "u-alice")
	if err != nil {
		t.Fatalf("approved total: %v", err)
	}
	want := model.LedgerEntry{UserID: "u-alice", TotalPoints: 35, Breakdown: model.Breakdown{Restaurants: 2, TravelGuides: 1}}
	if e != want {
		t.Fatalf("entry = %+v, want %+v", e, want)
	}
}

func TestStoreInTxCommitsOrRollsBack(t *testing.T) {
	t.Run("commit", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(sqlLike("WHERE id = ? AND status = 'pending'")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := NewStore(db).InTx(context.Background(), func(tx store.Tx) error {
			return tx.ApproveContribution(context.Background(), "r1", "u-admin", 10)
		})
		if err != nil {
			t.Fatalf("in tx: %v", err)
		}
	})

	t.Run("rollback on not pending", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(sqlLike("WHERE id = ? AND status = 'pending'")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := NewStore(db).InTx(context.Background(), func(tx store.Tx) error {
			return tx.ApproveContribution(context.Background(), "r1", "u-admin", 10)
		})
		if !errors.Is(err, store.ErrNotPending) {
			t.Fatalf("err = %v", err)
		}
	})
}
