// Package service holds the business rules of the API: point accounting for
// contributions, tour expense settlement and guide publishing.  Handlers
// call into it with an already-authenticated identity; persistence goes
// through the store interfaces so the rules can be tested without MySQL.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pathik-bd/pathik-api/internal/config"
	"github.com/pathik-bd/pathik-api/internal/logger"
	"github.com/pathik-bd/pathik-api/internal/model"
	"github.com/pathik-bd/pathik-api/internal/observability"
	"github.com/pathik-bd/pathik-api/internal/queue"
	"github.com/pathik-bd/pathik-api/internal/store"
)

// Cache route tags.  Public read routes are registered under these tags and
// ledger writes invalidate them.
const (
	RouteLeaderboard = "leaderboard"
	RouteStats       = "stats"
	RouteDirectory   = "directory"
	RouteGuides      = "guides"
)

const (
	DefaultLeaderboardLimit = 20
	MaxLeaderboardLimit     = 100
)

// EventPublisher receives ledger events after their transaction commits.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ContributionEvent) error
}

// CacheInvalidator drops cached responses for the given route tags.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, routes ...string)
}

// Ledger awards points for approved contributions and created guides.  The
// status transition and both ledger rows are written in one transaction,
// so a record is scored at most once and the stats and leaderboard rows
// never disagree.
//
// Events, Cache and Metrics are optional.
type Ledger struct {
	store  store.Store
	points config.PointTable

	Events  EventPublisher
	Cache   CacheInvalidator
	Metrics *observability.Metrics
}

func NewLedger(st store.Store, points config.PointTable) *Ledger {
	return &Ledger{store: st, points: points}
}

// Points exposes the configured point table.
func (l *Ledger) Points() config.PointTable { return l.points }

// Submit stores a new pending contribution for who.  Only moderated
// categories can be submitted; guides go through Guides.Create.
func (l *Ledger) Submit(ctx context.Context, who model.Identity, category model.Category, title, location string, details json.RawMessage) (model.Contribution, error) {
	if who.UserID == "" {
		return model.Contribution{}, ErrForbidden
	}
	if !category.Moderated() {
		return model.Contribution{}, invalid("category", "must be restaurant, hotel or market")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Contribution{}, invalid("title", "is required")
	}
	if len(details) > 0 && !json.Valid(details) {
		return model.Contribution{}, invalid("details", "must be a JSON object")
	}
	c := model.Contribution{
		ID:          uuid.NewString(),
		OwnerUserID: who.UserID,
		Category:    category,
		Status:      model.StatusPending,
		Title:       title,
		Location:    strings.TrimSpace(location),
		Details:     details,
		CreatedAt:   time.Now().UTC(),
	}
	if err := l.store.CreateContribution(ctx, c); err != nil {
		return model.Contribution{}, translate("submit contribution", err)
	}
	logger.WithFields(logrus.Fields{
		"record_id": c.ID, "user_id": c.OwnerUserID, "category": c.Category,
	}).Info("contribution submitted")
	return c, nil
}

// RecordApproval moves a pending submission to approved, fixes its points
// from the point table and credits the owner.  It returns the approved
// record and the owner's ledger entry after the credit.
func (l *Ledger) RecordApproval(ctx context.Context, reviewer model.Identity, recordID string) (model.Contribution, model.LedgerEntry, error) {
	if !reviewer.IsAdmin() {
		return model.Contribution{}, model.LedgerEntry{}, ErrForbidden
	}
	if strings.TrimSpace(recordID) == "" {
		return model.Contribution{}, model.LedgerEntry{}, invalid("id", "is required")
	}

	var (
		rec   model.Contribution
		entry model.LedgerEntry
	)
	err := l.store.InTx(ctx, func(tx store.Tx) error {
		c, err := tx.LockContribution(ctx, recordID)
		if err != nil {
			return err
		}
		if !c.Category.Moderated() {
			return invalid("category", "is not subject to moderation")
		}
		if c.Status != model.StatusPending {
			return fmt.Errorf("approve %s: %w: record is %s", c.ID, ErrAlreadyProcessed, c.Status)
		}
		owner, err := tx.User(ctx, c.OwnerUserID)
		if err != nil {
			return err
		}
		points := l.points.Points(c.Category)
		if err := tx.ApproveContribution(ctx, c.ID, reviewer.UserID, points); err != nil {
			return err
		}
		if err := tx.IncrementLedger(ctx, owner, c.Category, points); err != nil {
			return err
		}
		if entry, err = tx.LedgerEntry(ctx, owner.ID); err != nil {
			return err
		}

		now := time.Now().UTC()
		c.Status = model.StatusApproved
		c.PointsAwarded = points
		c.ReviewedBy = reviewer.UserID
		c.ReviewedAt = &now
		rec = c
		return nil
	})
	if err != nil {
		return model.Contribution{}, model.LedgerEntry{}, translate("record approval", err)
	}

	l.Metrics.Approved(string(rec.Category), rec.PointsAwarded)
	l.invalidate(ctx, RouteLeaderboard, RouteStats, RouteDirectory)
	l.publish(ctx, queue.ContributionEvent{
		Type:           queue.EventApproved,
		ContributionID: rec.ID,
		UserID:         rec.OwnerUserID,
		DisplayName:    entry.DisplayName,
		Category:       string(rec.Category),
		Title:          rec.Title,
		Points:         rec.PointsAwarded,
		TotalPoints:    entry.TotalPoints,
		ReviewerID:     reviewer.UserID,
	})
	logger.WithFields(logrus.Fields{
		"record_id": rec.ID, "user_id": rec.OwnerUserID, "category": rec.Category,
		"points": rec.PointsAwarded, "total_points": entry.TotalPoints,
	}).Info("contribution approved")
	return rec, entry, nil
}

// RejectSubmission moves a pending submission to rejected.  The reason is
// required and the ledger is not touched.
func (l *Ledger) RejectSubmission(ctx context.Context, reviewer model.Identity, recordID, reason string) (model.Contribution, error) {
	if !reviewer.IsAdmin() {
		return model.Contribution{}, ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return model.Contribution{}, invalid("reason", "is required")
	}
	if strings.TrimSpace(recordID) == "" {
		return model.Contribution{}, invalid("id", "is required")
	}

	var rec model.Contribution
	err := l.store.InTx(ctx, func(tx store.Tx) error {
		c, err := tx.LockContribution(ctx, recordID)
		if err != nil {
			return err
		}
		if c.Status != model.StatusPending {
			return fmt.Errorf("reject %s: %w: record is %s", c.ID, ErrAlreadyProcessed, c.Status)
		}
		if err := tx.RejectContribution(ctx, c.ID, reviewer.UserID, reason); err != nil {
			return err
		}
		now := time.Now().UTC()
		c.Status = model.StatusRejected
		c.RejectReason = reason
		c.ReviewedBy = reviewer.UserID
		c.ReviewedAt = &now
		rec = c
		return nil
	})
	if err != nil {
		return model.Contribution{}, translate("reject submission", err)
	}

	l.Metrics.Rejected()
	l.publish(ctx, queue.ContributionEvent{
		Type:           queue.EventRejected,
		ContributionID: rec.ID,
		UserID:         rec.OwnerUserID,
		Category:       string(rec.Category),
		Title:          rec.Title,
		ReviewerID:     reviewer.UserID,
		Reason:         reason,
	})
	logger.WithFields(logrus.Fields{
		"record_id": rec.ID, "user_id": rec.OwnerUserID, "category": rec.Category,
	}).Info("contribution rejected")
	return rec, nil
}

// RecordGuideCreation credits userID for a newly created guide in its own
// transaction.
func (l *Ledger) RecordGuideCreation(ctx context.Context, userID, title string) (model.LedgerEntry, error) {
	var (
		rec   model.Contribution
		entry model.LedgerEntry
	)
	err := l.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		rec, entry, err = l.RecordGuideCreationTx(ctx, tx, userID, title, "")
		return err
	})
	if err != nil {
		return model.LedgerEntry{}, translate("record guide creation", err)
	}
	l.guideCreated(ctx, rec, entry, model.Guide{Title: title})
	return entry, nil
}

// RecordGuideCreationTx writes an approved travelGuide contribution for
// userID and increments the ledger, inside the caller's transaction.  The
// caller publishes the outcome with guideCreated once the transaction has
// committed.
func (l *Ledger) RecordGuideCreationTx(ctx context.Context, tx store.Tx, userID, title, guideID string) (model.Contribution, model.LedgerEntry, error) {
	user, err := tx.User(ctx, userID)
	if err != nil {
		return model.Contribution{}, model.LedgerEntry{}, err
	}
	points := l.points.Points(model.CategoryTravelGuide)
	now := time.Now().UTC()
	rec := model.Contribution{
		ID:            uuid.NewString(),
		OwnerUserID:   user.ID,
		Category:      model.CategoryTravelGuide,
		Status:        model.StatusApproved,
		PointsAwarded: points,
		Title:         title,
		CreatedAt:     now,
		ReviewedAt:    &now,
	}
	if guideID != "" {
		rec.Details, _ = json.Marshal(map[string]string{"guide_id": guideID})
	}
	if err := tx.InsertContribution(ctx, rec); err != nil {
		return model.Contribution{}, model.LedgerEntry{}, err
	}
	if err := tx.IncrementLedger(ctx, user, model.CategoryTravelGuide, points); err != nil {
		return model.Contribution{}, model.LedgerEntry{}, err
	}
	entry, err := tx.LedgerEntry(ctx, user.ID)
	if err != nil {
		return model.Contribution{}, model.LedgerEntry{}, err
	}
	return rec, entry, nil
}

func (l *Ledger) guideCreated(ctx context.Context, rec model.Contribution, entry model.LedgerEntry, g model.Guide) {
	l.Metrics.GuideCreated(string(rec.Category), rec.PointsAwarded)
	l.invalidate(ctx, RouteLeaderboard, RouteStats, RouteGuides)
	ev := queue.ContributionEvent{
		Type:           queue.EventGuideCreated,
		ContributionID: rec.ID,
		GuideID:        g.ID,
		UserID:         rec.OwnerUserID,
		DisplayName:    entry.DisplayName,
		Category:       string(rec.Category),
		Title:          g.Title,
		Points:         rec.PointsAwarded,
		TotalPoints:    entry.TotalPoints,
	}
	if g.SourceTourID != nil {
		ev.TourID = *g.SourceTourID
	}
	l.publish(ctx, ev)
	logger.WithFields(logrus.Fields{
		"record_id": rec.ID, "user_id": rec.OwnerUserID, "guide_id": g.ID,
		"points": rec.PointsAwarded, "total_points": entry.TotalPoints,
	}).Info("guide points recorded")
}

// Contribution returns one record to its owner or to an admin.  Other
// callers get ErrForbidden.
func (l *Ledger) Contribution(ctx context.Context, who model.Identity, recordID string) (model.Contribution, error) {
	if who.UserID == "" {
		return model.Contribution{}, ErrForbidden
	}
	c, err := l.store.Contribution(ctx, recordID)
	if err != nil {
		return model.Contribution{}, translate("get contribution", err)
	}
	if c.OwnerUserID != who.UserID && !who.IsAdmin() {
		return model.Contribution{}, ErrForbidden
	}
	return c, nil
}

// ProfileChanged drops cached leaderboard and stats responses after userID
// changed the name or photo they carry.
func (l *Ledger) ProfileChanged(ctx context.Context, userID string) {
	l.invalidate(ctx, RouteLeaderboard, RouteStats)
	logger.WithField("user_id", userID).Debug("profile changed, ledger reads invalidated")
}

// ListPending returns submissions waiting for moderation, newest first.
func (l *Ledger) ListPending(ctx context.Context, limit, offset int) ([]model.Contribution, error) {
	out, err := l.store.ListContributions(ctx, store.ContributionFilter{
		Status: model.StatusPending, Limit: limit, Offset: offset,
	})
	return out, translate("list pending", err)
}

// ListByOwner returns every contribution userID made, in any status.
func (l *Ledger) ListByOwner(ctx context.Context, userID string, limit, offset int) ([]model.Contribution, error) {
	out, err := l.store.ListContributions(ctx, store.ContributionFilter{
		OwnerUserID: userID, Limit: limit, Offset: offset,
	})
	return out, translate("list contributions", err)
}

// Directory lists the approved entries of one category.
func (l *Ledger) Directory(ctx context.Context, category model.Category, limit, offset int) ([]model.Contribution, error) {
	out, err := l.store.ListContributions(ctx, store.ContributionFilter{
		Category: category, Status: model.StatusApproved, Limit: limit, Offset: offset,
	})
	return out, translate("list directory", err)
}

// Leaderboard returns the top entries by total points.  A non-positive
// limit selects the default; larger requests are capped.
func (l *Ledger) Leaderboard(ctx context.Context, limit int) ([]model.RankedEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	entries, err := l.store.Leaderboard(ctx, limit)
	if err != nil {
		return nil, translate("leaderboard", err)
	}
	out := make([]model.RankedEntry, len(entries))
	for i, e := range entries {
		out[i] = model.RankedEntry{Rank: i + 1, LedgerEntry: e}
	}
	return out, nil
}

// Stats returns the ledger entry of userID.  A known user without any
// award yet gets a zero entry.
func (l *Ledger) Stats(ctx context.Context, userID string) (model.LedgerEntry, error) {
	e, err := l.store.LedgerEntry(ctx, userID)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, store.ErrEntryNotFound) {
		return model.LedgerEntry{}, translate("stats", err)
	}
	u, err := l.store.User(ctx, userID)
	if err != nil {
		return model.LedgerEntry{}, translate("stats", err)
	}
	return model.LedgerEntry{UserID: u.ID, DisplayName: u.DisplayName, PhotoURL: u.PhotoURL}, nil
}

// Reconcile rebuilds ledger entries from the approved contribution records
// and overwrites the stats and leaderboard rows that drifted.  It returns
// the number of users repaired.
//
// The unlocked scan only picks candidates.  Each candidate is then checked
// again in its own transaction with both rows locked, so an approval that
// commits during the scan is never overwritten.
func (l *Ledger) Reconcile(ctx context.Context) (int, error) {
	ids, err := l.driftCandidates(ctx)
	if err != nil {
		return 0, translate("reconcile", err)
	}

	var repaired []model.LedgerEntry
	for _, id := range ids {
		e, fixed, err := l.reconcileUser(ctx, id)
		if err != nil {
			l.repaired(ctx, repaired)
			return len(repaired), translate("reconcile "+id, err)
		}
		if fixed {
			repaired = append(repaired, e)
		}
	}
	l.repaired(ctx, repaired)
	return len(repaired), nil
}

// driftCandidates returns, sorted, the users whose stats or leaderboard row
// disagrees with the approved records.
func (l *Ledger) driftCandidates(ctx context.Context) ([]string, error) {
	want, err := l.store.ApprovedTotals(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := l.store.LedgerEntries(ctx)
	if err != nil {
		return nil, err
	}
	board, err := l.store.LeaderboardEntries(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var ids []string
	flag := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, rows := range [][]model.LedgerEntry{stats, board} {
		present := make(map[string]bool, len(rows))
		for _, e := range rows {
			present[e.UserID] = true
			if !sameCounts(e, want[e.UserID]) {
				flag(e.UserID)
			}
		}
		for id, w := range want {
			if !present[id] && !sameCounts(w, model.LedgerEntry{}) {
				flag(id)
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// reconcileUser recomputes one user's entry under the row locks and
// replaces both rows when either differs.
func (l *Ledger) reconcileUser(ctx context.Context, userID string) (model.LedgerEntry, bool, error) {
	var (
		want  model.LedgerEntry
		fixed bool
	)
	err := l.store.InTx(ctx, func(tx store.Tx) error {
		stats, board, err := tx.LockLedger(ctx, userID)
		if err != nil {
			return err
		}
		if want, err = tx.ApprovedTotal(ctx, userID); err != nil {
			return err
		}
		if sameCounts(stats, want) && sameCounts(board, want) {
			return nil
		}
		u, err := tx.User(ctx, userID)
		if err != nil {
			return err
		}
		want.UserID, want.DisplayName, want.PhotoURL = u.ID, u.DisplayName, u.PhotoURL
		if err := tx.ReplaceLedger(ctx, want); err != nil {
			return err
		}
		fixed = true
		return nil
	})
	if err != nil || !fixed {
		return model.LedgerEntry{}, false, err
	}
	if exp := l.points.Expected(want.Breakdown); exp != want.TotalPoints {
		// Awards keep the points in force when they were made.
		logger.WithFields(logrus.Fields{
			"user_id": userID, "total_points": want.TotalPoints, "current_table": exp,
		}).Info("awarded points differ from the current point table")
	}
	return want, true, nil
}

func (l *Ledger) repaired(ctx context.Context, entries []model.LedgerEntry) {
	if len(entries) == 0 {
		return
	}
	for _, e := range entries {
		logger.WithFields(logrus.Fields{
			"user_id": e.UserID, "total_points": e.TotalPoints,
		}).Warn("ledger entry repaired")
	}
	l.Metrics.Repaired(len(entries))
	l.invalidate(ctx, RouteLeaderboard, RouteStats)
}

func sameCounts(a, b model.LedgerEntry) bool {
	return a.TotalPoints == b.TotalPoints && a.Breakdown == b.Breakdown
}

func (l *Ledger) publish(ctx context.Context, ev queue.ContributionEvent) {
	if l.Events == nil {
		return
	}
	if ev.OccurredAt == "" {
		ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := l.Events.Publish(ctx, ev); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"event": ev.Type, "user_id": ev.UserID, "record_id": ev.ContributionID,
		}).Warn("event not published")
	}
}

func (l *Ledger) invalidate(ctx context.Context, routes ...string) {
	if l.Cache != nil {
		l.Cache.Invalidate(ctx, routes...)
	}
}
