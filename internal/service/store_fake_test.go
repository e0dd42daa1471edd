package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/pathik-bd/pathik-api/internal/model"
	"github.com/pathik-bd/pathik-api/internal/queue"
	"github.com/pathik-bd/pathik-api/internal/store"
)

// memState is everything the fake persists.  InTx works on a copy and
// swaps it in on success, so a failed transaction leaves nothing behind.
type memState struct {
	users    map[string]model.User
	records  map[string]model.Contribution
	stats    map[string]model.LedgerEntry
	board    map[string]model.LedgerEntry
	tours    map[string]model.Tour
	guides   map[string]model.Guide
	guideSrc map[string]bool
}

func (s memState) clone() memState {
	c := memState{
		users:    map[string]model.User{},
		records:  map[string]model.Contribution{},
		stats:    map[string]model.LedgerEntry{},
		board:    map[string]model.LedgerEntry{},
		tours:    map[string]model.Tour{},
		guides:   map[string]model.Guide{},
		guideSrc: map[string]bool{},
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.records {
		c.records[k] = v
	}
	for k, v := range s.stats {
		c.stats[k] = v
	}
	for k, v := range s.board {
		c.board[k] = v
	}
	for k, v := range s.tours {
		c.tours[k] = copyTour(v)
	}
	for k, v := range s.guides {
		c.guides[k] = v
	}
	for k, v := range s.guideSrc {
		c.guideSrc[k] = v
	}
	return c
}

func copyTour(t model.Tour) model.Tour {
	t.Members = append([]string{}, t.Members...)
	t.Expenses = append([]model.Expense{}, t.Expenses...)
	t.Places = append([]string{}, t.Places...)
	t.Todos = append([]model.Todo{}, t.Todos...)
	return t
}

type memStore struct {
	mu    sync.Mutex
	state memState

	// counters observed by tests
	increments int
	commits    int

	failIncrement error
}

var _ store.Store = (*memStore)(nil)

func newMemStore(users ...model.User) *memStore {
	m := &memStore{state: memState{}.clone()}
	for _, u := range users {
		m.state.users[u.ID] = u
	}
	return m
}

func (m *memStore) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memTx{m: m, s: m.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = tx.s
	m.commits++
	return nil
}

func (m *memStore) User(ctx context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.state.users[id]
	if !ok {
		return model.User{}, store.ErrUserNotFound
	}
	return u, nil
}

func (m *memStore) CreateContribution(ctx context.Context, c model.Contribution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.records[c.ID] = c
	return nil
}

func (m *memStore) Contribution(ctx context.Context, id string) (model.Contribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.state.records[id]
	if !ok {
		return model.Contribution{}, store.ErrContributionNotFound
	}
	return c, nil
}

func (m *memStore) ListContributions(ctx context.Context, f store.ContributionFilter) ([]model.Contribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Contribution{}
	for _, c := range m.state.records {
		if f.OwnerUserID != "" && c.OwnerUserID != f.OwnerUserID {
			continue
		}
		if f.Category != "" && c.Category != f.Category {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) ApprovedTotals(ctx context.Context) (map[string]model.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.approvedTotals(""), nil
}

// approvedTotals sums approved records per owner, for one owner when
// userID is set.
func (s memState) approvedTotals(userID string) map[string]model.LedgerEntry {
	out := map[string]model.LedgerEntry{}
	for _, c := range s.records {
		if c.Status != model.StatusApproved || (userID != "" && c.OwnerUserID != userID) {
			continue
		}
		e := out[c.OwnerUserID]
		e.UserID = c.OwnerUserID
		e.DisplayName = s.users[c.OwnerUserID].DisplayName
		e.Apply(c.Category, c.PointsAwarded)
		out[c.OwnerUserID] = e
	}
	return out
}

func (m *memStore) LedgerEntry(ctx context.Context, userID string) (model.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.state.stats[userID]
	if !ok {
		return model.LedgerEntry{}, store.ErrEntryNotFound
	}
	return e, nil
}

func (m *memStore) LedgerEntries(ctx context.Context) ([]model.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.LedgerEntry{}
	for _, e := range m.state.stats {
		out = append(out, e)
	}
	return out, nil
}

func (m *memStore) LeaderboardEntries(ctx context.Context) ([]model.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.LedgerEntry{}
	for _, e := range m.state.board {
		out = append(out, e)
	}
	return out, nil
}

func (m *memStore) Leaderboard(ctx context.Context, limit int) ([]model.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.LedgerEntry{}
	for _, e := range m.state.board {
		if e.TotalPoints > 0 {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		return out[i].UserID < out[j].UserID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) CreateTour(ctx context.Context, t *model.Tour) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.tours[t.ID] = copyTour(*t)
	return nil
}

func (m *memStore) Tour(ctx context.Context, id string) (*model.Tour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.state.tours[id]
	if !ok {
		return nil, store.ErrTourNotFound
	}
	c := copyTour(t)
	return &c, nil
}

func (m *memStore) ListTours(ctx context.Context, ownerID string) ([]model.Tour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Tour{}
	for _, t := range m.state.tours {
		if t.OwnerUserID == ownerID {
			out = append(out, copyTour(t))
		}
	}
	return out, nil
}

func (m *memStore) Guide(ctx context.Context, id string) (model.Guide, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.state.guides[id]
	if !ok {
		return model.Guide{}, store.ErrGuideNotFound
	}
	return g, nil
}

func (m *memStore) ListGuides(ctx context.Context, limit, offset int) ([]model.Guide, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Guide{}
	for _, g := range m.state.guides {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []model.Guide{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memTx struct {
	m *memStore
	s memState
}

func (t *memTx) User(ctx context.Context, id string) (model.User, error) {
	u, ok := t.s.users[id]
	if !ok {
		return model.User{}, store.ErrUserNotFound
	}
	return u, nil
}

func (t *memTx) LockContribution(ctx context.Context, id string) (model.Contribution, error) {
	c, ok := t.s.records[id]
	if !ok {
		return model.Contribution{}, store.ErrContributionNotFound
	}
	return c, nil
}

func (t *memTx) InsertContribution(ctx context.Context, c model.Contribution) error {
	t.s.records[c.ID] = c
	return nil
}

func (t *memTx) ApproveContribution(ctx context.Context, id, reviewerID string, points int) error {
	c, ok := t.s.records[id]
	if !ok || c.Status != model.StatusPending {
		return store.ErrNotPending
	}
	now := time.Now().UTC()
	c.Status = model.StatusApproved
	c.PointsAwarded = points
	c.ReviewedBy = reviewerID
	c.ReviewedAt = &now
	t.s.records[id] = c
	return nil
}

func (t *memTx) RejectContribution(ctx context.Context, id, reviewerID, reason string) error {
	c, ok := t.s.records[id]
	if !ok || c.Status != model.StatusPending {
		return store.ErrNotPending
	}
	now := time.Now().UTC()
	c.Status = model.StatusRejected
	c.RejectReason = reason
	c.ReviewedBy = reviewerID
	c.ReviewedAt = &now
	t.s.records[id] = c
	return nil
}

func (t *memTx) IncrementLedger(ctx context.Context, user model.User, category model.Category, points int) error {
	if t.m.failIncrement != nil {
		return t.m.failIncrement
	}
	t.m.increments++
	for _, tbl := range []map[string]model.LedgerEntry{t.s.stats, t.s.board} {
		e := tbl[user.ID]
		e.UserID = user.ID
		e.DisplayName = user.DisplayName
		e.PhotoURL = user.PhotoURL
		e.Apply(category, points)
		tbl[user.ID] = e
	}
	return nil
}

func (t *memTx) LedgerEntry(ctx context.Context, userID string) (model.LedgerEntry, error) {
	e, ok := t.s.stats[userID]
	if !ok {
		return model.LedgerEntry{}, store.ErrEntryNotFound
	}
	return e, nil
}

func (t *memTx) LockLedger(ctx context.Context, userID string) (model.LedgerEntry, model.LedgerEntry, error) {
	stats, ok := t.s.stats[userID]
	if !ok {
		stats = model.LedgerEntry{UserID: userID}
	}
	board, ok := t.s.board[userID]
	if !ok {
		board = model.LedgerEntry{UserID: userID}
	}
	return stats, board, nil
}

func (t *memTx) ApprovedTotal(ctx context.Context, userID string) (model.LedgerEntry, error) {
	e, ok := t.s.approvedTotals(userID)[userID]
	if !ok {
		e = model.LedgerEntry{UserID: userID}
	}
	return e, nil
}

func (t *memTx) ReplaceLedger(ctx context.Context, e model.LedgerEntry) error {
	t.s.stats[e.UserID] = e
	t.s.board[e.UserID] = e
	return nil
}

func (t *memTx) LockTour(ctx context.Context, id string) (*model.Tour, error) {
	tr, ok := t.s.tours[id]
	if !ok {
		return nil, store.ErrTourNotFound
	}
	c := copyTour(tr)
	return &c, nil
}

func (t *memTx) SaveTour(ctx context.Context, tour *model.Tour) error {
	prev := t.s.tours[tour.ID]
	c := copyTour(*tour)
	c.ConvertedToGuide = prev.ConvertedToGuide
	t.s.tours[tour.ID] = c
	return nil
}

func (t *memTx) MarkTourConverted(ctx context.Context, id string) error {
	tr, ok := t.s.tours[id]
	if !ok {
		return store.ErrTourNotFound
	}
	if tr.ConvertedToGuide {
		return store.ErrAlreadyConverted
	}
	tr.ConvertedToGuide = true
	t.s.tours[id] = tr
	return nil
}

func (t *memTx) InsertGuide(ctx context.Context, g model.Guide) error {
	if g.SourceTourID != nil {
		if t.s.guideSrc[*g.SourceTourID] {
			return store.ErrAlreadyConverted
		}
		t.s.guideSrc[*g.SourceTourID] = true
	}
	t.s.guides[g.ID] = g
	return nil
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	events []queue.ContributionEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev queue.ContributionEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// recordingCache keeps every invalidated tag.
type recordingCache struct {
	tags []string
}

func (c *recordingCache) Invalidate(ctx context.Context, routes ...string) {
	c.tags = append(c.tags, routes...)
}

var errBoom = errors.New("boom")
