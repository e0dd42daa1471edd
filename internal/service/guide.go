package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pathik-bd/pathik-api/internal/model"
	"github.com/pathik-bd/pathik-api/internal/store"
)

// Guides publishes user-written travel guides.  Guides skip moderation and
// earn their author the travelGuide award on creation.
type Guides struct {
	store  store.Store
	ledger *Ledger
}

func NewGuides(st store.Store, ledger *Ledger) *Guides {
	return &Guides{store: st, ledger: ledger}
}

// GuideInput is the create request.
type GuideInput struct {
	Title        string   `json:"title"`
	Destination  string   `json:"destination"`
	HowToGo      string   `json:"how_to_go"`
	MustVisit    []string `json:"must_visit"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	TotalExpense float64  `json:"total_expense"`
	Tips         string   `json:"tips"`
}

func (in GuideInput) validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return invalid("title", "is required")
	case strings.TrimSpace(in.Destination) == "":
		return invalid("destination", "is required")
	case strings.TrimSpace(in.HowToGo) == "":
		return invalid("how_to_go", "is required")
	case in.TotalExpense < 0:
		return invalid("total_expense", "must not be negative")
	}
	return nil
}

// Create stores the guide and credits its author in one transaction.
func (s *Guides) Create(ctx context.Context, who model.Identity, in GuideInput) (model.Guide, error) {
	if who.UserID == "" {
		return model.Guide{}, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return model.Guide{}, err
	}
	places := make([]string, 0, len(in.MustVisit))
	for _, p := range in.MustVisit {
		if p = strings.TrimSpace(p); p != "" {
			places = append(places, p)
		}
	}
	g := model.Guide{
		ID:           uuid.NewString(),
		AuthorUserID: who.UserID,
		Title:        strings.TrimSpace(in.Title),
		Destination:  strings.TrimSpace(in.Destination),
		HowToGo:      strings.TrimSpace(in.HowToGo),
		MustVisit:    places,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		TotalExpense: in.TotalExpense,
		Tips:         strings.TrimSpace(in.Tips),
		CreatedAt:    time.Now().UTC(),
	}

	var (
		rec   model.Contribution
		entry model.LedgerEntry
	)
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		if err := tx.InsertGuide(ctx, g); err != nil {
			return err
		}
		var err error
		rec, entry, err = s.ledger.RecordGuideCreationTx(ctx, tx, who.UserID, g.Title, g.ID)
		return err
	})
	if err != nil {
		return model.Guide{}, translate("create guide", err)
	}
	s.ledger.guideCreated(ctx, rec, entry, g)
	return g, nil
}

func (s *Guides) Get(ctx context.Context, id string) (model.Guide, error) {
	g, err := s.store.Guide(ctx, id)
	if err != nil {
		return model.Guide{}, translate("get guide", err)
	}
	return g, nil
}

// List returns guides newest first.
func (s *Guides) List(ctx context.Context, limit, offset int) ([]model.Guide, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	if offset < 0 {
		offset = 0
	}
	out, err := s.store.ListGuides(ctx, limit, offset)
	return out, translate("list guides", err)
}
