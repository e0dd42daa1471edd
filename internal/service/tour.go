package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pathik-bd/pathik-api/internal/logger"
	"github.com/pathik-bd/pathik-api/internal/model"
	"github.com/pathik-bd/pathik-api/internal/observability"
	"github.com/pathik-bd/pathik-api/internal/store"
)

// DefaultOwnerLabel is the member name a tour owner appears under when the
// client does not supply one.
const DefaultOwnerLabel = "আমি"

// Tours manages tour documents.  Every mutation locks the tour row, applies
// the change in memory and writes the document back in one transaction.
type Tours struct {
	store  store.Store
	ledger *Ledger

	Metrics *observability.Metrics
}

func NewTours(st store.Store, ledger *Ledger) *Tours {
	return &Tours{store: st, ledger: ledger}
}

// TourInput is the create request.
type TourInput struct {
	Name        string  `json:"name"`
	Destination string  `json:"destination"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Budget      float64 `json:"budget"`
	OwnerLabel  string  `json:"owner_label"`
}

// GuideExtra carries the fields a tour cannot supply on conversion.
type GuideExtra struct {
	Title   string `json:"title"`
	HowToGo string `json:"how_to_go"`
	Tips    string `json:"tips"`
}

const dateLayout = "2006-01-02"

func (in TourInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "is required")
	}
	if strings.TrimSpace(in.Destination) == "" {
		return invalid("destination", "is required")
	}
	if in.Budget < 0 {
		return invalid("budget", "must not be negative")
	}
	var start, end time.Time
	var err error
	if in.StartDate != "" {
		if start, err = time.Parse(dateLayout, in.StartDate); err != nil {
			return invalid("start_date", "must be YYYY-MM-DD")
		}
	}
	if in.EndDate != "" {
		if end, err = time.Parse(dateLayout, in.EndDate); err != nil {
			return invalid("end_date", "must be YYYY-MM-DD")
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return invalid("end_date", "must not be before start_date")
	}
	return nil
}

// Create starts a new active tour owned by who.
func (s *Tours) Create(ctx context.Context, who model.Identity, in TourInput) (*model.Tour, error) {
	if who.UserID == "" {
		return nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	label := strings.TrimSpace(in.OwnerLabel)
	if label == "" {
		label = DefaultOwnerLabel
	}
	t := model.NewTour(who.UserID, label, strings.TrimSpace(in.Name), strings.TrimSpace(in.Destination), in.Budget)
	t.StartDate = in.StartDate
	t.EndDate = in.EndDate
	if err := s.store.CreateTour(ctx, t); err != nil {
		return nil, translate("create tour", err)
	}
	logger.WithFields(logrus.Fields{"tour_id": t.ID, "user_id": who.UserID}).Info("tour created")
	return t, nil
}

// Get returns one of who's tours.
func (s *Tours) Get(ctx context.Context, who model.Identity, tourID string) (*model.Tour, error) {
	t, err := s.store.Tour(ctx, tourID)
	if err != nil {
		return nil, translate("get tour", err)
	}
	if t.OwnerUserID != who.UserID {
		return nil, ErrForbidden
	}
	return t, nil
}

// List returns who's tours, newest first.
func (s *Tours) List(ctx context.Context, who model.Identity) ([]model.Tour, error) {
	out, err := s.store.ListTours(ctx, who.UserID)
	return out, translate("list tours", err)
}

// mutate runs fn against the locked tour and saves the result.  Nothing is
// written when fn fails.
func (s *Tours) mutate(ctx context.Context, op string, who model.Identity, tourID string, fn func(t *model.Tour) error) (*model.Tour, error) {
	var out *model.Tour
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		t, err := tx.LockTour(ctx, tourID)
		if err != nil {
			return err
		}
		if t.OwnerUserID != who.UserID {
			return ErrForbidden
		}
		if err := fn(t); err != nil {
			return err
		}
		t.UpdatedAt = time.Now().UTC()
		if err := tx.SaveTour(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, translate(op, err)
	}
	return out, nil
}

func notFound(what string) error { return fmt.Errorf("%w: %s", ErrNotFound, what) }

func (s *Tours) AddMember(ctx context.Context, who model.Identity, tourID, name string) (*model.Tour, error) {
	return s.mutate(ctx, "add member", who, tourID, func(t *model.Tour) error {
		return t.AddMember(name)
	})
}

// RemoveMember refuses the owner and anyone with recorded expenses.
func (s *Tours) RemoveMember(ctx context.Context, who model.Identity, tourID, name string) (*model.Tour, error) {
	return s.mutate(ctx, "remove member", who, tourID, func(t *model.Tour) error {
		return t.RemoveMember(name)
	})
}

// AddExpense validates and appends an expense.  The payer must already be
// a member.
func (s *Tours) AddExpense(ctx context.Context, who model.Identity, tourID, description string, amount float64, paidBy string) (model.Expense, error) {
	var added model.Expense
	_, err := s.mutate(ctx, "add expense", who, tourID, func(t *model.Tour) error {
		var err error
		added, err = t.AddExpense(description, amount, paidBy)
		return err
	})
	if err != nil {
		return model.Expense{}, err
	}
	return added, nil
}

func (s *Tours) RemoveExpense(ctx context.Context, who model.Identity, tourID, expenseID string) (*model.Tour, error) {
	return s.mutate(ctx, "remove expense", who, tourID, func(t *model.Tour) error {
		if !t.RemoveExpense(expenseID) {
			return notFound("expense " + expenseID)
		}
		return nil
	})
}

func (s *Tours) AddPlace(ctx context.Context, who model.Identity, tourID, place string) (*model.Tour, error) {
	return s.mutate(ctx, "add place", who, tourID, func(t *model.Tour) error {
		return t.AddPlace(place)
	})
}

func (s *Tours) RemovePlace(ctx context.Context, who model.Identity, tourID string, index int) (*model.Tour, error) {
	return s.mutate(ctx, "remove place", who, tourID, func(t *model.Tour) error {
		if !t.RemovePlace(index) {
			return notFound(fmt.Sprintf("place %d", index))
		}
		return nil
	})
}

func (s *Tours) AddTodo(ctx context.Context, who model.Identity, tourID, text string) (model.Todo, error) {
	var added model.Todo
	_, err := s.mutate(ctx, "add todo", who, tourID, func(t *model.Tour) error {
		var err error
		added, err = t.AddTodo(text)
		return err
	})
	if err != nil {
		return model.Todo{}, err
	}
	return added, nil
}

func (s *Tours) ToggleTodo(ctx context.Context, who model.Identity, tourID, todoID string) (model.Todo, error) {
	var toggled model.Todo
	_, err := s.mutate(ctx, "toggle todo", who, tourID, func(t *model.Tour) error {
		td, ok := t.ToggleTodo(todoID)
		if !ok {
			return notFound("todo " + todoID)
		}
		toggled = td
		return nil
	})
	if err != nil {
		return model.Todo{}, err
	}
	return toggled, nil
}

func (s *Tours) RemoveTodo(ctx context.Context, who model.Identity, tourID, todoID string) (*model.Tour, error) {
	return s.mutate(ctx, "remove todo", who, tourID, func(t *model.Tour) error {
		if !t.RemoveTodo(todoID) {
			return notFound("todo " + todoID)
		}
		return nil
	})
}

// End marks the tour inactive.  Ending an ended tour is a no-op.
func (s *Tours) End(ctx context.Context, who model.Identity, tourID string) (*model.Tour, error) {
	return s.mutate(ctx, "end tour", who, tourID, func(t *model.Tour) error {
		t.IsActive = false
		return nil
	})
}

// Settlement computes the equal-split balances of a tour.
func (s *Tours) Settlement(ctx context.Context, who model.Identity, tourID string) (Settlement, error) {
	t, err := s.Get(ctx, who, tourID)
	if err != nil {
		return Settlement{}, err
	}
	return ComputeSettlement(t.Members, t.Expenses)
}

// ConvertToGuide publishes a finished tour as a travel guide and credits
// the owner.  A tour converts at most once: the converted flag is flipped
// with a conditional write in the same transaction as the guide insert and
// the ledger increment.
func (s *Tours) ConvertToGuide(ctx context.Context, who model.Identity, tourID string, extra GuideExtra) (model.Guide, error) {
	howToGo := strings.TrimSpace(extra.HowToGo)
	if howToGo == "" {
		return model.Guide{}, invalid("how_to_go", "is required")
	}

	var (
		guide model.Guide
		rec   model.Contribution
		entry model.LedgerEntry
	)
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		t, err := tx.LockTour(ctx, tourID)
		if err != nil {
			return err
		}
		if t.OwnerUserID != who.UserID {
			return ErrForbidden
		}
		if t.ConvertedToGuide {
			return fmt.Errorf("convert %s: %w", t.ID, ErrAlreadyProcessed)
		}
		if len(t.Places) == 0 {
			return invalid("places", "must not be empty")
		}

		title := strings.TrimSpace(extra.Title)
		if title == "" {
			title = t.Name
		}
		srcID := t.ID
		guide = model.Guide{
			ID:           uuid.NewString(),
			AuthorUserID: t.OwnerUserID,
			SourceTourID: &srcID,
			Title:        title,
			Destination:  t.Destination,
			HowToGo:      howToGo,
			MustVisit:    append([]string(nil), t.Places...),
			Members:      append([]string(nil), t.Members...),
			StartDate:    t.StartDate,
			EndDate:      t.EndDate,
			TotalExpense: t.TotalExpenses(),
			Tips:         strings.TrimSpace(extra.Tips),
			CreatedAt:    time.Now().UTC(),
		}
		if err := tx.MarkTourConverted(ctx, t.ID); err != nil {
			return err
		}
		if err := tx.InsertGuide(ctx, guide); err != nil {
			return err
		}
		rec, entry, err = s.ledger.RecordGuideCreationTx(ctx, tx, t.OwnerUserID, guide.Title, guide.ID)
		return err
	})
	if err != nil {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			logger.WithError(err).WithField("tour_id", tourID).Warn("tour conversion failed")
		}
		return model.Guide{}, translate("convert tour", err)
	}

	s.Metrics.TourConverted()
	s.ledger.guideCreated(ctx, rec, entry, guide)
	return guide, nil
}
