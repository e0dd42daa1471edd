package service

import (
	"context"
	"errors"
	"testing"

	"github.com/pathik-bd/pathik-api/internal/config"
	"github.com/pathik-bd/pathik-api/internal/logger"
	"github.com/pathik-bd/pathik-api/internal/model"
	"github.com/pathik-bd/pathik-api/internal/queue"
)

func newTestTours(t *testing.T) (*Tours, *memStore, *recordingPublisher) {
	t.Helper()
	logger.Discard()
	st := newMemStore(alice, bob)
	l := NewLedger(st, config.DefaultPointTable())
	pub := &recordingPublisher{}
	l.Events = pub
	return NewTours(st, l), st, pub
}

func createTour(t *testing.T, s *Tours) *model.Tour {
	t.Helper()
	tour, err := s.Create(context.Background(), identityOf(alice), TourInput{
		Name: "Sylhet trip", Destination: "Sylhet", StartDate: "2024-12-01", EndDate: "2024-12-04", Budget: 15000,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return tour
}

func TestCreateTourSeedsOwner(t *testing.T) {
	s, _, _ := newTestTours(t)
	tour := createTour(t, s)
	if len(tour.Members) != 1 || tour.Members[0] != DefaultOwnerLabel {
		t.Fatalf("members = %v", tour.Members)
	}
	if !tour.IsActive || tour.ConvertedToGuide {
		t.Fatalf("flags = active %v converted %v", tour.IsActive, tour.ConvertedToGuide)
	}

	_, err := s.Create(context.Background(), identityOf(alice), TourInput{Name: "x", Destination: "y", StartDate: "2024-12-05", EndDate: "2024-12-01"})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "end_date" {
		t.Fatalf("err = %v", err)
	}
}

func TestTourMutationsAndSettlement(t *testing.T) {
	s, _, _ := newTestTours(t)
	ctx := context.Background()
	who := identityOf(alice)
	tour := createTour(t, s)

	for _, m := range []string{"Rafi", "Dina"} {
		if _, err := s.AddMember(ctx, who, tour.ID, m); err != nil {
			t.Fatalf("add member %s: %v", m, err)
		}
	}
	if _, err := s.AddExpense(ctx, who, tour.ID, "bus", 300, DefaultOwnerLabel); err != nil {
		t.Fatalf("expense: %v", err)
	}
	hotel, err := s.AddExpense(ctx, who, tour.ID, "hotel", 600, "Rafi")
	if err != nil {
		t.Fatalf("expense: %v", err)
	}

	if _, err := s.AddExpense(ctx, who, tour.ID, "tea", 50, "Stranger"); err == nil {
		t.Fatal("expected error for non-member payer")
	}

	set, err := s.Settlement(ctx, who, tour.ID)
	if err != nil {
		t.Fatalf("settlement: %v", err)
	}
	if set.Balances["Rafi"] != 300 || set.Balances["Dina"] != -300 || set.Balances[DefaultOwnerLabel] != 0 {
		t.Fatalf("balances = %v", set.Balances)
	}

	if _, err := s.RemoveMember(ctx, who, tour.ID, "Rafi"); err == nil {
		t.Fatal("removed a member with expenses")
	}
	if _, err := s.RemoveMember(ctx, who, tour.ID, DefaultOwnerLabel); err == nil {
		t.Fatal("removed the owner")
	}
	if _, err := s.RemoveExpense(ctx, who, tour.ID, hotel.ID); err != nil {
		t.Fatalf("remove expense: %v", err)
	}
	got, err := s.RemoveMember(ctx, who, tour.ID, "Rafi")
	if err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if len(got.Members) != 2 {
		t.Fatalf("members = %v", got.Members)
	}
	if _, err := s.RemoveExpense(ctx, who, tour.ID, hotel.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("remove missing expense err = %v", err)
	}

	td, err := s.AddTodo(ctx, who, tour.ID, "book tickets")
	if err != nil {
		t.Fatalf("todo: %v", err)
	}
	if td, err = s.ToggleTodo(ctx, who, tour.ID, td.ID); err != nil || !td.Completed {
		t.Fatalf("toggle = %+v, %v", td, err)
	}
	if _, err := s.RemoveTodo(ctx, who, tour.ID, td.ID); err != nil {
		t.Fatalf("remove todo: %v", err)
	}

	if _, err := s.AddPlace(ctx, who, tour.ID, "Ratargul"); err != nil {
		t.Fatalf("place: %v", err)
	}
	if _, err := s.RemovePlace(ctx, who, tour.ID, 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("remove bad place err = %v", err)
	}

	ended, err := s.End(ctx, who, tour.ID)
	if err != nil || ended.IsActive {
		t.Fatalf("end = %+v, %v", ended, err)
	}
}

func TestTourOwnerOnly(t *testing.T) {
	s, st, _ := newTestTours(t)
	tour := createTour(t, s)
	intruder := identityOf(bob)

	if _, err := s.Get(context.Background(), intruder, tour.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("get err = %v", err)
	}
	if _, err := s.AddMember(context.Background(), intruder, tour.ID, "Eve"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("mutate err = %v", err)
	}
	if len(st.state.tours[tour.ID].Members) != 1 {
		t.Fatal("tour changed by non-owner")
	}
	if _, err := s.Get(context.Background(), identityOf(alice), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}

func TestConvertToGuide(t *testing.T) {
	s, st, pub := newTestTours(t)
	ctx := context.Background()
	who := identityOf(alice)
	tour := createTour(t, s)
	if _, err := s.AddPlace(ctx, who, tour.ID, "Jaflong"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddPlace(ctx, who, tour.ID, "Bisnakandi"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddExpense(ctx, who, tour.ID, "bus", 1200, DefaultOwnerLabel); err != nil {
		t.Fatal(err)
	}

	g, err := s.ConvertToGuide(ctx, who, tour.ID, GuideExtra{HowToGo: "Bus from Dhaka"})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if g.Title != "Sylhet trip" || g.Destination != "Sylhet" || g.TotalExpense != 1200 {
		t.Fatalf("guide = %+v", g)
	}
	if len(g.MustVisit) != 2 || g.MustVisit[0] != "Jaflong" || g.SourceTourID == nil || *g.SourceTourID != tour.ID {
		t.Fatalf("guide = %+v", g)
	}
	if converted := st.state.tours[tour.ID]; !converted.ConvertedToGuide || !converted.IsActive {
		t.Fatalf("tour flags after convert = converted %v active %v", converted.ConvertedToGuide, converted.IsActive)
	}
	if e := st.state.stats[alice.ID]; e.TotalPoints != 15 || e.Breakdown.TravelGuides != 1 {
		t.Fatalf("ledger = %+v", e)
	}
	if n := len(pub.events); n != 1 || pub.events[0].Type != queue.EventGuideCreated || pub.events[0].TourID != tour.ID {
		t.Fatalf("events = %+v", pub.events)
	}

	_, err = s.ConvertToGuide(ctx, who, tour.ID, GuideExtra{HowToGo: "again"})
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("second convert err = %v", err)
	}
	if st.increments != 1 || len(st.state.guides) != 1 {
		t.Fatalf("second convert wrote: increments=%d guides=%d", st.increments, len(st.state.guides))
	}

	// Later edits never clear the converted flag.
	if _, err := s.AddTodo(ctx, who, tour.ID, "write thank-you notes"); err != nil {
		t.Fatal(err)
	}
	if !st.state.tours[tour.ID].ConvertedToGuide {
		t.Fatal("converted flag reverted")
	}
}

func TestConvertToGuideValidation(t *testing.T) {
	s, st, pub := newTestTours(t)
	ctx := context.Background()
	who := identityOf(alice)
	tour := createTour(t, s)

	_, err := s.ConvertToGuide(ctx, who, tour.ID, GuideExtra{HowToGo: "Train"})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "places" {
		t.Fatalf("err = %v, want places ValidationError", err)
	}
	if st.state.tours[tour.ID].ConvertedToGuide {
		t.Fatal("converted flag set on failure")
	}
	if st.increments != 0 || len(st.state.stats) != 0 || len(pub.events) != 0 {
		t.Fatal("ledger called on failure")
	}

	if _, err := s.AddPlace(ctx, who, tour.ID, "Lalakhal"); err != nil {
		t.Fatal(err)
	}
	_, err = s.ConvertToGuide(ctx, who, tour.ID, GuideExtra{HowToGo: "  "})
	if !errors.As(err, &ve) || ve.Field != "how_to_go" {
		t.Fatalf("err = %v, want how_to_go ValidationError", err)
	}
	if st.state.tours[tour.ID].ConvertedToGuide || st.increments != 0 {
		t.Fatal("state changed on failure")
	}

	if _, err := s.ConvertToGuide(ctx, identityOf(bob), tour.ID, GuideExtra{HowToGo: "x"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner err = %v", err)
	}
}

func TestGuidesCreateAwardsPoints(t *testing.T) {
	logger.Discard()
	st := newMemStore(alice)
	l := NewLedger(st, config.DefaultPointTable())
	g := NewGuides(st, l)
	ctx := context.Background()

	guide, err := g.Create(ctx, identityOf(alice), GuideInput{
		Title: "Saint Martin", Destination: "Teknaf", HowToGo: "Ship from Teknaf", MustVisit: []string{"Chera Dwip", " "},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(guide.MustVisit) != 1 {
		t.Fatalf("must visit = %v", guide.MustVisit)
	}
	if e := st.state.stats[alice.ID]; e.TotalPoints != 15 || e.Breakdown.TravelGuides != 1 {
		t.Fatalf("ledger = %+v", e)
	}
	got, err := g.Get(ctx, guide.ID)
	if err != nil || got.ID != guide.ID {
		t.Fatalf("get = %+v, %v", got, err)
	}
	if _, err := g.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}
	list, err := g.List(ctx, 0, 0)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %v, %v", list, err)
	}

	_, err = g.Create(ctx, identityOf(alice), GuideInput{Title: "x", Destination: "y"})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "how_to_go" {
		t.Fatalf("err = %v", err)
	}
	if st.increments != 1 {
		t.Fatalf("increments = %d", st.increments)
	}
}
