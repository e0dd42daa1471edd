package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tour is one planned trip.  Members, expenses, places and todos are kept
// inside the tour document itself (JSON columns on the tours row) and are only
// changed through the methods below.
type Tour struct {
	ID               string    `json:"id"`
	OwnerUserID      string    `json:"owner_user_id"`
	Name             string    `json:"name"`
	Destination      string    `json:"destination"`
	StartDate        string    `json:"start_date,omitempty"`
	EndDate          string    `json:"end_date,omitempty"`
	Members          []string  `json:"members"`
	Budget           float64   `json:"budget"`
	Expenses         []Expense `json:"expenses"`
	Places           []string  `json:"places"`
	Todos            []Todo    `json:"todos"`
	IsActive         bool      `json:"is_active"`
	ConvertedToGuide bool      `json:"converted_to_guide"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Expense is a single payment made by one tour member on behalf of the group.
type Expense struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	PaidBy      string    `json:"paid_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Todo is a checklist item attached to a tour.
type Todo struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// NewTour builds an active tour seeded with its owner as the first member.
func NewTour(ownerID, ownerName, name, destination string, budget float64) *Tour {
	now := time.Now().UTC()
	return &Tour{
		ID:          uuid.NewString(),
		OwnerUserID: ownerID,
		Name:        name,
		Destination: destination,
		Members:     []string{ownerName},
		Budget:      budget,
		Expenses:    []Expense{},
		Places:      []string{},
		Todos:       []Todo{},
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasMember reports whether name is one of the tour's members.
func (t *Tour) HasMember(name string) bool {
	for _, m := range t.Members {
		if m == name {
			return true
		}
	}
	return false
}

// TotalExpenses sums every expense amount.
func (t *Tour) TotalExpenses() float64 {
	var total float64
	for _, e := range t.Expenses {
		total += e.Amount
	}
	return total
}

// AddMember appends a new member name.  Names are trimmed and must be unique.
func (t *Tour) AddMember(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &FieldError{Field: "name", Reason: "is required"}
	}
	if t.HasMember(name) {
		return &FieldError{Field: "name", Reason: "is already a member"}
	}
	t.Members = append(t.Members, name)
	return nil
}

// RemoveMember drops a member.  The owner at index 0 cannot be removed and
// neither can anyone who already paid for an expense, since their payments
// would no longer be attributable.
func (t *Tour) RemoveMember(name string) error {
	idx := -1
	for i, m := range t.Members {
		if m == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &FieldError{Field: "name", Reason: "is not a member"}
	}
	if idx == 0 {
		return &FieldError{Field: "name", Reason: "the tour owner cannot be removed"}
	}
	for _, e := range t.Expenses {
		if e.PaidBy == name {
			return &FieldError{Field: "name", Reason: "member has recorded expenses"}
		}
	}
	t.Members = append(t.Members[:idx], t.Members[idx+1:]...)
	return nil
}

// AddExpense validates and appends an expense with a fresh id.
func (t *Tour) AddExpense(description string, amount float64, paidBy string) (Expense, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Expense{}, &FieldError{Field: "description", Reason: "is required"}
	}
	if !(amount > 0) {
		return Expense{}, &FieldError{Field: "amount", Reason: "must be greater than zero"}
	}
	if !t.HasMember(paidBy) {
		return Expense{}, &FieldError{Field: "paid_by", Reason: "must be a tour member"}
	}
	e := Expense{
		ID:          uuid.NewString(),
		Description: description,
		Amount:      amount,
		PaidBy:      paidBy,
		CreatedAt:   time.Now().UTC(),
	}
	t.Expenses = append(t.Expenses, e)
	return e, nil
}

// RemoveExpense deletes the expense with the given id.  It reports false when
// no such expense exists.
func (t *Tour) RemoveExpense(id string) bool {
	for i, e := range t.Expenses {
		if e.ID == id {
			t.Expenses = append(t.Expenses[:i], t.Expenses[i+1:]...)
			return true
		}
	}
	return false
}

// AddPlace appends a place to visit.
func (t *Tour) AddPlace(place string) error {
	place = strings.TrimSpace(place)
	if place == "" {
		return &FieldError{Field: "place", Reason: "is required"}
	}
	t.Places = append(t.Places, place)
	return nil
}

// RemovePlace removes the place at index i.
func (t *Tour) RemovePlace(i int) bool {
	if i < 0 || i >= len(t.Places) {
		return false
	}
	t.Places = append(t.Places[:i], t.Places[i+1:]...)
	return true
}

// AddTodo appends an open checklist item.
func (t *Tour) AddTodo(text string) (Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Todo{}, &FieldError{Field: "text", Reason: "is required"}
	}
	td := Todo{ID: uuid.NewString(), Text: text}
	t.Todos = append(t.Todos, td)
	return td, nil
}

// ToggleTodo flips the completed flag of the todo with the given id.
func (t *Tour) ToggleTodo(id string) (Todo, bool) {
	for i := range t.Todos {
		if t.Todos[i].ID == id {
			t.Todos[i].Completed = !t.Todos[i].Completed
			return t.Todos[i], true
		}
	}
	return Todo{}, false
}

// RemoveTodo deletes the todo with the given id.
func (t *Tour) RemoveTodo(id string) bool {
	for i, td := range t.Todos {
		if td.ID == id {
			t.Todos = append(t.Todos[:i], t.Todos[i+1:]...)
			return true
		}
	}
	return false
}
