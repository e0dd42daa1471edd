package model

import "time"

// Guide is a published travel guide.  Guides are either written directly by a
// user or derived from a finished tour, in which case SourceTourID points at
// that tour and is unique across all guides.
type Guide struct {
	ID           string    `json:"id"`
	AuthorUserID string    `json:"author_user_id"`
	SourceTourID *string   `json:"source_tour_id,omitempty"`
	Title        string    `json:"title"`
	Destination  string    `json:"destination"`
	HowToGo      string    `json:"how_to_go"`
	MustVisit    []string  `json:"must_visit"`
	Members      []string  `json:"members,omitempty"`
	StartDate    string    `json:"start_date,omitempty"`
	EndDate      string    `json:"end_date,omitempty"`
	TotalExpense float64   `json:"total_expense"`
	Tips         string    `json:"tips,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
