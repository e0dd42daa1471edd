package model

import "time"

// Breakdown counts approved contributions per category for one user.
type Breakdown struct {
	Restaurants  int `json:"restaurants"`
	Hotels       int `json:"hotels"`
	Markets      int `json:"markets"`
	TravelGuides int `json:"travelGuides"`
}

// Count returns the counter that belongs to category.
func (b Breakdown) Count(category Category) int {
	switch category {
	case CategoryRestaurant:
		return b.Restaurants
	case CategoryHotel:
		return b.Hotels
	case CategoryMarket:
		return b.Markets
	case CategoryTravelGuide:
		return b.TravelGuides
	}
	return 0
}

// Inc increments the counter for category by one.
func (b *Breakdown) Inc(category Category) { b.Add(category, 1) }

// Add adds n to the counter for category.  Unknown categories are ignored.
func (b *Breakdown) Add(category Category, n int) {
	switch category {
	case CategoryRestaurant:
		b.Restaurants += n
	case CategoryHotel:
		b.Hotels += n
	case CategoryMarket:
		b.Markets += n
	case CategoryTravelGuide:
		b.TravelGuides += n
	}
}

// LedgerEntry is a user's running point total and category breakdown.  The
// same shape backs both the user_stats table and the public leaderboard
// projection.
type LedgerEntry struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	TotalPoints int       `json:"total_points"`
	Breakdown   Breakdown `json:"breakdown"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Apply records one more approved contribution of category worth points.
func (e *LedgerEntry) Apply(category Category, points int) {
	e.TotalPoints += points
	e.Breakdown.Inc(category)
}

// RankedEntry is a leaderboard row with its 1-based position.
type RankedEntry struct {
	Rank int `json:"rank"`
	LedgerEntry
}
