package config

import "github.com/pathik-bd/pathik-api/internal/model"

// PointTable maps each contribution category to the points awarded when a
// contribution of that category is approved.  Ledger code reads points only
// through this table so values can be tuned from the environment.
type PointTable struct {
	Restaurant  int
	Hotel       int
	Market      int
	TravelGuide int
}

// DefaultPointTable returns {restaurant:10, hotel:10, market:10, travelGuide:15}.
func DefaultPointTable() PointTable {
	return PointTable{Restaurant: 10, Hotel: 10, Market: 10, TravelGuide: 15}
}

// LoadPointTable reads POINTS_RESTAURANT, POINTS_HOTEL, POINTS_MARKET and
// POINTS_TRAVEL_GUIDE.  Non-positive values fall back to the default for that
// category, since a zero award would break the approved-iff-points rule.
func LoadPointTable() PointTable {
	def := DefaultPointTable()
	return PointTable{
		Restaurant:  positive(envInt("POINTS_RESTAURANT", def.Restaurant), def.Restaurant),
		Hotel:       positive(envInt("POINTS_HOTEL", def.Hotel), def.Hotel),
		Market:      positive(envInt("POINTS_MARKET", def.Market), def.Market),
		TravelGuide: positive(envInt("POINTS_TRAVEL_GUIDE", def.TravelGuide), def.TravelGuide),
	}
}

func positive(v, d int) int {
	if v < 1 {
		return d
	}
	return v
}

// Points returns the award for category, or 0 for an unknown category.
func (p PointTable) Points(category model.Category) int {
	switch category {
	case model.CategoryRestaurant:
		return p.Restaurant
	case model.CategoryHotel:
		return p.Hotel
	case model.CategoryMarket:
		return p.Market
	case model.CategoryTravelGuide:
		return p.TravelGuide
	}
	return 0
}

// Expected returns the total a ledger entry with breakdown b must carry.
func (p PointTable) Expected(b model.Breakdown) int {
	total := 0
	for _, c := range model.Categories {
		total += b.Count(c) * p.Points(c)
	}
	return total
}
