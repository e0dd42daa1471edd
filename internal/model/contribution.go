package model

import (
	"encoding/json"
	"time"
)

// Category identifies what kind of thing a user contributed.  The string
// values are what is persisted in contributions.category and returned over
// the API.
type Category string

const (
	CategoryRestaurant  Category = "restaurant"
	CategoryHotel       Category = "hotel"
	CategoryMarket      Category = "market"
	CategoryTravelGuide Category = "travelGuide"
)

// Categories lists every known category in display order.
var Categories = []Category{CategoryRestaurant, CategoryHotel, CategoryMarket, CategoryTravelGuide}

// ParseCategory maps a raw string onto a known Category.  The plural forms
// used by the directory routes ("restaurants", "hotels") are accepted too.
func ParseCategory(raw string) (Category, bool) {
	switch raw {
	case "restaurant", "restaurants":
		return CategoryRestaurant, true
	case "hotel", "hotels", "resort", "resorts":
		return CategoryHotel, true
	case "market", "markets":
		return CategoryMarket, true
	case "travelGuide", "travelGuides", "guide", "guides":
		return CategoryTravelGuide, true
	}
	return "", false
}

// Moderated reports whether submissions of this category go through the
// pending/approve/reject workflow.  Travel guides are approved on creation.
func (c Category) Moderated() bool {
	return c == CategoryRestaurant || c == CategoryHotel || c == CategoryMarket
}

// Status is the moderation state of a contribution.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Contribution mirrors a row of the `contributions` table.  One row exists
// per submitted restaurant, hotel, market or travel guide.
//
// Fields:
//  ID            – UUID of the record.
//  OwnerUserID   – user who submitted it.
//  Category      – restaurant | hotel | market | travelGuide.
//  Status        – pending | approved | rejected.
//  PointsAwarded – 0 until approved, then fixed by the point table.
//  Title         – name of the place or guide.
//  Location      – district/area free text.
//  Details       – remaining form fields, stored as JSON.
//  RejectReason  – moderator note, set only when rejected.
//  ReviewedBy    – moderator user id, set on approve/reject.
//  CreatedAt     – submission time.
//  ReviewedAt    – moderation time (nil while pending).
type Contribution struct {
	ID            string          `json:"id"`
	OwnerUserID   string          `json:"owner_user_id"`
	Category      Category        `json:"category"`
	Status        Status          `json:"status"`
	PointsAwarded int             `json:"points_awarded"`
	Title         string          `json:"title"`
	Location      string          `json:"location,omitempty"`
	Details       json.RawMessage `json:"details,omitempty"`
	RejectReason  string          `json:"reject_reason,omitempty"`
	ReviewedBy    string          `json:"reviewed_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	ReviewedAt    *time.Time      `json:"reviewed_at,omitempty"`
}

// Consistent reports whether the record honours the rule that points are
// awarded exactly when the record is approved.
func (c Contribution) Consistent() bool {
	if c.Status == StatusApproved {
		return c.PointsAwarded > 0
	}
	return c.PointsAwarded == 0
}
