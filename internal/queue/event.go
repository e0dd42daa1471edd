// Package queue defines message payloads exchanged over the message broker.
package queue

// ContributionQueue is the durable queue every ledger event is published to.
const ContributionQueue = "pathik.contributions"

// Event types carried in ContributionEvent.Type.
const (
	EventApproved     = "contribution.approved"
	EventRejected     = "contribution.rejected"
	EventGuideCreated = "guide.created"
)

// ContributionEvent is published after a ledger-affecting transaction
// commits.  It carries enough for downstream consumers (activity log, push
// notifications) to act without querying the database.
type ContributionEvent struct {
	Type           string `json:"type"`
	ContributionID string `json:"contribution_id,omitempty"`
	GuideID        string `json:"guide_id,omitempty"`
	TourID         string `json:"tour_id,omitempty"`
	UserID         string `json:"user_id"`
	DisplayName    string `json:"display_name,omitempty"`
	Category       string `json:"category"`
	Title          string `json:"title,omitempty"`
	Points         int    `json:"points"`
	TotalPoints    int    `json:"total_points"`
	ReviewerID     string `json:"reviewer_id,omitempty"`
	Reason         string `json:"reason,omitempty"`
	OccurredAt     string `json:"occurred_at"`
}
