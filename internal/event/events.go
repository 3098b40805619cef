package event

import (
	"github.com/google/uuid"

	"github.com/picknic/picknic-backend/internal/model"
)

// Event is anything the dispatcher can carry. Kind names the event for
// routing and logs.
type Event interface {
	Kind() string
	ID() string
}

// PointEvent says a point-earning action happened. The vote module emits
// these; the ledger consumes them off the request path. ReferenceID links
// back to the triggering action and doubles as the dedupe key.
type PointEvent struct {
	EventID     string
	UserID      string
	Type        model.PointType
	Amount      int64
	SchoolName  string
	ReferenceID string
}

func NewPointEvent(userID string, typ model.PointType, amount int64, schoolName, referenceID string) PointEvent {
	return PointEvent{
		EventID:     uuid.NewString(),
		UserID:      userID,
		Type:        typ,
		Amount:      amount,
		SchoolName:  schoolName,
		ReferenceID: referenceID,
	}
}

func (PointEvent) Kind() string { return "point_accrual" }
func (e PointEvent) ID() string { return e.EventID }

// PromotionEvent says a vote was marked (or unmarked) as hot. Marked=false
// deliveries are routed but produce no notification.
type PromotionEvent struct {
	EventID  string
	VoteID   uint64
	Title    string
	Category string
	Marked   bool
}

func NewPromotionEvent(voteID uint64, title, category string, marked bool) PromotionEvent {
	return PromotionEvent{
		EventID:  uuid.NewString(),
		VoteID:   voteID,
		Title:    title,
		Category: category,
		Marked:   marked,
	}
}

func (PromotionEvent) Kind() string { return "vote_promotion" }
func (e PromotionEvent) ID() string { return e.EventID }
