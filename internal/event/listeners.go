package event

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/picknic/picknic-backend/internal/apperrors"
	"github.com/picknic/picknic-backend/internal/service"
)

// PointListener feeds PointEvents into the ledger. Business rejections
// (quota exceeded) are expected outcomes and logged at warn; system
// failures bubble up so the dispatcher records them at error.
type PointListener struct {
	points service.PointService
}

func NewPointListener(points service.PointService) *PointListener {
	return &PointListener{points: points}
}

func (l *PointListener) Name() string { return "point_accrual" }

func (l *PointListener) Handle(ctx context.Context, ev Event) error {
	pe, ok := ev.(PointEvent)
	if !ok {
		return nil
	}

	err := l.points.Accrue(ctx, pe.UserID, pe.Type, pe.Amount, pe.SchoolName, pe.ReferenceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrQuotaExceeded) {
			log.WithFields(log.Fields{
				"user_id":  pe.UserID,
				"type":     pe.Type,
				"event_id": pe.EventID,
			}).Warn("accrual rejected: daily limit reached")
			return nil
		}
		return err
	}
	return nil
}

// PromotionListener routes hot-vote signals to the notification fan-out.
type PromotionListener struct {
	notifications service.NotificationService
}

func NewPromotionListener(notifications service.NotificationService) *PromotionListener {
	return &PromotionListener{notifications: notifications}
}

func (l *PromotionListener) Name() string { return "vote_promotion" }

func (l *PromotionListener) Handle(ctx context.Context, ev Event) error {
	pe, ok := ev.(PromotionEvent)
	if !ok {
		return nil
	}
	if !pe.Marked {
		log.WithField("vote_id", pe.VoteID).Info("vote unmarked as hot, no notification")
		return nil
	}
	l.notifications.NotifyHotVote(ctx, pe.VoteID, pe.Title, pe.Category)
	return nil
}
