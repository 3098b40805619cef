package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/picknic/picknic-backend/internal/model"
	"github.com/picknic/picknic-backend/internal/repository"
)

// PushSink is the outbound delivery boundary for promotion signals. The
// real transport (SNS, FCM, ...) lives outside this engine; the engine's
// only obligation is to hand the signal over without blocking the promoting
// action.
type PushSink interface {
	PublishHotVote(ctx context.Context, voteID uint64, title, category string) error
}

// LogPushSink is the default sink: it just records the signal.
type LogPushSink struct{}

func (LogPushSink) PublishHotVote(_ context.Context, voteID uint64, title, category string) error {
	log.WithFields(log.Fields{"vote_id": voteID, "title": title, "category": category}).
		Info("hot vote push signal")
	return nil
}

type NotificationService interface {
	// NotifyHotVote fans a promotion signal out to the push sink and writes
	// a notification row for every user. Best-effort on both legs.
	NotifyHotVote(ctx context.Context, voteID uint64, title, category string)
	List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	MarkAllRead(ctx context.Context, userID string) error
}

type notificationService struct {
	repo  repository.NotificationRepository
	users repository.UserRepository
	sink  PushSink
}

func NewNotificationService(repo repository.NotificationRepository, users repository.UserRepository, sink PushSink) NotificationService {
	if sink == nil {
		sink = LogPushSink{}
	}
	return &notificationService{repo: repo, users: users, sink: sink}
}

func (s *notificationService) NotifyHotVote(ctx context.Context, voteID uint64, title, category string) {
	if err := s.sink.PublishHotVote(ctx, voteID, title, category); err != nil {
		log.WithField("vote_id", voteID).WithError(err).Error("hot vote push failed")
	}

	userIDs, err := s.users.ListUserIDs(ctx)
	if err != nil {
		log.WithField("vote_id", voteID).WithError(err).Error("hot vote fan-out: listing users failed")
		return
	}

	id := voteID
	ns := make([]model.Notification, 0, len(userIDs))
	for _, uid := range userIDs {
		ns = append(ns, model.Notification{
			UserID: uid,
			Type:   "hot_vote",
			Title:  "A vote is trending",
			Body:   fmt.Sprintf("%s (%s)", title, category),
			VoteID: &id,
		})
	}
	if err := s.repo.CreateBatch(ctx, ns); err != nil {
		log.WithField("vote_id", voteID).WithError(err).Error("hot vote fan-out: notification insert failed")
	}
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	if userID == "" {
		return nil, 0, nil
	}
	list, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	cnt, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return list, 0, err
	}
	return list, cnt, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return s.repo.MarkAllRead(ctx, userID)
}
