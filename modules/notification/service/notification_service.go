package service

import (
	"context"
	"time"

	coreEntity "github.com/Einheit-Zenkai/meet-riders-sub003/core/entity"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/logger"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/params"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/queue"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/notification/dto"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/notification/entity"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/notification/repository"

	"github.com/google/uuid"
)

// Sink is the delivery collaborator (push, websocket bridge, ...). The
// default sink only logs; a failed delivery is not retried beyond the
// queue's bounded retry.
type Sink interface {
	Deliver(ctx context.Context, userID uuid.UUID, notification *entity.Notification) error
}

type logSink struct{}

func (logSink) Deliver(_ context.Context, userID uuid.UUID, n *entity.Notification) error {
	logger.Info("NotificationSink:Deliver", "user_id", userID, "type", n.Type, "event_key", n.EventKey)
	return nil
}

type NotificationService struct {
	repo     repository.NotificationRepositoryInterface
	enqueuer queue.Enqueuer
	sink     Sink
}

func NewNotificationService(repo repository.NotificationRepositoryInterface, enqueuer queue.Enqueuer, sink Sink) *NotificationService {
	if sink == nil {
		sink = logSink{}
	}
	return &NotificationService{repo: repo, enqueuer: enqueuer, sink: sink}
}

// Create stores the workflow event and queues its delivery. A duplicate
// event key is silently suppressed.
func (s *NotificationService) Create(ctx context.Context, req *dto.CreateNotificationRequest) error {
	notif := &entity.Notification{
		UserID:   req.UserID,
		Type:     req.Type,
		Title:    req.Title,
		Message:  req.Message,
		Data:     entity.JSONB(req.Data),
		EventKey: req.EventKey,
		IsRead:   false,
		BaseEntity: coreEntity.BaseEntity{
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
	}

	inserted, err := s.repo.Create(ctx, notif)
	if err != nil {
		return err
	}
	if !inserted {
		logger.Debug("NotificationService:Create:Duplicate", "event_key", req.EventKey)
		return nil
	}

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueNotificationDelivery(ctx, notif.ID, notif.UserID); err != nil {
			// The row is stored; the recipient still sees it on their
			// next notification fetch.
			logger.Error("NotificationService:Create:EnqueueDelivery", "notification_id", notif.ID, "error", err)
		}
	}

	return nil
}

// Deliver pushes a stored notification through the sink. Invoked by the
// queue worker; sink failures are logged and swallowed so the task is
// not retried forever.
func (s *NotificationService) Deliver(ctx context.Context, notificationID, userID uuid.UUID) error {
	notif, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if notif == nil {
		logger.Warn("NotificationService:Deliver:NotFound", "notification_id", notificationID)
		return nil
	}
	if notif.DeliveredAt != nil {
		return nil
	}

	if err := s.sink.Deliver(ctx, userID, notif); err != nil {
		logger.Error("NotificationService:Deliver:SinkError", "notification_id", notificationID, "error", err)
		return nil
	}

	return s.repo.MarkDelivered(ctx, notificationID, time.Now())
}

func (s *NotificationService) GetMyNotifications(ctx context.Context, userID uuid.UUID, queryParams params.QueryParams) (*entity.PaginatedNotificationEntity, error) {
	return s.repo.GetByUserID(ctx, userID, queryParams)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []string) error {
	return s.repo.MarkAsRead(ctx, userID, ids)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
