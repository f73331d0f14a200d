package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/config"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/constants"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// PartyExpirer is implemented by the party service. Expire must be
// idempotent and must treat a deadline older than the party's current
// expires_at as a stale timer.
type PartyExpirer interface {
	Expire(ctx context.Context, partyID uuid.UUID, deadline time.Time) error
	Prune(ctx context.Context) error
}

// NotificationDeliverer is implemented by the notification service.
type NotificationDeliverer interface {
	Deliver(ctx context.Context, notificationID, userID uuid.UUID) error
}

type Server struct {
	srv       *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
}

func NewServer(cfg *config.Config, expirer PartyExpirer, deliverer NotificationDeliverer) *Server {
	redisOpt := RedisOpt(cfg.Redis)

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypePartyExpire, handlePartyExpire(expirer))
	mux.HandleFunc(TypeExpiredPrune, handleExpiredPrune(expirer))
	mux.HandleFunc(TypeNotificationDeliver, handleNotificationDeliver(deliverer))

	pruneInterval := constants.ExpiredPruneInterval
	if cfg.Party.PruneIntervalSeconds > 0 {
		pruneInterval = time.Duration(cfg.Party.PruneIntervalSeconds) * time.Second
	}

	scheduler := asynq.NewScheduler(redisOpt, nil)
	if _, err := scheduler.Register("@every "+pruneInterval.String(), NewExpiredPruneTask()); err != nil {
		logger.Error("Queue:NewServer:RegisterPrune", "error", err)
	}

	return &Server{srv: srv, scheduler: scheduler, mux: mux}
}

func (s *Server) Start() error {
	if err := s.scheduler.Start(); err != nil {
		return err
	}
	return s.srv.Start(s.mux)
}

func (s *Server) Shutdown() {
	s.scheduler.Shutdown()
	s.srv.Shutdown()
}

func handlePartyExpire(expirer PartyExpirer) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload PartyExpirePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Error("Queue:HandlePartyExpire:BadPayload", "error", err)
			return nil
		}
		return expirer.Expire(ctx, payload.PartyID, payload.Deadline)
	}
}

func handleExpiredPrune(expirer PartyExpirer) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		return expirer.Prune(ctx)
	}
}

func handleNotificationDeliver(deliverer NotificationDeliverer) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload NotificationDeliverPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Error("Queue:HandleNotificationDeliver:BadPayload", "error", err)
			return nil
		}
		return deliverer.Deliver(ctx, payload.NotificationID, payload.UserID)
	}
}
