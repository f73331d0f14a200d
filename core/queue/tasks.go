package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TypePartyExpire         = "party:expire"
	TypeExpiredPrune        = "party:prune_expired"
	TypeNotificationDeliver = "notification:deliver"
)

// PartyExpirePayload carries the deadline the task was scheduled for so
// a handler can recognize a stale timer after a restore re-armed the
// clock with a later expires_at.
type PartyExpirePayload struct {
	PartyID  uuid.UUID `json:"party_id"`
	Deadline time.Time `json:"deadline"`
}

type NotificationDeliverPayload struct {
	NotificationID uuid.UUID `json:"notification_id"`
	UserID         uuid.UUID `json:"user_id"`
}

func NewPartyExpireTask(partyID uuid.UUID, deadline time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(PartyExpirePayload{PartyID: partyID, Deadline: deadline})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePartyExpire, payload), nil
}

func NewExpiredPruneTask() *asynq.Task {
	return asynq.NewTask(TypeExpiredPrune, nil)
}

func NewNotificationDeliverTask(notificationID, userID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(NotificationDeliverPayload{NotificationID: notificationID, UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeNotificationDeliver, payload), nil
}
