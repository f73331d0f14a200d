package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	coreEntity "github.com/Einheit-Zenkai/meet-riders-sub003/core/entity"

	"github.com/google/uuid"
)

// Notification types emitted by the join-request workflow.
const (
	TypeJoinRequestCreated  = "join_request_created"
	TypeJoinRequestAccepted = "join_request_accepted"
	TypeJoinRequestDeclined = "join_request_declined"
)

// Notification is one workflow event addressed to one user. EventKey is
// stable per underlying request-row mutation, so re-emitting the same
// transition cannot produce a duplicate row.
type Notification struct {
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	Type        string     `db:"type" json:"type"`
	Title       string     `db:"title" json:"title"`
	Message     string     `db:"message" json:"message"`
	Data        JSONB      `db:"data" json:"data"`
	EventKey    string     `db:"event_key" json:"event_key"`
	IsRead      bool       `db:"is_read" json:"is_read"`
	DeliveredAt *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
	coreEntity.BaseEntity
}

type JSONB map[string]interface{}

func (a JSONB) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *JSONB) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, &a)
}

type PaginatedNotificationEntity = coreEntity.Pagination[Notification]
