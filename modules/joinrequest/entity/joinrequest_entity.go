package entity

import (
	"time"

	"github.com/google/uuid"
)

type JoinRequestStatus string

const (
	JoinRequestStatusPending  JoinRequestStatus = "pending"
	JoinRequestStatusAccepted JoinRequestStatus = "accepted"
	JoinRequestStatusDeclined JoinRequestStatus = "declined"
)

// JoinRequest is the host-approval handshake for a gated party. A
// requester holds at most one pending request per party; resolution is
// terminal.
type JoinRequest struct {
	ID          uuid.UUID         `db:"id" json:"id"`
	PartyID     uuid.UUID         `db:"party_id" json:"party_id"`
	RequesterID uuid.UUID         `db:"requester_id" json:"requester_id"`
	Status      JoinRequestStatus `db:"status" json:"status"`
	ResolvedAt  *time.Time        `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}
