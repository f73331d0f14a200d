package entity

import (
	"time"

	"github.com/google/uuid"
)

type MembershipStatus string

const (
	MembershipStatusJoined MembershipStatus = "joined"
	MembershipStatusLeft   MembershipStatus = "left"
	MembershipStatusKicked MembershipStatus = "kicked"
)

// Membership is one ledger row. Rows are never deleted: a member who
// leaves and rejoins gets a new row, so the ledger doubles as an audit
// trail. The host has no row and is counted implicitly.
type Membership struct {
	ID       uuid.UUID        `db:"id" json:"id"`
	PartyID  uuid.UUID        `db:"party_id" json:"party_id"`
	UserID   uuid.UUID        `db:"user_id" json:"user_id"`
	Status   MembershipStatus `db:"status" json:"status"`
	JoinedAt time.Time        `db:"joined_at" json:"joined_at"`
	LeftAt   *time.Time       `db:"left_at" json:"left_at,omitempty"`
}
