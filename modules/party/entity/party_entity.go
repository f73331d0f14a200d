package entity

import (
	"time"

	"github.com/google/uuid"
)

// PartyStatus represents the lifecycle state of a party
type PartyStatus string

const (
	PartyStatusActive   PartyStatus = "active"
	PartyStatusExpired  PartyStatus = "expired"
	PartyStatusCanceled PartyStatus = "canceled"
)

// Party is a time-bounded, capacity-limited ride-share group. PartySize
// counts the host, so the ledger may hold at most PartySize-1 joined
// members. ExpiresAt only ever moves forward, and only through an
// explicit restore.
type Party struct {
	ID              uuid.UUID   `db:"id" json:"id"`
	HostID          uuid.UUID   `db:"host_id" json:"host_id"`
	Status          PartyStatus `db:"status" json:"status"`
	PartySize       int         `db:"party_size" json:"party_size"`
	DurationMinutes int         `db:"duration_minutes" json:"duration_minutes"`
	ExpiresAt       time.Time   `db:"expires_at" json:"expires_at"`
	Meetup          string      `db:"meetup" json:"meetup"`
	Dropoff         string      `db:"dropoff" json:"dropoff"`
	Gated           bool        `db:"gated" json:"gated"`
	Visibility      string      `db:"visibility" json:"visibility"`
	ShareCode       string      `db:"share_code" json:"share_code"`
	Slug            string      `db:"slug" json:"slug"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// Duration returns the configured active window length.
func (p *Party) Duration() time.Duration {
	return time.Duration(p.DurationMinutes) * time.Minute
}

// ExpiredParty snapshots a party's descriptors at the moment it expired.
// The record is only visible, and the party only restorable, within the
// grace window after ExpiredAt.
type ExpiredParty struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PartyID         uuid.UUID `db:"party_id" json:"party_id"`
	HostID          uuid.UUID `db:"host_id" json:"host_id"`
	PartySize       int       `db:"party_size" json:"party_size"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Meetup          string    `db:"meetup" json:"meetup"`
	Dropoff         string    `db:"dropoff" json:"dropoff"`
	ExpiredAt       time.Time `db:"expired_at" json:"expired_at"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// RestoreDeadline is the last instant the host may restore the party.
func (e *ExpiredParty) RestoreDeadline(grace time.Duration) time.Time {
	return e.ExpiredAt.Add(grace)
}
