package dto

import (
	"time"

	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/membership/entity"

	"github.com/google/uuid"
)

type MembershipResponse struct {
	ID       uuid.UUID `json:"id"`
	PartyID  uuid.UUID `json:"party_id"`
	UserID   uuid.UUID `json:"user_id"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joined_at"`
}

type RosterResponse struct {
	PartyID   uuid.UUID            `json:"party_id"`
	HostID    uuid.UUID            `json:"host_id"`
	Members   []MembershipResponse `json:"members"`
	Occupancy int                  `json:"occupancy"`
	PartySize int                  `json:"party_size"`
}

type KickRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

func ToMembershipResponse(m *entity.Membership) *MembershipResponse {
	return &MembershipResponse{
		ID:       m.ID,
		PartyID:  m.PartyID,
		UserID:   m.UserID,
		Status:   string(m.Status),
		JoinedAt: m.JoinedAt,
	}
}
