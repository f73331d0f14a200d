package dto

import (
	"time"

	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/joinrequest/entity"

	"github.com/google/uuid"
)

type JoinRequestResponse struct {
	ID          uuid.UUID  `json:"id"`
	PartyID     uuid.UUID  `json:"party_id"`
	RequesterID uuid.UUID  `json:"requester_id"`
	Status      string     `json:"status"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type PendingRequestsResponse struct {
	Requests []JoinRequestResponse `json:"requests"`
	Total    int                   `json:"total"`
}

func ToJoinRequestResponse(r *entity.JoinRequest) *JoinRequestResponse {
	return &JoinRequestResponse{
		ID:          r.ID,
		PartyID:     r.PartyID,
		RequesterID: r.RequesterID,
		Status:      string(r.Status),
		ResolvedAt:  r.ResolvedAt,
		CreatedAt:   r.CreatedAt,
	}
}
