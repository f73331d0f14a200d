package dto

import (
	"time"

	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/entity"

	"github.com/google/uuid"
)

type CreatePartyRequest struct {
	PartySize       int    `json:"party_size" validate:"required,min=1"`
	DurationMinutes int    `json:"duration_minutes"`
	Meetup          string `json:"meetup" validate:"required"`
	Dropoff         string `json:"dropoff" validate:"required"`
	Gated           bool   `json:"gated"`
	Visibility      string `json:"visibility"`
}

type PartyResponse struct {
	ID              uuid.UUID `json:"id"`
	HostID          uuid.UUID `json:"host_id"`
	Status          string    `json:"status"`
	PartySize       int       `json:"party_size"`
	DurationMinutes int       `json:"duration_minutes"`
	ExpiresAt       time.Time `json:"expires_at"`
	Meetup          string    `json:"meetup"`
	Dropoff         string    `json:"dropoff"`
	Gated           bool      `json:"gated"`
	Visibility      string    `json:"visibility"`
	ShareCode       string    `json:"share_code"`
	Slug            string    `json:"slug"`
	Occupancy       int       `json:"occupancy"`
	CreatedAt       time.Time `json:"created_at"`
}

type ExpiredPartyResponse struct {
	PartyID         uuid.UUID `json:"party_id"`
	HostID          uuid.UUID `json:"host_id"`
	PartySize       int       `json:"party_size"`
	DurationMinutes int       `json:"duration_minutes"`
	Meetup          string    `json:"meetup"`
	Dropoff         string    `json:"dropoff"`
	ExpiredAt       time.Time `json:"expired_at"`
	RestoreBy       time.Time `json:"restore_by"`
	CanRestore      bool      `json:"can_restore"`
}

type ExpiredPartiesResponse struct {
	Parties []ExpiredPartyResponse `json:"parties"`
	Total   int                    `json:"total"`
}

func ToPartyResponse(p *entity.Party, occupancy int) *PartyResponse {
	return &PartyResponse{
		ID:              p.ID,
		HostID:          p.HostID,
		Status:          string(p.Status),
		PartySize:       p.PartySize,
		DurationMinutes: p.DurationMinutes,
		ExpiresAt:       p.ExpiresAt,
		Meetup:          p.Meetup,
		Dropoff:         p.Dropoff,
		Gated:           p.Gated,
		Visibility:      p.Visibility,
		ShareCode:       p.ShareCode,
		Slug:            p.Slug,
		Occupancy:       occupancy,
		CreatedAt:       p.CreatedAt,
	}
}

func ToExpiredPartyResponse(e *entity.ExpiredParty, viewerID uuid.UUID, deadline time.Time, now time.Time) ExpiredPartyResponse {
	return ExpiredPartyResponse{
		PartyID:         e.PartyID,
		HostID:          e.HostID,
		PartySize:       e.PartySize,
		DurationMinutes: e.DurationMinutes,
		Meetup:          e.Meetup,
		Dropoff:         e.Dropoff,
		ExpiredAt:       e.ExpiredAt,
		RestoreBy:       deadline,
		CanRestore:      viewerID == e.HostID && now.Before(deadline),
	}
}
