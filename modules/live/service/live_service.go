package service

import (
	"context"
	"strings"
	"time"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/errors"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/logger"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/live/entity"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/live/transport"
	partyEntity "github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/entity"

	"github.com/google/uuid"
)

type PartyReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*partyEntity.Party, error)
}

type LiveServiceInterface interface {
	PublishLocation(ctx context.Context, partyID, userID uuid.UUID, lat, lng float64, ts int64) *errors.AppError
	PublishChat(ctx context.Context, partyID, userID uuid.UUID, text string, ts int64) *errors.AppError
	PublishStatus(ctx context.Context, partyID, userID uuid.UUID, kind entity.StatusKind, ts int64) *errors.AppError
	Subscribe(ctx context.Context, partyID, userID uuid.UUID) (*transport.Subscription, *errors.AppError)
	Drop(partyID, userID uuid.UUID)
}

// LiveService is the session-scoped broadcast channel for an active
// party. Publishing checks the party is live, not that the publisher is
// a ledger member; peers ignore events from non-members.
type LiveService struct {
	transport transport.Transport
	parties   PartyReader
}

func NewLiveService(t transport.Transport, parties PartyReader) *LiveService {
	return &LiveService{
		transport: t,
		parties:   parties,
	}
}

func (s *LiveService) PublishLocation(ctx context.Context, partyID, userID uuid.UUID, lat, lng float64, ts int64) *errors.AppError {
	return s.publish(ctx, &entity.LiveEvent{
		PartyID:  partyID,
		MemberID: userID,
		Type:     entity.EventTypeLocation,
		Lat:      lat,
		Lng:      lng,
		TS:       ts,
	})
}

func (s *LiveService) PublishChat(ctx context.Context, partyID, userID uuid.UUID, text string, ts int64) *errors.AppError {
	if strings.TrimSpace(text) == "" {
		return errors.NewAppError(errors.ErrInvalidInput, "Chat text is required", nil)
	}
	return s.publish(ctx, &entity.LiveEvent{
		PartyID:  partyID,
		MemberID: userID,
		Type:     entity.EventTypeChat,
		Text:     text,
		TS:       ts,
	})
}

func (s *LiveService) PublishStatus(ctx context.Context, partyID, userID uuid.UUID, kind entity.StatusKind, ts int64) *errors.AppError {
	if !entity.ValidStatusKind(kind) {
		return errors.NewAppError(errors.ErrInvalidInput, "Unknown status kind", nil)
	}
	return s.publish(ctx, &entity.LiveEvent{
		PartyID:  partyID,
		MemberID: userID,
		Type:     entity.EventTypeStatus,
		Kind:     kind,
		TS:       ts,
	})
}

func (s *LiveService) Subscribe(ctx context.Context, partyID, userID uuid.UUID) (*transport.Subscription, *errors.AppError) {
	if appErr := s.checkActive(ctx, partyID); appErr != nil {
		return nil, appErr
	}

	sub, err := s.transport.Subscribe(ctx, partyID, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrTransport, "Failed to subscribe to party channel", err)
	}
	logger.Info("LiveService:Subscribe:Attached", "party_id", partyID, "user_id", userID)
	return sub, nil
}

// Drop severs a member's live subscription. The membership ledger calls
// this when a member is kicked.
func (s *LiveService) Drop(partyID, userID uuid.UUID) {
	s.transport.Drop(partyID, userID)
	logger.Info("LiveService:Drop:Severed", "party_id", partyID, "user_id", userID)
}

func (s *LiveService) publish(ctx context.Context, event *entity.LiveEvent) *errors.AppError {
	if appErr := s.checkActive(ctx, event.PartyID); appErr != nil {
		return appErr
	}
	if event.TS == 0 {
		event.TS = time.Now().UnixMilli()
	}
	if err := s.transport.Publish(ctx, event); err != nil {
		return errors.NewAppError(errors.ErrTransport, "Failed to publish live event", err)
	}
	return nil
}

func (s *LiveService) checkActive(ctx context.Context, partyID uuid.UUID) *errors.AppError {
	party, err := s.parties.GetByID(ctx, partyID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to load party", err)
	}
	if party == nil {
		return errors.NewAppError(errors.ErrNotFound, "Party not found", nil)
	}
	switch {
	case party.Status == partyEntity.PartyStatusCanceled:
		return errors.NewAppError(errors.ErrPartyCanceled, "Party has been canceled", nil)
	case party.Status != partyEntity.PartyStatusActive || !party.ExpiresAt.After(time.Now()):
		return errors.NewAppError(errors.ErrPartyExpired, "Party has expired", nil)
	}
	return nil
}
