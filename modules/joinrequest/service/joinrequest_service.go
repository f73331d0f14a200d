package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/errors"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/logger"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/joinrequest/dto"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/joinrequest/entity"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/joinrequest/repository"
	membershipService "github.com/Einheit-Zenkai/meet-riders-sub003/modules/membership/service"
	notifDto "github.com/Einheit-Zenkai/meet-riders-sub003/modules/notification/dto"
	notifEntity "github.com/Einheit-Zenkai/meet-riders-sub003/modules/notification/entity"
	notifService "github.com/Einheit-Zenkai/meet-riders-sub003/modules/notification/service"
	partyEntity "github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/entity"

	"github.com/google/uuid"
)

type PartyReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*partyEntity.Party, error)
}

type JoinRequestServiceInterface interface {
	Request(ctx context.Context, partyID, requesterID uuid.UUID) (*dto.JoinRequestResponse, *errors.AppError)
	Approve(ctx context.Context, requestID, actingHost uuid.UUID) (*dto.JoinRequestResponse, *errors.AppError)
	Decline(ctx context.Context, requestID, actingHost uuid.UUID) (*dto.JoinRequestResponse, *errors.AppError)
	ListPending(ctx context.Context, partyID, actingHost uuid.UUID) (*dto.PendingRequestsResponse, *errors.AppError)
	PendingCount(ctx context.Context, partyID, actingHost uuid.UUID) (int, *errors.AppError)
}

// JoinRequestService mediates the host-approval handshake for gated
// parties. Exactly-once resolution rides on the repository's
// conditional update; the capacity bound is revalidated at approval
// time by delegating to the membership ledger's Join.
type JoinRequestService struct {
	repo       repository.JoinRequestRepositoryInterface
	parties    PartyReader
	membership membershipService.MembershipServiceInterface
	notifier   *notifService.NotificationService
}

func NewJoinRequestService(repo repository.JoinRequestRepositoryInterface, parties PartyReader, membership membershipService.MembershipServiceInterface, notifier *notifService.NotificationService) JoinRequestServiceInterface {
	return &JoinRequestService{
		repo:       repo,
		parties:    parties,
		membership: membership,
		notifier:   notifier,
	}
}

func (s *JoinRequestService) Request(ctx context.Context, partyID, requesterID uuid.UUID) (*dto.JoinRequestResponse, *errors.AppError) {
	party, appErr := s.loadParty(ctx, partyID)
	if appErr != nil {
		return nil, appErr
	}

	if !party.Gated {
		return nil, errors.NewAppError(errors.ErrPartyNotGated, "Party is open, join directly", nil)
	}
	if party.HostID == requesterID {
		return nil, errors.NewAppError(errors.ErrAlreadyMember, "Host is already a member", nil)
	}

	joined, appErr := s.membership.IsJoined(ctx, partyID, requesterID)
	if appErr != nil {
		return nil, appErr
	}
	if joined {
		return nil, errors.NewAppError(errors.ErrAlreadyMember, "Already a member of this party", nil)
	}

	req, err := s.repo.CreateIfNoPending(ctx, partyID, requesterID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to create join request", err)
	}
	if req == nil {
		return nil, errors.NewAppError(errors.ErrAlreadyPending, "A pending request already exists for this party", nil)
	}

	logger.Info("JoinRequestService:Request:Created", "request_id", req.ID, "party_id", partyID, "requester_id", requesterID)
	s.notify(ctx, party.HostID, notifEntity.TypeJoinRequestCreated, "New join request",
		"Someone asked to join your party", req)

	return dto.ToJoinRequestResponse(req), nil
}

func (s *JoinRequestService) Approve(ctx context.Context, requestID, actingHost uuid.UUID) (*dto.JoinRequestResponse, *errors.AppError) {
	req, party, appErr := s.loadForResolution(ctx, requestID, actingHost)
	if appErr != nil {
		return nil, appErr
	}

	// Capacity may have filled between request and approval; the join
	// is the atomic check. PartyFull leaves the request pending so the
	// host can re-decide after a seat frees up.
	_, joinErr := s.membership.Join(ctx, req.PartyID, req.RequesterID)
	if joinErr != nil && !errors.Is(joinErr, errors.ErrAlreadyMember) {
		logger.Warn("JoinRequestService:Approve:JoinRejected", "request_id", requestID, "code", joinErr.Code)
		return nil, joinErr
	}
	joinedNow := joinErr == nil

	now := time.Now()
	ok, err := s.repo.ResolveIf(ctx, requestID, entity.JoinRequestStatusAccepted, now)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to resolve join request", err)
	}
	if !ok {
		// Lost the resolution race. If a concurrent Decline won, the
		// join above must not stand: a declined request leaves no
		// membership behind. A concurrent Approve winning keeps it.
		if joinedNow {
			s.revertJoinIfDeclined(ctx, req.PartyID, req.RequesterID, requestID)
		}
		return nil, errors.NewAppError(errors.ErrAlreadyResolved, "Join request already resolved", nil)
	}

	req.Status = entity.JoinRequestStatusAccepted
	req.ResolvedAt = &now

	logger.Info("JoinRequestService:Approve:Accepted", "request_id", requestID, "party_id", party.ID)
	s.notify(ctx, req.RequesterID, notifEntity.TypeJoinRequestAccepted, "Join request accepted",
		"Your request to join the party was accepted", req)

	return dto.ToJoinRequestResponse(req), nil
}

func (s *JoinRequestService) Decline(ctx context.Context, requestID, actingHost uuid.UUID) (*dto.JoinRequestResponse, *errors.AppError) {
	req, _, appErr := s.loadForResolution(ctx, requestID, actingHost)
	if appErr != nil {
		return nil, appErr
	}

	now := time.Now()
	ok, err := s.repo.ResolveIf(ctx, requestID, entity.JoinRequestStatusDeclined, now)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to resolve join request", err)
	}
	if !ok {
		return nil, errors.NewAppError(errors.ErrAlreadyResolved, "Join request already resolved", nil)
	}

	req.Status = entity.JoinRequestStatusDeclined
	req.ResolvedAt = &now

	logger.Info("JoinRequestService:Decline:Declined", "request_id", requestID, "party_id", req.PartyID)
	s.notify(ctx, req.RequesterID, notifEntity.TypeJoinRequestDeclined, "Join request declined",
		"Your request to join the party was declined", req)

	return dto.ToJoinRequestResponse(req), nil
}

func (s *JoinRequestService) ListPending(ctx context.Context, partyID, actingHost uuid.UUID) (*dto.PendingRequestsResponse, *errors.AppError) {
	if appErr := s.requireHost(ctx, partyID, actingHost); appErr != nil {
		return nil, appErr
	}

	requests, err := s.repo.ListPendingByParty(ctx, partyID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list join requests", err)
	}

	responses := make([]dto.JoinRequestResponse, 0, len(requests))
	for i := range requests {
		responses = append(responses, *dto.ToJoinRequestResponse(&requests[i]))
	}
	return &dto.PendingRequestsResponse{Requests: responses, Total: len(responses)}, nil
}

// PendingCount returns the number of unresolved requests for a party,
// for the host's badge next to the roster.
func (s *JoinRequestService) PendingCount(ctx context.Context, partyID, actingHost uuid.UUID) (int, *errors.AppError) {
	if appErr := s.requireHost(ctx, partyID, actingHost); appErr != nil {
		return 0, appErr
	}

	count, err := s.repo.CountPendingByParty(ctx, partyID)
	if err != nil {
		return 0, errors.NewAppError(errors.ErrInternalServer, "Failed to count join requests", err)
	}
	return count, nil
}

func (s *JoinRequestService) requireHost(ctx context.Context, partyID, actingHost uuid.UUID) *errors.AppError {
	party, err := s.parties.GetByID(ctx, partyID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to load party", err)
	}
	if party == nil {
		return errors.NewAppError(errors.ErrNotFound, "Party not found", nil)
	}
	if party.HostID != actingHost {
		return errors.NewAppError(errors.ErrForbidden, "Only the host may view join requests", nil)
	}
	return nil
}

// revertJoinIfDeclined undoes the membership join of an Approve that
// lost the resolution race to a Decline. Leave is idempotent, so a
// requester who already left on their own is unaffected.
func (s *JoinRequestService) revertJoinIfDeclined(ctx context.Context, partyID, requesterID, requestID uuid.UUID) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil || req == nil {
		logger.Error("JoinRequestService:RevertJoin:ReloadError:", err)
		return
	}
	if req.Status != entity.JoinRequestStatusDeclined {
		return
	}
	if leaveErr := s.membership.Leave(ctx, partyID, requesterID); leaveErr != nil {
		logger.Error("JoinRequestService:RevertJoin:LeaveError:", leaveErr)
		return
	}
	logger.Info("JoinRequestService:RevertJoin:Reverted", "request_id", requestID, "party_id", partyID, "requester_id", requesterID)
}

// loadForResolution fetches the request and its party and runs the
// shared preconditions for Approve/Decline: host identity, request
// still pending, party still live (requests on an expired or canceled
// party are moot and must not be acted on).
func (s *JoinRequestService) loadForResolution(ctx context.Context, requestID, actingHost uuid.UUID) (*entity.JoinRequest, *partyEntity.Party, *errors.AppError) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load join request", err)
	}
	if req == nil {
		return nil, nil, errors.NewAppError(errors.ErrNotFound, "Join request not found", nil)
	}

	party, appErr := s.loadParty(ctx, req.PartyID)
	if appErr != nil {
		return nil, nil, appErr
	}
	if party.HostID != actingHost {
		return nil, nil, errors.NewAppError(errors.ErrForbidden, "Only the host may resolve join requests", nil)
	}
	if req.Status != entity.JoinRequestStatusPending {
		return nil, nil, errors.NewAppError(errors.ErrAlreadyResolved, "Join request already resolved", nil)
	}
	return req, party, nil
}

func (s *JoinRequestService) loadParty(ctx context.Context, partyID uuid.UUID) (*partyEntity.Party, *errors.AppError) {
	party, err := s.parties.GetByID(ctx, partyID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load party", err)
	}
	if party == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Party not found", nil)
	}
	switch {
	case party.Status == partyEntity.PartyStatusCanceled:
		return nil, errors.NewAppError(errors.ErrPartyCanceled, "Party has been canceled", nil)
	case party.Status != partyEntity.PartyStatusActive || !party.ExpiresAt.After(time.Now()):
		return nil, errors.NewAppError(errors.ErrPartyExpired, "Party has expired", nil)
	}
	return party, nil
}

func (s *JoinRequestService) notify(ctx context.Context, userID uuid.UUID, eventType, title, message string, req *entity.JoinRequest) {
	notification := &notifDto.CreateNotificationRequest{
		UserID:  userID,
		Type:    eventType,
		Title:   title,
		Message: message,
		Data: map[string]interface{}{
			"request_id":   req.ID.String(),
			"party_id":     req.PartyID.String(),
			"requester_id": req.RequesterID.String(),
		},
		EventKey: fmt.Sprintf("join_request:%s:%s", req.ID, eventType),
	}
	if err := s.notifier.Create(ctx, notification); err != nil {
		logger.Error("JoinRequestService:Notify:Error:", err)
	}
}
