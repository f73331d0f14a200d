package service

import (
	"context"
	"time"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/cache"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/errors"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/lock"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/logger"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/membership/dto"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/membership/entity"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/membership/repository"
	partyEntity "github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/entity"

	"github.com/google/uuid"
)

const occupancySnapshotTTL = 30 * time.Second

// PartyReader is the slice of the party repository the ledger needs.
type PartyReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*partyEntity.Party, error)
}

// SubscriptionDropper severs a member's live-channel subscription. The
// live fan-out implements it; the ledger only signals the drop.
type SubscriptionDropper interface {
	Drop(partyID, userID uuid.UUID)
}

// MembershipService is the authoritative ledger of who is in a party.
// The capacity bound is enforced by the repository's conditional insert;
// the per-party lock bounds concurrent writers and keeps the occupancy
// snapshot coherent.
type MembershipService struct {
	repo    repository.MembershipRepositoryInterface
	parties PartyReader
	cache   cache.Cache
	locks   *lock.KeyMutex
	dropper SubscriptionDropper
}

type MembershipServiceInterface interface {
	Join(ctx context.Context, partyID, userID uuid.UUID) (*dto.MembershipResponse, *errors.AppError)
	Leave(ctx context.Context, partyID, userID uuid.UUID) *errors.AppError
	Kick(ctx context.Context, partyID, targetID, actingHost uuid.UUID) *errors.AppError
	Count(ctx context.Context, partyID uuid.UUID) (int, *errors.AppError)
	Occupancy(ctx context.Context, partyID uuid.UUID) (int, *errors.AppError)
	Roster(ctx context.Context, partyID uuid.UUID) (*dto.RosterResponse, *errors.AppError)
	IsJoined(ctx context.Context, partyID, userID uuid.UUID) (bool, *errors.AppError)
}

func NewMembershipService(repo repository.MembershipRepositoryInterface, parties PartyReader, c cache.Cache, locks *lock.KeyMutex, dropper SubscriptionDropper) MembershipServiceInterface {
	return &MembershipService{
		repo:    repo,
		parties: parties,
		cache:   c,
		locks:   locks,
		dropper: dropper,
	}
}

// Join adds the user to the party's ledger. The capacity check and the
// insert are one atomic statement; when it declines, the current party
// and ledger state decide which typed error the caller sees.
func (s *MembershipService) Join(ctx context.Context, partyID, userID uuid.UUID) (*dto.MembershipResponse, *errors.AppError) {
	release, appErr := s.locks.Acquire(partyID.String())
	if appErr != nil {
		return nil, appErr
	}
	defer release()

	party, err := s.parties.GetByID(ctx, partyID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load party", err)
	}
	if party == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Party not found", nil)
	}
	if party.HostID == userID {
		return nil, errors.NewAppError(errors.ErrAlreadyMember, "Host is already a member of the party", nil)
	}

	m, err := s.repo.InsertJoin(ctx, partyID, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to join party", err)
	}
	if m == nil {
		return nil, s.classifyJoinRejection(ctx, party, userID)
	}

	s.refreshOccupancy(ctx, partyID)

	logger.Info("MembershipService:Join:Success", "party_id", partyID, "user_id", userID)
	return dto.ToMembershipResponse(m), nil
}

// Leave is idempotent: leaving twice, or leaving a party never joined,
// is a no-op so client retries stay safe.
func (s *MembershipService) Leave(ctx context.Context, partyID, userID uuid.UUID) *errors.AppError {
	ok, err := s.repo.MarkStatus(ctx, partyID, userID, entity.MembershipStatusLeft)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to leave party", err)
	}
	if !ok {
		logger.Debug("MembershipService:Leave:NoOp", "party_id", partyID, "user_id", userID)
		return nil
	}

	s.refreshOccupancy(ctx, partyID)
	if s.dropper != nil {
		s.dropper.Drop(partyID, userID)
	}

	logger.Info("MembershipService:Leave:Success", "party_id", partyID, "user_id", userID)
	return nil
}

// Kick removes a joined member (host only). The target's live
// subscription is dropped as a side effect.
func (s *MembershipService) Kick(ctx context.Context, partyID, targetID, actingHost uuid.UUID) *errors.AppError {
	party, err := s.parties.GetByID(ctx, partyID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to load party", err)
	}
	if party == nil {
		return errors.NewAppError(errors.ErrNotFound, "Party not found", nil)
	}
	if party.HostID != actingHost {
		return errors.NewAppError(errors.ErrForbidden, "Only the host may kick members", nil)
	}
	if targetID == party.HostID {
		return errors.NewAppError(errors.ErrInvalidInput, "Host cannot be kicked", nil)
	}

	ok, err := s.repo.MarkStatus(ctx, partyID, targetID, entity.MembershipStatusKicked)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to kick member", err)
	}
	if !ok {
		return errors.NewAppError(errors.ErrNotFound, "User is not a member of the party", nil)
	}

	s.refreshOccupancy(ctx, partyID)
	if s.dropper != nil {
		s.dropper.Drop(partyID, targetID)
	}

	logger.Info("MembershipService:Kick:Success", "party_id", partyID, "target_id", targetID, "host_id", actingHost)
	return nil
}

// Count returns the authoritative number of joined ledger rows.
func (s *MembershipService) Count(ctx context.Context, partyID uuid.UUID) (int, *errors.AppError) {
	count, err := s.repo.CountJoined(ctx, partyID)
	if err != nil {
		return 0, errors.NewAppError(errors.ErrInternalServer, "Failed to count members", err)
	}
	return count, nil
}

// Occupancy returns joined members plus the implicit host. Reads go
// through the snapshot cache; a miss falls back to the ledger.
func (s *MembershipService) Occupancy(ctx context.Context, partyID uuid.UUID) (int, *errors.AppError) {
	if s.cache != nil {
		if occupancy, found, err := s.cache.GetOccupancy(ctx, partyID); err == nil && found {
			return occupancy, nil
		}
	}

	count, appErr := s.Count(ctx, partyID)
	if appErr != nil {
		return 0, appErr
	}

	occupancy := count + 1
	if s.cache != nil {
		if err := s.cache.SetOccupancy(ctx, partyID, occupancy, occupancySnapshotTTL); err != nil {
			logger.Warn("MembershipService:Occupancy:CacheSet", "party_id", partyID, "error", err)
		}
	}

	return occupancy, nil
}

func (s *MembershipService) Roster(ctx context.Context, partyID uuid.UUID) (*dto.RosterResponse, *errors.AppError) {
	party, err := s.parties.GetByID(ctx, partyID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load party", err)
	}
	if party == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Party not found", nil)
	}

	members, err := s.repo.ListJoined(ctx, partyID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list members", err)
	}

	resp := &dto.RosterResponse{
		PartyID:   partyID,
		HostID:    party.HostID,
		Members:   make([]dto.MembershipResponse, 0, len(members)),
		Occupancy: len(members) + 1,
		PartySize: party.PartySize,
	}
	for i := range members {
		resp.Members = append(resp.Members, *dto.ToMembershipResponse(&members[i]))
	}

	return resp, nil
}

func (s *MembershipService) IsJoined(ctx context.Context, partyID, userID uuid.UUID) (bool, *errors.AppError) {
	m, err := s.repo.GetJoined(ctx, partyID, userID)
	if err != nil {
		return false, errors.NewAppError(errors.ErrInternalServer, "Failed to check membership", err)
	}
	return m != nil, nil
}

// classifyJoinRejection inspects current state to report why the
// conditional insert declined.
func (s *MembershipService) classifyJoinRejection(ctx context.Context, party *partyEntity.Party, userID uuid.UUID) *errors.AppError {
	switch party.Status {
	case partyEntity.PartyStatusCanceled:
		return errors.NewAppError(errors.ErrPartyCanceled, "Party has been canceled", nil)
	case partyEntity.PartyStatusExpired:
		return errors.NewAppError(errors.ErrPartyExpired, "Party has expired", nil)
	}
	if !party.ExpiresAt.After(time.Now()) {
		return errors.NewAppError(errors.ErrPartyExpired, "Party has expired", nil)
	}

	joined, err := s.repo.GetJoined(ctx, party.ID, userID)
	if err == nil && joined != nil {
		return errors.NewAppError(errors.ErrAlreadyMember, "Already a member of the party", nil)
	}

	return errors.NewAppError(errors.ErrPartyFull, "Party is full", nil)
}

func (s *MembershipService) refreshOccupancy(ctx context.Context, partyID uuid.UUID) {
	if s.cache == nil {
		return
	}

	count, err := s.repo.CountJoined(ctx, partyID)
	if err != nil {
		if delErr := s.cache.DelOccupancy(ctx, partyID); delErr != nil {
			logger.Warn("MembershipService:RefreshOccupancy:CacheDel", "party_id", partyID, "error", delErr)
		}
		return
	}

	if err := s.cache.SetOccupancy(ctx, partyID, count+1, occupancySnapshotTTL); err != nil {
		logger.Warn("MembershipService:RefreshOccupancy:CacheSet", "party_id", partyID, "error", err)
	}
}
