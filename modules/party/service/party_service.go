package service

import (
	"context"
	"time"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/config"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/constants"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/errors"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/lock"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/logger"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/queue"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/utils"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/dto"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/entity"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// OccupancyReader reports host-inclusive occupancy for a party. The
// membership ledger implements it.
type OccupancyReader interface {
	Occupancy(ctx context.Context, partyID uuid.UUID) (int, *errors.AppError)
}

// PartyService owns the party state machine and the expiry/restore
// window. All state transitions for one party are serialized through a
// per-party lock on top of conditional writes in the repository.
type PartyService struct {
	repo      repository.PartyRepositoryInterface
	occupancy OccupancyReader
	enqueuer  queue.Enqueuer
	locks     *lock.KeyMutex
	clock     *PartyClock

	defaultDuration time.Duration
	graceWindow     time.Duration
}

type PartyServiceInterface interface {
	Create(ctx context.Context, hostID uuid.UUID, req *dto.CreatePartyRequest) (*dto.PartyResponse, *errors.AppError)
	Get(ctx context.Context, partyID uuid.UUID) (*dto.PartyResponse, *errors.AppError)
	GetByShareCode(ctx context.Context, code string) (*dto.PartyResponse, *errors.AppError)
	Cancel(ctx context.Context, partyID uuid.UUID, actingHost uuid.UUID) *errors.AppError
	Restore(ctx context.Context, partyID uuid.UUID, actingHost uuid.UUID) (*dto.PartyResponse, *errors.AppError)
	ListExpired(ctx context.Context, viewerID uuid.UUID) (*dto.ExpiredPartiesResponse, *errors.AppError)

	Expire(ctx context.Context, partyID uuid.UUID, deadline time.Time) *errors.AppError
	Prune(ctx context.Context) *errors.AppError
	RearmActive(ctx context.Context) *errors.AppError

	Clock() *PartyClock
}

func NewPartyService(repo repository.PartyRepositoryInterface, occupancy OccupancyReader, enqueuer queue.Enqueuer, locks *lock.KeyMutex, cfg *config.Config) PartyServiceInterface {
	defaultDuration := constants.DefaultPartyDuration
	if cfg != nil && cfg.Party.DefaultDurationMinutes > 0 {
		defaultDuration = time.Duration(cfg.Party.DefaultDurationMinutes) * time.Minute
	}

	graceWindow := constants.RestoreGraceWindow
	if cfg != nil && cfg.Party.RestoreGraceMinutes > 0 {
		graceWindow = time.Duration(cfg.Party.RestoreGraceMinutes) * time.Minute
	}

	s := &PartyService{
		repo:            repo,
		occupancy:       occupancy,
		enqueuer:        enqueuer,
		locks:           locks,
		defaultDuration: defaultDuration,
		graceWindow:     graceWindow,
	}
	s.clock = NewPartyClock(func(ctx context.Context, partyID uuid.UUID, deadline time.Time) {
		if appErr := s.Expire(ctx, partyID, deadline); appErr != nil {
			logger.Error("PartyService:Clock:Expire", "party_id", partyID, "error", appErr)
		}
	})

	return s
}

func (s *PartyService) Clock() *PartyClock {
	return s.clock
}

// Create registers a new active party owned by hostID and arms its
// expiry clock.
func (s *PartyService) Create(ctx context.Context, hostID uuid.UUID, req *dto.CreatePartyRequest) (*dto.PartyResponse, *errors.AppError) {
	if req.PartySize < constants.MinPartySize || req.PartySize > constants.MaxPartySize {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Party size out of range", nil)
	}
	if req.Meetup == "" || req.Dropoff == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Meetup and dropoff are required", nil)
	}

	duration := s.defaultDuration
	if req.DurationMinutes > 0 {
		duration = time.Duration(req.DurationMinutes) * time.Minute
	}

	now := time.Now()
	party := &entity.Party{
		HostID:          hostID,
		Status:          entity.PartyStatusActive,
		PartySize:       req.PartySize,
		DurationMinutes: int(duration / time.Minute),
		ExpiresAt:       now.Add(duration),
		Meetup:          req.Meetup,
		Dropoff:         req.Dropoff,
		Gated:           req.Gated,
		Visibility:      req.Visibility,
		ShareCode:       utils.GenerateID(),
		Slug:            slug.Make(req.Meetup + "-" + req.Dropoff),
	}

	created, err := s.repo.CreateParty(ctx, party)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to create party", err)
	}

	s.armExpiry(ctx, created.ID, created.ExpiresAt)

	logger.Info("PartyService:Create:Success",
		"party_id", created.ID,
		"host_id", hostID,
		"party_size", created.PartySize,
		"expires_at", created.ExpiresAt)

	return dto.ToPartyResponse(created, 1), nil
}

func (s *PartyService) Get(ctx context.Context, partyID uuid.UUID) (*dto.PartyResponse, *errors.AppError) {
	party, err := s.repo.GetByID(ctx, partyID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get party", err)
	}
	if party == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Party not found", nil)
	}

	return dto.ToPartyResponse(party, s.currentOccupancy(ctx, party)), nil
}

func (s *PartyService) GetByShareCode(ctx context.Context, code string) (*dto.PartyResponse, *errors.AppError) {
	party, err := s.repo.GetByShareCode(ctx, code)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get party", err)
	}
	if party == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Party not found", nil)
	}

	return dto.ToPartyResponse(party, s.currentOccupancy(ctx, party)), nil
}

// Cancel is the terminal host action. A canceled party cannot be
// restored.
func (s *PartyService) Cancel(ctx context.Context, partyID uuid.UUID, actingHost uuid.UUID) *errors.AppError {
	release, appErr := s.locks.Acquire(partyID.String())
	if appErr != nil {
		return appErr
	}
	defer release()

	party, err := s.repo.GetByID(ctx, partyID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to get party", err)
	}
	if party == nil {
		return errors.NewAppError(errors.ErrNotFound, "Party not found", nil)
	}
	if party.HostID != actingHost {
		return errors.NewAppError(errors.ErrForbidden, "Only the host may cancel the party", nil)
	}

	ok, err := s.repo.CancelParty(ctx, partyID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to cancel party", err)
	}
	if !ok {
		switch party.Status {
		case entity.PartyStatusExpired:
			return errors.NewAppError(errors.ErrPartyExpired, "Party already expired", nil)
		default:
			return errors.NewAppError(errors.ErrPartyCanceled, "Party already canceled", nil)
		}
	}

	s.clock.Cancel(partyID)
	logger.Info("PartyService:Cancel:Success", "party_id", partyID, "host_id", actingHost)
	return nil
}

// Expire moves an active party to expired. It is invoked by the
// in-process clock and by the durable queue task and is safe to call
// from both: the repository guard rejects a deadline older than the
// party's current expires_at, so a timer armed before a restore is a
// no-op.
func (s *PartyService) Expire(ctx context.Context, partyID uuid.UUID, deadline time.Time) *errors.AppError {
	release, appErr := s.locks.Acquire(partyID.String())
	if appErr != nil {
		return appErr
	}
	defer release()

	transitioned, err := s.repo.ExpireParty(ctx, partyID, deadline, time.Now())
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to expire party", err)
	}
	if !transitioned {
		logger.Debug("PartyService:Expire:NoOp", "party_id", partyID, "deadline", deadline)
		return nil
	}

	s.clock.Cancel(partyID)
	logger.Info("PartyService:Expire:Success", "party_id", partyID, "deadline", deadline)
	return nil
}

// Restore brings an expired party back to active within the grace
// window, with a fresh full-length deadline.
func (s *PartyService) Restore(ctx context.Context, partyID uuid.UUID, actingHost uuid.UUID) (*dto.PartyResponse, *errors.AppError) {
	release, appErr := s.locks.Acquire(partyID.String())
	if appErr != nil {
		return nil, appErr
	}
	defer release()

	record, err := s.repo.GetExpiredRecord(ctx, partyID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load expired record", err)
	}
	if record == nil {
		party, err := s.repo.GetByID(ctx, partyID)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get party", err)
		}
		if party == nil {
			return nil, errors.NewAppError(errors.ErrNotFound, "Party not found", nil)
		}
		if party.Status == entity.PartyStatusExpired {
			return nil, errors.NewAppError(errors.ErrRestoreWindowExpired, "Restore window has passed", nil)
		}
		return nil, errors.NewAppError(errors.ErrAlreadyResolved, "Party is not expired", nil)
	}

	if record.HostID != actingHost {
		return nil, errors.NewAppError(errors.ErrForbidden, "Only the host may restore the party", nil)
	}

	now := time.Now()
	if !now.Before(record.RestoreDeadline(s.graceWindow)) {
		return nil, errors.NewAppError(errors.ErrRestoreWindowExpired, "Restore window has passed", nil)
	}

	duration := time.Duration(record.DurationMinutes) * time.Minute
	if duration <= 0 {
		duration = s.defaultDuration
	}
	newExpiresAt := now.Add(duration)

	ok, err := s.repo.RestoreParty(ctx, partyID, newExpiresAt)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to restore party", err)
	}
	if !ok {
		return nil, errors.NewAppError(errors.ErrAlreadyResolved, "Party is not restorable", nil)
	}

	s.armExpiry(ctx, partyID, newExpiresAt)

	logger.Info("PartyService:Restore:Success",
		"party_id", partyID,
		"host_id", actingHost,
		"expires_at", newExpiresAt)

	party, err := s.repo.GetByID(ctx, partyID)
	if err != nil || party == nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to reload party", err)
	}
	return dto.ToPartyResponse(party, s.currentOccupancy(ctx, party)), nil
}

// ListExpired returns the restorable window, annotated with whether the
// viewer may restore each record. Records past the grace window are
// filtered on the read path regardless of whether Prune has swept them.
func (s *PartyService) ListExpired(ctx context.Context, viewerID uuid.UUID) (*dto.ExpiredPartiesResponse, *errors.AppError) {
	now := time.Now()
	records, err := s.repo.ListExpiredSince(ctx, now.Add(-s.graceWindow))
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list expired parties", err)
	}

	resp := &dto.ExpiredPartiesResponse{Parties: make([]dto.ExpiredPartyResponse, 0, len(records))}
	for i := range records {
		record := &records[i]
		deadline := record.RestoreDeadline(s.graceWindow)
		if !now.Before(deadline) {
			continue
		}
		resp.Parties = append(resp.Parties, dto.ToExpiredPartyResponse(record, viewerID, deadline, now))
	}
	resp.Total = len(resp.Parties)

	return resp, nil
}

// Prune garbage-collects expired records past the grace window.
func (s *PartyService) Prune(ctx context.Context) *errors.AppError {
	n, err := s.repo.DeleteExpiredBefore(ctx, time.Now().Add(-s.graceWindow))
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to prune expired parties", err)
	}
	if n > 0 {
		logger.Info("PartyService:Prune:Swept", "count", n)
	}
	return nil
}

// RearmActive reschedules expiry timers for every active party. Called
// once at boot; parties whose deadline passed while the process was down
// are expired immediately.
func (s *PartyService) RearmActive(ctx context.Context) *errors.AppError {
	parties, err := s.repo.ListActive(ctx)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to list active parties", err)
	}

	now := time.Now()
	for i := range parties {
		party := &parties[i]
		if !party.ExpiresAt.After(now) {
			if appErr := s.Expire(ctx, party.ID, party.ExpiresAt); appErr != nil {
				logger.Error("PartyService:RearmActive:Expire", "party_id", party.ID, "error", appErr)
			}
			continue
		}
		s.armExpiry(ctx, party.ID, party.ExpiresAt)
	}

	logger.Info("PartyService:RearmActive:Done", "count", len(parties))
	return nil
}

func (s *PartyService) armExpiry(ctx context.Context, partyID uuid.UUID, deadline time.Time) {
	s.clock.Arm(partyID, deadline)

	if s.enqueuer == nil {
		return
	}
	if err := s.enqueuer.EnqueuePartyExpiry(ctx, partyID, deadline); err != nil {
		// The in-process timer still covers expiry; the durable task is
		// a backstop for restarts.
		logger.Error("PartyService:ArmExpiry:Enqueue", "party_id", partyID, "error", err)
	}
}

func (s *PartyService) currentOccupancy(ctx context.Context, party *entity.Party) int {
	if s.occupancy == nil {
		return 1
	}

	occupancy, appErr := s.occupancy.Occupancy(ctx, party.ID)
	if appErr != nil {
		logger.Warn("PartyService:Occupancy:Error", "party_id", party.ID, "error", appErr)
		return 1
	}
	if occupancy > party.PartySize {
		return party.PartySize
	}
	return occupancy
}
