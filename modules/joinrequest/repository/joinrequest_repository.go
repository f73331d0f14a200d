package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/database"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/logger"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/joinrequest/entity"

	"github.com/google/uuid"
)

type JoinRequestRepositoryInterface interface {
	CreateIfNoPending(ctx context.Context, partyID, requesterID uuid.UUID) (*entity.JoinRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.JoinRequest, error)
	ResolveIf(ctx context.Context, id uuid.UUID, to entity.JoinRequestStatus, at time.Time) (bool, error)
	ListPendingByParty(ctx context.Context, partyID uuid.UUID) ([]entity.JoinRequest, error)
	CountPendingByParty(ctx context.Context, partyID uuid.UUID) (int, error)
}

type JoinRequestRepository struct {
	db database.Database
}

func NewJoinRequestRepository(db database.Database) *JoinRequestRepository {
	return &JoinRequestRepository{db: db}
}

// CreateIfNoPending inserts a new pending request unless the requester
// already has one for this party. Returns (nil, nil) when a pending
// request exists; a partial unique index on (party_id, requester_id)
// WHERE status = 'pending' backs the guard against concurrent inserts.
func (r *JoinRequestRepository) CreateIfNoPending(ctx context.Context, partyID, requesterID uuid.UUID) (*entity.JoinRequest, error) {
	query := `
		INSERT INTO party_requests (party_id, requester_id, status, created_at, updated_at)
		SELECT $1, $2, 'pending', $3, $3
		WHERE NOT EXISTS (
			SELECT 1 FROM party_requests
			WHERE party_id = $1 AND requester_id = $2 AND status = 'pending'
		)
		ON CONFLICT DO NOTHING
		RETURNING id
	`
	now := time.Now()
	req := &entity.JoinRequest{
		PartyID:     partyID,
		RequesterID: requesterID,
		Status:      entity.JoinRequestStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	row := r.db.QueryRowContext(ctx, query, partyID, requesterID, now)
	if err := row.Scan(&req.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("JoinRequestRepository:CreateIfNoPending:Error:", err)
		return nil, err
	}
	return req, nil
}

func (r *JoinRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.JoinRequest, error) {
	query := `
		SELECT id, party_id, requester_id, status, resolved_at, created_at, updated_at
		FROM party_requests
		WHERE id = $1
	`
	var req entity.JoinRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("JoinRequestRepository:GetByID:Error:", err)
		return nil, err
	}
	return &req, nil
}

// ResolveIf moves a request out of pending exactly once. The condition
// on the current status makes concurrent resolutions race for a single
// winner; losers see (false, nil).
func (r *JoinRequestRepository) ResolveIf(ctx context.Context, id uuid.UUID, to entity.JoinRequestStatus, at time.Time) (bool, error) {
	query := `
		UPDATE party_requests
		SET status = $2, resolved_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING id
	`
	var resolved uuid.UUID
	row := r.db.QueryRowContext(ctx, query, id, to, at)
	if err := row.Scan(&resolved); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		logger.Error("JoinRequestRepository:ResolveIf:Error:", err)
		return false, err
	}
	return true, nil
}

func (r *JoinRequestRepository) ListPendingByParty(ctx context.Context, partyID uuid.UUID) ([]entity.JoinRequest, error) {
	query := `
		SELECT id, party_id, requester_id, status, resolved_at, created_at, updated_at
		FROM party_requests
		WHERE party_id = $1 AND status = 'pending'
		ORDER BY created_at ASC
	`
	requests := []entity.JoinRequest{}
	if err := r.db.SelectContext(ctx, &requests, query, partyID); err != nil {
		logger.Error("JoinRequestRepository:ListPendingByParty:Error:", err)
		return nil, err
	}
	return requests, nil
}

func (r *JoinRequestRepository) CountPendingByParty(ctx context.Context, partyID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM party_requests WHERE party_id = $1 AND status = 'pending'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, partyID); err != nil {
		logger.Error("JoinRequestRepository:CountPendingByParty:Error:", err)
		return 0, err
	}
	return count, nil
}
