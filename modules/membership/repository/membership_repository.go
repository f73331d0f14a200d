package repository

import (
	"context"
	"database/sql"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/database"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/logger"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/membership/entity"

	"github.com/google/uuid"
)

type MembershipRepository struct {
	DB database.Database
}

func NewMembershipRepository(db database.Database) *MembershipRepository {
	return &MembershipRepository{DB: db}
}

type MembershipRepositoryInterface interface {
	// InsertJoin atomically checks the party state, the duplicate-join
	// constraint, and the capacity bound, and inserts the row only when
	// all hold. Returns nil (no error) when a precondition failed; the
	// service disambiguates which one.
	InsertJoin(ctx context.Context, partyID, userID uuid.UUID) (*entity.Membership, error)

	// MarkStatus transitions the user's joined row to left or kicked.
	// Returns false when no joined row exists.
	MarkStatus(ctx context.Context, partyID, userID uuid.UUID, to entity.MembershipStatus) (bool, error)

	GetJoined(ctx context.Context, partyID, userID uuid.UUID) (*entity.Membership, error)
	ListJoined(ctx context.Context, partyID uuid.UUID) ([]entity.Membership, error)
	CountJoined(ctx context.Context, partyID uuid.UUID) (int, error)
}

func (r *MembershipRepository) InsertJoin(ctx context.Context, partyID, userID uuid.UUID) (*entity.Membership, error) {
	// Occupancy = joined rows + the implicit host, so the insert is
	// allowed only while joined + 2 fits inside party_size.
	query := `
		INSERT INTO party_members (party_id, user_id, status, joined_at)
		SELECT $1, $2, 'joined', NOW()
		WHERE EXISTS (
			SELECT 1 FROM parties
			WHERE id = $1 AND status = 'active' AND expires_at > NOW()
		)
		AND NOT EXISTS (
			SELECT 1 FROM party_members
			WHERE party_id = $1 AND user_id = $2 AND status = 'joined'
		)
		AND (SELECT COUNT(*) FROM party_members WHERE party_id = $1 AND status = 'joined') + 2
			<= (SELECT party_size FROM parties WHERE id = $1)
		RETURNING id, party_id, user_id, status, joined_at, left_at
	`

	var m entity.Membership
	err := r.DB.GetContext(ctx, &m, query, partyID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("MembershipRepository:InsertJoin", err)
		return nil, err
	}

	return &m, nil
}

func (r *MembershipRepository) MarkStatus(ctx context.Context, partyID, userID uuid.UUID, to entity.MembershipStatus) (bool, error) {
	var id uuid.UUID
	err := r.DB.GetContext(ctx, &id, `
		UPDATE party_members
		SET status = $3, left_at = NOW()
		WHERE party_id = $1 AND user_id = $2 AND status = 'joined'
		RETURNING id
	`, partyID, userID, to)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		logger.Error("MembershipRepository:MarkStatus", err)
		return false, err
	}

	return true, nil
}

func (r *MembershipRepository) GetJoined(ctx context.Context, partyID, userID uuid.UUID) (*entity.Membership, error) {
	query := `
		SELECT id, party_id, user_id, status, joined_at, left_at
		FROM party_members
		WHERE party_id = $1 AND user_id = $2 AND status = 'joined'
	`

	var m entity.Membership
	err := r.DB.GetContext(ctx, &m, query, partyID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("MembershipRepository:GetJoined", err)
		return nil, err
	}

	return &m, nil
}

func (r *MembershipRepository) ListJoined(ctx context.Context, partyID uuid.UUID) ([]entity.Membership, error) {
	query := `
		SELECT id, party_id, user_id, status, joined_at, left_at
		FROM party_members
		WHERE party_id = $1 AND status = 'joined'
		ORDER BY joined_at ASC
	`

	var members []entity.Membership
	err := r.DB.SelectContext(ctx, &members, query, partyID)
	if err != nil {
		logger.Error("MembershipRepository:ListJoined", err)
		return nil, err
	}

	return members, nil
}

func (r *MembershipRepository) CountJoined(ctx context.Context, partyID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM party_members WHERE party_id = $1 AND status = 'joined'`
	err := r.DB.GetContext(ctx, &count, query, partyID)
	if err != nil {
		logger.Error("MembershipRepository:CountJoined", err)
		return 0, err
	}

	return count, nil
}
