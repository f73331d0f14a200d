package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/database"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/logger"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/entity"

	"github.com/google/uuid"
)

// PartyRepository handles party lifecycle database operations. Every
// state transition is a conditional write keyed on the current status,
// so two racing transitions cannot both win.
type PartyRepository struct {
	DB database.Database
}

func NewPartyRepository(db database.Database) *PartyRepository {
	return &PartyRepository{DB: db}
}

type PartyRepositoryInterface interface {
	CreateParty(ctx context.Context, party *entity.Party) (*entity.Party, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Party, error)
	GetByShareCode(ctx context.Context, code string) (*entity.Party, error)
	ListActive(ctx context.Context) ([]entity.Party, error)

	// Conditional transitions. Each returns false when the party was not
	// in the required source state (somebody else won the race).
	ExpireParty(ctx context.Context, id uuid.UUID, deadline time.Time, expiredAt time.Time) (bool, error)
	RestoreParty(ctx context.Context, id uuid.UUID, newExpiresAt time.Time) (bool, error)
	CancelParty(ctx context.Context, id uuid.UUID) (bool, error)

	GetExpiredRecord(ctx context.Context, partyID uuid.UUID) (*entity.ExpiredParty, error)
	ListExpiredSince(ctx context.Context, cutoff time.Time) ([]entity.ExpiredParty, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

func (r *PartyRepository) CreateParty(ctx context.Context, party *entity.Party) (*entity.Party, error) {
	query := `
		INSERT INTO parties (host_id, status, party_size, duration_minutes, expires_at,
		                     meetup, dropoff, gated, visibility, share_code, slug)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, host_id, status, party_size, duration_minutes, expires_at,
		          meetup, dropoff, gated, visibility, share_code, slug, created_at, updated_at
	`

	var created entity.Party
	err := r.DB.GetContext(ctx, &created, query,
		party.HostID, party.Status, party.PartySize, party.DurationMinutes, party.ExpiresAt,
		party.Meetup, party.Dropoff, party.Gated, party.Visibility, party.ShareCode, party.Slug)
	if err != nil {
		logger.Error("PartyRepository:CreateParty", err)
		return nil, err
	}

	return &created, nil
}

func (r *PartyRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Party, error) {
	query := `
		SELECT id, host_id, status, party_size, duration_minutes, expires_at,
		       meetup, dropoff, gated, visibility, share_code, slug, created_at, updated_at
		FROM parties WHERE id = $1
	`

	var party entity.Party
	err := r.DB.GetContext(ctx, &party, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("PartyRepository:GetByID", err)
		return nil, err
	}

	return &party, nil
}

func (r *PartyRepository) GetByShareCode(ctx context.Context, code string) (*entity.Party, error) {
	query := `
		SELECT id, host_id, status, party_size, duration_minutes, expires_at,
		       meetup, dropoff, gated, visibility, share_code, slug, created_at, updated_at
		FROM parties WHERE share_code = $1
	`

	var party entity.Party
	err := r.DB.GetContext(ctx, &party, query, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("PartyRepository:GetByShareCode", err)
		return nil, err
	}

	return &party, nil
}

func (r *PartyRepository) ListActive(ctx context.Context) ([]entity.Party, error) {
	query := `
		SELECT id, host_id, status, party_size, duration_minutes, expires_at,
		       meetup, dropoff, gated, visibility, share_code, slug, created_at, updated_at
		FROM parties
		WHERE status = 'active'
		ORDER BY expires_at ASC
	`

	var parties []entity.Party
	err := r.DB.SelectContext(ctx, &parties, query)
	if err != nil {
		logger.Error("PartyRepository:ListActive", err)
		return nil, err
	}

	return parties, nil
}

// ExpireParty transitions active -> expired and snapshots the party into
// expired_parties in one transaction. The expires_at guard makes a stale
// timer (scheduled before a restore moved the deadline forward) a no-op.
func (r *PartyRepository) ExpireParty(ctx context.Context, id uuid.UUID, deadline time.Time, expiredAt time.Time) (bool, error) {
	tx, err := r.DB.SQLx().BeginTxx(ctx, nil)
	if err != nil {
		logger.Error("PartyRepository:ExpireParty:Begin", err)
		return false, err
	}
	defer tx.Rollback()

	var partyID uuid.UUID
	err = tx.GetContext(ctx, &partyID, `
		UPDATE parties
		SET status = 'expired', updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND expires_at <= $2
		RETURNING id
	`, id, deadline)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		logger.Error("PartyRepository:ExpireParty:Update", err)
		return false, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO expired_parties (party_id, host_id, party_size, duration_minutes, meetup, dropoff, expired_at)
		SELECT id, host_id, party_size, duration_minutes, meetup, dropoff, $2
		FROM parties WHERE id = $1
	`, id, expiredAt)
	if err != nil {
		logger.Error("PartyRepository:ExpireParty:Snapshot", err)
		return false, err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("PartyRepository:ExpireParty:Commit", err)
		return false, err
	}

	return true, nil
}

// RestoreParty transitions expired -> active with a fresh deadline and
// clears the expired record.
func (r *PartyRepository) RestoreParty(ctx context.Context, id uuid.UUID, newExpiresAt time.Time) (bool, error) {
	tx, err := r.DB.SQLx().BeginTxx(ctx, nil)
	if err != nil {
		logger.Error("PartyRepository:RestoreParty:Begin", err)
		return false, err
	}
	defer tx.Rollback()

	var partyID uuid.UUID
	err = tx.GetContext(ctx, &partyID, `
		UPDATE parties
		SET status = 'active', expires_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'expired'
		RETURNING id
	`, id, newExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		logger.Error("PartyRepository:RestoreParty:Update", err)
		return false, err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM expired_parties WHERE party_id = $1`, id)
	if err != nil {
		logger.Error("PartyRepository:RestoreParty:ClearRecord", err)
		return false, err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("PartyRepository:RestoreParty:Commit", err)
		return false, err
	}

	return true, nil
}

func (r *PartyRepository) CancelParty(ctx context.Context, id uuid.UUID) (bool, error) {
	var partyID uuid.UUID
	err := r.DB.GetContext(ctx, &partyID, `
		UPDATE parties
		SET status = 'canceled', updated_at = NOW()
		WHERE id = $1 AND status = 'active'
		RETURNING id
	`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		logger.Error("PartyRepository:CancelParty", err)
		return false, err
	}

	return true, nil
}

func (r *PartyRepository) GetExpiredRecord(ctx context.Context, partyID uuid.UUID) (*entity.ExpiredParty, error) {
	query := `
		SELECT id, party_id, host_id, party_size, duration_minutes, meetup, dropoff, expired_at, created_at
		FROM expired_parties WHERE party_id = $1
	`

	var record entity.ExpiredParty
	err := r.DB.GetContext(ctx, &record, query, partyID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("PartyRepository:GetExpiredRecord", err)
		return nil, err
	}

	return &record, nil
}

func (r *PartyRepository) ListExpiredSince(ctx context.Context, cutoff time.Time) ([]entity.ExpiredParty, error) {
	query := `
		SELECT id, party_id, host_id, party_size, duration_minutes, meetup, dropoff, expired_at, created_at
		FROM expired_parties
		WHERE expired_at > $1
		ORDER BY expired_at DESC
	`

	var records []entity.ExpiredParty
	err := r.DB.SelectContext(ctx, &records, query, cutoff)
	if err != nil {
		logger.Error("PartyRepository:ListExpiredSince", err)
		return nil, err
	}

	return records, nil
}

func (r *PartyRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.DB.NamedExecContext(ctx, `
		DELETE FROM expired_parties WHERE expired_at <= :cutoff
	`, map[string]any{"cutoff": cutoff})
	if err != nil {
		logger.Error("PartyRepository:DeleteExpiredBefore", err)
		return 0, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
