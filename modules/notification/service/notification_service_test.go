package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/params"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/notification/dto"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/notification/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifRepo struct {
	mu   sync.Mutex
	rows []*entity.Notification
	keys map[string]struct{}
}

func newFakeNotifRepo() *fakeNotifRepo {
	return &fakeNotifRepo{keys: make(map[string]struct{})}
}

func (f *fakeNotifRepo) Create(ctx context.Context, n *entity.Notification) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, dup := f.keys[n.EventKey]; dup {
		return false, nil
	}
	n.ID = uuid.New()
	f.keys[n.EventKey] = struct{}{}
	stored := *n
	f.rows = append(f.rows, &stored)
	return true, nil
}

func (f *fakeNotifRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, row := range f.rows {
		if row.ID == id {
			out := *row
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeNotifRepo) GetByUserID(ctx context.Context, userID uuid.UUID, _ params.QueryParams) (*entity.PaginatedNotificationEntity, error) {
	return &entity.PaginatedNotificationEntity{}, nil
}

func (f *fakeNotifRepo) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, row := range f.rows {
		for _, id := range ids {
			if row.UserID == userID && row.ID.String() == id {
				row.IsRead = true
			}
		}
	}
	return nil
}

func (f *fakeNotifRepo) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, row := range f.rows {
		if row.UserID == userID {
			row.IsRead = true
		}
	}
	return nil
}

func (f *fakeNotifRepo) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, row := range f.rows {
		if row.ID == id && row.DeliveredAt == nil {
			stamp := at
			row.DeliveredAt = &stamp
		}
	}
	return nil
}

func (f *fakeNotifRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, row := range f.rows {
		if row.UserID == userID && !row.IsRead {
			count++
		}
	}
	return count, nil
}

type recordingSink struct {
	mu        sync.Mutex
	delivered []uuid.UUID
	fail      bool
}

func (s *recordingSink) Deliver(ctx context.Context, userID uuid.UUID, n *entity.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail {
		return fmt.Errorf("sink unavailable")
	}
	s.delivered = append(s.delivered, n.ID)
	return nil
}

func newRequest(userID uuid.UUID, eventKey string) *dto.CreateNotificationRequest {
	return &dto.CreateNotificationRequest{
		UserID:   userID,
		Type:     entity.TypeJoinRequestCreated,
		Title:    "New join request",
		Message:  "Someone asked to join your party",
		Data:     map[string]interface{}{"request_id": uuid.New().String()},
		EventKey: eventKey,
	}
}

func TestCreateDeduplicatesOnEventKey(t *testing.T) {
	repo := newFakeNotifRepo()
	svc := NewNotificationService(repo, nil, nil)
	userID := uuid.New()

	require.NoError(t, svc.Create(context.Background(), newRequest(userID, "join_request:abc:created")))
	require.NoError(t, svc.Create(context.Background(), newRequest(userID, "join_request:abc:created")))

	count, err := svc.CountUnread(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDeliverMarksDelivered(t *testing.T) {
	repo := newFakeNotifRepo()
	sink := &recordingSink{}
	svc := NewNotificationService(repo, nil, sink)
	userID := uuid.New()

	require.NoError(t, svc.Create(context.Background(), newRequest(userID, "join_request:d1:created")))
	notifID := repo.rows[0].ID

	require.NoError(t, svc.Deliver(context.Background(), notifID, userID))
	assert.Equal(t, []uuid.UUID{notifID}, sink.delivered)
	require.NotNil(t, repo.rows[0].DeliveredAt)

	// Redelivery of an already delivered notification is a no-op.
	require.NoError(t, svc.Deliver(context.Background(), notifID, userID))
	assert.Len(t, sink.delivered, 1)
}

func TestDeliverSwallowsSinkFailure(t *testing.T) {
	repo := newFakeNotifRepo()
	sink := &recordingSink{fail: true}
	svc := NewNotificationService(repo, nil, sink)
	userID := uuid.New()

	require.NoError(t, svc.Create(context.Background(), newRequest(userID, "join_request:d2:created")))
	notifID := repo.rows[0].ID

	// The worker must not see an error, or the task would retry forever.
	require.NoError(t, svc.Deliver(context.Background(), notifID, userID))
	assert.Nil(t, repo.rows[0].DeliveredAt)
}

func TestDeliverUnknownNotificationIsNoOp(t *testing.T) {
	svc := NewNotificationService(newFakeNotifRepo(), nil, &recordingSink{})
	require.NoError(t, svc.Deliver(context.Background(), uuid.New(), uuid.New()))
}

func TestMarkAllAsRead(t *testing.T) {
	repo := newFakeNotifRepo()
	svc := NewNotificationService(repo, nil, nil)
	userID := uuid.New()

	require.NoError(t, svc.Create(context.Background(), newRequest(userID, "k1")))
	require.NoError(t, svc.Create(context.Background(), newRequest(userID, "k2")))

	require.NoError(t, svc.MarkAllAsRead(context.Background(), userID))

	count, err := svc.CountUnread(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
