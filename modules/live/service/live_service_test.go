package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/errors"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/live/entity"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/live/transport"
	partyEntity "github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePartyStore struct {
	mu      sync.Mutex
	parties map[uuid.UUID]*partyEntity.Party
}

func newFakePartyStore() *fakePartyStore {
	return &fakePartyStore{parties: make(map[uuid.UUID]*partyEntity.Party)}
}

func (f *fakePartyStore) addActive() *partyEntity.Party {
	f.mu.Lock()
	defer f.mu.Unlock()

	party := &partyEntity.Party{
		ID:        uuid.New(),
		HostID:    uuid.New(),
		Status:    partyEntity.PartyStatusActive,
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}
	f.parties[party.ID] = party
	return party
}

func (f *fakePartyStore) GetByID(ctx context.Context, id uuid.UUID) (*partyEntity.Party, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	party, ok := f.parties[id]
	if !ok {
		return nil, nil
	}
	out := *party
	return &out, nil
}

func newLiveFixture() (*LiveService, *transport.Hub, *fakePartyStore) {
	hub := transport.NewHub(4)
	parties := newFakePartyStore()
	return NewLiveService(hub, parties), hub, parties
}

func TestPublishStampsTimestamp(t *testing.T) {
	svc, hub, parties := newLiveFixture()
	defer hub.Close()
	party := parties.addActive()

	listener, appErr := svc.Subscribe(context.Background(), party.ID, uuid.New())
	require.Nil(t, appErr)
	defer listener.Close()

	before := time.Now().UnixMilli()
	require.Nil(t, svc.PublishChat(context.Background(), party.ID, uuid.New(), "here", 0))

	select {
	case event := <-listener.Events:
		assert.Equal(t, entity.EventTypeChat, event.Type)
		assert.GreaterOrEqual(t, event.TS, before)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishOnUnknownPartyRejected(t *testing.T) {
	svc, hub, _ := newLiveFixture()
	defer hub.Close()

	appErr := svc.PublishChat(context.Background(), uuid.New(), uuid.New(), "hi", 0)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

func TestPublishOnExpiredPartyRejected(t *testing.T) {
	svc, hub, parties := newLiveFixture()
	defer hub.Close()
	party := parties.addActive()

	parties.mu.Lock()
	parties.parties[party.ID].Status = partyEntity.PartyStatusExpired
	parties.mu.Unlock()

	appErr := svc.PublishLocation(context.Background(), party.ID, uuid.New(), 12.97, 77.59, 0)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrPartyExpired, appErr.Code)
}

func TestPublishValidatesPayload(t *testing.T) {
	svc, hub, parties := newLiveFixture()
	defer hub.Close()
	party := parties.addActive()

	appErr := svc.PublishChat(context.Background(), party.ID, uuid.New(), "   ", 0)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)

	appErr = svc.PublishStatus(context.Background(), party.ID, uuid.New(), entity.StatusKind("warping"), 0)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
}

func TestSubscribeOnCanceledPartyRejected(t *testing.T) {
	svc, hub, parties := newLiveFixture()
	defer hub.Close()
	party := parties.addActive()

	parties.mu.Lock()
	parties.parties[party.ID].Status = partyEntity.PartyStatusCanceled
	parties.mu.Unlock()

	_, appErr := svc.Subscribe(context.Background(), party.ID, uuid.New())
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrPartyCanceled, appErr.Code)
}

func TestDropSeversSubscription(t *testing.T) {
	svc, hub, parties := newLiveFixture()
	defer hub.Close()
	party := parties.addActive()
	userID := uuid.New()

	listener, appErr := svc.Subscribe(context.Background(), party.ID, userID)
	require.Nil(t, appErr)

	svc.Drop(party.ID, userID)

	select {
	case _, ok := <-listener.Events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not severed")
	}
}
