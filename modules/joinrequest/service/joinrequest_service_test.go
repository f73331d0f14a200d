package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/errors"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/params"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/joinrequest/entity"
	membershipDto "github.com/Einheit-Zenkai/meet-riders-sub003/modules/membership/dto"
	notifEntity "github.com/Einheit-Zenkai/meet-riders-sub003/modules/notification/entity"
	notifService "github.com/Einheit-Zenkai/meet-riders-sub003/modules/notification/service"
	partyEntity "github.com/Einheit-Zenkai/meet-riders-sub003/modules/party/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*entity.JoinRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[uuid.UUID]*entity.JoinRequest)}
}

func (f *fakeRequestRepo) CreateIfNoPending(ctx context.Context, partyID, requesterID uuid.UUID) (*entity.JoinRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, req := range f.requests {
		if req.PartyID == partyID && req.RequesterID == requesterID && req.Status == entity.JoinRequestStatusPending {
			return nil, nil
		}
	}

	req := &entity.JoinRequest{
		ID:          uuid.New(),
		PartyID:     partyID,
		RequesterID: requesterID,
		Status:      entity.JoinRequestStatusPending,
		CreatedAt:   time.Now(),
	}
	f.requests[req.ID] = req
	out := *req
	return &out, nil
}

func (f *fakeRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.JoinRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	req, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	out := *req
	return &out, nil
}

func (f *fakeRequestRepo) ResolveIf(ctx context.Context, id uuid.UUID, to entity.JoinRequestStatus, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	req, ok := f.requests[id]
	if !ok || req.Status != entity.JoinRequestStatusPending {
		return false, nil
	}
	req.Status = to
	req.ResolvedAt = &at
	return true, nil
}

func (f *fakeRequestRepo) ListPendingByParty(ctx context.Context, partyID uuid.UUID) ([]entity.JoinRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []entity.JoinRequest
	for _, req := range f.requests {
		if req.PartyID == partyID && req.Status == entity.JoinRequestStatusPending {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) CountPendingByParty(ctx context.Context, partyID uuid.UUID) (int, error) {
	pending, _ := f.ListPendingByParty(ctx, partyID)
	return len(pending), nil
}

type fakePartyStore struct {
	mu      sync.Mutex
	parties map[uuid.UUID]*partyEntity.Party
}

func newFakePartyStore() *fakePartyStore {
	return &fakePartyStore{parties: make(map[uuid.UUID]*partyEntity.Party)}
}

func (f *fakePartyStore) addParty(hostID uuid.UUID, gated bool) *partyEntity.Party {
	f.mu.Lock()
	defer f.mu.Unlock()

	party := &partyEntity.Party{
		ID:        uuid.New(),
		HostID:    hostID,
		Status:    partyEntity.PartyStatusActive,
		PartySize: 4,
		ExpiresAt: time.Now().Add(30 * time.Minute),
		Gated:     gated,
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

// fakeMembership scripts the ledger's Join outcome so capacity races can
// be simulated without a real ledger. onJoin, when set, runs after a
// successful join and before Join returns, to interleave work between a
// join and the caller's next step.
type fakeMembership struct {
	mu       sync.Mutex
	joinErr  *errors.AppError
	joined   map[uuid.UUID]bool
	joinLog  []uuid.UUID
	leaveLog []uuid.UUID
	onJoin   func()
}

func newFakeMembership() *fakeMembership {
	return &fakeMembership{joined: make(map[uuid.UUID]bool)}
}

func (f *fakeMembership) Join(ctx context.Context, partyID, userID uuid.UUID) (*membershipDto.MembershipResponse, *errors.AppError) {
	f.mu.Lock()
	if f.joinErr != nil {
		f.mu.Unlock()
		return nil, f.joinErr
	}
	if f.joined[userID] {
		f.mu.Unlock()
		return nil, errors.NewAppError(errors.ErrAlreadyMember, "Already a member of the party", nil)
	}
	f.joined[userID] = true
	f.joinLog = append(f.joinLog, userID)
	hook := f.onJoin
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return &membershipDto.MembershipResponse{PartyID: partyID, UserID: userID, Status: "joined"}, nil
}

func (f *fakeMembership) Leave(ctx context.Context, partyID, userID uuid.UUID) *errors.AppError {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.joined[userID] {
		delete(f.joined, userID)
		f.leaveLog = append(f.leaveLog, userID)
	}
	return nil
}

func (f *fakeMembership) Kick(ctx context.Context, partyID, targetID, actingHost uuid.UUID) *errors.AppError {
	return nil
}

func (f *fakeMembership) Count(ctx context.Context, partyID uuid.UUID) (int, *errors.AppError) {
	return len(f.joined), nil
}

func (f *fakeMembership) Occupancy(ctx context.Context, partyID uuid.UUID) (int, *errors.AppError) {
	return len(f.joined) + 1, nil
}

func (f *fakeMembership) Roster(ctx context.Context, partyID uuid.UUID) (*membershipDto.RosterResponse, *errors.AppError) {
	return &membershipDto.RosterResponse{PartyID: partyID}, nil
}

func (f *fakeMembership) IsJoined(ctx context.Context, partyID, userID uuid.UUID) (bool, *errors.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.joined[userID], nil
}

type fakeNotifRepo struct {
	mu   sync.Mutex
	rows []*notifEntity.Notification
	keys map[string]struct{}
}

func newFakeNotifRepo() *fakeNotifRepo {
	return &fakeNotifRepo{keys: make(map[string]struct{})}
}

func (f *fakeNotifRepo) Create(ctx context.Context, n *notifEntity.Notification) (bool, error) {
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

func (f *fakeNotifRepo) GetByID(ctx context.Context, id uuid.UUID) (*notifEntity.Notification, error) {
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

func (f *fakeNotifRepo) GetByUserID(ctx context.Context, userID uuid.UUID, _ params.QueryParams) (*notifEntity.PaginatedNotificationEntity, error) {
	return &notifEntity.PaginatedNotificationEntity{}, nil
}

func (f *fakeNotifRepo) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []string) error {
	return nil
}

func (f *fakeNotifRepo) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func (f *fakeNotifRepo) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
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

func (f *fakeNotifRepo) byUser(userID uuid.UUID) []*notifEntity.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*notifEntity.Notification
	for _, row := range f.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out
}

type workflowFixture struct {
	svc        JoinRequestServiceInterface
	requests   *fakeRequestRepo
	parties    *fakePartyStore
	membership *fakeMembership
	notifRepo  *fakeNotifRepo
}

func newWorkflowFixture() *workflowFixture {
	requests := newFakeRequestRepo()
	parties := newFakePartyStore()
	membership := newFakeMembership()
	notifRepo := newFakeNotifRepo()
	notifier := notifService.NewNotificationService(notifRepo, nil, nil)

	return &workflowFixture{
		svc:        NewJoinRequestService(requests, parties, membership, notifier),
		requests:   requests,
		parties:    parties,
		membership: membership,
		notifRepo:  notifRepo,
	}
}

func TestRequestOnOpenPartyRejected(t *testing.T) {
	fx := newWorkflowFixture()
	party := fx.parties.addParty(uuid.New(), false)

	_, appErr := fx.svc.Request(context.Background(), party.ID, uuid.New())
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrPartyNotGated, appErr.Code)
}

func TestRequestNotifiesHost(t *testing.T) {
	fx := newWorkflowFixture()
	hostID := uuid.New()
	party := fx.parties.addParty(hostID, true)
	requesterID := uuid.New()

	resp, appErr := fx.svc.Request(context.Background(), party.ID, requesterID)
	require.Nil(t, appErr)
	assert.Equal(t, "pending", resp.Status)

	hostNotifs := fx.notifRepo.byUser(hostID)
	require.Len(t, hostNotifs, 1)
	assert.Equal(t, notifEntity.TypeJoinRequestCreated, hostNotifs[0].Type)
	assert.Equal(t, resp.ID.String(), hostNotifs[0].Data["request_id"])
}

func TestDuplicatePendingRequestRejected(t *testing.T) {
	fx := newWorkflowFixture()
	party := fx.parties.addParty(uuid.New(), true)
	requesterID := uuid.New()

	_, appErr := fx.svc.Request(context.Background(), party.ID, requesterID)
	require.Nil(t, appErr)

	_, appErr = fx.svc.Request(context.Background(), party.ID, requesterID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrAlreadyPending, appErr.Code)
}

func TestRequestOnExpiredPartyRejected(t *testing.T) {
	fx := newWorkflowFixture()
	party := fx.parties.addParty(uuid.New(), true)

	fx.parties.mu.Lock()
	fx.parties.parties[party.ID].Status = partyEntity.PartyStatusExpired
	fx.parties.mu.Unlock()

	_, appErr := fx.svc.Request(context.Background(), party.ID, uuid.New())
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrPartyExpired, appErr.Code)
}

func TestApproveJoinsAndNotifiesRequester(t *testing.T) {
	fx := newWorkflowFixture()
	hostID := uuid.New()
	party := fx.parties.addParty(hostID, true)
	requesterID := uuid.New()

	created, appErr := fx.svc.Request(context.Background(), party.ID, requesterID)
	require.Nil(t, appErr)

	resolved, appErr := fx.svc.Approve(context.Background(), created.ID, hostID)
	require.Nil(t, appErr)
	assert.Equal(t, "accepted", resolved.Status)
	assert.Equal(t, []uuid.UUID{requesterID}, fx.membership.joinLog)

	notifs := fx.notifRepo.byUser(requesterID)
	require.Len(t, notifs, 1)
	assert.Equal(t, notifEntity.TypeJoinRequestAccepted, notifs[0].Type)
}

func TestApproveRequiresHost(t *testing.T) {
	fx := newWorkflowFixture()
	party := fx.parties.addParty(uuid.New(), true)

	created, appErr := fx.svc.Request(context.Background(), party.ID, uuid.New())
	require.Nil(t, appErr)

	_, appErr = fx.svc.Approve(context.Background(), created.ID, uuid.New())
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)
}

func TestApproveWhenFullLeavesRequestPending(t *testing.T) {
	fx := newWorkflowFixture()
	hostID := uuid.New()
	party := fx.parties.addParty(hostID, true)
	requesterID := uuid.New()

	created, appErr := fx.svc.Request(context.Background(), party.ID, requesterID)
	require.Nil(t, appErr)

	fx.membership.joinErr = errors.NewAppError(errors.ErrPartyFull, "Party is full", nil)

	_, appErr = fx.svc.Approve(context.Background(), created.ID, hostID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrPartyFull, appErr.Code)

	// The host may re-decide once a seat frees up.
	req, err := fx.requests.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JoinRequestStatusPending, req.Status)

	fx.membership.joinErr = nil
	resolved, appErr := fx.svc.Approve(context.Background(), created.ID, hostID)
	require.Nil(t, appErr)
	assert.Equal(t, "accepted", resolved.Status)
}

func TestResolutionIsExactlyOnce(t *testing.T) {
	fx := newWorkflowFixture()
	hostID := uuid.New()
	party := fx.parties.addParty(hostID, true)

	created, appErr := fx.svc.Request(context.Background(), party.ID, uuid.New())
	require.Nil(t, appErr)

	_, appErr = fx.svc.Decline(context.Background(), created.ID, hostID)
	require.Nil(t, appErr)

	_, appErr = fx.svc.Decline(context.Background(), created.ID, hostID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrAlreadyResolved, appErr.Code)

	_, appErr = fx.svc.Approve(context.Background(), created.ID, hostID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrAlreadyResolved, appErr.Code)
}

func TestDeclineWinningApproveRaceRevertsJoin(t *testing.T) {
	fx := newWorkflowFixture()
	hostID := uuid.New()
	party := fx.parties.addParty(hostID, true)
	requesterID := uuid.New()

	created, appErr := fx.svc.Request(context.Background(), party.ID, requesterID)
	require.Nil(t, appErr)

	// Decline lands between Approve's join and its resolution.
	fx.membership.onJoin = func() {
		fx.membership.onJoin = nil
		_, declineErr := fx.svc.Decline(context.Background(), created.ID, hostID)
		require.Nil(t, declineErr)
	}

	_, appErr = fx.svc.Approve(context.Background(), created.ID, hostID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrAlreadyResolved, appErr.Code)

	stored, err := fx.requests.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JoinRequestStatusDeclined, stored.Status)

	joined, joinedErr := fx.membership.IsJoined(context.Background(), party.ID, requesterID)
	require.Nil(t, joinedErr)
	assert.False(t, joined, "requester must not remain a member of a declined request")
	assert.Equal(t, []uuid.UUID{requesterID}, fx.membership.leaveLog)
}

func TestApproveLosingToApproveKeepsMemberJoined(t *testing.T) {
	fx := newWorkflowFixture()
	hostID := uuid.New()
	party := fx.parties.addParty(hostID, true)
	requesterID := uuid.New()

	created, appErr := fx.svc.Request(context.Background(), party.ID, requesterID)
	require.Nil(t, appErr)

	// A second Approve completes between the first one's join and its
	// resolution; the loser must not undo the winner's membership.
	fx.membership.onJoin = func() {
		fx.membership.onJoin = nil
		_, approveErr := fx.svc.Approve(context.Background(), created.ID, hostID)
		require.Nil(t, approveErr)
	}

	_, appErr = fx.svc.Approve(context.Background(), created.ID, hostID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrAlreadyResolved, appErr.Code)

	stored, err := fx.requests.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JoinRequestStatusAccepted, stored.Status)

	joined, joinedErr := fx.membership.IsJoined(context.Background(), party.ID, requesterID)
	require.Nil(t, joinedErr)
	assert.True(t, joined)
	assert.Empty(t, fx.membership.leaveLog)
}

func TestDeclineNotifiesRequester(t *testing.T) {
	fx := newWorkflowFixture()
	hostID := uuid.New()
	party := fx.parties.addParty(hostID, true)
	requesterID := uuid.New()

	created, appErr := fx.svc.Request(context.Background(), party.ID, requesterID)
	require.Nil(t, appErr)

	resolved, appErr := fx.svc.Decline(context.Background(), created.ID, hostID)
	require.Nil(t, appErr)
	assert.Equal(t, "declined", resolved.Status)
	assert.Empty(t, fx.membership.joinLog)

	notifs := fx.notifRepo.byUser(requesterID)
	require.Len(t, notifs, 1)
	assert.Equal(t, notifEntity.TypeJoinRequestDeclined, notifs[0].Type)
}

func TestApproveOnExpiredPartyIsMoot(t *testing.T) {
	fx := newWorkflowFixture()
	hostID := uuid.New()
	party := fx.parties.addParty(hostID, true)

	created, appErr := fx.svc.Request(context.Background(), party.ID, uuid.New())
	require.Nil(t, appErr)

	fx.parties.mu.Lock()
	fx.parties.parties[party.ID].ExpiresAt = time.Now().Add(-time.Second)
	fx.parties.mu.Unlock()

	_, appErr = fx.svc.Approve(context.Background(), created.ID, hostID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrPartyExpired, appErr.Code)
	assert.Empty(t, fx.membership.joinLog)

	req, err := fx.requests.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JoinRequestStatusPending, req.Status)
}

func TestListPendingIsHostOnly(t *testing.T) {
	fx := newWorkflowFixture()
	hostID := uuid.New()
	party := fx.parties.addParty(hostID, true)

	_, appErr := fx.svc.Request(context.Background(), party.ID, uuid.New())
	require.Nil(t, appErr)
	_, appErr = fx.svc.Request(context.Background(), party.ID, uuid.New())
	require.Nil(t, appErr)

	out, appErr := fx.svc.ListPending(context.Background(), party.ID, hostID)
	require.Nil(t, appErr)
	assert.Equal(t, 2, out.Total)

	_, appErr = fx.svc.ListPending(context.Background(), party.ID, uuid.New())
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)
}

func TestPendingCountTracksResolutions(t *testing.T) {
	fx := newWorkflowFixture()
	hostID := uuid.New()
	party := fx.parties.addParty(hostID, true)

	first, appErr := fx.svc.Request(context.Background(), party.ID, uuid.New())
	require.Nil(t, appErr)
	_, appErr = fx.svc.Request(context.Background(), party.ID, uuid.New())
	require.Nil(t, appErr)

	count, appErr := fx.svc.PendingCount(context.Background(), party.ID, hostID)
	require.Nil(t, appErr)
	assert.Equal(t, 2, count)

	_, appErr = fx.svc.Decline(context.Background(), first.ID, hostID)
	require.Nil(t, appErr)

	count, appErr = fx.svc.PendingCount(context.Background(), party.ID, hostID)
	require.Nil(t, appErr)
	assert.Equal(t, 1, count)

	_, appErr = fx.svc.PendingCount(context.Background(), party.ID, uuid.New())
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)
}
