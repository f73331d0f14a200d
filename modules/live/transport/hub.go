package transport

import (
	"context"
	"sync"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/logger"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/live/entity"

	"github.com/google/uuid"
)

// Hub is the in-process Transport: a per-party set of subscribers, each
// behind a buffered channel. Suitable for single-node deployments.
type Hub struct {
	mu      sync.RWMutex
	parties map[uuid.UUID]map[uuid.UUID]*hubSubscriber
	buffer  int
}

type hubSubscriber struct {
	ch     chan entity.LiveEvent
	closed bool
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 1
	}
	return &Hub{
		parties: make(map[uuid.UUID]map[uuid.UUID]*hubSubscriber),
		buffer:  buffer,
	}
}

// Publish fans the event out to every subscriber of the party except
// the publisher. A subscriber with a full buffer is skipped, not
// blocked on.
func (h *Hub) Publish(ctx context.Context, event *entity.LiveEvent) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for userID, sub := range h.parties[event.PartyID] {
		if userID == event.MemberID || sub.closed {
			continue
		}
		select {
		case sub.ch <- *event:
		default:
			logger.Debug("Hub:Publish:SubscriberFull", "party_id", event.PartyID, "user_id", userID)
		}
	}
	return nil
}

// Subscribe attaches a member to the party channel. A second subscribe
// for the same (party, user) replaces the first; the old channel is
// closed.
func (h *Hub) Subscribe(ctx context.Context, partyID, userID uuid.UUID) (*Subscription, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.parties[partyID]
	if !ok {
		subs = make(map[uuid.UUID]*hubSubscriber)
		h.parties[partyID] = subs
	}
	if old, ok := subs[userID]; ok && !old.closed {
		old.closed = true
		close(old.ch)
	}

	sub := &hubSubscriber{ch: make(chan entity.LiveEvent, h.buffer)}
	subs[userID] = sub

	return &Subscription{
		Events: sub.ch,
		cancel: func() { h.Drop(partyID, userID) },
	}, nil
}

// Drop severs a member's subscription, if any. Used both for client
// disconnects and for kicks signaled by the membership ledger.
func (h *Hub) Drop(partyID, userID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.parties[partyID]
	if !ok {
		return
	}
	if sub, ok := subs[userID]; ok {
		if !sub.closed {
			sub.closed = true
			close(sub.ch)
		}
		delete(subs, userID)
	}
	if len(subs) == 0 {
		delete(h.parties, partyID)
	}
}

func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for partyID, subs := range h.parties {
		for userID, sub := range subs {
			if !sub.closed {
				sub.closed = true
				close(sub.ch)
			}
			delete(subs, userID)
		}
		delete(h.parties, partyID)
	}
	return nil
}
