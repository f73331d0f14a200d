package service

import (
	"context"
	"sync"
	"time"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/logger"

	"github.com/google/uuid"
)

// ExpireFunc is invoked when a party's deadline passes. The captured
// deadline travels with the fire so the receiver can reject a stale
// timer whose deadline no longer matches the party's expires_at.
type ExpireFunc func(ctx context.Context, partyID uuid.UUID, deadline time.Time)

// PartyClock keeps one cancelable timer per active party. Arm replaces
// any existing timer, so a restore that moves expires_at forward
// invalidates the old one; even if the old timer has already fired, the
// deadline guard in the expire path makes it a no-op.
type PartyClock struct {
	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
	fire   ExpireFunc
}

func NewPartyClock(fire ExpireFunc) *PartyClock {
	return &PartyClock{
		timers: make(map[uuid.UUID]*time.Timer),
		fire:   fire,
	}
}

// Arm schedules the expiry fire for partyID at deadline, replacing any
// previously armed timer.
func (c *PartyClock) Arm(partyID uuid.UUID, deadline time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[partyID]; ok {
		t.Stop()
	}

	wait := time.Until(deadline)
	if wait < 0 {
		wait = 0
	}

	// The callback only evicts its own timer: a fire racing a re-Arm
	// must not remove the newly armed one from the map.
	var t *time.Timer
	t = time.AfterFunc(wait, func() {
		c.mu.Lock()
		if c.timers[partyID] == t {
			delete(c.timers, partyID)
		}
		c.mu.Unlock()

		logger.Debug("PartyClock:Fire", "party_id", partyID, "deadline", deadline)
		c.fire(context.Background(), partyID, deadline)
	})
	c.timers[partyID] = t
}

// Armed reports whether a timer is scheduled for partyID.
func (c *PartyClock) Armed(partyID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.timers[partyID]
	return ok
}

// Cancel stops the timer for partyID, if armed.
func (c *PartyClock) Cancel(partyID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[partyID]; ok {
		t.Stop()
		delete(c.timers, partyID)
	}
}

// Stop cancels every armed timer.
func (c *PartyClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}
