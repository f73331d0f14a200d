package entity

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeLocation EventType = "location"
	EventTypeChat     EventType = "chat"
	EventTypeStatus   EventType = "status"
)

type StatusKind string

const (
	StatusOnMyWay   StatusKind = "on_my_way"
	StatusAtMeetup  StatusKind = "at_meetup"
	StatusInCab     StatusKind = "in_cab"
	StatusCompleted StatusKind = "completed"
)

func ValidStatusKind(k StatusKind) bool {
	switch k {
	case StatusOnMyWay, StatusAtMeetup, StatusInCab, StatusCompleted:
		return true
	}
	return false
}

// LiveEvent is a session-scoped broadcast event on a party's channel.
// It is never persisted; delivery is at-least-once and unordered across
// publishers, so consumers de-duplicate on the (member, ts) key.
type LiveEvent struct {
	PartyID  uuid.UUID  `json:"party_id"`
	MemberID uuid.UUID  `json:"member_id"`
	Type     EventType  `json:"type"`
	Lat      float64    `json:"lat,omitempty"`
	Lng      float64    `json:"lng,omitempty"`
	Text     string     `json:"text,omitempty"`
	Kind     StatusKind `json:"kind,omitempty"`
	TS       int64      `json:"ts"`
}

// DedupKey identifies an event within one party's channel. Two
// deliveries of the same publish carry the same key.
func (e *LiveEvent) DedupKey() string {
	return fmt.Sprintf("%s|%d", e.MemberID, e.TS)
}

// Deduper is a fixed-window set of recently seen event keys. Old keys
// are evicted in insertion order once the window is full.
type Deduper struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	window []string
	next   int
}

func NewDeduper(window int) *Deduper {
	if window <= 0 {
		window = 1
	}
	return &Deduper{
		seen:   make(map[string]struct{}, window),
		window: make([]string, window),
	}
}

// Seen records the key and reports whether it was already present.
func (d *Deduper) Seen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if evicted := d.window[d.next]; evicted != "" {
		delete(d.seen, evicted)
	}
	d.window[d.next] = key
	d.next = (d.next + 1) % len(d.window)
	d.seen[key] = struct{}{}
	return false
}
