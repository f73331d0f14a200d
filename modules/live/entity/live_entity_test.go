package entity

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDedupKeyIsStablePerPublish(t *testing.T) {
	memberID := uuid.New()
	first := &LiveEvent{MemberID: memberID, Type: EventTypeChat, Text: "a", TS: 100}
	redelivery := &LiveEvent{MemberID: memberID, Type: EventTypeChat, Text: "a", TS: 100}
	later := &LiveEvent{MemberID: memberID, Type: EventTypeChat, Text: "b", TS: 101}

	assert.Equal(t, first.DedupKey(), redelivery.DedupKey())
	assert.NotEqual(t, first.DedupKey(), later.DedupKey())
}

func TestDeduperSuppressesRedelivery(t *testing.T) {
	d := NewDeduper(8)

	assert.False(t, d.Seen("a|1"))
	assert.True(t, d.Seen("a|1"))
	assert.False(t, d.Seen("a|2"))
	assert.False(t, d.Seen("b|1"))
	assert.True(t, d.Seen("b|1"))
}

func TestDeduperEvictsOldestBeyondWindow(t *testing.T) {
	d := NewDeduper(3)

	for i := 0; i < 3; i++ {
		assert.False(t, d.Seen(fmt.Sprintf("k|%d", i)))
	}

	// A fourth key evicts the oldest; the evicted key reads as unseen.
	assert.False(t, d.Seen("k|3"))
	assert.False(t, d.Seen("k|0"))
	assert.True(t, d.Seen("k|3"))
}

func TestValidStatusKind(t *testing.T) {
	assert.True(t, ValidStatusKind(StatusOnMyWay))
	assert.True(t, ValidStatusKind(StatusAtMeetup))
	assert.True(t, ValidStatusKind(StatusInCab))
	assert.True(t, ValidStatusKind(StatusCompleted))
	assert.False(t, ValidStatusKind(StatusKind("teleporting")))
}
