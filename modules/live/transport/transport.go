package transport

import (
	"context"

	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/live/entity"

	"github.com/google/uuid"
)

// Transport carries live events between the members of one party.
// Delivery is at-least-once; a slow subscriber may miss events rather
// than block the publisher.
type Transport interface {
	Publish(ctx context.Context, event *entity.LiveEvent) error
	Subscribe(ctx context.Context, partyID, userID uuid.UUID) (*Subscription, error)
	Drop(partyID, userID uuid.UUID)
	Close() error
}

// Subscription is one member's attachment to a party channel. Events is
// closed when the subscription is dropped or replaced.
type Subscription struct {
	Events <-chan entity.LiveEvent
	cancel func()
}

func (s *Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}
