package transport

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/constants"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/logger"
	"github.com/Einheit-Zenkai/meet-riders-sub003/modules/live/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisTransport backs the party channel with Redis pub/sub so that
// members connected to different nodes still see each other's events.
type RedisTransport struct {
	client *redis.Client
	buffer int

	mu   sync.Mutex
	subs map[subKey]*redisSubscriber
}

type subKey struct {
	partyID uuid.UUID
	userID  uuid.UUID
}

type redisSubscriber struct {
	pubsub *redis.PubSub
	out    chan entity.LiveEvent
}

func NewRedisTransport(client *redis.Client, buffer int) *RedisTransport {
	if buffer <= 0 {
		buffer = 1
	}
	return &RedisTransport{
		client: client,
		buffer: buffer,
		subs:   make(map[subKey]*redisSubscriber),
	}
}

func channelFor(partyID uuid.UUID) string {
	return constants.LiveChannelScope + partyID.String()
}

func (t *RedisTransport) Publish(ctx context.Context, event *entity.LiveEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := t.client.Publish(ctx, channelFor(event.PartyID), payload).Err(); err != nil {
		logger.Error("RedisTransport:Publish:Error:", err)
		return err
	}
	return nil
}

func (t *RedisTransport) Subscribe(ctx context.Context, partyID, userID uuid.UUID) (*Subscription, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	key := subKey{partyID: partyID, userID: userID}

	t.mu.Lock()
	if old, ok := t.subs[key]; ok {
		_ = old.pubsub.Close()
		delete(t.subs, key)
	}

	pubsub := t.client.Subscribe(context.WithoutCancel(ctx), channelFor(partyID))
	sub := &redisSubscriber{
		pubsub: pubsub,
		out:    make(chan entity.LiveEvent, t.buffer),
	}
	t.subs[key] = sub
	t.mu.Unlock()

	go sub.pump(userID)

	return &Subscription{
		Events: sub.out,
		cancel: func() { t.Drop(partyID, userID) },
	}, nil
}

// pump decodes messages off the pub/sub connection into the subscriber
// channel, skipping the member's own publishes. It exits, closing the
// channel, when the pub/sub connection is closed by Drop.
func (s *redisSubscriber) pump(userID uuid.UUID) {
	defer close(s.out)

	for msg := range s.pubsub.Channel() {
		var event entity.LiveEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			logger.Warn("RedisTransport:Pump:BadPayload", "error", err.Error())
			continue
		}
		if event.MemberID == userID {
			continue
		}
		select {
		case s.out <- event:
		default:
			logger.Debug("RedisTransport:Pump:SubscriberFull", "party_id", event.PartyID, "user_id", userID)
		}
	}
}

func (t *RedisTransport) Drop(partyID, userID uuid.UUID) {
	key := subKey{partyID: partyID, userID: userID}

	t.mu.Lock()
	defer t.mu.Unlock()

	if sub, ok := t.subs[key]; ok {
		_ = sub.pubsub.Close()
		delete(t.subs, key)
	}
}

func (t *RedisTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, sub := range t.subs {
		_ = sub.pubsub.Close()
		delete(t.subs, key)
	}
	return nil
}
