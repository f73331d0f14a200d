package lock

import (
	"sync"
	"time"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/errors"
)

// KeyMutex serializes work per key. A caller that cannot take the lock
// within the configured wait gets a typed lock-timeout error instead of
// blocking indefinitely, so a wedged holder cannot stall a party forever.
type KeyMutex struct {
	mu      sync.Mutex
	wait    time.Duration
	entries map[string]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

func NewKeyMutex(wait time.Duration) *KeyMutex {
	return &KeyMutex{
		wait:    wait,
		entries: make(map[string]*entry),
	}
}

// Acquire takes the lock for key, returning the release function. Callers
// must invoke release exactly once.
func (k *KeyMutex) Acquire(key string) (func(), *errors.AppError) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	timer := time.NewTimer(k.wait)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		return func() {
			<-e.sem
			k.release(key, e)
		}, nil
	case <-timer.C:
		k.release(key, e)
		return nil, errors.NewAppError(errors.ErrLockTimeout, "Timed out waiting for party lock", nil)
	}
}

func (k *KeyMutex) release(key string, e *entry) {
	k.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()
}
