package lock

import (
	"sync"
	"testing"
	"time"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyMutexSerializesSameKey(t *testing.T) {
	km := NewKeyMutex(time.Second)

	var held, max int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, appErr := km.Acquire("party-1")
			require.Nil(t, appErr)

			mu.Lock()
			held++
			if held > max {
				max = held
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			held--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, max)
}

func TestKeyMutexIndependentKeys(t *testing.T) {
	km := NewKeyMutex(50 * time.Millisecond)

	releaseA, appErr := km.Acquire("party-a")
	require.Nil(t, appErr)
	defer releaseA()

	releaseB, appErr := km.Acquire("party-b")
	require.Nil(t, appErr)
	releaseB()
}

func TestKeyMutexTimeout(t *testing.T) {
	km := NewKeyMutex(20 * time.Millisecond)

	release, appErr := km.Acquire("party-1")
	require.Nil(t, appErr)
	defer release()

	_, appErr = km.Acquire("party-1")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrLockTimeout, appErr.Code)
}
