package keylock_test

import (
	"sync"
	"testing"

	"github.com/jrsteele09/go-session-service/internal/keylock"
	"github.com/stretchr/testify/require"
)

func TestKeyLock_SerialisesSameKey(t *testing.T) {
	kl := keylock.New()

	const workers = 50
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kl.Lock(7)
			defer kl.Unlock(7)
			counter++
		}()
	}
	wg.Wait()

	require.Equal(t, workers, counter)
}

func TestKeyLock_DifferentKeysDoNotBlock(t *testing.T) {
	kl := keylock.New()

	kl.Lock(1)
	done := make(chan struct{})
	go func() {
		kl.Lock(2)
		kl.Unlock(2)
		close(done)
	}()
	<-done // would deadlock if key 2 contended with key 1
	kl.Unlock(1)
}

func TestKeyLock_UnlockWithoutLockPanics(t *testing.T) {
	kl := keylock.New()
	require.Panics(t, func() { kl.Unlock(99) })
}
