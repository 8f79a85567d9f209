package lock

import (
	"context"
	"sync"

	"eventservices/internal/domain"
)

type keyedLock struct {
	sem  chan struct{}
	refs int
}

// MemoryLocker is an in-process ProviderLocker. Each provider gets its own
// semaphore; entries are dropped once nobody holds or waits for them.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

var _ domain.ProviderLocker = (*MemoryLocker)(nil)

// NewMemoryLocker returns an empty MemoryLocker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*keyedLock)}
}

// Lock blocks until providerID's critical section is free or ctx is done.
func (l *MemoryLocker) Lock(ctx context.Context, providerID string) (func(), error) {
	l.mu.Lock()
	k, ok := l.locks[providerID]
	if !ok {
		k = &keyedLock{sem: make(chan struct{}, 1)}
		l.locks[providerID] = k
	}
	k.refs++
	l.mu.Unlock()

	select {
	case k.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(providerID, k)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-k.sem
			l.release(providerID, k)
		})
	}, nil
}

func (l *MemoryLocker) release(providerID string, k *keyedLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k.refs--
	if k.refs == 0 {
		delete(l.locks, providerID)
	}
}

// size is the number of providers currently tracked.
func (l *MemoryLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
