package locking

import (
	"context"
	"sync"
	"time"
)

// LockerMemory is a type of LockerInterface for a single instance deployment
type LockerMemory struct {
	pool  sync.Pool
	locks sync.Map
}

// NewLockerMemory builds a new LockerMemory instance
func NewLockerMemory() *LockerMemory {
	locker := LockerMemory{}
	locker.pool = sync.Pool{
		New: func() interface{} {
			return make(chan struct{}, 1)
		},
	}

	return &locker
}

// Acquire blocks until the lock for key is free or ctx is done. The ttl is not enforced in memory.
func (l *LockerMemory) Acquire(ctx context.Context, key string, _ time.Duration) (LockInterface, error) {
	slot := l.getSlot(key)

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &LockMemory{
		key: key,
		release: func() {
			<-slot
		},
	}, nil
}

func (l *LockerMemory) getSlot(key string) chan struct{} {
	newSlot := l.pool.Get()
	slot, loaded := l.locks.LoadOrStore(key, newSlot)
	if loaded {
		l.pool.Put(newSlot)
	}
	return slot.(chan struct{})
}

// LockMemory is a memory implementation of a LockInterface
type LockMemory struct {
	key     string
	once    sync.Once
	release func()
}

// Key returns a key
func (l *LockMemory) Key() string {
	return l.key
}

// Release releases a LockMemory, releasing twice is a no-op
func (l *LockMemory) Release(_ context.Context) error {
	l.once.Do(l.release)
	return nil
}
