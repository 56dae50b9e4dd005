package locking

import (
	"context"
	"fmt"
	"time"
)

// LockerInterface represents a Locker
type LockerInterface interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (LockInterface, error)
}

// LockInterface represents a Lock
type LockInterface interface {
	Key() string
	Release(ctx context.Context) error
}

// TapasKey builds the lock key guarding writes to a single tapas
func TapasKey(tapasID string) string {
	return fmt.Sprintf("tapas-%s", tapasID)
}
