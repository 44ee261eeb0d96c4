// Package lock serializes team-lead assignment per (department, subfunction).
package lock

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotAcquired is returned when the lock could not be taken before ctx ended.
var ErrNotAcquired = errors.New("lock: not acquired")

// Locker hands out exclusive locks by key. The returned unlock func is safe to call once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// TeamLeadKey 组长分配锁的键
func TeamLeadKey(departmentID, subfunctionID string) string {
	return fmt.Sprintf("teamlead:%s:%s", departmentID, subfunctionID)
}
