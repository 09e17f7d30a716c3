package lights

import (
	"context"
	"time"
)

// lock takes the state lock shared by ApplyState and the blinker.
func (l *Lights) lock() {
	// Acquire only fails once its context is done
	_ = l.sem.Acquire(context.Background(), 1)
}

func (l *Lights) unlock() {
	l.sem.Release(1)
}

// lockWithin reports whether the state lock was taken before d elapsed or
// ctx ended.
func (l *Lights) lockWithin(ctx context.Context, d time.Duration) bool {
	if l.sem.TryAcquire(1) {
		return true
	}

	waitCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return l.sem.Acquire(waitCtx, 1) == nil
}
