package app

import (
	"context"
	"time"
)

// RunCountdown ticks the session once per interval until the session leaves the
// active state, ctx is cancelled, or a tick is rejected. Callers run it in its own
// goroutine.
func RunCountdown(ctx context.Context, session *Session, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-session.Done():
			return
		case <-ticker.C:
			// A tick that lost the race against Submit is rejected under the session lock.
			if _, err := session.Tick(); err != nil {
				return
			}
		}
	}
}
