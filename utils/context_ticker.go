package utils

import (
	"context"
	"time"
)

// ContextTick delivers ticks every d until ctx is done, then closes the channel and releases the ticker
func ContextTick(ctx context.Context, d time.Duration) <-chan time.Time {
	ticker := time.NewTicker(d)
	c := make(chan time.Time, 1)
	go func() {
		defer close(c)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case tick := <-ticker.C:
				select {
				case c <- tick:
				default:
				}
			}
		}
	}()
	return c
}
