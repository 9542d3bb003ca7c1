package playground

import (
	"context"
	"time"
)

// Debounce calls fn with the most recent value received from in once no new value has arrived
// for the quiet period. A value received while another is pending replaces it, so fn only ever
// sees the latest snapshot and never runs concurrently with itself.
//
// Debounce returns nil when in is closed, ctx.Err() when ctx is done and the error of fn
// otherwise. In the first two cases a pending value is dropped.
func Debounce(ctx context.Context, in <-chan string, quiet time.Duration, fn func(string) error) error {
	var (
		pending string
		timer   *time.Timer
		fire    <-chan time.Time // nil while nothing is pending
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case v, ok := <-in:
			if !ok {
				return nil
			}
			pending = v
			// a fresh timer per value: a stopped timer may still hold a stale tick
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(quiet)
			fire = timer.C

		case <-fire:
			fire = nil
			if err := fn(pending); err != nil {
				return err
			}
		}
	}
}
