package fetch

import (
	"context"
	"math/rand"
	"time"
)

// Jitter is a polite pause drawn uniformly from [Min, Max].
type Jitter struct {
	Min time.Duration
	Max time.Duration
}

// Duration draws one pause length.
func (j Jitter) Duration() time.Duration {
	if j.Max <= j.Min {
		if j.Min < 0 {
			return 0
		}
		return j.Min
	}
	return j.Min + time.Duration(rand.Int63n(int64(j.Max-j.Min)+1))
}

// Wait sleeps for one drawn pause or until ctx is done.
func (j Jitter) Wait(ctx context.Context) error {
	d := j.Duration()
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
