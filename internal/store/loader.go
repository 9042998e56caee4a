package store

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/matthewbaird/cloudconsole/internal/types"
)

// DefaultMaxDelay bounds the simulated fetch latency.
const DefaultMaxDelay = 500 * time.Millisecond

// DelayedLoader fetches records after a random delay, standing in for a
// remote API. It satisfies form.Loader.
type DelayedLoader struct {
	Store    Store
	MaxDelay time.Duration
	// Rand returns a value in [0, n). Defaults to math/rand/v2.
	Rand func(n int64) int64
}

// Load waits up to MaxDelay, then returns the record with id. It gives up
// early when ctx is done.
func (l DelayedLoader) Load(ctx context.Context, id string) (types.Cloud, error) {
	if d := l.delay(); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return types.Cloud{}, ctx.Err()
		case <-t.C:
		}
	}
	return l.Store.Get(ctx, id)
}

func (l DelayedLoader) delay() time.Duration {
	limit := l.MaxDelay
	if limit == 0 {
		limit = DefaultMaxDelay
	}
	if limit < 0 {
		return 0
	}
	rnd := l.Rand
	if rnd == nil {
		rnd = rand.Int64N
	}
	return time.Duration(rnd(int64(limit) + 1))
}
