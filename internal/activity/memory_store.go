package activity

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/matthewbaird/cloudconsole/internal/signals"
	"github.com/matthewbaird/cloudconsole/internal/types"
)

// DefaultCapacity bounds a MemoryStore.
const DefaultCapacity = 1000

// MemoryStore implements Store using an in-memory slice. The oldest entries
// are dropped once capacity is reached.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  []types.ActivityEntry
	capacity int
}

// NewMemoryStore creates an empty MemoryStore. capacity <= 0 uses
// DefaultCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{capacity: capacity}
}

func (s *MemoryStore) WriteEntries(_ context.Context, entries []types.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	if over := len(s.entries) - s.capacity; over > 0 {
		s.entries = slices.Delete(s.entries, 0, over)
	}
	return nil
}

func (s *MemoryStore) QueryByCloud(_ context.Context, cloudID string, opts QueryOptions) ([]types.ActivityEntry, string, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cursorTime time.Time
	if opts.Cursor != "" {
		cursorTime, _ = time.Parse(time.RFC3339Nano, opts.Cursor)
	}

	var matched []types.ActivityEntry
	for _, e := range s.entries {
		if e.CloudID != cloudID {
			continue
		}
		if opts.Since != nil && e.OccurredAt.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && e.OccurredAt.After(*opts.Until) {
			continue
		}
		if len(opts.Categories) > 0 && !slices.Contains(opts.Categories, e.Category) {
			continue
		}
		if opts.MinWeight != "" && opts.MinWeight != "info" && !signals.IsAtLeastWeight(e.Weight, opts.MinWeight) {
			continue
		}
		if !cursorTime.IsZero() && !e.OccurredAt.Before(cursorTime) {
			continue
		}
		matched = append(matched, e)
	}
	newestFirst(matched)

	totalCount := len(matched)
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var nextCursor string
	if len(matched) > limit {
		matched = matched[:limit]
		nextCursor = matched[len(matched)-1].OccurredAt.Format(time.RFC3339Nano)
	}
	return matched, nextCursor, totalCount, nil
}

func (s *MemoryStore) Search(_ context.Context, query string, opts SearchOptions) ([]types.ActivityEntry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var matched []types.ActivityEntry
	for _, e := range s.entries {
		if !strings.Contains(strings.ToLower(e.Summary), q) && !strings.Contains(strings.ToLower(e.CloudName), q) {
			continue
		}
		if opts.CloudID != "" && e.CloudID != opts.CloudID {
			continue
		}
		if opts.Since != nil && e.OccurredAt.Before(*opts.Since) {
			continue
		}
		if len(opts.Categories) > 0 && !slices.Contains(opts.Categories, e.Category) {
			continue
		}
		matched = append(matched, e)
	}
	newestFirst(matched)

	totalCount := len(matched)
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, totalCount, nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]types.ActivityEntry, error) {
	s.mu.RLock()
	out := slices.Clone(s.entries)
	s.mu.RUnlock()

	newestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []types.ActivityEntry{}
	}
	return out, nil
}

// newestFirst sorts by occurred_at DESC, keeping write order for ties.
func newestFirst(entries []types.ActivityEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].OccurredAt.After(entries[j].OccurredAt)
	})
}
