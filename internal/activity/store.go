// Package activity keeps the classified cloud activity stream shown on the
// Security page.
package activity

import (
	"context"

	"github.com/matthewbaird/cloudconsole/internal/types"
)

// Store is the interface for reading and writing activity entries.
type Store interface {
	// WriteEntries appends entries.
	WriteEntries(ctx context.Context, entries []types.ActivityEntry) error

	// QueryByCloud returns entries for one cloud account, newest first.
	QueryByCloud(ctx context.Context, cloudID string, opts QueryOptions) (entries []types.ActivityEntry, nextCursor string, totalCount int, err error)

	// Search matches summaries and cloud names case-insensitively.
	Search(ctx context.Context, query string, opts SearchOptions) (entries []types.ActivityEntry, totalCount int, err error)

	// Recent returns the newest entries across all clouds.
	Recent(ctx context.Context, limit int) ([]types.ActivityEntry, error)
}
