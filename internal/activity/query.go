package activity

import "time"

// QueryOptions controls filtering and pagination for per-cloud queries.
type QueryOptions struct {
	Since      *time.Time // default: 30 days ago
	Until      *time.Time // default: now
	Categories []string   // filter to specific signal categories
	MinWeight  string     // minimum weight threshold (default: "info")
	Limit      int        // max results (default: 100, max: 500)
	Cursor     string     // cursor for pagination
}

// SearchOptions controls filtering for activity search.
type SearchOptions struct {
	CloudID    string
	Since      *time.Time
	Categories []string
	Limit      int // default: 20
}

// DefaultQueryOptions returns QueryOptions with sensible defaults.
func DefaultQueryOptions() QueryOptions {
	now := time.Now()
	since := now.AddDate(0, 0, -30)
	return QueryOptions{
		Since:     &since,
		Until:     &now,
		MinWeight: "info",
		Limit:     100,
	}
}

// DefaultSearchOptions returns SearchOptions with sensible defaults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{Limit: 20}
}
