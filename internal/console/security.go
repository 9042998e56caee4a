package console

import (
	"github.com/matthewbaird/cloudconsole/internal/table"
	"github.com/matthewbaird/cloudconsole/internal/types"
)

// ActivityGrid renders activity entries for the Security page. Every shown
// column is string-valued, so no cell templates are needed.
func ActivityGrid(entries []types.ActivityEntry) table.Table {
	return table.Render(entries, table.Options{
		Exclude: []string{"event_id", "cloud_id"},
		Labels:  activityLabel,
	})
}

func activityLabel(key string) string {
	switch key {
	case "event_type":
		return "Event"
	case "occurred_at":
		return "When"
	case "cloud_name":
		return "Cloud"
	}
	return table.HeaderLabel(key)
}
