package console

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/cloudconsole/internal/event"
	"github.com/matthewbaird/cloudconsole/internal/form"
	"github.com/matthewbaird/cloudconsole/internal/seed"
	"github.com/matthewbaird/cloudconsole/internal/store"
	"github.com/matthewbaird/cloudconsole/internal/table"
	"github.com/matthewbaird/cloudconsole/internal/types"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []cloudevents.Event
}

func (r *recordingPublisher) Publish(_ context.Context, evt cloudevents.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type())
	}
	return out
}

func newPage(t *testing.T) (*Page, *recordingPublisher) {
	t.Helper()
	s := store.NewMemoryStore()
	require.NoError(t, seed.Seed(context.Background(), s, nil))
	pub := &recordingPublisher{}
	p := NewPage(s, pub, nil)
	p.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return p, pub
}

func TestPage_SubmitCreateEditDelete(t *testing.T) {
	ctx := context.Background()
	p, pub := newPage(t)

	payload := seed.Clouds()[0]
	payload.ID = "ignored"
	payload.Name = "new"
	require.NoError(t, p.Submit(ctx, form.Submission{Mode: form.ModeCreate, Payload: payload}))

	list, err := p.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	created := list[0]
	assert.Equal(t, "new", created.Name, "create prepends")
	assert.NotEqual(t, "ignored", created.ID)

	edited := created
	edited.ID = ""
	edited.Name = "renamed"
	require.NoError(t, p.Submit(ctx, form.Submission{Mode: form.ModeEdit, CloudID: created.ID, Payload: edited}))
	got, err := p.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	require.NoError(t, p.Submit(ctx, form.Submission{Mode: form.ModeDelete, CloudID: created.ID}))
	_, err = p.Get(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.Equal(t, []string{event.TypeCloudCreated, event.TypeCloudUpdated, event.TypeCloudDeleted}, pub.types())
	deleted, err := event.Payload(pub.events[2])
	require.NoError(t, err)
	assert.Equal(t, "renamed", deleted.Name)
}

func TestPage_SubmitEditKeepsMaskedSecrets(t *testing.T) {
	ctx := context.Background()
	p, _ := newPage(t)
	list, err := p.List(ctx)
	require.NoError(t, err)
	stored := list[0]

	edited := stored.Masked()
	edited.Credentials.AccessKey = "AKIANEW"
	require.NoError(t, p.Submit(ctx, form.Submission{Mode: form.ModeEdit, CloudID: stored.ID, Payload: edited}))

	got, err := p.Get(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "AKIANEW", got.Credentials.AccessKey)
	assert.Equal(t, stored.Credentials.SecretAccessKey, got.Credentials.SecretAccessKey)
	assert.NotEqual(t, types.MaskedSecret, got.Credentials.SecretAccessKey)
}

func TestPage_SubmitErrors(t *testing.T) {
	ctx := context.Background()
	p, pub := newPage(t)

	err := p.Submit(ctx, form.Submission{Mode: form.ModeEdit, CloudID: "missing"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	err = p.Submit(ctx, form.Submission{Mode: form.ModeDelete, CloudID: "missing"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	err = p.Submit(ctx, form.Submission{Mode: "archive"})
	assert.ErrorIs(t, err, form.ErrBadRequest)
	assert.Empty(t, pub.types())
}

func cellsByKey(row []table.Cell) map[string]string {
	out := map[string]string{}
	for _, c := range row {
		out[c.Key] = string(c.HTML)
	}
	return out
}

func TestPage_Grid(t *testing.T) {
	p, _ := newPage(t)
	tbl, err := p.Grid(context.Background())
	require.NoError(t, err)
	require.False(t, tbl.Empty)

	var keys []string
	for _, c := range tbl.Columns {
		keys = append(keys, c.Key)
	}
	assert.Equal(t, []string{
		"id", "provider", "name", "cloudGroupName", "regionList",
		"eventProcessEnabled", "userActivityEnabled", "scheduleScanSetting",
		"credentialType", "actions",
	}, keys)
	assert.NotContains(t, keys, "credentials")
	assert.NotContains(t, keys, "eventSource")
	assert.NotContains(t, keys, "scheduleScanEnabled")

	cells := cellsByKey(tbl.Rows[0])
	assert.Equal(t, "AWS Account Mock", cells["name"])
	assert.Equal(t, "global, us-east-1, ap-northeast-2", cells["regionList"])
	assert.Equal(t, "default-group", cells["cloudGroupName"])
	assert.Contains(t, cells["eventProcessEnabled"], "Enabled")
	assert.Contains(t, cells["userActivityEnabled"], "Active")
	assert.Contains(t, cells["scheduleScanSetting"], "Every day at 01:00")
	assert.Contains(t, cells["scheduleScanSetting"], "next 2026-03-02 01:00")
	assert.Contains(t, cells["actions"], `value="edit"`)
	assert.Contains(t, cells["actions"], `value="delete"`)
	assert.True(t, strings.Contains(cells["actions"], `action="`+DialogsPath+`"`))
}

func TestPage_GridEmpty(t *testing.T) {
	p := NewPage(store.NewMemoryStore(), nil, nil)
	tbl, err := p.Grid(context.Background())
	require.NoError(t, err)
	assert.True(t, tbl.Empty)
	assert.Equal(t, table.EmptyText, tbl.EmptyText)
}

func TestTemplates(t *testing.T) {
	assert.Equal(t, "-", string(joined("x", table.Row{})))
	assert.Equal(t, "-", string(trailName(nil, table.Row{})))
	assert.Equal(t, "trail", string(trailName(map[string]any{"cloudTrailName": "trail"}, table.Row{})))
	assert.Contains(t, string(badge("Enabled", "Disabled", "off")(false, table.Row{})), "Disabled")

	p, _ := newPage(t)
	off := p.schedule(map[string]any{"frequency": types.FrequencyHour, "minute": "05"},
		table.Row{Values: map[string]any{"scheduleScanEnabled": false}})
	assert.Equal(t, "Every hour at 05m", string(off))
	assert.Equal(t, "-", string(p.schedule("bogus", table.Row{})))
}

func TestTitle(t *testing.T) {
	tests := map[string]string{
		"/":          "Cloud Management",
		"/cloudmgmt": "Cloud Management",
		"/security":  "Security",
		"/settings":  "Settings",
		"/reports/x": "Reports",
		"":           "Cloud Management",
	}
	for path, want := range tests {
		assert.Equal(t, want, Title(path), path)
	}
}

func TestActivityGrid(t *testing.T) {
	tbl := ActivityGrid([]types.ActivityEntry{{
		EventID:    "e1",
		EventType:  event.TypeCloudCreated,
		OccurredAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		CloudID:    "c1",
		CloudName:  "prod",
		Summary:    "Cloud account connected: prod",
		Category:   "inventory",
		Weight:     "info",
		Polarity:   "positive",
	}})
	var labels []string
	for _, c := range tbl.Columns {
		labels = append(labels, c.Label)
	}
	assert.Equal(t, []string{"Event", "When", "Cloud", "Summary", "Category", "Weight", "Polarity"}, labels)
	assert.True(t, ActivityGrid(nil).Empty)
}
