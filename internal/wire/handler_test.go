package wire

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/cloudconsole/internal/form"
	"github.com/matthewbaird/cloudconsole/internal/form/field"
	"github.com/matthewbaird/cloudconsole/internal/logger"
	"github.com/matthewbaird/cloudconsole/internal/schema"
	"github.com/matthewbaird/cloudconsole/internal/store"
	"github.com/matthewbaird/cloudconsole/internal/types"
)

type nopSubmitter struct{}

func (nopSubmitter) Submit(context.Context, form.Submission) error { return nil }

// gateLoader reads from the store only once release is closed.
type gateLoader struct {
	store   store.Store
	release chan struct{}
}

func (l gateLoader) Load(ctx context.Context, id string) (types.Cloud, error) {
	select {
	case <-l.release:
	case <-ctx.Done():
		return types.Cloud{}, ctx.Err()
	}
	return l.store.Get(ctx, id)
}

type testDialogs struct {
	manager *form.Manager
	deps    form.Deps
}

func (d testDialogs) Open(ctx context.Context, req form.OpenRequest, opts ...form.Option) (*form.Session, error) {
	return d.manager.Open(ctx, req, d.deps, opts...)
}

func (d testDialogs) Remove(id string) { d.manager.Remove(id) }

type fixture struct {
	manager *form.Manager
	release chan struct{}
	cloudID string
	url     string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	reg, err := schema.NewRegistry()
	require.NoError(t, err)

	s := store.NewMemoryStore()
	rec, err := s.Create(context.Background(), types.Cloud{Provider: types.ProviderAWS, Name: "prod", RegionList: []string{"global", "us-east-1"}})
	require.NoError(t, err)

	f := fixture{
		manager: form.NewManager(time.Hour, time.Hour, logger.Discard()),
		release: make(chan struct{}),
		cloudID: rec.ID,
	}
	d := testDialogs{manager: f.manager, deps: form.Deps{
		Provider:  reg.Default(),
		Loader:    gateLoader{store: s, release: f.release},
		Submitter: nopSubmitter{},
		Logger:    logger.Discard(),
	}}
	srv := httptest.NewServer(NewHandler(d, logger.Discard()))
	t.Cleanup(srv.Close)
	f.url = "ws" + strings.TrimPrefix(srv.URL, "http")
	return f
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.CloseNow() })
	return c
}

func send(t *testing.T, c *websocket.Conn, typ, id string, data any) {
	t.Helper()
	msg := ClientMessage{Type: typ, ID: id}
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		msg.Data = raw
	}
	require.NoError(t, wsjson.Write(context.Background(), c, msg))
}

type received struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

func read(t *testing.T, c *websocket.Conn) received {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var msg received
	require.NoError(t, wsjson.Read(ctx, c, &msg))
	return msg
}

func snapshotOf(t *testing.T, msg received) form.Snapshot {
	t.Helper()
	require.Equal(t, TypeSnapshot, msg.Type)
	var snap form.Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	return snap
}

func TestHandler_CreateDialog(t *testing.T) {
	f := newFixture(t)
	c := dial(t, f.url)

	send(t, c, TypeOpen, "1", OpenData{Mode: form.ModeCreate})
	msg := read(t, c)
	assert.Equal(t, "1", msg.RequestID)
	snap := snapshotOf(t, msg)
	assert.Equal(t, form.StateReady, snap.State)
	assert.Equal(t, 1, f.manager.Len())

	send(t, c, form.EventChange, "2", EventData{Key: "regionList", Input: field.Input{Op: field.OpToggle, Value: "us-east-1"}})
	snap = snapshotOf(t, read(t, c))
	assert.Equal(t, []any{"global", "us-east-1"}, snap.Draft["regionList"])

	send(t, c, form.EventConfirm, "3", nil)
	snap = snapshotOf(t, read(t, c))
	assert.Equal(t, "Account Name is required.", snap.Errors["name"])

	send(t, c, TypePing, "4", nil)
	msg = read(t, c)
	assert.Equal(t, TypePong, msg.Type)
	assert.Equal(t, "4", msg.RequestID)

	send(t, c, form.EventCancel, "5", nil)
	snap = snapshotOf(t, read(t, c))
	assert.Equal(t, form.StateClosed, snap.State)
	assert.Equal(t, TypeClosed, read(t, c).Type)
	assert.Eventually(t, func() bool { return f.manager.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_EditPushesLoadCompletion(t *testing.T) {
	f := newFixture(t)
	c := dial(t, f.url)

	send(t, c, TypeOpen, "1", OpenData{Mode: form.ModeEdit, CloudID: f.cloudID})
	assert.Equal(t, form.StateLoading, snapshotOf(t, read(t, c)).State)

	close(f.release)
	msg := read(t, c)
	assert.Empty(t, msg.RequestID)
	snap := snapshotOf(t, msg)
	assert.Equal(t, form.StateReady, snap.State)
	assert.Equal(t, "prod", snap.Draft["name"])
}

func TestHandler_Errors(t *testing.T) {
	f := newFixture(t)
	c := dial(t, f.url)

	send(t, c, form.EventConfirm, "1", nil)
	msg := read(t, c)
	assert.Equal(t, TypeError, msg.Type)
	assert.Contains(t, string(msg.Data), "no_dialog")

	send(t, c, "explode", "2", nil)
	msg = read(t, c)
	assert.Equal(t, TypeError, msg.Type)
	assert.Contains(t, string(msg.Data), "unknown_type")

	send(t, c, TypeOpen, "3", OpenData{Mode: "bogus"})
	msg = read(t, c)
	assert.Contains(t, string(msg.Data), "invalid_input")

	send(t, c, TypeOpen, "4", OpenData{Mode: form.ModeCreate})
	snapshotOf(t, read(t, c))
	send(t, c, form.EventChange, "5", EventData{Key: "nope", Input: field.Input{Op: field.OpSet}})
	msg = read(t, c)
	assert.Equal(t, "5", msg.RequestID)
	assert.Contains(t, string(msg.Data), "invalid_input")
}

func TestHandler_DisconnectDiscardsDialog(t *testing.T) {
	f := newFixture(t)
	c := dial(t, f.url)

	send(t, c, TypeOpen, "1", OpenData{Mode: form.ModeEdit, CloudID: f.cloudID})
	snapshotOf(t, read(t, c))
	require.Equal(t, 1, f.manager.Len())

	require.NoError(t, c.Close(websocket.StatusNormalClosure, ""))
	assert.Eventually(t, func() bool { return f.manager.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
