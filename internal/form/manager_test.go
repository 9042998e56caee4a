package form

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_OpenGetRemove(t *testing.T) {
	m := NewManager(time.Hour, time.Hour, nil)
	s, err := m.Open(context.Background(), OpenRequest{Mode: ModeCreate}, testDeps(t, nil, &recordingSubmitter{}))
	require.NoError(t, err)

	got, ok := m.Get(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, m.Len())

	m.Remove(s.ID())
	_, ok = m.Get(s.ID())
	assert.False(t, ok)
	assert.Equal(t, StateClosed, s.State())
}

func TestManager_RemoveDiscardsInFlightLoad(t *testing.T) {
	m := NewManager(time.Hour, time.Hour, nil)
	l := newChanLoader()
	s, err := m.Open(context.Background(), OpenRequest{Mode: ModeEdit, CloudID: "c1"}, testDeps(t, l, &recordingSubmitter{}))
	require.NoError(t, err)
	<-l.calls

	m.Remove(s.ID())
	assert.Equal(t, StateClosed, s.State())
	assert.Nil(t, s.Snapshot().Draft)
}

func TestManager_ExpiresIdleSessions(t *testing.T) {
	m := NewManager(time.Hour, 10*time.Millisecond, nil)
	s, err := m.Open(context.Background(), OpenRequest{Mode: ModeCreate}, testDeps(t, nil, &recordingSubmitter{}))
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, ok := m.Get(s.ID())
	assert.False(t, ok)
	assert.Equal(t, StateClosed, s.State())
}

func TestManager_Cleanup(t *testing.T) {
	m := NewManager(time.Hour, time.Hour, nil)
	deps := testDeps(t, nil, &recordingSubmitter{})
	open, err := m.Open(context.Background(), OpenRequest{Mode: ModeCreate}, deps)
	require.NoError(t, err)
	closed, err := m.Open(context.Background(), OpenRequest{Mode: ModeCreate}, deps)
	require.NoError(t, err)
	require.NoError(t, closed.Cancel())

	assert.Equal(t, 1, m.Cleanup())
	_, ok := m.Get(open.ID())
	assert.True(t, ok)
	_, ok = m.Get(closed.ID())
	assert.False(t, ok)
}
