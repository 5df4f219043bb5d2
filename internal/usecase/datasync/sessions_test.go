package datasync

import (
	"context"
	stdErrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

func TestSessions_OneCoordinatorPerUser(t *testing.T) {
	s := NewSessions(newFakeSource(), &recordingApplier{}, nil)

	a := s.Get("u1")
	assert.Same(t, a, s.Get("u1"))
	assert.NotSame(t, a, s.Get("u2"))
	assert.Equal(t, 2, s.Len())
}

func TestSessions_BroadcastsConnectivity(t *testing.T) {
	applier := &recordingApplier{}
	s := NewSessions(newFakeSource(), applier, nil)
	ctx := context.Background()

	early := s.Get("u1")
	s.SetOnline(ctx, false)
	late := s.Get("u2")

	assert.False(t, early.IsOnline())
	assert.False(t, late.IsOnline(), "new sessions start in the current state")

	_, err := early.QueueUpdate(ctx, update(`"1"`, at(1)))
	require.NoError(t, err)
	_, err = late.QueueUpdate(ctx, update(`"2"`, at(2)))
	require.NoError(t, err)

	s.SetOnline(ctx, true)
	assert.ElementsMatch(t, []string{`"1"`, `"2"`}, applier.payloads())
}

func TestSessions_ReleaseClosesSubscriptions(t *testing.T) {
	src := newFakeSource()
	s := NewSessions(src, &recordingApplier{}, nil)

	_, err := s.Get("u1").SubscribeToUserMeetings("u1", noopMeetings)
	require.NoError(t, err)
	_, err = s.Get("u2").SubscribeToUserMeetings("u2", noopMeetings)
	require.NoError(t, err)

	s.Release("u1")
	s.Release("u1")
	assert.Equal(t, 0, src.meetings.activeFor("u1"))
	assert.Equal(t, 1, src.meetings.activeFor("u2"))

	s.CloseAll()
	assert.Equal(t, 0, src.meetings.activeFor("u2"))
	assert.Equal(t, 0, s.Len())
}

type flakyPinger struct {
	mu  sync.Mutex
	err error
}

func (p *flakyPinger) set(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *flakyPinger) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

type transitions struct {
	seen []bool
}

func (l *transitions) SetOnline(_ context.Context, online bool) {
	l.seen = append(l.seen, online)
}

func TestConnectivityWatcher_ReportsTransitionsOnly(t *testing.T) {
	pinger := &flakyPinger{}
	listener := &transitions{}
	w := NewConnectivityWatcher(pinger, listener, 0, nil)
	ctx := context.Background()

	assert.True(t, w.Check(ctx))
	pinger.set(stdErrors.New("connection refused"))
	assert.False(t, w.Check(ctx))
	assert.False(t, w.Check(ctx))
	pinger.set(nil)
	assert.True(t, w.Check(ctx))

	assert.Equal(t, []bool{false, true}, listener.seen)
}

func TestConnectivityWatcher_DrivesSessions(t *testing.T) {
	pinger := &flakyPinger{}
	applier := &recordingApplier{}
	s := NewSessions(newFakeSource(), applier, nil)
	w := NewConnectivityWatcher(pinger, s, 0, nil)
	ctx := context.Background()

	c := s.Get("u1")
	pinger.set(stdErrors.New("timeout"))
	w.Check(ctx)

	queued, err := c.QueueUpdate(ctx, entities.QueuedUpdate{
		Type: entities.UpdateTypeNotification, Action: entities.UpdateActionDelete, Payload: rawJSON(`"n1"`),
	})
	require.NoError(t, err)
	assert.True(t, queued)

	pinger.set(nil)
	w.Check(ctx)
	assert.Equal(t, []string{`"n1"`}, applier.payloads())
}
