package datasync

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
)

// feed is an upstream that counts open handles per id
type feed[T any] struct {
	mu           sync.Mutex
	sinks        map[string]func([]T)
	active       map[string]int
	maxActive    int
	opens        int
	releases     int
	openErr      error
	releaseErr   error
	releasePanic bool

	// entered receives once per open; gate holds the open until closed
	entered chan struct{}
	gate    chan struct{}
}

func newFeed[T any]() *feed[T] {
	return &feed[T]{sinks: map[string]func([]T){}, active: map[string]int{}}
}

func (f *feed[T]) subscribe(_ context.Context, id string, on func([]T)) (repositories.Unsubscribe, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opens++
	f.active[id]++
	if f.active[id] > f.maxActive {
		f.maxActive = f.active[id]
	}
	f.sinks[id] = on
	released := false
	return func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		if released {
			return nil
		}
		released = true
		f.active[id]--
		f.releases++
		if f.releasePanic {
			panic("release exploded")
		}
		return f.releaseErr
	}, nil
}

func (f *feed[T]) sink(id string) func([]T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sinks[id]
}

func (f *feed[T]) emit(id string, items []T) {
	f.sink(id)(items)
}

func (f *feed[T]) counts() (opens, releases int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens, f.releases
}

func (f *feed[T]) activeFor(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active[id]
}

type fakeSource struct {
	meetings      *feed[entities.Meeting]
	teamMeetings  *feed[entities.Meeting]
	tasks         *feed[entities.TaskWithContext]
	teams         *feed[entities.Team]
	notifications *feed[entities.Notification]

	data    entities.UserDataSnapshot
	getErr  error
	entered chan struct{}
	block   chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		meetings:      newFeed[entities.Meeting](),
		teamMeetings:  newFeed[entities.Meeting](),
		tasks:         newFeed[entities.TaskWithContext](),
		teams:         newFeed[entities.Team](),
		notifications: newFeed[entities.Notification](),
	}
}

func (f *fakeSource) GetUserMeetings(ctx context.Context, _ string) ([]entities.Meeting, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.data.Meetings, f.getErr
}

func (f *fakeSource) GetUserTasks(context.Context, string) ([]entities.TaskWithContext, error) {
	return f.data.Tasks, nil
}

func (f *fakeSource) GetUserTeams(context.Context, string) ([]entities.Team, error) {
	return f.data.Teams, nil
}

func (f *fakeSource) GetUserNotifications(context.Context, string) ([]entities.Notification, error) {
	return f.data.Notifications, nil
}

func (f *fakeSource) SubscribeToUserMeetings(ctx context.Context, id string, on func([]entities.Meeting)) (repositories.Unsubscribe, error) {
	return f.meetings.subscribe(ctx, id, on)
}

func (f *fakeSource) SubscribeToTeamMeetings(ctx context.Context, id string, on func([]entities.Meeting)) (repositories.Unsubscribe, error) {
	return f.teamMeetings.subscribe(ctx, id, on)
}

func (f *fakeSource) SubscribeToUserTasks(ctx context.Context, id string, on func([]entities.TaskWithContext)) (repositories.Unsubscribe, error) {
	return f.tasks.subscribe(ctx, id, on)
}

func (f *fakeSource) SubscribeToUserTeams(ctx context.Context, id string, on func([]entities.Team)) (repositories.Unsubscribe, error) {
	return f.teams.subscribe(ctx, id, on)
}

func (f *fakeSource) SubscribeToUserNotifications(ctx context.Context, id string, on func([]entities.Notification)) (repositories.Unsubscribe, error) {
	return f.notifications.subscribe(ctx, id, on)
}

// recordingApplier remembers applied updates and fails those listed in failOn
type recordingApplier struct {
	mu      sync.Mutex
	applied []entities.QueuedUpdate
	failOn  map[string]error
	panicOn string
}

func (r *recordingApplier) ApplyUpdate(_ context.Context, u entities.QueuedUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, u)
	if r.panicOn != "" && string(u.Payload) == r.panicOn {
		panic("applier exploded")
	}
	return r.failOn[string(u.Payload)]
}

func (r *recordingApplier) payloads() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.applied))
	for _, u := range r.applied {
		out = append(out, string(u.Payload))
	}
	return out
}

func rawJSON(s string) json.RawMessage {
	return json.RawMessage(s)
}
