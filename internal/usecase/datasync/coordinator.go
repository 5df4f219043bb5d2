package datasync

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/johnquangdev/meeting-taskflow/errors"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
)

const (
	// DefaultMaxQueuedUpdates bounds the offline queue when no limit is configured
	DefaultMaxQueuedUpdates = 100
	// DefaultOpenTimeout bounds how long a subscribe waits for the upstream feed
	DefaultOpenTimeout = 10 * time.Second
)

// Source is the storage surface the coordinator reads from
type Source interface {
	GetUserMeetings(ctx context.Context, userID string) ([]entities.Meeting, error)
	GetUserTasks(ctx context.Context, userID string) ([]entities.TaskWithContext, error)
	GetUserTeams(ctx context.Context, userID string) ([]entities.Team, error)
	GetUserNotifications(ctx context.Context, userID string) ([]entities.Notification, error)

	SubscribeToUserMeetings(ctx context.Context, userID string, onSnapshot func([]entities.Meeting)) (repositories.Unsubscribe, error)
	SubscribeToTeamMeetings(ctx context.Context, teamID string, onSnapshot func([]entities.Meeting)) (repositories.Unsubscribe, error)
	SubscribeToUserTasks(ctx context.Context, userID string, onSnapshot func([]entities.TaskWithContext)) (repositories.Unsubscribe, error)
	SubscribeToUserTeams(ctx context.Context, userID string, onSnapshot func([]entities.Team)) (repositories.Unsubscribe, error)
	SubscribeToUserNotifications(ctx context.Context, userID string, onSnapshot func([]entities.Notification)) (repositories.Unsubscribe, error)
}

// UpdateApplier writes a client update to storage
type UpdateApplier interface {
	ApplyUpdate(ctx context.Context, update entities.QueuedUpdate) error
}

type subscription struct {
	gen         uint64
	active      atomic.Bool
	unsubscribe repositories.Unsubscribe
}

// Coordinator keeps live subscriptions for one client, at most one per key, and
// buffers updates made while the store is unreachable.
type Coordinator struct {
	source      Source
	applier     UpdateApplier
	logger      *zap.Logger
	maxQueue    int
	openTimeout time.Duration
	now         func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	// mu serializes every registry and queue mutation. It is never held
	// while an upstream feed opens.
	mu      sync.Mutex
	subs    map[entities.SubscriptionKey]*subscription
	nextGen uint64
	// opening serializes opens per key so a key never has two upstream handles
	opening map[entities.SubscriptionKey]*sync.Mutex
	queue   []entities.QueuedUpdate
	online  bool

	syncing atomic.Bool
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithMaxQueuedUpdates sets the offline queue bound; older entries are dropped past it
func WithMaxQueuedUpdates(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxQueue = n
		}
	}
}

// WithOpenTimeout bounds how long a subscribe waits for the upstream feed to open
func WithOpenTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.openTimeout = d
		}
	}
}

// WithInitialState sets whether the coordinator starts online
func WithInitialState(online bool) Option {
	return func(c *Coordinator) {
		c.online = online
	}
}

// WithClock overrides the time source for queued updates and snapshots
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// NewCoordinator creates a coordinator reading from source and writing through applier
func NewCoordinator(source Source, applier UpdateApplier, logger *zap.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		source:   source,
		applier:  applier,
		logger:   logger,
		maxQueue:    DefaultMaxQueuedUpdates,
		openTimeout: DefaultOpenTimeout,
		now:         func() time.Time { return time.Now().UTC() },
		ctx:         ctx,
		cancel:      cancel,
		subs:        make(map[entities.SubscriptionKey]*subscription),
		opening:     make(map[entities.SubscriptionKey]*sync.Mutex),
		online:      true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubscribeToUserMeetings delivers the user's meetings, newest first, on every change
func (c *Coordinator) SubscribeToUserMeetings(userID string, callback func([]entities.Meeting) error) (repositories.Unsubscribe, error) {
	key := entities.SubscriptionKey{EntityType: entities.EntityUserMeetings, EntityID: userID}
	return subscribe(c, key, c.source.SubscribeToUserMeetings, meetingCreatedAt, callback)
}

// SubscribeToTeamMeetings delivers the team's meetings, newest first, on every change
func (c *Coordinator) SubscribeToTeamMeetings(teamID string, callback func([]entities.Meeting) error) (repositories.Unsubscribe, error) {
	key := entities.SubscriptionKey{EntityType: entities.EntityTeamMeetings, EntityID: teamID}
	return subscribe(c, key, c.source.SubscribeToTeamMeetings, meetingCreatedAt, callback)
}

// SubscribeToUserTasks delivers the tasks assigned to the user, newest first, on every change
func (c *Coordinator) SubscribeToUserTasks(userID string, callback func([]entities.TaskWithContext) error) (repositories.Unsubscribe, error) {
	key := entities.SubscriptionKey{EntityType: entities.EntityUserTasks, EntityID: userID}
	return subscribe(c, key, c.source.SubscribeToUserTasks, taskCreatedAt, callback)
}

// SubscribeToUserTeams delivers the user's teams, newest first, on every change
func (c *Coordinator) SubscribeToUserTeams(userID string, callback func([]entities.Team) error) (repositories.Unsubscribe, error) {
	key := entities.SubscriptionKey{EntityType: entities.EntityUserTeams, EntityID: userID}
	return subscribe(c, key, c.source.SubscribeToUserTeams, teamCreatedAt, callback)
}

// SubscribeToUserNotifications delivers the user's notifications, newest first, on every change
func (c *Coordinator) SubscribeToUserNotifications(userID string, callback func([]entities.Notification) error) (repositories.Unsubscribe, error) {
	key := entities.SubscriptionKey{EntityType: entities.EntityUserNotifications, EntityID: userID}
	return subscribe(c, key, c.source.SubscribeToUserNotifications, notificationCreatedAt, callback)
}

func subscribe[T any](
	c *Coordinator,
	key entities.SubscriptionKey,
	open func(ctx context.Context, id string, onSnapshot func([]T)) (repositories.Unsubscribe, error),
	createdAt func(T) time.Time,
	callback func([]T) error,
) (repositories.Unsubscribe, error) {
	if strings.TrimSpace(key.EntityID) == "" {
		return nil, apperrors.ErrValidation(fmt.Sprintf("%s subscription requires an id", key.EntityType))
	}
	if callback == nil {
		return nil, apperrors.ErrValidation("subscription callback is required")
	}

	log := c.logger.With(zap.String("subscription", key.String()))

	keyLock := c.keyLock(key)
	keyLock.Lock()
	handedOff := false
	defer func() {
		if !handedOff {
			keyLock.Unlock()
		}
	}()

	// reserve the key; the previous handle goes before the new one opens
	c.mu.Lock()
	if old, ok := c.subs[key]; ok {
		delete(c.subs, key)
		c.releaseLocked(key, old)
	}
	c.nextGen++
	sub := &subscription{gen: c.nextGen}
	sub.active.Store(true)
	c.subs[key] = sub
	c.mu.Unlock()

	deliver := func(items []T) {
		if !sub.active.Load() {
			return
		}
		sorted := sortNewestFirst(items, createdAt)
		if err := invoke(callback, sorted); err != nil {
			log.Warn("subscription callback failed, delivering empty snapshot", zap.Error(err))
			if err := invoke(callback, []T{}); err != nil {
				log.Error("subscription callback failed on empty snapshot", zap.Error(err))
			}
		}
	}

	type opened struct {
		unsubscribe repositories.Unsubscribe
		err         error
	}
	done := make(chan opened, 1)
	go func() {
		var r opened
		defer func() {
			if p := recover(); p != nil {
				r = opened{err: fmt.Errorf("panic opening subscription: %v", p)}
			}
			done <- r
		}()
		r.unsubscribe, r.err = open(c.ctx, key.EntityID, deliver)
	}()

	timer := time.NewTimer(c.openTimeout)
	defer timer.Stop()

	var r opened
	select {
	case r = <-done:
	case <-timer.C:
		// the key stays locked until the late handle is released
		handedOff = true
		go func() {
			defer keyLock.Unlock()
			if late := <-done; late.err == nil {
				c.closeHandle(key, late.unsubscribe)
			}
		}()
		r.err = fmt.Errorf("open timed out after %s", c.openTimeout)
	}

	if r.err != nil {
		c.mu.Lock()
		if cur, ok := c.subs[key]; ok && cur == sub {
			delete(c.subs, key)
		}
		sub.active.Store(false)
		c.mu.Unlock()
		return nil, apperrors.ErrUpstreamFailure("subscribe "+string(key.EntityType), r.err)
	}

	gen := sub.gen
	handle := func() error {
		c.release(key, gen)
		return nil
	}

	c.mu.Lock()
	cur, ok := c.subs[key]
	if ok && cur == sub {
		sub.unsubscribe = r.unsubscribe
		c.mu.Unlock()
		return handle, nil
	}
	c.mu.Unlock()

	// released by Unsubscribe or Cleanup while opening
	sub.active.Store(false)
	c.closeHandle(key, r.unsubscribe)
	return handle, nil
}

func (c *Coordinator) keyLock(key entities.SubscriptionKey) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.opening[key]
	if !ok {
		l = &sync.Mutex{}
		c.opening[key] = l
	}
	return l
}

// Unsubscribe releases the subscription for key. Unknown keys are ignored.
func (c *Coordinator) Unsubscribe(key entities.SubscriptionKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sub, ok := c.subs[key]; ok {
		delete(c.subs, key)
		c.releaseLocked(key, sub)
	}
}

// release drops key only while it still holds generation gen, so a stale
// handle never tears down its replacement
func (c *Coordinator) release(key entities.SubscriptionKey, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.subs[key]
	if !ok || sub.gen != gen {
		return
	}
	delete(c.subs, key)
	c.releaseLocked(key, sub)
}

func (c *Coordinator) releaseLocked(key entities.SubscriptionKey, sub *subscription) {
	sub.active.Store(false)
	c.closeHandle(key, sub.unsubscribe)
}

// closeHandle releases an upstream handle, logging failures and panics
func (c *Coordinator) closeHandle(key entities.SubscriptionKey, unsubscribe repositories.Unsubscribe) {
	if unsubscribe == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic releasing subscription",
				zap.String("subscription", key.String()),
				zap.Any("panic", r),
			)
		}
	}()
	if err := unsubscribe(); err != nil {
		c.logger.Warn("failed to release subscription",
			zap.String("subscription", key.String()),
			zap.Error(err),
		)
	}
}

// IsSubscribed reports whether key has a live subscription
func (c *Coordinator) IsSubscribed(key entities.SubscriptionKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subs[key]
	return ok
}

// ActiveSubscriptions returns the number of live subscriptions
func (c *Coordinator) ActiveSubscriptions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// SyncAllUserData fetches meetings, tasks, teams and notifications in parallel.
// Only one sync may run per coordinator; a concurrent call fails immediately.
func (c *Coordinator) SyncAllUserData(ctx context.Context, userID string) (*entities.UserDataSnapshot, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.ErrValidation("user_id is required")
	}
	if !c.syncing.CompareAndSwap(false, true) {
		return nil, apperrors.ErrConcurrencyConflict("user data sync")
	}
	defer c.syncing.Store(false)

	var snapshot entities.UserDataSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		meetings, err := c.source.GetUserMeetings(gctx, userID)
		if err != nil {
			return fmt.Errorf("get meetings: %w", err)
		}
		snapshot.Meetings = sortNewestFirst(meetings, meetingCreatedAt)
		return nil
	})
	g.Go(func() error {
		tasks, err := c.source.GetUserTasks(gctx, userID)
		if err != nil {
			return fmt.Errorf("get tasks: %w", err)
		}
		snapshot.Tasks = sortNewestFirst(tasks, taskCreatedAt)
		return nil
	})
	g.Go(func() error {
		teams, err := c.source.GetUserTeams(gctx, userID)
		if err != nil {
			return fmt.Errorf("get teams: %w", err)
		}
		snapshot.Teams = sortNewestFirst(teams, teamCreatedAt)
		return nil
	})
	g.Go(func() error {
		notifications, err := c.source.GetUserNotifications(gctx, userID)
		if err != nil {
			return fmt.Errorf("get notifications: %w", err)
		}
		snapshot.Notifications = sortNewestFirst(notifications, notificationCreatedAt)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.ErrUpstreamFailure("sync user data", err)
	}

	snapshot.SyncedAt = c.now()
	return &snapshot, nil
}

// QueueUpdate applies update right away when online, otherwise buffers it for replay.
// It reports whether the update was queued.
func (c *Coordinator) QueueUpdate(ctx context.Context, update entities.QueuedUpdate) (bool, error) {
	if update.Type == "" || !update.Action.IsValid() {
		return false, apperrors.ErrValidation(entities.ErrUnknownUpdate.Error()).
			WithDetail("type", string(update.Type)).
			WithDetail("action", string(update.Action))
	}
	if update.Timestamp.IsZero() {
		update.Timestamp = c.now()
	}

	c.mu.Lock()
	if c.online {
		c.mu.Unlock()
		return false, c.applier.ApplyUpdate(ctx, update)
	}
	c.queue = append(c.queue, update)
	dropped := 0
	if over := len(c.queue) - c.maxQueue; over > 0 {
		dropped = over
		c.queue = append([]entities.QueuedUpdate(nil), c.queue[over:]...)
	}
	c.mu.Unlock()

	if dropped > 0 {
		c.logger.Warn("offline queue full, dropped oldest updates", zap.Int("dropped", dropped))
	}
	return true, nil
}

// HandleConnectionStateChange records connectivity. Coming back online replays the
// queued updates oldest first; failures are logged and the queue is emptied either way.
func (c *Coordinator) HandleConnectionStateChange(ctx context.Context, online bool) {
	c.mu.Lock()
	wasOnline := c.online
	c.online = online
	var pending []entities.QueuedUpdate
	if !wasOnline && online {
		pending = c.queue
		c.queue = nil
	}
	c.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Timestamp.Before(pending[j].Timestamp)
	})

	failed := 0
	for _, u := range pending {
		if err := c.applyQuietly(ctx, u); err != nil {
			failed++
			c.logger.Warn("failed to replay queued update",
				zap.String("type", string(u.Type)),
				zap.String("action", string(u.Action)),
				zap.Time("timestamp", u.Timestamp),
				zap.Error(err),
			)
		}
	}
	c.logger.Info("replayed queued updates",
		zap.Int("total", len(pending)),
		zap.Int("failed", failed),
	)
}

func (c *Coordinator) applyQuietly(ctx context.Context, u entities.QueuedUpdate) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic applying update: %v", r)
		}
	}()
	return c.applier.ApplyUpdate(ctx, u)
}

// IsOnline reports the last known connectivity state
func (c *Coordinator) IsOnline() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// PendingUpdates returns the number of queued updates
func (c *Coordinator) PendingUpdates() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Cleanup releases every subscription and clears the queue.
// A failing release is logged and does not stop the others.
func (c *Coordinator) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, sub := range c.subs {
		c.releaseLocked(key, sub)
	}
	c.subs = make(map[entities.SubscriptionKey]*subscription)
	c.queue = nil
}

// Close cleans up and stops upstream feeds bound to this coordinator
func (c *Coordinator) Close() {
	c.Cleanup()
	c.cancel()
}

func invoke[T any](callback func([]T) error, items []T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback panic: %v", r)
		}
	}()
	return callback(items)
}

// sortNewestFirst returns a sorted copy; equal timestamps keep their upstream order
func sortNewestFirst[T any](items []T, createdAt func(T) time.Time) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return createdAt(out[i]).After(createdAt(out[j]))
	})
	return out
}

func meetingCreatedAt(m entities.Meeting) time.Time { return m.CreatedAt }

func taskCreatedAt(t entities.TaskWithContext) time.Time { return t.CreatedAt }

func teamCreatedAt(t entities.Team) time.Time { return t.CreatedAt }

func notificationCreatedAt(n entities.Notification) time.Time { return n.CreatedAt }
