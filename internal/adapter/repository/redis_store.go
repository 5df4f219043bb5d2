package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
)

// Ensure RedisStore implements the Store interface
var _ repositories.Store = (*RedisStore)(nil)

const (
	keyPrefix     = "taskflow:"
	maxTxAttempts = 5
)

// RedisStore keeps documents as JSON strings with sorted-set indexes.
// Every write publishes on the change channels of the collections it touches.
type RedisStore struct {
	rdb          *redis.Client
	logger       *zap.Logger
	pollInterval time.Duration
	now          func() time.Time
}

// RedisOption configures a RedisStore
type RedisOption func(*RedisStore)

// WithRedisPollInterval sets the fallback reload interval for subscriptions
func WithRedisPollInterval(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// NewRedisStore creates a store on top of a connected client
func NewRedisStore(rdb *redis.Client, logger *zap.Logger, opts ...RedisOption) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RedisStore{
		rdb:          rdb,
		logger:       logger,
		pollInterval: 15 * time.Second,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks the connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the client
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func meetingKey(id string) string           { return keyPrefix + "meeting:" + id }
func teamKey(id string) string              { return keyPrefix + "team:" + id }
func notificationKey(id string) string      { return keyPrefix + "notification:" + id }
func userMeetingsKey(userID string) string  { return keyPrefix + "user:" + userID + ":meetings" }
func teamMeetingsKey(teamID string) string  { return keyPrefix + "team:" + teamID + ":meetings" }
func userTeamsKey(userID string) string     { return keyPrefix + "user:" + userID + ":teams" }
func userTaskIndexKey(userID string) string { return keyPrefix + "user:" + userID + ":task_meetings" }
func userNotificationsKey(userID string) string {
	return keyPrefix + "user:" + userID + ":notifications"
}

// changeChannel is the pub/sub channel announcing changes to one collection
func changeChannel(key entities.SubscriptionKey) string {
	return keyPrefix + "changes:" + key.String()
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}

func (s *RedisStore) publish(ctx context.Context, keys ...entities.SubscriptionKey) {
	seen := make(map[entities.SubscriptionKey]bool, len(keys))
	for _, k := range keys {
		if k.EntityID == "" || seen[k] {
			continue
		}
		seen[k] = true
		if err := s.rdb.Publish(ctx, changeChannel(k), "changed").Err(); err != nil {
			s.logger.Warn("failed to publish change", zap.String("channel", changeChannel(k)), zap.Error(err))
		}
	}
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getJSON[T any](ctx context.Context, rdb stringGetter, key string) (*T, error) {
	raw, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &v, nil
}

// mgetJSON loads documents in key order, skipping keys that no longer exist
func mgetJSON[T any](ctx context.Context, rdb *redis.Client, keys []string) ([]T, error) {
	out := make([]T, 0, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	vals, err := rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var doc T
		if err := json.Unmarshal([]byte(str), &doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		out = append(out, doc)
	}
	return out, nil
}

// newestIDs returns the members of a score-indexed set, highest score first
func (s *RedisStore) newestIDs(ctx context.Context, index string) ([]string, error) {
	return s.rdb.ZRevRange(ctx, index, 0, -1).Result()
}

func keysFor(ids []string, key func(string) string) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}
	return keys
}

// optimistic runs fn under WATCH on keys, retrying when another client wins the race
func (s *RedisStore) optimistic(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	var err error
	for i := 0; i < maxTxAttempts; i++ {
		err = s.rdb.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

// redisWatch combines a change-channel subscription with a slow poll
func redisWatch[T any](ctx context.Context, s *RedisStore, key entities.SubscriptionKey, load func(context.Context) ([]T, error), onSnapshot func([]T)) (repositories.Unsubscribe, error) {
	ps := s.rdb.Subscribe(ctx, changeChannel(key))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", key, err)
	}

	changes := make(chan struct{}, 1)
	go func() {
		for range ps.Channel() {
			select {
			case changes <- struct{}{}:
			default:
			}
		}
	}()

	stop, err := watch(ctx, watchConfig[T]{
		name:     key.String(),
		interval: s.pollInterval,
		changes:  changes,
		load:     load,
		logger:   s.logger,
	}, onSnapshot)
	if err != nil {
		_ = ps.Close()
		return nil, err
	}

	var (
		once     sync.Once
		closeErr error
	)
	return func() error {
		once.Do(func() {
			_ = stop()
			closeErr = ps.Close()
		})
		return closeErr
	}, nil
}
