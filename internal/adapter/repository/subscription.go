package repository

import (
	"context"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
)

// DefaultPollInterval is how often polling subscriptions reload their query
const DefaultPollInterval = 2 * time.Second

// watchConfig drives one live query
type watchConfig[T any] struct {
	name     string
	interval time.Duration
	load     func(ctx context.Context) ([]T, error)
	// changes, when set, wakes the watcher before the next tick
	changes <-chan struct{}
	logger  *zap.Logger
}

// watch runs load once to surface errors, then delivers snapshots from its own
// goroutine: first the initial result, then every result that differs from the
// previous one. The returned Unsubscribe stops delivery without waiting.
func watch[T any](ctx context.Context, cfg watchConfig[T], onSnapshot func([]T)) (repositories.Unsubscribe, error) {
	initial, err := cfg.load(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.interval <= 0 {
		cfg.interval = DefaultPollInterval
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	wctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(cfg.interval)
		defer ticker.Stop()

		last := initial
		deliver(wctx, onSnapshot, initial)

		for {
			select {
			case <-wctx.Done():
				return
			case <-ticker.C:
			case <-cfg.changes:
			}

			next, err := cfg.load(wctx)
			if err != nil {
				if wctx.Err() == nil {
					cfg.logger.Warn("subscription reload failed", zap.String("subscription", cfg.name), zap.Error(err))
				}
				continue
			}
			if reflect.DeepEqual(last, next) {
				continue
			}
			last = next
			deliver(wctx, onSnapshot, next)
		}
	}()

	var once sync.Once
	return func() error {
		once.Do(cancel)
		return nil
	}, nil
}

func deliver[T any](ctx context.Context, onSnapshot func([]T), items []T) {
	if ctx.Err() != nil {
		return
	}
	if items == nil {
		items = []T{}
	}
	onSnapshot(items)
}
