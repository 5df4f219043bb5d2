package datasync

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Pinger reports whether the store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectivityListener is told about every online/offline transition
type ConnectivityListener interface {
	SetOnline(ctx context.Context, online bool)
}

// ConnectivityWatcher polls the store and reports transitions to a listener
type ConnectivityWatcher struct {
	pinger   Pinger
	listener ConnectivityListener
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	online bool
}

// NewConnectivityWatcher creates a watcher that assumes the store starts online
func NewConnectivityWatcher(pinger Pinger, listener ConnectivityListener, interval time.Duration, logger *zap.Logger) *ConnectivityWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	timeout := interval / 2
	if timeout > 3*time.Second {
		timeout = 3 * time.Second
	}
	return &ConnectivityWatcher{
		pinger:   pinger,
		listener: listener,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		online:   true,
	}
}

// Run checks connectivity on every tick until ctx is done
func (w *ConnectivityWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("connectivity watcher started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("connectivity watcher stopping")
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check pings once and notifies the listener when the state flips. Run calls it from a single goroutine.
func (w *ConnectivityWatcher) Check(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.pinger.Ping(pingCtx)
	cancel()

	online := err == nil
	if online == w.online {
		return online
	}
	w.online = online

	if online {
		w.logger.Info("store reachable again, replaying queued updates")
	} else {
		w.logger.Warn("store unreachable, queuing updates", zap.Error(err))
	}
	w.listener.SetOnline(ctx, online)
	return online
}
