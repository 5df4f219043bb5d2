package repositories

import "context"

// Store is the full storage backend. One implementation is chosen at startup.
type Store interface {
	MeetingRepository
	TeamRepository
	TaskRepository
	NotificationRepository

	// Ping reports whether the backend is reachable
	Ping(ctx context.Context) error
	Close() error
}
