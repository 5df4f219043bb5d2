package repositories

import (
	"context"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

// NotificationRepository defines the interface for notification records
type NotificationRepository interface {
	// CreateNotification stores a record; the ID and CreatedAt are filled in
	CreateNotification(ctx context.Context, n *entities.Notification) error

	GetUserNotifications(ctx context.Context, userID string) ([]entities.Notification, error)
	MarkNotificationRead(ctx context.Context, id string, read bool) error
	DeleteNotification(ctx context.Context, id string) error

	SubscribeToUserNotifications(ctx context.Context, userID string, onSnapshot func([]entities.Notification)) (Unsubscribe, error)
}
