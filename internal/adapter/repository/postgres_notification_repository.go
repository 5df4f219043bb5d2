package repository

import (
	"context"

	"github.com/google/uuid"

	apperrors "github.com/johnquangdev/meeting-taskflow/errors"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
)

// CreateNotification stores a notification; BeforeSave encodes its data
func (s *PostgresStore) CreateNotification(ctx context.Context, n *entities.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return apperrors.ErrDBQueryFailed("create notification", err)
	}
	return nil
}

// GetUserNotifications returns the user's notifications, newest first
func (s *PostgresStore) GetUserNotifications(ctx context.Context, userID string) ([]entities.Notification, error) {
	var list []entities.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, apperrors.ErrDBQueryFailed("get user notifications", err)
	}
	return list, nil
}

// MarkNotificationRead sets the read flag
func (s *PostgresStore) MarkNotificationRead(ctx context.Context, id string, read bool) error {
	if !isUUID(id) {
		return entities.ErrNotificationNotFound
	}
	res := s.db.WithContext(ctx).
		Model(&entities.Notification{}).
		Where("id = ?", id).
		UpdateColumn("read", read)
	if res.Error != nil {
		return apperrors.ErrDBQueryFailed("mark notification read", res.Error)
	}
	if res.RowsAffected == 0 {
		return entities.ErrNotificationNotFound
	}
	return nil
}

// DeleteNotification removes a notification
func (s *PostgresStore) DeleteNotification(ctx context.Context, id string) error {
	if !isUUID(id) {
		return entities.ErrNotificationNotFound
	}
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Notification{})
	if res.Error != nil {
		return apperrors.ErrDBQueryFailed("delete notification", res.Error)
	}
	if res.RowsAffected == 0 {
		return entities.ErrNotificationNotFound
	}
	return nil
}

// SubscribeToUserNotifications polls the user's notifications
func (s *PostgresStore) SubscribeToUserNotifications(ctx context.Context, userID string, onSnapshot func([]entities.Notification)) (repositories.Unsubscribe, error) {
	return pollWatch(ctx, s, "notifications:"+userID, func(ctx context.Context) ([]entities.Notification, error) {
		return s.GetUserNotifications(ctx, userID)
	}, onSnapshot)
}
