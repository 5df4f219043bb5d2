package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
)

func notificationChange(userID string) entities.SubscriptionKey {
	return entities.SubscriptionKey{EntityType: entities.EntityUserNotifications, EntityID: userID}
}

// CreateNotification stores a notification document
func (s *RedisStore) CreateNotification(ctx context.Context, n *entities.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	if n.Data != nil && n.Data.NotificationType() != n.Type {
		return fmt.Errorf("notification data %s does not match type %s", n.Data.NotificationType(), n.Type)
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, notificationKey(n.ID), data, 0)
		p.ZAdd(ctx, userNotificationsKey(n.UserID), redis.Z{Score: score(n.CreatedAt), Member: n.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	s.publish(ctx, notificationChange(n.UserID))
	return nil
}

// GetUserNotifications returns the user's notifications, newest first
func (s *RedisStore) GetUserNotifications(ctx context.Context, userID string) ([]entities.Notification, error) {
	ids, err := s.newestIDs(ctx, userNotificationsKey(userID))
	if err != nil {
		return nil, fmt.Errorf("get user notifications: %w", err)
	}
	list, err := mgetJSON[entities.Notification](ctx, s.rdb, keysFor(ids, notificationKey))
	if err != nil {
		return nil, fmt.Errorf("get user notifications: %w", err)
	}
	return list, nil
}

// MarkNotificationRead sets the read flag
func (s *RedisStore) MarkNotificationRead(ctx context.Context, id string, read bool) error {
	key := notificationKey(id)
	var userID string
	err := s.optimistic(ctx, func(tx *redis.Tx) error {
		n, err := getJSON[entities.Notification](ctx, tx, key)
		if err != nil {
			return err
		}
		if n == nil {
			return entities.ErrNotificationNotFound
		}
		n.Read = read
		data, err := json.Marshal(n)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, data, 0)
			return nil
		})
		userID = n.UserID
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}

	s.publish(ctx, notificationChange(userID))
	return nil
}

// DeleteNotification removes a notification and its index entry
func (s *RedisStore) DeleteNotification(ctx context.Context, id string) error {
	n, err := getJSON[entities.Notification](ctx, s.rdb, notificationKey(id))
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if n == nil {
		return entities.ErrNotificationNotFound
	}

	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, notificationKey(id))
		p.ZRem(ctx, userNotificationsKey(n.UserID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}

	s.publish(ctx, notificationChange(n.UserID))
	return nil
}

// SubscribeToUserNotifications follows the user's notification index
func (s *RedisStore) SubscribeToUserNotifications(ctx context.Context, userID string, onSnapshot func([]entities.Notification)) (repositories.Unsubscribe, error) {
	return redisWatch(ctx, s, notificationChange(userID), func(ctx context.Context) ([]entities.Notification, error) {
		return s.GetUserNotifications(ctx, userID)
	}, onSnapshot)
}
