package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
)

// GetUserTasks collects items assigned to userID from the meetings in its task index
func (s *RedisStore) GetUserTasks(ctx context.Context, userID string) ([]entities.TaskWithContext, error) {
	ids, err := s.rdb.SMembers(ctx, userTaskIndexKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get user tasks: %w", err)
	}
	meetings, err := mgetJSON[entities.Meeting](ctx, s.rdb, keysFor(ids, meetingKey))
	if err != nil {
		return nil, fmt.Errorf("get user tasks: %w", err)
	}

	tasks := make([]entities.TaskWithContext, 0)
	for i := range meetings {
		for _, it := range meetings[i].ActionItems {
			if it.AssigneeID == userID {
				tasks = append(tasks, entities.NewTaskWithContext(&meetings[i], it))
			}
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

// SubscribeToUserTasks follows changes to meetings holding the user's tasks
func (s *RedisStore) SubscribeToUserTasks(ctx context.Context, userID string, onSnapshot func([]entities.TaskWithContext)) (repositories.Unsubscribe, error) {
	key := entities.SubscriptionKey{EntityType: entities.EntityUserTasks, EntityID: userID}
	return redisWatch(ctx, s, key, func(ctx context.Context) ([]entities.TaskWithContext, error) {
		return s.GetUserTasks(ctx, userID)
	}, onSnapshot)
}
