package repository

import (
	"context"

	apperrors "github.com/johnquangdev/meeting-taskflow/errors"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
)

// GetUserTasks returns action items assigned to userID with their meeting context
func (s *PostgresStore) GetUserTasks(ctx context.Context, userID string) ([]entities.TaskWithContext, error) {
	var items []entities.ActionItem
	err := s.db.WithContext(ctx).
		Where("assignee_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, apperrors.ErrDBQueryFailed("get user tasks", err)
	}
	if len(items) == 0 {
		return []entities.TaskWithContext{}, nil
	}

	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if !seen[it.MeetingID] {
			seen[it.MeetingID] = true
			ids = append(ids, it.MeetingID)
		}
	}

	var meetings []entities.Meeting
	err = s.db.WithContext(ctx).
		Select("id", "title", "team_id", "created_at").
		Where("id IN ?", ids).
		Find(&meetings).Error
	if err != nil {
		return nil, apperrors.ErrDBQueryFailed("get task meetings", err)
	}
	byID := make(map[string]*entities.Meeting, len(meetings))
	for i := range meetings {
		byID[meetings[i].ID] = &meetings[i]
	}

	tasks := make([]entities.TaskWithContext, 0, len(items))
	for _, it := range items {
		m, ok := byID[it.MeetingID]
		if !ok {
			continue
		}
		tasks = append(tasks, entities.NewTaskWithContext(m, it))
	}
	return tasks, nil
}

// SubscribeToUserTasks polls the user's assigned tasks
func (s *PostgresStore) SubscribeToUserTasks(ctx context.Context, userID string, onSnapshot func([]entities.TaskWithContext)) (repositories.Unsubscribe, error) {
	return pollWatch(ctx, s, "tasks:"+userID, func(ctx context.Context) ([]entities.TaskWithContext, error) {
		return s.GetUserTasks(ctx, userID)
	}, onSnapshot)
}
