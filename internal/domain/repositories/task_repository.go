package repositories

import (
	"context"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

// TaskRepository reads action items assigned to a user across meetings
type TaskRepository interface {
	GetUserTasks(ctx context.Context, userID string) ([]entities.TaskWithContext, error)
	SubscribeToUserTasks(ctx context.Context, userID string, onSnapshot func([]entities.TaskWithContext)) (Unsubscribe, error)
}
