package datasync

import (
	"context"
	"encoding/json"
	"strings"

	apperrors "github.com/johnquangdev/meeting-taskflow/errors"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
)

// MeetingUpdatePayload edits or deletes a meeting
type MeetingUpdatePayload struct {
	MeetingID string  `json:"meeting_id"`
	Title     *string `json:"title,omitempty"`
	Summary   *string `json:"summary,omitempty"`
}

// TaskUpdatePayload changes the status of an action item
type TaskUpdatePayload struct {
	MeetingID string                    `json:"meeting_id"`
	TaskID    string                    `json:"task_id"`
	Status    entities.ActionItemStatus `json:"status"`
}

// NotificationUpdatePayload marks or deletes a notification
type NotificationUpdatePayload struct {
	NotificationID string `json:"notification_id"`
	Read           bool   `json:"read"`
}

// StoreApplier writes queued updates through the repositories
type StoreApplier struct {
	meetings      repositories.MeetingRepository
	notifications repositories.NotificationRepository
}

// NewStoreApplier creates an applier backed by the given repositories
func NewStoreApplier(meetings repositories.MeetingRepository, notifications repositories.NotificationRepository) *StoreApplier {
	return &StoreApplier{meetings: meetings, notifications: notifications}
}

// ApplyUpdate dispatches on update type and action
func (a *StoreApplier) ApplyUpdate(ctx context.Context, u entities.QueuedUpdate) error {
	switch u.Type {
	case entities.UpdateTypeMeeting:
		var p MeetingUpdatePayload
		if err := decodePayload(u, &p); err != nil {
			return err
		}
		if strings.TrimSpace(p.MeetingID) == "" {
			return apperrors.ErrValidation("meeting_id is required")
		}
		switch u.Action {
		case entities.UpdateActionUpdate:
			return a.meetings.UpdateMeeting(ctx, p.MeetingID, entities.MeetingPatch{Title: p.Title, Summary: p.Summary})
		case entities.UpdateActionDelete:
			return a.meetings.DeleteMeeting(ctx, p.MeetingID)
		}

	case entities.UpdateTypeTask:
		var p TaskUpdatePayload
		if err := decodePayload(u, &p); err != nil {
			return err
		}
		if u.Action != entities.UpdateActionUpdate {
			break
		}
		if strings.TrimSpace(p.MeetingID) == "" || strings.TrimSpace(p.TaskID) == "" {
			return apperrors.ErrValidation("meeting_id and task_id are required")
		}
		if !p.Status.IsValid() {
			return apperrors.ErrValidation(entities.ErrInvalidStatus.Error()).WithDetail("status", string(p.Status))
		}
		return a.meetings.UpdateTaskStatus(ctx, p.MeetingID, p.TaskID, p.Status)

	case entities.UpdateTypeNotification:
		var p NotificationUpdatePayload
		if err := decodePayload(u, &p); err != nil {
			return err
		}
		if strings.TrimSpace(p.NotificationID) == "" {
			return apperrors.ErrValidation("notification_id is required")
		}
		switch u.Action {
		case entities.UpdateActionUpdate:
			return a.notifications.MarkNotificationRead(ctx, p.NotificationID, p.Read)
		case entities.UpdateActionDelete:
			return a.notifications.DeleteNotification(ctx, p.NotificationID)
		}
	}

	return apperrors.ErrValidation(entities.ErrUnknownUpdate.Error()).
		WithDetail("type", string(u.Type)).
		WithDetail("action", string(u.Action))
}

func decodePayload(u entities.QueuedUpdate, v any) error {
	if len(u.Payload) == 0 {
		return apperrors.ErrValidation(entities.ErrInvalidPayload.Error())
	}
	if err := json.Unmarshal(u.Payload, v); err != nil {
		return apperrors.ErrValidation(entities.ErrInvalidPayload.Error()).WithDetail("error", err.Error())
	}
	return nil
}
