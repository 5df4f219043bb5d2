package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/johnquangdev/meeting-taskflow/errors"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
)

// isUUID guards uuid columns; postgres rejects malformed ids as a syntax error
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func orderedActionItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC").Order("created_at ASC")
}

// SaveMeeting persists a meeting together with its action items
func (s *PostgresStore) SaveMeeting(ctx context.Context, userID string, meeting *entities.Meeting) (string, error) {
	if meeting.ID == "" {
		meeting.ID = uuid.NewString()
	}
	meeting.UserID = userID
	for i := range meeting.ActionItems {
		if meeting.ActionItems[i].ID == "" {
			meeting.ActionItems[i].ID = uuid.NewString()
		}
		meeting.ActionItems[i].MeetingID = meeting.ID
	}

	if err := s.db.WithContext(ctx).Create(meeting).Error; err != nil {
		return "", apperrors.ErrDBQueryFailed("save meeting", err)
	}
	return meeting.ID, nil
}

// GetMeetingByID retrieves a meeting with its action items
func (s *PostgresStore) GetMeetingByID(ctx context.Context, id string) (*entities.Meeting, error) {
	if !isUUID(id) {
		return nil, nil
	}

	var meeting entities.Meeting
	err := s.db.WithContext(ctx).
		Preload("ActionItems", orderedActionItems).
		Where("id = ?", id).
		First(&meeting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.ErrDBQueryFailed("get meeting", err)
	}
	return &meeting, nil
}

// UpdateMeeting applies the non-nil fields of patch
func (s *PostgresStore) UpdateMeeting(ctx context.Context, id string, patch entities.MeetingPatch) error {
	if !isUUID(id) {
		return entities.ErrMeetingNotFound
	}
	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Summary != nil {
		updates["summary"] = *patch.Summary
	}

	q := s.db.WithContext(ctx).Model(&entities.Meeting{}).Where("id = ?", id)
	if len(updates) == 0 {
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return apperrors.ErrDBQueryFailed("update meeting", err)
		}
		if n == 0 {
			return entities.ErrMeetingNotFound
		}
		return nil
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return apperrors.ErrDBQueryFailed("update meeting", res.Error)
	}
	if res.RowsAffected == 0 {
		return entities.ErrMeetingNotFound
	}
	return nil
}

// DeleteMeeting removes a meeting; action items go with it through the foreign key
func (s *PostgresStore) DeleteMeeting(ctx context.Context, id string) error {
	if !isUUID(id) {
		return entities.ErrMeetingNotFound
	}
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Meeting{})
	if res.Error != nil {
		return apperrors.ErrDBQueryFailed("delete meeting", res.Error)
	}
	if res.RowsAffected == 0 {
		return entities.ErrMeetingNotFound
	}
	return nil
}

// AssignTask overwrites the assignment fields of one action item
func (s *PostgresStore) AssignTask(ctx context.Context, meetingID, taskID string, a entities.Assignment) error {
	if !isUUID(meetingID) || !isUUID(taskID) {
		return entities.ErrTaskNotFound
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entities.ActionItem{}).
			Where("id = ? AND meeting_id = ?", taskID, meetingID).
			Updates(map[string]interface{}{
				"assignee_id":   a.AssigneeID,
				"assignee_name": a.AssigneeName,
				"assigned_by":   a.AssignedBy,
				"assigned_at":   a.AssignedAt,
			})
		if res.Error != nil {
			return apperrors.ErrDBQueryFailed("assign task", res.Error)
		}
		if res.RowsAffected == 0 {
			return entities.ErrTaskNotFound
		}
		return touchMeeting(tx, meetingID)
	})
}

// UpdateTaskStatus changes the progress of an action item
func (s *PostgresStore) UpdateTaskStatus(ctx context.Context, meetingID, taskID string, status entities.ActionItemStatus) error {
	if !status.IsValid() {
		return entities.ErrInvalidStatus
	}
	if !isUUID(meetingID) || !isUUID(taskID) {
		return entities.ErrTaskNotFound
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entities.ActionItem{}).
			Where("id = ? AND meeting_id = ?", taskID, meetingID).
			Update("status", status)
		if res.Error != nil {
			return apperrors.ErrDBQueryFailed("update task status", res.Error)
		}
		if res.RowsAffected == 0 {
			return entities.ErrTaskNotFound
		}
		return touchMeeting(tx, meetingID)
	})
}

func touchMeeting(tx *gorm.DB, meetingID string) error {
	err := tx.Model(&entities.Meeting{}).
		Where("id = ?", meetingID).
		Update("updated_at", tx.NowFunc()).Error
	if err != nil {
		return apperrors.ErrDBQueryFailed("touch meeting", err)
	}
	return nil
}

// GetUserMeetings retrieves meetings owned by userID, newest first
func (s *PostgresStore) GetUserMeetings(ctx context.Context, userID string) ([]entities.Meeting, error) {
	return s.listMeetings(ctx, "user_id = ?", userID)
}

func (s *PostgresStore) getTeamMeetings(ctx context.Context, teamID string) ([]entities.Meeting, error) {
	if !isUUID(teamID) {
		return []entities.Meeting{}, nil
	}
	return s.listMeetings(ctx, "team_id = ?", teamID)
}

func (s *PostgresStore) listMeetings(ctx context.Context, where string, arg string) ([]entities.Meeting, error) {
	var meetings []entities.Meeting
	err := s.db.WithContext(ctx).
		Preload("ActionItems", orderedActionItems).
		Where(where, arg).
		Order("created_at DESC").
		Find(&meetings).Error
	if err != nil {
		return nil, apperrors.ErrDBQueryFailed("list meetings", err)
	}
	return meetings, nil
}

// SubscribeToUserMeetings polls the user's meetings
func (s *PostgresStore) SubscribeToUserMeetings(ctx context.Context, userID string, onSnapshot func([]entities.Meeting)) (repositories.Unsubscribe, error) {
	return pollWatch(ctx, s, "meetings:"+userID, func(ctx context.Context) ([]entities.Meeting, error) {
		return s.GetUserMeetings(ctx, userID)
	}, onSnapshot)
}

// SubscribeToTeamMeetings polls the team's meetings
func (s *PostgresStore) SubscribeToTeamMeetings(ctx context.Context, teamID string, onSnapshot func([]entities.Meeting)) (repositories.Unsubscribe, error) {
	return pollWatch(ctx, s, "team_meetings:"+teamID, func(ctx context.Context) ([]entities.Meeting, error) {
		return s.getTeamMeetings(ctx, teamID)
	}, onSnapshot)
}
