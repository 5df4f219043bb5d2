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

// SaveMeeting stores the meeting document and indexes it by owner, team and assignee
func (s *RedisStore) SaveMeeting(ctx context.Context, userID string, meeting *entities.Meeting) (string, error) {
	now := s.now()
	if meeting.ID == "" {
		meeting.ID = uuid.NewString()
	}
	meeting.UserID = userID
	if meeting.CreatedAt.IsZero() {
		meeting.CreatedAt = now
	}
	meeting.UpdatedAt = now
	for i := range meeting.ActionItems {
		it := &meeting.ActionItems[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.MeetingID = meeting.ID
		if it.CreatedAt.IsZero() {
			it.CreatedAt = now
		}
	}

	data, err := json.Marshal(meeting)
	if err != nil {
		return "", fmt.Errorf("encode meeting: %w", err)
	}

	assignees := meetingAssignees(meeting)
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, meetingKey(meeting.ID), data, 0)
		p.ZAdd(ctx, userMeetingsKey(userID), redis.Z{Score: score(meeting.CreatedAt), Member: meeting.ID})
		if meeting.TeamID != "" {
			p.ZAdd(ctx, teamMeetingsKey(meeting.TeamID), redis.Z{Score: score(meeting.CreatedAt), Member: meeting.ID})
		}
		for a := range assignees {
			p.SAdd(ctx, userTaskIndexKey(a), meeting.ID)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("save meeting: %w", err)
	}

	s.publish(ctx, meetingChangeKeys(meeting, assignees)...)
	return meeting.ID, nil
}

// GetMeetingByID loads a meeting document
func (s *RedisStore) GetMeetingByID(ctx context.Context, id string) (*entities.Meeting, error) {
	m, err := getJSON[entities.Meeting](ctx, s.rdb, meetingKey(id))
	if err != nil {
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	return m, nil
}

// UpdateMeeting applies the non-nil fields of patch
func (s *RedisStore) UpdateMeeting(ctx context.Context, id string, patch entities.MeetingPatch) error {
	return s.mutateMeeting(ctx, id, func(m *entities.Meeting) error {
		if patch.Title != nil {
			m.Title = *patch.Title
		}
		if patch.Summary != nil {
			m.Summary = *patch.Summary
		}
		return nil
	})
}

// AssignTask overwrites the assignment fields of one action item
func (s *RedisStore) AssignTask(ctx context.Context, meetingID, taskID string, a entities.Assignment) error {
	return s.mutateMeeting(ctx, meetingID, func(m *entities.Meeting) error {
		item, ok := m.FindActionItem(taskID)
		if !ok {
			return entities.ErrTaskNotFound
		}
		item.Assign(a)
		return nil
	})
}

// UpdateTaskStatus changes the progress of an action item
func (s *RedisStore) UpdateTaskStatus(ctx context.Context, meetingID, taskID string, status entities.ActionItemStatus) error {
	if !status.IsValid() {
		return entities.ErrInvalidStatus
	}
	return s.mutateMeeting(ctx, meetingID, func(m *entities.Meeting) error {
		item, ok := m.FindActionItem(taskID)
		if !ok {
			return entities.ErrTaskNotFound
		}
		item.Status = status
		return nil
	})
}

func (s *RedisStore) mutateMeeting(ctx context.Context, id string, fn func(*entities.Meeting) error) error {
	key := meetingKey(id)
	var (
		changed *entities.Meeting
		touched map[string]bool
	)

	err := s.optimistic(ctx, func(tx *redis.Tx) error {
		m, err := getJSON[entities.Meeting](ctx, tx, key)
		if err != nil {
			return err
		}
		if m == nil {
			return entities.ErrMeetingNotFound
		}
		before := meetingAssignees(m)
		if err := fn(m); err != nil {
			return err
		}
		m.UpdatedAt = s.now()

		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode meeting: %w", err)
		}
		after := meetingAssignees(m)
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, data, 0)
			for a := range after {
				p.SAdd(ctx, userTaskIndexKey(a), id)
			}
			for a := range before {
				if !after[a] {
					p.SRem(ctx, userTaskIndexKey(a), id)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		changed = m
		touched = before
		for a := range after {
			touched[a] = true
		}
		return nil
	}, key)
	if err != nil {
		return fmt.Errorf("update meeting %s: %w", id, err)
	}

	s.publish(ctx, meetingChangeKeys(changed, touched)...)
	return nil
}

// DeleteMeeting removes the document and its index entries
func (s *RedisStore) DeleteMeeting(ctx context.Context, id string) error {
	m, err := s.GetMeetingByID(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return entities.ErrMeetingNotFound
	}

	assignees := meetingAssignees(m)
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, meetingKey(id))
		p.ZRem(ctx, userMeetingsKey(m.UserID), id)
		if m.TeamID != "" {
			p.ZRem(ctx, teamMeetingsKey(m.TeamID), id)
		}
		for a := range assignees {
			p.SRem(ctx, userTaskIndexKey(a), id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}

	s.publish(ctx, meetingChangeKeys(m, assignees)...)
	return nil
}

// GetUserMeetings loads meetings owned by userID, newest first
func (s *RedisStore) GetUserMeetings(ctx context.Context, userID string) ([]entities.Meeting, error) {
	return s.meetingsFromIndex(ctx, userMeetingsKey(userID))
}

func (s *RedisStore) meetingsFromIndex(ctx context.Context, index string) ([]entities.Meeting, error) {
	ids, err := s.newestIDs(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	meetings, err := mgetJSON[entities.Meeting](ctx, s.rdb, keysFor(ids, meetingKey))
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	return meetings, nil
}

// SubscribeToUserMeetings follows the user's meeting index
func (s *RedisStore) SubscribeToUserMeetings(ctx context.Context, userID string, onSnapshot func([]entities.Meeting)) (repositories.Unsubscribe, error) {
	key := entities.SubscriptionKey{EntityType: entities.EntityUserMeetings, EntityID: userID}
	return redisWatch(ctx, s, key, func(ctx context.Context) ([]entities.Meeting, error) {
		return s.GetUserMeetings(ctx, userID)
	}, onSnapshot)
}

// SubscribeToTeamMeetings follows the team's meeting index
func (s *RedisStore) SubscribeToTeamMeetings(ctx context.Context, teamID string, onSnapshot func([]entities.Meeting)) (repositories.Unsubscribe, error) {
	key := entities.SubscriptionKey{EntityType: entities.EntityTeamMeetings, EntityID: teamID}
	return redisWatch(ctx, s, key, func(ctx context.Context) ([]entities.Meeting, error) {
		return s.meetingsFromIndex(ctx, teamMeetingsKey(teamID))
	}, onSnapshot)
}

func meetingAssignees(m *entities.Meeting) map[string]bool {
	out := make(map[string]bool)
	for _, it := range m.ActionItems {
		if it.AssigneeID != "" {
			out[it.AssigneeID] = true
		}
	}
	return out
}

func meetingChangeKeys(m *entities.Meeting, assignees map[string]bool) []entities.SubscriptionKey {
	keys := []entities.SubscriptionKey{
		{EntityType: entities.EntityUserMeetings, EntityID: m.UserID},
		{EntityType: entities.EntityTeamMeetings, EntityID: m.TeamID},
	}
	for a := range assignees {
		keys = append(keys, entities.SubscriptionKey{EntityType: entities.EntityUserTasks, EntityID: a})
	}
	return keys
}
