package repositories

import (
	"context"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

// Unsubscribe releases a live subscription. Calling it more than once is a no-op.
type Unsubscribe func() error

// MeetingRepository defines the interface for meeting data access
type MeetingRepository interface {
	// SaveMeeting persists a processed meeting with its action items and returns the assigned ID
	SaveMeeting(ctx context.Context, userID string, meeting *entities.Meeting) (string, error)

	// GetMeetingByID retrieves a meeting with its action items; (nil, nil) when absent
	GetMeetingByID(ctx context.Context, id string) (*entities.Meeting, error)

	// UpdateMeeting applies the non-nil fields of patch
	UpdateMeeting(ctx context.Context, id string, patch entities.MeetingPatch) error

	// DeleteMeeting removes a meeting and its action items
	DeleteMeeting(ctx context.Context, id string) error

	// AssignTask records a single assignment event on an action item, replacing any previous one
	AssignTask(ctx context.Context, meetingID, taskID string, assignment entities.Assignment) error

	// UpdateTaskStatus changes the progress of an action item
	UpdateTaskStatus(ctx context.Context, meetingID, taskID string, status entities.ActionItemStatus) error

	// GetUserMeetings retrieves all meetings owned by a user
	GetUserMeetings(ctx context.Context, userID string) ([]entities.Meeting, error)

	// SubscribeToUserMeetings delivers a full snapshot of the user's meetings on every change
	SubscribeToUserMeetings(ctx context.Context, userID string, onSnapshot func([]entities.Meeting)) (Unsubscribe, error)

	// SubscribeToTeamMeetings delivers a full snapshot of a team's meetings on every change
	SubscribeToTeamMeetings(ctx context.Context, teamID string, onSnapshot func([]entities.Meeting)) (Unsubscribe, error)
}
