package entities

import (
	"encoding/json"
	"time"
)

// EntityType names a live collection a client can subscribe to
type EntityType string

const (
	EntityUserMeetings      EntityType = "meetings"
	EntityTeamMeetings      EntityType = "team_meetings"
	EntityUserTasks         EntityType = "tasks"
	EntityUserTeams         EntityType = "teams"
	EntityUserNotifications EntityType = "notifications"
)

// IsValid checks if the entity type is one of the subscribable collections
func (t EntityType) IsValid() bool {
	switch t {
	case EntityUserMeetings, EntityTeamMeetings, EntityUserTasks, EntityUserTeams, EntityUserNotifications:
		return true
	}
	return false
}

// SubscriptionKey identifies one live subscription; at most one is active per key
type SubscriptionKey struct {
	EntityType EntityType
	EntityID   string
}

func (k SubscriptionKey) String() string {
	return string(k.EntityType) + ":" + k.EntityID
}

// UpdateType is the kind of record a queued update targets
type UpdateType string

const (
	UpdateTypeMeeting      UpdateType = "meeting"
	UpdateTypeTask         UpdateType = "task"
	UpdateTypeNotification UpdateType = "notification"
)

// UpdateAction is the mutation a queued update performs
type UpdateAction string

const (
	UpdateActionCreate UpdateAction = "create"
	UpdateActionUpdate UpdateAction = "update"
	UpdateActionDelete UpdateAction = "delete"
)

// IsValid checks if the action is known
func (a UpdateAction) IsValid() bool {
	switch a {
	case UpdateActionCreate, UpdateActionUpdate, UpdateActionDelete:
		return true
	}
	return false
}

// QueuedUpdate is a client mutation held while the store is unreachable
type QueuedUpdate struct {
	Type      UpdateType      `json:"type"`
	Action    UpdateAction    `json:"action"`
	Payload   json.RawMessage `json:"payload"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
}

// UserDataSnapshot is a point-in-time read of everything a user sees.
// Each list is sorted by creation time, newest first.
type UserDataSnapshot struct {
	Meetings      []Meeting         `json:"meetings"`
	Tasks         []TaskWithContext `json:"tasks"`
	Teams         []Team            `json:"teams"`
	Notifications []Notification    `json:"notifications"`
	SyncedAt      time.Time         `json:"synced_at"`
}
