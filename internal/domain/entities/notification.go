package entities

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationType discriminates the payload carried by a notification
type NotificationType string

const (
	NotificationTypeTaskAssignment    NotificationType = "task_assignment"
	NotificationTypeMeetingAssignment NotificationType = "meeting_assignment"
	NotificationTypeTeamInvitation    NotificationType = "team_invitation"
)

// NotificationData is the type-specific payload of a notification.
// Each variant carries only the fields relevant to its type.
type NotificationData interface {
	NotificationType() NotificationType
}

// TaskAssignmentData is sent to a user who became owner of an action item
type TaskAssignmentData struct {
	MeetingID       string `json:"meeting_id"`
	TaskID          string `json:"task_id"`
	TaskDescription string `json:"task_description"`
	AssignedBy      string `json:"assigned_by"`
	AutoAssigned    bool   `json:"auto_assigned"`
}

func (TaskAssignmentData) NotificationType() NotificationType {
	return NotificationTypeTaskAssignment
}

// MeetingAssignmentData is sent when a meeting is shared into a user's team
type MeetingAssignmentData struct {
	MeetingID  string `json:"meeting_id"`
	TeamID     string `json:"team_id"`
	AssignedBy string `json:"assigned_by"`
}

func (MeetingAssignmentData) NotificationType() NotificationType {
	return NotificationTypeMeetingAssignment
}

// TeamInvitationData is sent when a user is invited into a team
type TeamInvitationData struct {
	TeamID    string `json:"team_id"`
	TeamName  string `json:"team_name"`
	InvitedBy string `json:"invited_by"`
}

func (TeamInvitationData) NotificationType() NotificationType {
	return NotificationTypeTeamInvitation
}

// DecodeNotificationData decodes raw JSON into the variant selected by t
func DecodeNotificationData(t NotificationType, raw []byte) (NotificationData, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	switch t {
	case NotificationTypeTaskAssignment:
		var d TaskAssignmentData
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", t, err)
		}
		return d, nil
	case NotificationTypeMeetingAssignment:
		var d MeetingAssignmentData
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", t, err)
		}
		return d, nil
	case NotificationTypeTeamInvitation:
		var d TeamInvitationData
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", t, err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown notification type %q", t)
	}
}

// Notification is a record addressed to a user; delivery happens elsewhere
type Notification struct {
	ID        string           `gorm:"type:uuid;primaryKey"`
	UserID    string           `gorm:"type:varchar(128);not null;index"`
	Type      NotificationType `gorm:"type:varchar(50);not null"`
	Title     string           `gorm:"type:varchar(255);not null"`
	Message   string           `gorm:"type:text"`
	Data      NotificationData `gorm:"-"`
	RawData   datatypes.JSON   `gorm:"column:data;type:jsonb"`
	Read      bool             `gorm:"default:false;not null"`
	CreatedAt time.Time        `gorm:"autoCreateTime"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

// NewTaskAssignmentNotification builds the record sent to a new task owner
func NewTaskAssignmentNotification(userID string, data TaskAssignmentData) *Notification {
	return &Notification{
		UserID:  userID,
		Type:    NotificationTypeTaskAssignment,
		Title:   "New Task Assigned",
		Message: fmt.Sprintf("You have been assigned: %s", data.TaskDescription),
		Data:    data,
	}
}

type notificationJSON struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Data      json.RawMessage  `json:"data,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// MarshalJSON encodes Data under "data" according to Type
func (n Notification) MarshalJSON() ([]byte, error) {
	out := notificationJSON{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
	if n.Data != nil {
		raw, err := json.Marshal(n.Data)
		if err != nil {
			return nil, err
		}
		out.Data = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the typed Data variant
func (n *Notification) UnmarshalJSON(b []byte) error {
	var in notificationJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	data, err := DecodeNotificationData(in.Type, in.Data)
	if err != nil {
		return err
	}
	*n = Notification{
		ID:        in.ID,
		UserID:    in.UserID,
		Type:      in.Type,
		Title:     in.Title,
		Message:   in.Message,
		Data:      data,
		RawData:   datatypes.JSON(in.Data),
		Read:      in.Read,
		CreatedAt: in.CreatedAt,
	}
	return nil
}

// BeforeSave serializes Data into the jsonb column
func (n *Notification) BeforeSave(tx *gorm.DB) error {
	if n.Data == nil {
		n.RawData = datatypes.JSON("{}")
		return nil
	}
	if n.Data.NotificationType() != n.Type {
		return fmt.Errorf("notification data %s does not match type %s", n.Data.NotificationType(), n.Type)
	}
	raw, err := json.Marshal(n.Data)
	if err != nil {
		return err
	}
	n.RawData = raw
	return nil
}

// AfterFind restores Data from the jsonb column
func (n *Notification) AfterFind(tx *gorm.DB) error {
	data, err := DecodeNotificationData(n.Type, n.RawData)
	if err != nil {
		return err
	}
	n.Data = data
	return nil
}
