package entities

import (
	"strings"
	"time"
)

// ActionItemPriority is the urgency of an action item
type ActionItemPriority string

const (
	ActionItemPriorityHigh   ActionItemPriority = "high"
	ActionItemPriorityMedium ActionItemPriority = "medium"
	ActionItemPriorityLow    ActionItemPriority = "low"
)

// ParsePriority maps free-form priorities onto the supported set.
// "urgent"/"critical" collapse to high and anything unknown to medium.
func ParsePriority(s string) ActionItemPriority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "urgent", "critical":
		return ActionItemPriorityHigh
	case "low":
		return ActionItemPriorityLow
	default:
		return ActionItemPriorityMedium
	}
}

// ActionItemStatus is the progress of an action item
type ActionItemStatus string

const (
	ActionItemStatusPending    ActionItemStatus = "pending"
	ActionItemStatusInProgress ActionItemStatus = "in_progress"
	ActionItemStatusCompleted  ActionItemStatus = "completed"
)

// IsValid checks if the status is one of the known values
func (s ActionItemStatus) IsValid() bool {
	switch s {
	case ActionItemStatusPending, ActionItemStatusInProgress, ActionItemStatusCompleted:
		return true
	}
	return false
}

// ActionItem is a task extracted from a meeting.
// Owner holds the free-text name suggested by the summarizer; AssigneeID is only set
// once the item has been reconciled against a roster or assigned by hand.
type ActionItem struct {
	ID           string             `json:"id" gorm:"type:uuid;primaryKey"`
	MeetingID    string             `json:"meeting_id,omitempty" gorm:"type:uuid;not null;index"`
	Description  string             `json:"description" gorm:"type:text;not null"`
	Owner        string             `json:"owner,omitempty" gorm:"type:varchar(255)"`
	AssigneeID   string             `json:"assignee_id,omitempty" gorm:"type:varchar(128);index"`
	AssigneeName string             `json:"assignee_name,omitempty" gorm:"type:varchar(255)"`
	Priority     ActionItemPriority `json:"priority" gorm:"type:varchar(20);default:'medium';not null"`
	Status       ActionItemStatus   `json:"status" gorm:"type:varchar(20);default:'pending';not null"`
	Deadline     string             `json:"deadline,omitempty" gorm:"type:varchar(255)"`
	AssignedBy   string             `json:"assigned_by,omitempty" gorm:"type:varchar(128)"`
	AssignedAt   *time.Time         `json:"assigned_at,omitempty"`
	Position     int                `json:"-" gorm:"not null;default:0"`
	CreatedAt    time.Time          `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for ActionItem
func (ActionItem) TableName() string {
	return "action_items"
}

// IsAssigned reports whether the item has an owner in the roster
func (a *ActionItem) IsAssigned() bool {
	return a.AssigneeID != ""
}

// Assign records a single assignment event, replacing any previous one
func (a *ActionItem) Assign(assignment Assignment) {
	at := assignment.AssignedAt
	a.AssigneeID = assignment.AssigneeID
	a.AssigneeName = assignment.AssigneeName
	a.AssignedBy = assignment.AssignedBy
	a.AssignedAt = &at
}

// Assignment is the data written when an item gets an owner
type Assignment struct {
	AssigneeID   string
	AssigneeName string
	AssignedBy   string
	AssignedAt   time.Time
}
