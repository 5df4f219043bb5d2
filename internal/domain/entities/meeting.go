package entities

import "time"

// Meeting is the aggregate root for a processed transcript
type Meeting struct {
	ID                  string       `json:"id" gorm:"type:uuid;primaryKey"`
	UserID              string       `json:"user_id" gorm:"type:varchar(128);not null;index"`
	TeamID              string       `json:"team_id,omitempty" gorm:"type:uuid;default:null;index"`
	Title               string       `json:"title" gorm:"type:varchar(255)"`
	FileName            string       `json:"file_name,omitempty" gorm:"type:varchar(255)"`
	FileSize            int64        `json:"file_size,omitempty"`
	Transcript          string       `json:"transcript" gorm:"type:text"`
	TranscriptObjectKey string       `json:"transcript_object_key,omitempty" gorm:"type:varchar(500)"`
	Summary             string       `json:"summary" gorm:"type:text"`
	Confidence          *float64     `json:"confidence,omitempty"`
	ActionItems         []ActionItem `json:"action_items" gorm:"foreignKey:MeetingID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt           time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Meeting
func (Meeting) TableName() string {
	return "meetings"
}

// FindActionItem returns the item with the given id
func (m *Meeting) FindActionItem(taskID string) (*ActionItem, bool) {
	for i := range m.ActionItems {
		if m.ActionItems[i].ID == taskID {
			return &m.ActionItems[i], true
		}
	}
	return nil, false
}

// MeetingPatch carries the editable fields of a meeting; nil fields are left untouched
type MeetingPatch struct {
	Title   *string `json:"title,omitempty"`
	Summary *string `json:"summary,omitempty"`
}

// TaskWithContext is an action item assigned to a user together with the meeting it came from
type TaskWithContext struct {
	ActionItem
	MeetingTitle     string    `json:"meeting_title"`
	TeamID           string    `json:"team_id,omitempty"`
	MeetingCreatedAt time.Time `json:"meeting_created_at"`
}

// NewTaskWithContext builds a task view of item within meeting
func NewTaskWithContext(meeting *Meeting, item ActionItem) TaskWithContext {
	item.MeetingID = meeting.ID
	return TaskWithContext{
		ActionItem:       item,
		MeetingTitle:     meeting.Title,
		TeamID:           meeting.TeamID,
		MeetingCreatedAt: meeting.CreatedAt,
	}
}

// SpeakerMatches maps every extracted speaker name to its roster member, or nil when unmatched
type SpeakerMatches map[string]*TeamMember
