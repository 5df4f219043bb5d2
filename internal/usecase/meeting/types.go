package meeting

import (
	"context"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

// Summarizer produces a summary and candidate action items for a transcript
type Summarizer interface {
	Summarize(ctx context.Context, transcript string, roster []entities.TeamMember) (*entities.SummaryResult, error)
}

// TranscriptArchiver stores the raw transcript and returns its object key
type TranscriptArchiver interface {
	ArchiveTranscript(ctx context.Context, userID, fileName, transcript string) (string, error)
}

// ProcessOptions carries the caller context of a processing run
type ProcessOptions struct {
	UserID   string
	TeamID   string
	FileName string
	FileSize int64
	Title    string
}

// AssignmentSummary describes how a run distributed its action items
type AssignmentSummary struct {
	TotalTasks     int                     `json:"total_tasks"`
	AutoAssigned   int                     `json:"auto_assigned"`
	Unassigned     int                     `json:"unassigned"`
	SpeakerMatches entities.SpeakerMatches `json:"speaker_matches"`
}

// ProcessResult is returned by ProcessTranscript
type ProcessResult struct {
	Meeting           *entities.Meeting     `json:"meeting"`
	UnassignedTasks   []entities.ActionItem `json:"unassigned_tasks"`
	AssignmentSummary AssignmentSummary     `json:"assignment_summary"`
}

// AssignTaskInput represents input for manually assigning an action item
type AssignTaskInput struct {
	MeetingID  string
	TaskID     string
	AssigneeID string
	AssignedBy string
}
