package meeting

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-taskflow/errors"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/assignment"
)

// Service defines the interface for the meeting use case
type Service interface {
	// ProcessTranscript summarizes a transcript, assigns its action items against the
	// team roster and persists the resulting meeting
	ProcessTranscript(ctx context.Context, transcript string, opts ProcessOptions) (*ProcessResult, error)

	// AssignTask assigns an action item of a persisted meeting to a user
	AssignTask(ctx context.Context, input AssignTaskInput) (*entities.ActionItem, error)
}

// Ensure MeetingService implements Service interface
var _ Service = (*MeetingService)(nil)

// MeetingService orchestrates transcript processing and manual assignment
type MeetingService struct {
	meetings      repositories.MeetingRepository
	teams         repositories.TeamRepository
	notifications repositories.NotificationRepository
	summarizer    Summarizer
	archiver      TranscriptArchiver
	matcher       *assignment.NameMatcher
	engine        *assignment.Engine
	logger        *zap.Logger
	now           func() time.Time
}

// Option configures a MeetingService
type Option func(*MeetingService)

// WithArchiver stores each processed transcript through a
func WithArchiver(a TranscriptArchiver) Option {
	return func(s *MeetingService) {
		s.archiver = a
	}
}

// WithClock overrides the time source used for assignments
func WithClock(now func() time.Time) Option {
	return func(s *MeetingService) {
		s.now = now
	}
}

// NewMeetingService creates a new meeting service
func NewMeetingService(
	meetings repositories.MeetingRepository,
	teams repositories.TeamRepository,
	notifications repositories.NotificationRepository,
	summarizer Summarizer,
	logger *zap.Logger,
	opts ...Option,
) *MeetingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MeetingService{
		meetings:      meetings,
		teams:         teams,
		notifications: notifications,
		summarizer:    summarizer,
		matcher:       assignment.NewNameMatcher(),
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = assignment.NewEngine(s.matcher, assignment.WithClock(s.now))
	return s
}

// ProcessTranscript runs a transcript through summarization and auto-assignment.
// Failures up to persistence are returned; notification failures are only logged.
func (s *MeetingService) ProcessTranscript(ctx context.Context, transcript string, opts ProcessOptions) (*ProcessResult, error) {
	if strings.TrimSpace(opts.UserID) == "" {
		return nil, apperrors.ErrValidation("user_id is required")
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, apperrors.ErrValidation(entities.ErrEmptyTranscript.Error())
	}

	log := s.logger.With(zap.String("user_id", opts.UserID), zap.String("team_id", opts.TeamID))

	roster, err := s.roster(ctx, opts.TeamID)
	if err != nil {
		return nil, err
	}

	summary, err := s.summarizer.Summarize(ctx, transcript, roster)
	if err != nil {
		return nil, apperrors.ErrUpstreamFailure("summarize transcript", err)
	}
	if summary == nil {
		return nil, apperrors.ErrUpstreamFailure("summarize transcript", fmt.Errorf("summarizer returned no result"))
	}

	speakers := assignment.ExtractSpeakerNames(transcript)
	matches := s.matcher.MatchAll(speakers, roster)

	items, dropped := buildActionItems(summary.ActionItems)
	if dropped > 0 {
		log.Warn("dropped suggested action items without a description", zap.Int("dropped", dropped))
	}
	assigned, unassigned := s.engine.AutoAssign(items, matches, roster, opts.UserID)

	meeting := &entities.Meeting{
		UserID:     opts.UserID,
		TeamID:     opts.TeamID,
		Title:      meetingTitle(opts, s.now()),
		FileName:   opts.FileName,
		FileSize:   opts.FileSize,
		Transcript: transcript,
		Summary:    summary.Summary,
		Confidence: summary.Confidence,
	}
	meeting.ActionItems = append(append(make([]entities.ActionItem, 0, len(items)), assigned...), unassigned...)
	for i := range meeting.ActionItems {
		meeting.ActionItems[i].Position = i
	}

	if s.archiver != nil {
		key, err := s.archiver.ArchiveTranscript(ctx, opts.UserID, opts.FileName, transcript)
		if err != nil {
			log.Warn("failed to archive transcript", zap.Error(err))
		} else {
			meeting.TranscriptObjectKey = key
		}
	}

	id, err := s.meetings.SaveMeeting(ctx, opts.UserID, meeting)
	if err != nil {
		return nil, apperrors.ErrUpstreamFailure("save meeting", err)
	}
	meeting.ID = id
	for i := range meeting.ActionItems {
		meeting.ActionItems[i].MeetingID = id
	}

	log = log.With(zap.String("meeting_id", id))
	autoAssigned := meeting.ActionItems[:len(assigned)]
	for i := range autoAssigned {
		item := &autoAssigned[i]
		if item.AssigneeID == opts.UserID {
			continue
		}
		s.notifyAssignee(ctx, log, meeting, item, true)
	}

	unassignedTasks := append([]entities.ActionItem(nil), meeting.ActionItems[len(assigned):]...)
	if unassignedTasks == nil {
		unassignedTasks = []entities.ActionItem{}
	}

	log.Info("processed meeting transcript",
		zap.Int("total_tasks", len(items)),
		zap.Int("auto_assigned", len(assigned)),
		zap.Int("speakers", len(speakers)),
	)

	return &ProcessResult{
		Meeting:         meeting,
		UnassignedTasks: unassignedTasks,
		AssignmentSummary: AssignmentSummary{
			TotalTasks:     len(items),
			AutoAssigned:   len(assigned),
			Unassigned:     len(unassigned),
			SpeakerMatches: matches,
		},
	}, nil
}

// AssignTask records a manual assignment. Nothing is written unless the meeting and task exist.
func (s *MeetingService) AssignTask(ctx context.Context, input AssignTaskInput) (*entities.ActionItem, error) {
	switch {
	case strings.TrimSpace(input.MeetingID) == "":
		return nil, apperrors.ErrValidation("meeting_id is required")
	case strings.TrimSpace(input.TaskID) == "":
		return nil, apperrors.ErrValidation("task_id is required")
	case strings.TrimSpace(input.AssigneeID) == "":
		return nil, apperrors.ErrValidation("assignee_id is required")
	case strings.TrimSpace(input.AssignedBy) == "":
		return nil, apperrors.ErrValidation("assigned_by is required")
	}

	meeting, err := s.meetings.GetMeetingByID(ctx, input.MeetingID)
	if err != nil {
		return nil, apperrors.ErrUpstreamFailure("get meeting", err)
	}
	if meeting == nil {
		return nil, apperrors.ErrMeetingNotFound(input.MeetingID)
	}

	item, ok := meeting.FindActionItem(input.TaskID)
	if !ok {
		return nil, apperrors.ErrTaskNotFound(input.MeetingID, input.TaskID)
	}

	assigneeName := ""
	if meeting.TeamID != "" {
		roster, err := s.roster(ctx, meeting.TeamID)
		if err != nil {
			return nil, err
		}
		m, ok := entities.FindMember(roster, input.AssigneeID)
		if !ok {
			return nil, apperrors.ErrValidation("assignee is not an active member of the meeting's team").
				WithDetail("assignee_id", input.AssigneeID)
		}
		assigneeName = m.DisplayName
	}

	a := entities.Assignment{
		AssigneeID:   input.AssigneeID,
		AssigneeName: assigneeName,
		AssignedBy:   input.AssignedBy,
		AssignedAt:   s.now(),
	}
	if err := s.meetings.AssignTask(ctx, meeting.ID, item.ID, a); err != nil {
		return nil, apperrors.ErrUpstreamFailure("assign task", err)
	}

	updated := *item
	updated.MeetingID = meeting.ID
	updated.Assign(a)

	if input.AssigneeID != input.AssignedBy {
		s.notifyAssignee(ctx, s.logger.With(zap.String("meeting_id", meeting.ID)), meeting, &updated, false)
	}

	return &updated, nil
}

// roster returns the active members of teamID; no team means an empty roster.
// An unknown team is reported as not found.
func (s *MeetingService) roster(ctx context.Context, teamID string) ([]entities.TeamMember, error) {
	if teamID == "" {
		return []entities.TeamMember{}, nil
	}
	members, err := s.teams.GetTeamMembers(ctx, teamID)
	if err != nil {
		return nil, apperrors.ErrUpstreamFailure("get team members", err).WithDetail("team_id", teamID)
	}
	if len(members) == 0 {
		team, err := s.teams.GetTeam(ctx, teamID)
		if err != nil {
			return nil, apperrors.ErrUpstreamFailure("get team", err).WithDetail("team_id", teamID)
		}
		if team == nil {
			return nil, apperrors.ErrNotFound("Team").WithDetail("team_id", teamID)
		}
	}
	return entities.ActiveMembers(members), nil
}

func (s *MeetingService) notifyAssignee(ctx context.Context, log *zap.Logger, meeting *entities.Meeting, item *entities.ActionItem, auto bool) {
	n := entities.NewTaskAssignmentNotification(item.AssigneeID, entities.TaskAssignmentData{
		MeetingID:       meeting.ID,
		TaskID:          item.ID,
		TaskDescription: item.Description,
		AssignedBy:      item.AssignedBy,
		AutoAssigned:    auto,
	})
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		log.Warn("failed to create assignment notification",
			zap.String("task_id", item.ID),
			zap.String("assignee_id", item.AssigneeID),
			zap.Error(err),
		)
	}
}

// buildActionItems turns suggestions into pending items. Suggestions without a
// description are skipped and counted.
func buildActionItems(suggested []entities.SuggestedActionItem) (items []entities.ActionItem, dropped int) {
	items = make([]entities.ActionItem, 0, len(suggested))
	for _, sa := range suggested {
		description := strings.TrimSpace(sa.Description)
		if description == "" {
			dropped++
			continue
		}
		items = append(items, entities.ActionItem{
			ID:          uuid.NewString(),
			Description: description,
			Owner:       strings.TrimSpace(sa.Owner),
			Deadline:    strings.TrimSpace(sa.Deadline),
			Priority:    entities.ParsePriority(sa.Priority),
			Status:      entities.ActionItemStatusPending,
		})
	}
	return items, dropped
}

func meetingTitle(opts ProcessOptions, now time.Time) string {
	if t := strings.TrimSpace(opts.Title); t != "" {
		return t
	}
	if opts.FileName != "" {
		return strings.TrimSuffix(opts.FileName, filepath.Ext(opts.FileName))
	}
	return "Meeting " + now.Format("2006-01-02 15:04")
}
