package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/errors"
	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/http/middleware"
	meetinguse "github.com/johnquangdev/meeting-taskflow/internal/usecase/meeting"
)

// ProcessMeetingRequest is the body of POST /meetings/process
type ProcessMeetingRequest struct {
	Transcript string `json:"transcript" validate:"required"`
	TeamID     string `json:"team_id,omitempty" validate:"omitempty,uuid"`
	FileName   string `json:"file_name,omitempty" validate:"omitempty,max=255"`
	FileSize   int64  `json:"file_size,omitempty" validate:"gte=0"`
	Title      string `json:"title,omitempty" validate:"omitempty,max=255"`
}

// AssignTaskRequest is the body of POST /meetings/:id/tasks/:taskId/assign
type AssignTaskRequest struct {
	AssigneeID string `json:"assignee_id" validate:"required"`
}

// Meeting handles transcript processing and manual assignment
type Meeting struct {
	svc    meetinguse.Service
	logger *zap.Logger
}

// NewMeeting creates a new meeting handler
func NewMeeting(svc meetinguse.Service, logger *zap.Logger) *Meeting {
	return &Meeting{svc: svc, logger: logger}
}

// Process summarizes a transcript and assigns its action items
// @Summary      Process meeting transcript
// @Description  Summarizes the transcript, extracts action items and assigns them against the team roster
// @Tags         Meetings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      ProcessMeetingRequest  true  "Transcript and optional team"
// @Success      201      {object}  meetinguse.ProcessResult
// @Failure      400      {object}  map[string]interface{}  "Empty transcript"
// @Failure      404      {object}  map[string]interface{}  "Team not found"
// @Failure      502      {object}  map[string]interface{}  "Summarizer or store failure"
// @Router       /meetings/process [post]
func (h *Meeting) Process(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	var req ProcessMeetingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	if strings.TrimSpace(req.Transcript) == "" {
		return HandleError(h.logger, c, errors.ErrValidation("transcript is required"))
	}

	result, err := h.svc.ProcessTranscript(c.Request().Context(), req.Transcript, meetinguse.ProcessOptions{
		UserID:   userID,
		TeamID:   req.TeamID,
		FileName: req.FileName,
		FileSize: req.FileSize,
		Title:    req.Title,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return handleSuccessStatus(h.logger, c, http.StatusCreated, result)
}

// AssignTask assigns an action item to a user
// @Summary      Assign action item
// @Tags         Meetings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string             true  "Meeting ID"
// @Param        taskId   path      string             true  "Action item ID"
// @Param        request  body      AssignTaskRequest  true  "Assignee"
// @Success      200      {object}  entities.ActionItem
// @Failure      404      {object}  map[string]interface{}  "Meeting or task not found"
// @Router       /meetings/{id}/tasks/{taskId}/assign [post]
func (h *Meeting) AssignTask(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	var req AssignTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	item, err := h.svc.AssignTask(c.Request().Context(), meetinguse.AssignTaskInput{
		MeetingID:  c.Param("id"),
		TaskID:     c.Param("taskId"),
		AssigneeID: req.AssigneeID,
		AssignedBy: userID,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, item)
}
