package handler

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/errors"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/datasync"
)

const sseHeartbeatInterval = 25 * time.Second

// QueueUpdateRequest is the body of POST /sync/updates
type QueueUpdateRequest struct {
	Type      entities.UpdateType   `json:"type" validate:"required,oneof=meeting task notification"`
	Action    entities.UpdateAction `json:"action" validate:"required,oneof=create update delete"`
	Payload   json.RawMessage       `json:"payload"`
	Timestamp *time.Time            `json:"timestamp,omitempty"`
}

// QueueUpdateResponse reports where an update went
type QueueUpdateResponse struct {
	Queued  bool `json:"queued"`
	Pending int  `json:"pending"`
	Online  bool `json:"online"`
}

// Sync exposes the per-user sync coordinators over HTTP
type Sync struct {
	sessions  *datasync.Sessions
	teams     repositories.TeamRepository
	logger    *zap.Logger
	heartbeat time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// NewSync creates a new sync handler
func NewSync(sessions *datasync.Sessions, teams repositories.TeamRepository, logger *zap.Logger) *Sync {
	return &Sync{
		sessions:  sessions,
		teams:     teams,
		logger:    logger,
		heartbeat: sseHeartbeatInterval,
		done:      make(chan struct{}),
	}
}

// Close ends every open stream. The server does not cancel long-lived requests on shutdown.
func (h *Sync) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Snapshot returns everything the caller sees
// @Summary      Full user data snapshot
// @Tags         Sync
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  entities.UserDataSnapshot
// @Failure      409  {object}  map[string]interface{}  "A sync is already running"
// @Router       /sync/snapshot [get]
func (h *Sync) Snapshot(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}
	snapshot, err := h.sessions.Get(userID).SyncAllUserData(c.Request().Context(), userID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, snapshot)
}

// QueueUpdate applies a client mutation, or buffers it while the store is offline
// @Summary      Submit an update
// @Tags         Sync
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      QueueUpdateRequest  true  "Update"
// @Success      200      {object}  QueueUpdateResponse
// @Success      202      {object}  QueueUpdateResponse
// @Router       /sync/updates [post]
func (h *Sync) QueueUpdate(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	var req QueueUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	update := entities.QueuedUpdate{
		Type:    req.Type,
		Action:  req.Action,
		Payload: req.Payload,
		UserID:  userID,
	}
	if req.Timestamp != nil {
		update.Timestamp = *req.Timestamp
	}

	coord := h.sessions.Get(userID)
	queued, err := coord.QueueUpdate(c.Request().Context(), update)
	if err != nil {
		return HandleError(h.logger, c, storeError(err))
	}

	resp := QueueUpdateResponse{Queued: queued, Pending: coord.PendingUpdates(), Online: coord.IsOnline()}
	if queued {
		return handleSuccessStatus(h.logger, c, http.StatusAccepted, resp)
	}
	return HandleSuccess(h.logger, c, resp)
}

// Stream pushes live snapshots of one collection as server-sent events
// @Summary      Live collection stream
// @Tags         Sync
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        entity  query  string  true   "meetings|team_meetings|tasks|teams|notifications"
// @Param        id      query  string  false  "Team ID for team_meetings"
// @Router       /sync/stream [get]
func (h *Sync) Stream(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	entity := entities.EntityType(c.QueryParam("entity"))
	if !entity.IsValid() {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("unknown entity").WithDetail("entity", string(entity)))
	}

	ctx := c.Request().Context()
	entityID := userID
	if entity == entities.EntityTeamMeetings {
		entityID = strings.TrimSpace(c.QueryParam("id"))
		if entityID == "" {
			return HandleError(h.logger, c, errors.ErrValidation("id is required for team_meetings"))
		}
		if err := h.requireTeamMember(ctx, userID, entityID); err != nil {
			return HandleError(h.logger, c, err)
		}
	}

	latest := make(chan interface{}, 1)
	push := func(v interface{}) {
		for {
			select {
			case latest <- v:
				return
			default:
			}
			// keep only the newest snapshot
			select {
			case <-latest:
			default:
			}
		}
	}

	unsubscribe, err := subscribeEntity(h.sessions.Get(userID), entity, entityID, push)
	if err != nil {
		return HandleError(h.logger, c, storeError(err))
	}
	defer func() {
		if err := unsubscribe(); err != nil {
			h.logger.Warn("unsubscribe failed", zap.String("entity", string(entity)), zap.Error(err))
		}
	}()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.done:
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case v := <-latest:
			data, err := json.Marshal(v)
			if err != nil {
				h.logger.Error("failed to encode snapshot", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", entity, data); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func (h *Sync) requireTeamMember(ctx context.Context, userID, teamID string) error {
	teams, err := h.teams.GetUserTeams(ctx, userID)
	if err != nil {
		return errors.ErrUpstreamFailure("get user teams", err)
	}
	for _, t := range teams {
		if t.ID == teamID {
			return nil
		}
	}
	return errors.ErrNotFound("Team").WithDetail("team_id", teamID)
}

func subscribeEntity(coord *datasync.Coordinator, entity entities.EntityType, id string, push func(interface{})) (repositories.Unsubscribe, error) {
	switch entity {
	case entities.EntityUserMeetings:
		return coord.SubscribeToUserMeetings(id, func(m []entities.Meeting) error { push(m); return nil })
	case entities.EntityTeamMeetings:
		return coord.SubscribeToTeamMeetings(id, func(m []entities.Meeting) error { push(m); return nil })
	case entities.EntityUserTasks:
		return coord.SubscribeToUserTasks(id, func(t []entities.TaskWithContext) error { push(t); return nil })
	case entities.EntityUserTeams:
		return coord.SubscribeToUserTeams(id, func(t []entities.Team) error { push(t); return nil })
	case entities.EntityUserNotifications:
		return coord.SubscribeToUserNotifications(id, func(n []entities.Notification) error { push(n); return nil })
	}
	return nil, fmt.Errorf("unsupported entity %q", entity)
}

// storeError maps repository sentinel errors onto the HTTP taxonomy
func storeError(err error) error {
	var appErr errors.AppError
	switch {
	case stdErrors.As(err, &appErr):
		return err
	case stdErrors.Is(err, entities.ErrMeetingNotFound):
		return errors.ErrNotFound("Meeting")
	case stdErrors.Is(err, entities.ErrTaskNotFound):
		return errors.ErrNotFound("Task")
	case stdErrors.Is(err, entities.ErrNotificationNotFound):
		return errors.ErrNotFound("Notification")
	case stdErrors.Is(err, entities.ErrInvalidStatus):
		return errors.ErrValidation(err.Error())
	}
	return errors.ErrUpstreamFailure("apply update", err)
}
