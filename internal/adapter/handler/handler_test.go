package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-taskflow/errors"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/datasync"
	meetinguse "github.com/johnquangdev/meeting-taskflow/internal/usecase/meeting"
	"github.com/johnquangdev/meeting-taskflow/pkg/config"
	"github.com/johnquangdev/meeting-taskflow/pkg/jwt"
	"github.com/johnquangdev/meeting-taskflow/pkg/validator"
)

type fakeMeetingService struct {
	mu         sync.Mutex
	processed  []meetinguse.ProcessOptions
	assigned   []meetinguse.AssignTaskInput
	processErr error
	assignErr  error
}

func (f *fakeMeetingService) ProcessTranscript(_ context.Context, transcript string, opts meetinguse.ProcessOptions) (*meetinguse.ProcessResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.processErr != nil {
		return nil, f.processErr
	}
	f.processed = append(f.processed, opts)
	return &meetinguse.ProcessResult{
		Meeting:         &entities.Meeting{ID: "m-1", UserID: opts.UserID, Title: "Standup", Transcript: transcript},
		UnassignedTasks: []entities.ActionItem{},
		AssignmentSummary: meetinguse.AssignmentSummary{
			SpeakerMatches: entities.SpeakerMatches{},
		},
	}, nil
}

func (f *fakeMeetingService) AssignTask(_ context.Context, in meetinguse.AssignTaskInput) (*entities.ActionItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assignErr != nil {
		return nil, f.assignErr
	}
	f.assigned = append(f.assigned, in)
	return &entities.ActionItem{ID: in.TaskID, MeetingID: in.MeetingID, AssigneeID: in.AssigneeID, AssignedBy: in.AssignedBy}, nil
}

// staticSource serves fixed collections and delivers them once per subscription
type staticSource struct {
	meetings []entities.Meeting
	teams    []entities.Team
}

func noop() error { return nil }

func (s *staticSource) GetUserMeetings(context.Context, string) ([]entities.Meeting, error) {
	return s.meetings, nil
}
func (s *staticSource) GetUserTasks(context.Context, string) ([]entities.TaskWithContext, error) {
	return []entities.TaskWithContext{}, nil
}
func (s *staticSource) GetUserTeams(context.Context, string) ([]entities.Team, error) {
	return s.teams, nil
}
func (s *staticSource) GetUserNotifications(context.Context, string) ([]entities.Notification, error) {
	return []entities.Notification{}, nil
}
func (s *staticSource) SubscribeToUserMeetings(_ context.Context, _ string, on func([]entities.Meeting)) (repositories.Unsubscribe, error) {
	go on(s.meetings)
	return noop, nil
}
func (s *staticSource) SubscribeToTeamMeetings(_ context.Context, _ string, on func([]entities.Meeting)) (repositories.Unsubscribe, error) {
	go on(s.meetings)
	return noop, nil
}
func (s *staticSource) SubscribeToUserTasks(_ context.Context, _ string, on func([]entities.TaskWithContext)) (repositories.Unsubscribe, error) {
	go on([]entities.TaskWithContext{})
	return noop, nil
}
func (s *staticSource) SubscribeToUserTeams(_ context.Context, _ string, on func([]entities.Team)) (repositories.Unsubscribe, error) {
	go on(s.teams)
	return noop, nil
}
func (s *staticSource) SubscribeToUserNotifications(_ context.Context, _ string, on func([]entities.Notification)) (repositories.Unsubscribe, error) {
	go on([]entities.Notification{})
	return noop, nil
}

type recordingApplier struct {
	mu      sync.Mutex
	applied []entities.QueuedUpdate
	err     error
}

func (a *recordingApplier) ApplyUpdate(_ context.Context, u entities.QueuedUpdate) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.applied = append(a.applied, u)
	return nil
}

// staticTeams is the TeamRepository the stream handler checks membership with
type staticTeams struct{ *staticSource }

func (staticTeams) SaveTeam(context.Context, *entities.Team) (string, error) { return "", nil }
func (staticTeams) GetTeam(context.Context, string) (*entities.Team, error) { return nil, nil }
func (staticTeams) GetTeamMembers(context.Context, string) ([]entities.TeamMember, error) {
	return nil, nil
}

type testEnv struct {
	e        *echo.Echo
	token    string
	meetings *fakeMeetingService
	applier  *recordingApplier
	sessions *datasync.Sessions
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	source := &staticSource{
		meetings: []entities.Meeting{{ID: "m-1", UserID: "user-1", Title: "Standup", CreatedAt: created}},
		teams:    []entities.Team{{ID: "team-1", Name: "Platform", CreatedAt: created}},
	}
	applier := &recordingApplier{}
	sessions := datasync.NewSessions(source, applier, logger)
	t.Cleanup(sessions.CloseAll)

	jm := jwt.NewManager("secret", time.Hour)
	token, err := jm.GenerateAccessToken("user-1", "")
	require.NoError(t, err)

	svc := &fakeMeetingService{}
	cfg := &config.Config{
		Server:  config.ServerConfig{Environment: "test"},
		Storage: config.StorageConfig{Driver: config.StorageDriverPostgres},
	}

	e := echo.New()
	e.Validator = validator.New()
	NewRouter(cfg, jm, nil, NewMeeting(svc, logger), NewSync(sessions, staticTeams{source}, logger), logger).Setup(e)

	return &testEnv{e: e, token: token, meetings: svc, applier: applier, sessions: sessions}
}

func (env *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if env.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+env.token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	env.token = ""
	rec := env.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestMeeting_Process(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(http.MethodPost, "/v1/meetings/process", `{"transcript":"John: hi","title":"Standup"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		body := decodeBody(t, rec)
		data := body["data"].(map[string]interface{})
		meeting := data["meeting"].(map[string]interface{})
		assert.Equal(t, "m-1", meeting["id"])

		require.Len(t, env.meetings.processed, 1)
		assert.Equal(t, "user-1", env.meetings.processed[0].UserID)
		assert.Equal(t, "Standup", env.meetings.processed[0].Title)
	})

	t.Run("requires token", func(t *testing.T) {
		env := newTestEnv(t)
		env.token = ""
		rec := env.do(http.MethodPost, "/v1/meetings/process", `{"transcript":"x"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHENTICATED", decodeBody(t, rec)["code"])
		assert.Empty(t, env.meetings.processed)
	})

	t.Run("invalid token", func(t *testing.T) {
		env := newTestEnv(t)
		env.token = "garbage"
		rec := env.do(http.MethodPost, "/v1/meetings/process", `{"transcript":"x"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTH_INVALID_TOKEN", decodeBody(t, rec)["code"])
	})

	t.Run("blank transcript", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(http.MethodPost, "/v1/meetings/process", `{"transcript":"   "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, env.meetings.processed)
	})

	t.Run("bad team id", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(http.MethodPost, "/v1/meetings/process", `{"transcript":"x","team_id":"nope"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION", decodeBody(t, rec)["code"])
	})

	t.Run("upstream failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.meetings.processErr = apperrors.ErrUpstreamFailure("summarize", context.DeadlineExceeded)
		rec := env.do(http.MethodPost, "/v1/meetings/process", `{"transcript":"x"}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "UPSTREAM_FAILURE", decodeBody(t, rec)["code"])
	})
}

func TestMeeting_AssignTask(t *testing.T) {
	t.Run("assigned by caller", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(http.MethodPost, "/v1/meetings/m-1/tasks/t-1/assign", `{"assignee_id":"sarah"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		require.Len(t, env.meetings.assigned, 1)
		assert.Equal(t, meetinguse.AssignTaskInput{
			MeetingID: "m-1", TaskID: "t-1", AssigneeID: "sarah", AssignedBy: "user-1",
		}, env.meetings.assigned[0])
	})

	t.Run("missing assignee", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(http.MethodPost, "/v1/meetings/m-1/tasks/t-1/assign", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("task not found", func(t *testing.T) {
		env := newTestEnv(t)
		env.meetings.assignErr = apperrors.ErrTaskNotFound("m-1", "t-9")
		rec := env.do(http.MethodPost, "/v1/meetings/m-1/tasks/t-9/assign", `{"assignee_id":"sarah"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "NOT_FOUND", body["code"])
		assert.Equal(t, "t-9", body["details"].(map[string]interface{})["task_id"])
	})
}

func TestSync_Snapshot(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/v1/sync/snapshot", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Len(t, data["meetings"], 1)
	assert.Len(t, data["teams"], 1)
	assert.NotEmpty(t, data["synced_at"])
}

func TestSync_QueueUpdate(t *testing.T) {
	const body = `{"type":"task","action":"update","payload":{"meeting_id":"m-1","task_id":"t-1","status":"completed"}}`

	t.Run("applied when online", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(http.MethodPost, "/v1/sync/updates", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		data := decodeBody(t, rec)["data"].(map[string]interface{})
		assert.Equal(t, false, data["queued"])
		require.Len(t, env.applier.applied, 1)
		assert.Equal(t, "user-1", env.applier.applied[0].UserID)
	})

	t.Run("queued when offline", func(t *testing.T) {
		env := newTestEnv(t)
		env.sessions.SetOnline(context.Background(), false)

		rec := env.do(http.MethodPost, "/v1/sync/updates", body)
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
		data := decodeBody(t, rec)["data"].(map[string]interface{})
		assert.Equal(t, true, data["queued"])
		assert.EqualValues(t, 1, data["pending"])
		assert.Empty(t, env.applier.applied)

		env.sessions.SetOnline(context.Background(), true)
		assert.Len(t, env.applier.applied, 1)
	})

	t.Run("unknown type", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(http.MethodPost, "/v1/sync/updates", `{"type":"room","action":"update","payload":{}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store sentinel mapped to 404", func(t *testing.T) {
		env := newTestEnv(t)
		env.applier.err = entities.ErrTaskNotFound
		rec := env.do(http.MethodPost, "/v1/sync/updates", body)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSync_Stream(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.e)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/sync/stream?entity=meetings", nil)
	require.NoError(t, err)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+env.token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get(echo.HeaderContentType))

	reader := bufio.NewReader(resp.Body)
	event, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: meetings\n", event)

	data, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(data, "data: "))
	assert.Contains(t, data, `"title":"Standup"`)
}

func TestSync_StreamRejects(t *testing.T) {
	env := newTestEnv(t)

	t.Run("unknown entity", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/sync/stream?entity=rooms", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_ARGUMENT", decodeBody(t, rec)["code"])
	})

	t.Run("team the caller is not in", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/sync/stream?entity=team_meetings&id=team-2", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("team id required", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/sync/stream?entity=team_meetings", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuth_QueryTokenOnlyOnStream(t *testing.T) {
	env := newTestEnv(t)
	token := env.token
	env.token = ""

	rec := env.do(http.MethodGet, "/v1/sync/snapshot?access_token="+token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHENTICATED", decodeBody(t, rec)["code"])

	rec = env.do(http.MethodPost, "/v1/meetings/process?access_token="+token, `{"transcript":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, env.meetings.processed)

	// past auth, rejected by the handler instead
	rec = env.do(http.MethodGet, "/v1/sync/stream?entity=rooms&access_token="+token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ARGUMENT", decodeBody(t, rec)["code"])
}

func TestHandleError_PlainErrorIsInternal(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, HandleError(nil, c, context.Canceled))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "INTERNAL", body["code"])
	assert.Equal(t, "Internal server error", body["message"])
	assert.Equal(t, context.Canceled.Error(), body["info"])
}

func TestErrorHandler_FallsBackForEchoErrors(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/v1/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decodeBody(t, rec)["message"])
}

func TestSwagger_ServesAPIDocument(t *testing.T) {
	env := newTestEnv(t)
	env.token = ""

	rec := env.do(http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		BasePath string                    `json:"basePath"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "/v1", doc.BasePath)
	for _, path := range []string{"/meetings/process", "/meetings/{id}/tasks/{taskId}/assign", "/sync/snapshot", "/sync/updates", "/sync/stream"} {
		assert.Contains(t, doc.Paths, path)
	}
	assert.Contains(t, doc.Paths["/meetings/process"]["post"].(map[string]any)["responses"], "404")
}
