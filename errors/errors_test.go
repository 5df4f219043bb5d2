package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_IsMatchesCode(t *testing.T) {
	err := fmt.Errorf("sync: %w", ErrConcurrencyConflict("user data sync"))

	assert.True(t, stdErrors.Is(err, ErrConcurrencyConflict("")))
	assert.False(t, stdErrors.Is(err, ErrValidation("")))
	assert.True(t, HasCode(err, ErrorCode_CONCURRENCY_CONFLICT))
	assert.False(t, HasCode(err, ErrorCode_NOT_FOUND))
	assert.False(t, HasCode(nil, ErrorCode_NOT_FOUND))
}

func TestAppError_UnwrapExposesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := ErrUpstreamFailure("save meeting", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, err.HTTPCode)
	assert.Equal(t, "save meeting", err.Details["operation"])
	assert.Contains(t, err.Error(), "UPSTREAM_FAILURE")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAppError_WithDetailDoesNotShareMap(t *testing.T) {
	base := ErrNotFound("Task")
	a := base.WithDetail("task_id", "a")
	b := a.WithDetail("task_id", "b")

	assert.Nil(t, base.Details)
	assert.Equal(t, "a", a.Details["task_id"])
	assert.Equal(t, "b", b.Details["task_id"])
}

func TestAppError_AsFromWrapped(t *testing.T) {
	err := fmt.Errorf("handler: %w", ErrTaskNotFound("m-1", "t-1"))

	var appErr AppError
	require.True(t, stdErrors.As(err, &appErr))
	assert.Equal(t, ErrorCode_NOT_FOUND, appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.HTTPCode)
	assert.Equal(t, "t-1", appErr.Details["task_id"])
}

func TestErrorCode_MarshalText(t *testing.T) {
	b, err := ErrorCode_VALIDATION.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "VALIDATION", string(b))
}

func TestInfrastructureErrors(t *testing.T) {
	cause := stdErrors.New("dial tcp: refused")

	tests := []struct {
		name   string
		err    AppError
		code   ErrorCode
		status int
	}{
		{"internal", ErrInternal(cause), ErrorCode_INTERNAL, http.StatusInternalServerError},
		{"db query", ErrDBQueryFailed("get team", cause), ErrorCode_DB_QUERY_FAILED, http.StatusInternalServerError},
		{"storage", ErrStorageFailed("upload object", cause), ErrorCode_INTEGRATION_STORAGE_FAILED, http.StatusInternalServerError},
		{"summary", ErrAISummaryFailed(cause), ErrorCode_AI_SUMMARY_FAILED, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPCode)
			assert.ErrorIs(t, tt.err, cause)
		})
	}

	assert.Equal(t, "get team", ErrDBQueryFailed("get team", cause).Details["query"])

	unavailable := ErrAIServiceUnavailable("groq")
	assert.Equal(t, http.StatusServiceUnavailable, unavailable.HTTPCode)
	assert.Equal(t, "groq", unavailable.Details["service"])
}
