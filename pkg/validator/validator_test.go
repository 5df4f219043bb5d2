package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type request struct {
	Transcript string `json:"transcript" validate:"required"`
	TeamID     string `json:"team_id,omitempty" validate:"omitempty,uuid"`
	Kind       string `json:"kind" validate:"omitempty,oneof=a b"`
}

func TestCustomValidator(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(&request{Transcript: "hi"}))

	err := v.Validate(&request{})
	require.Error(t, err)
	assert.Equal(t, "transcript must satisfy required", err.Error())

	err = v.Validate(&request{Transcript: "hi", TeamID: "x", Kind: "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "team_id must satisfy uuid")
	assert.Contains(t, err.Error(), "kind must satisfy oneof=a b")
}
