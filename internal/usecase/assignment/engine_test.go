package assignment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return NewEngine(NewNameMatcher(), WithClock(func() time.Time { return fixedNow }))
}

func ids(items []entities.ActionItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestAutoAssign_EmptyRosterLeavesEverythingUnassigned(t *testing.T) {
	items := []entities.ActionItem{
		{ID: "a", Description: "Sarah fixes login", Owner: "Sarah"},
		{ID: "b", Description: "Write docs"},
		{ID: "c", Description: "Mike ships"},
	}

	assigned, unassigned := newTestEngine().AutoAssign(items, nil, nil, "owner")

	assert.Empty(t, assigned)
	assert.Equal(t, []string{"a", "b", "c"}, ids(unassigned))
}

func TestAutoAssign_StablePartition(t *testing.T) {
	roster := []entities.TeamMember{
		member("u1", "Sarah Lee", "slee@corp.io"),
		member("u2", "Mike Brown", "mbrown@corp.io"),
	}
	items := []entities.ActionItem{
		{ID: "1", Description: "prepare the budget"},
		{ID: "2", Description: "update the roadmap", Owner: "Mike"},
		{ID: "3", Description: "book the venue"},
		{ID: "4", Description: "Review the PR with Sarah"},
	}

	assigned, unassigned := newTestEngine().AutoAssign(items, nil, roster, "owner")

	assert.Equal(t, len(items), len(assigned)+len(unassigned))
	assert.Equal(t, []string{"2", "4"}, ids(assigned))
	assert.Equal(t, []string{"1", "3"}, ids(unassigned))
	assert.Equal(t, "u2", assigned[0].AssigneeID)
	assert.Equal(t, "Mike Brown", assigned[0].AssigneeName)
	assert.Equal(t, "u1", assigned[1].AssigneeID)
}

func TestAutoAssign_SetsAssignmentFieldsOnCopies(t *testing.T) {
	roster := []entities.TeamMember{member("u1", "Sarah Lee", "")}
	items := []entities.ActionItem{{ID: "1", Description: "x", Owner: "Sarah"}}

	assigned, _ := newTestEngine().AutoAssign(items, nil, roster, "boss")

	require.Len(t, assigned, 1)
	assert.Equal(t, "boss", assigned[0].AssignedBy)
	require.NotNil(t, assigned[0].AssignedAt)
	assert.True(t, fixedNow.Equal(*assigned[0].AssignedAt))

	assert.False(t, items[0].IsAssigned())
	assert.Nil(t, items[0].AssignedAt)
}

func TestResolve_StrategyOrder(t *testing.T) {
	sarah := member("u1", "Sarah Lee", "slee@corp.io")
	mike := member("u2", "Mike Brown", "mbrown@corp.io")
	roster := []entities.TeamMember{sarah, mike}
	speakers := entities.SpeakerMatches{"Mike": &roster[1], "Unknown Guy": nil}

	tests := []struct {
		name         string
		item         entities.ActionItem
		wantID       string
		wantStrategy Strategy
	}{
		{
			name:         "suggested owner wins over mention",
			item:         entities.ActionItem{Description: "Review with Mike", Owner: "Sarah"},
			wantID:       "u1",
			wantStrategy: StrategySuggestedOwner,
		},
		{
			name:         "unmatched owner falls through to mention",
			item:         entities.ActionItem{Description: "Review the PR with Sarah", Owner: "Contractor"},
			wantID:       "u1",
			wantStrategy: StrategyMention,
		},
		{
			name:         "bigram mention",
			item:         entities.ActionItem{Description: "escalate to Sarah Lee today"},
			wantID:       "u1",
			wantStrategy: StrategyMention,
		},
		{
			name:         "speaker context is case-insensitive",
			item:         entities.ActionItem{Description: "send notes to mike's manager"},
			wantID:       "u2",
			wantStrategy: StrategySpeakerContext,
		},
		{
			name:         "nothing resolves",
			item:         entities.ActionItem{Description: "order pizza"},
			wantStrategy: StrategyNone,
		},
	}

	e := newTestEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, strategy := e.Resolve(tt.item, speakers, roster)
			assert.Equal(t, tt.wantStrategy, strategy)
			if tt.wantID == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.UserID)
		})
	}
}

func TestResolve_SpeakerOutsideRosterIsIgnored(t *testing.T) {
	stranger := member("u9", "Mike Stranger", "")
	roster := []entities.TeamMember{member("u1", "Sarah Lee", "")}
	speakers := entities.SpeakerMatches{"Mike": &stranger}

	got, strategy := newTestEngine().Resolve(entities.ActionItem{Description: "ping mike"}, speakers, roster)

	assert.Nil(t, got)
	assert.Equal(t, StrategyNone, strategy)
}

func TestAutoAssign_Deterministic(t *testing.T) {
	roster := []entities.TeamMember{
		member("u1", "Anna Park", ""),
		member("u2", "Ben Ortiz", ""),
	}
	speakers := entities.SpeakerMatches{"Ben": &roster[1], "Anna": &roster[0]}
	items := []entities.ActionItem{
		{ID: "1", Description: "anna and ben pair on the rollout"},
		{ID: "2", Description: "nobody here"},
	}

	e := newTestEngine()
	first, _ := e.AutoAssign(items, speakers, roster, "x")
	for i := 0; i < 20; i++ {
		again, _ := e.AutoAssign(items, speakers, roster, "x")
		require.Len(t, again, 1)
		assert.Equal(t, first[0].AssigneeID, again[0].AssigneeID)
	}
	// speakers are visited in name order
	assert.Equal(t, "u1", first[0].AssigneeID)
}

func TestAutoAssign_TranscriptToAssignee(t *testing.T) {
	roster := []entities.TeamMember{member("u1", "Sarah Lee", "")}
	transcript := "John: Sarah will handle the auth work."
	matcher := NewNameMatcher()

	speakers := ExtractSpeakerNames(transcript)
	matches := matcher.MatchAll(speakers, roster)
	items := []entities.ActionItem{{ID: "t1", Description: "Handle the auth work", Owner: "Sarah"}}

	assigned, unassigned := NewEngine(matcher).AutoAssign(items, matches, roster, "john")

	assert.Equal(t, []string{"John"}, speakers)
	assert.Nil(t, matches["John"])
	assert.Empty(t, unassigned)
	require.Len(t, assigned, 1)
	assert.Equal(t, "u1", assigned[0].AssigneeID)
}

func TestExtractMentions(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Ask Mike Brown to review", []string{"Ask Mike", "Brown"}},
		{"loop in Jo and Sarah.", []string{"Sarah"}},
		{"(Sarah Lee) owns it", []string{"Sarah Lee"}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractMentions(tt.text), tt.text)
	}
}
