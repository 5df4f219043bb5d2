package assignment

import (
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

// Strategy names the rule that resolved an owner
type Strategy string

const (
	StrategyNone           Strategy = ""
	StrategySuggestedOwner Strategy = "suggested_owner"
	StrategyMention        Strategy = "description_mention"
	StrategySpeakerContext Strategy = "speaker_context"
)

// Engine decides an owner for each action item from a fixed chain of strategies.
// The first strategy to resolve a member wins; nothing is scored.
type Engine struct {
	matcher *NameMatcher
	now     func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the source of AssignedAt
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an assignment engine around matcher
func NewEngine(matcher *NameMatcher, opts ...Option) *Engine {
	if matcher == nil {
		matcher = NewNameMatcher()
	}
	e := &Engine{
		matcher: matcher,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AutoAssign partitions items into assigned and unassigned, preserving input order in both.
// Assigned items are copies carrying the assignee and assignedBy; unassigned items are unchanged.
func (e *Engine) AutoAssign(
	items []entities.ActionItem,
	speakerMatches entities.SpeakerMatches,
	roster []entities.TeamMember,
	assignedBy string,
) (assigned, unassigned []entities.ActionItem) {
	assigned = make([]entities.ActionItem, 0, len(items))
	unassigned = make([]entities.ActionItem, 0, len(items))
	if len(items) == 0 {
		return assigned, unassigned
	}

	speakers := sortedSpeakers(speakerMatches)
	at := e.now()

	for _, item := range items {
		member, _ := e.resolve(item, speakers, speakerMatches, roster)
		if member == nil {
			unassigned = append(unassigned, item)
			continue
		}
		item.Assign(entities.Assignment{
			AssigneeID:   member.UserID,
			AssigneeName: member.DisplayName,
			AssignedBy:   assignedBy,
			AssignedAt:   at,
		})
		assigned = append(assigned, item)
	}
	return assigned, unassigned
}

// Resolve reports the member an item would be assigned to and which strategy found it
func (e *Engine) Resolve(
	item entities.ActionItem,
	speakerMatches entities.SpeakerMatches,
	roster []entities.TeamMember,
) (*entities.TeamMember, Strategy) {
	return e.resolve(item, sortedSpeakers(speakerMatches), speakerMatches, roster)
}

func (e *Engine) resolve(
	item entities.ActionItem,
	speakers []string,
	speakerMatches entities.SpeakerMatches,
	roster []entities.TeamMember,
) (*entities.TeamMember, Strategy) {
	if len(roster) == 0 {
		return nil, StrategyNone
	}

	if strings.TrimSpace(item.Owner) != "" {
		if m := e.matcher.Match(item.Owner, roster); m != nil {
			return m, StrategySuggestedOwner
		}
	}

	for _, mention := range extractMentions(item.Description) {
		if m := e.matcher.Match(mention, roster); m != nil {
			return m, StrategyMention
		}
	}

	description := strings.ToLower(item.Description)
	for _, speaker := range speakers {
		member := speakerMatches[speaker]
		if member == nil {
			continue
		}
		first := strings.ToLower(firstToken(speaker))
		if first == "" || !strings.Contains(description, first) {
			continue
		}
		// only members of the roster in hand may be assigned
		if m, ok := entities.FindMember(roster, member.UserID); ok {
			return m, StrategySpeakerContext
		}
	}

	return nil, StrategyNone
}

// extractMentions returns capitalized names found in text, in order.
// Two consecutive capitalized words form one full name; a lone capitalized
// word needs more than two characters.
func extractMentions(text string) []string {
	words := strings.Fields(text)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		tokens = append(tokens, strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}))
	}

	var mentions []string
	for i := 0; i < len(tokens); i++ {
		if !isCapitalized(tokens[i]) {
			continue
		}
		if i+1 < len(tokens) && isCapitalized(tokens[i+1]) {
			mentions = append(mentions, tokens[i]+" "+tokens[i+1])
			i++
			continue
		}
		if utf8.RuneCountInString(tokens[i]) > 2 {
			mentions = append(mentions, tokens[i])
		}
	}
	return mentions
}

func isCapitalized(token string) bool {
	r, _ := utf8.DecodeRuneInString(token)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

func sortedSpeakers(matches entities.SpeakerMatches) []string {
	names := make([]string, 0, len(matches))
	for name := range matches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
