package assignment

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

var (
	nonWordOrSpace = regexp.MustCompile(`[^\w\s]`)
	nonWord        = regexp.MustCompile(`\W`)
)

// NameMatcher resolves free-text names against a team roster.
// Rules are tried in order across the whole roster and the first hit wins:
// exact name, containment, first name, email local part.
type NameMatcher struct{}

// NewNameMatcher creates a new NameMatcher instance
func NewNameMatcher() *NameMatcher {
	return &NameMatcher{}
}

// Match returns the roster member best matching candidate, or nil.
// The roster is used as given; callers pass the active members only.
func (m *NameMatcher) Match(candidate string, roster []entities.TeamMember) *entities.TeamMember {
	name := normalizeName(candidate)
	if name == "" || len(roster) == 0 {
		return nil
	}

	normalized := make([]string, len(roster))
	for i := range roster {
		normalized[i] = normalizeName(roster[i].DisplayName)
	}

	for i := range roster {
		if normalized[i] == name {
			return &roster[i]
		}
	}

	for i := range roster {
		if normalized[i] == "" {
			continue
		}
		if strings.Contains(name, normalized[i]) || strings.Contains(normalized[i], name) {
			return &roster[i]
		}
	}

	if first := firstToken(name); utf8.RuneCountInString(first) > 2 {
		for i := range roster {
			if firstToken(normalized[i]) == first {
				return &roster[i]
			}
		}
	}

	for i := range roster {
		local := emailLocalPart(roster[i].Email)
		if local == "" {
			continue
		}
		if strings.Contains(name, local) || strings.Contains(local, name) {
			return &roster[i]
		}
	}

	return nil
}

// MatchAll matches every name; the result has exactly one key per input name
func (m *NameMatcher) MatchAll(names []string, roster []entities.TeamMember) entities.SpeakerMatches {
	matches := make(entities.SpeakerMatches, len(names))
	for _, name := range names {
		matches[name] = m.Match(name, roster)
	}
	return matches
}

func normalizeName(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	return strings.TrimSpace(nonWordOrSpace.ReplaceAllString(s, ""))
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func emailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return nonWord.ReplaceAllString(strings.ToLower(local), "")
}
