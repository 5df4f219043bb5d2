package assignment

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const nameExpr = `[A-Z][A-Za-z'.-]*(?:[ \t]+[A-Z][A-Za-z'.-]*){0,2}`

var (
	lineSpeakerRe    = regexp.MustCompile(`(?m)^[ \t]*(` + nameExpr + `)[ \t]*:`)
	bracketSpeakerRe = regexp.MustCompile(`[\[(][ \t]*(` + nameExpr + `)[ \t]*[\])]`)
	verbSpeakerRe    = regexp.MustCompile(`\b([A-Z][A-Za-z'-]*(?:[ \t]+[A-Z][A-Za-z'-]*)?)[ \t]+(?:said|mentioned|stated|asked|replied|responded)\b`)
	numericRe        = regexp.MustCompile(`^\d+$`)

	rejectedWords = []string{"meeting", "agenda", "action"}
)

// ExtractSpeakerNames scans a transcript for likely speaker names.
// Three passes are unioned: "Name:" at the start of a line, "[Name]" or "(Name)",
// and "Name said" style attributions. The result is deduplicated and sorted.
func ExtractSpeakerNames(transcript string) []string {
	seen := make(map[string]struct{})
	for _, re := range []*regexp.Regexp{lineSpeakerRe, bracketSpeakerRe, verbSpeakerRe} {
		for _, m := range re.FindAllStringSubmatch(transcript, -1) {
			name := strings.TrimSpace(m[1])
			if !isSpeakerName(name) {
				continue
			}
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isSpeakerName(name string) bool {
	if utf8.RuneCountInString(name) <= 2 {
		return false
	}
	if numericRe.MatchString(name) {
		return false
	}
	lower := strings.ToLower(name)
	for _, w := range rejectedWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return true
}
