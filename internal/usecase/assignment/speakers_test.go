package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSpeakerNames(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		want       []string
	}{
		{
			name:       "line prefix and brackets",
			transcript: "Sarah: I will fix it.\n[Mike] agreed.",
			want:       []string{"Mike", "Sarah"},
		},
		{
			name:       "parenthesized and multi-word",
			transcript: "  Sarah Lee : kicking off\n(Tom Hardy) nods",
			want:       []string{"Sarah Lee", "Tom Hardy"},
		},
		{
			name:       "attribution verbs",
			transcript: "After the demo Anna said we should ship. Later, Tom Hardy replied that it was fine.",
			want:       []string{"Anna", "Tom Hardy"},
		},
		{
			name:       "duplicates across passes collapse",
			transcript: "Sarah: hi\nSarah: again\nthen Sarah said ok\n[Sarah]",
			want:       []string{"Sarah"},
		},
		{
			name:       "rejected candidates",
			transcript: "Meeting Notes:\nAgenda:\nAl: hi\n(Action Items)\n[Quarterly Meeting]",
			want:       []string{},
		},
		{
			name:       "empty transcript",
			transcript: "",
			want:       []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSpeakerNames(tt.transcript))
		})
	}
}
