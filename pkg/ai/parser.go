package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/johnquangdev/meeting-taskflow/errors"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

// ParseSummary decodes the model output into a SummaryResult.
// Out-of-range confidence is dropped rather than rejected.
func ParseSummary(content string) (*entities.SummaryResult, error) {
	// Extract JSON from response (models sometimes wrap it in markdown code blocks)
	content = extractJSON(content)

	var result entities.SummaryResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, apperrors.ErrAISummaryFailed(fmt.Errorf("failed to parse JSON response: %w", err))
	}

	if strings.TrimSpace(result.Summary) == "" {
		return nil, apperrors.ErrAISummaryFailed(fmt.Errorf("missing summary in response"))
	}
	if result.ActionItems == nil {
		result.ActionItems = make([]entities.SuggestedActionItem, 0)
	}
	if result.Confidence != nil && (*result.Confidence < 0 || *result.Confidence > 1) {
		result.Confidence = nil
	}

	return &result, nil
}

// extractJSON extracts JSON content from markdown code blocks or plain text
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	// Check if wrapped in markdown code block
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}

func asStatusError(err error, target **StatusError) bool {
	return errors.As(err, target)
}
