package entities

// SuggestedActionItem is an action item proposed by the summarizer.
// Owner is free text and may not correspond to anyone on the roster.
type SuggestedActionItem struct {
	Description string `json:"description"`
	Owner       string `json:"owner,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

// SummaryResult is what the summarizer returns for one transcript
type SummaryResult struct {
	Summary     string                `json:"summary"`
	ActionItems []SuggestedActionItem `json:"action_items"`
	Confidence  *float64              `json:"confidence,omitempty"`
}
