package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-taskflow/errors"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/pkg/config"
)

const defaultGroqModel = "llama-3.3-70b-versatile"

// GroqClient summarizes transcripts through Groq's OpenAI-compatible chat API
type GroqClient struct {
	apiKey          string
	baseURL         string
	model           string
	maxRetryElapsed time.Duration
	client          *http.Client
	logger          *zap.Logger
}

// NewGroqClient creates a Groq client using values from the provided config
func NewGroqClient(cfg *config.GroqConfig, logger *zap.Logger) *GroqClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &GroqClient{
		baseURL:         "https://api.groq.com",
		model:           defaultGroqModel,
		maxRetryElapsed: 30 * time.Second,
		client:          &http.Client{Timeout: 60 * time.Second},
		logger:          logger,
	}
	if cfg == nil {
		return c
	}
	c.apiKey = cfg.APIKey
	if cfg.BaseURL != "" {
		c.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Model != "" {
		c.model = cfg.Model
	}
	if cfg.Timeout > 0 {
		c.client.Timeout = cfg.Timeout
	}
	if cfg.MaxRetryElapsed > 0 {
		c.maxRetryElapsed = cfg.MaxRetryElapsed
	}
	return c
}

// ChatMessage is one message of a chat completion request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat asks the model for a specific output shape
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatRequest is the shape for chat completion requests
type ChatRequest struct {
	Model          string          `json:"model,omitempty"`
	Messages       []ChatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatResponse is a minimal response shape
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("groq returned status %d: %s", e.StatusCode, e.Body)
}

// retryable reports whether the request may succeed if sent again
func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Summarize asks the model for a summary and action items. Roster names are
// included so suggested owners use names the team actually goes by.
func (g *GroqClient) Summarize(ctx context.Context, transcript string, roster []entities.TeamMember) (*entities.SummaryResult, error) {
	req := ChatRequest{
		Model: g.model,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(transcript, roster)},
		},
		Temperature:    0.2,
		MaxTokens:      4000,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	var content string
	op := func() error {
		out, err := g.complete(ctx, req)
		if err != nil {
			var se *StatusError
			if asStatusError(err, &se) && !se.retryable() {
				return backoff.Permanent(err)
			}
			g.logger.Warn("groq request failed, retrying", zap.Error(err))
			return err
		}
		content = out
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 8 * time.Second
	bo.MaxElapsedTime = g.maxRetryElapsed

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		var se *StatusError
		if asStatusError(err, &se) && se.retryable() {
			unavailable := apperrors.ErrAIServiceUnavailable("groq")
			unavailable.Raw = err
			return nil, unavailable
		}
		return nil, apperrors.ErrAISummaryFailed(fmt.Errorf("groq summarize: %w", err))
	}

	return ParseSummary(content)
}

func (g *GroqClient) complete(ctx context.Context, reqBody ChatRequest) (string, error) {
	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := g.baseURL + "/openai/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var cr ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("empty response from groq")
	}
	return cr.Choices[0].Message.Content, nil
}

const systemPrompt = `You extract action items from meeting transcripts.
Respond with a single JSON object and nothing else:
{"summary": string, "confidence": number between 0 and 1,
 "action_items": [{"description": string, "owner": string, "deadline": string, "priority": "high"|"medium"|"low"}]}
Use an empty string for owner or deadline when the transcript does not state one.`

func buildUserPrompt(transcript string, roster []entities.TeamMember) string {
	var sb strings.Builder
	if len(roster) > 0 {
		sb.WriteString("Team members (use these names for owners when they match):\n")
		for _, m := range roster {
			sb.WriteString("- ")
			sb.WriteString(m.DisplayName)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Transcript:\n")
	sb.WriteString(transcript)
	return sb.String()
}
