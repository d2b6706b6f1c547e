package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"moment/internal/domain"
)

const summaryMaxTokens = 4096

// Summary is the structured result the app renders into a note.
type Summary struct {
	Summary        string `json:"summary"`
	SuggestedTitle string `json:"suggested_title"`
}

// Summarizer turns a transcript into a structured note summary. Models are
// tried in configured order until one answers, so a deprecated or
// overloaded model degrades to the next one instead of failing the request.
type Summarizer struct {
	client  anthropic.Client
	models  []string
	prompts *PromptSet
	logger  *slog.Logger
}

// NewSummarizer creates a summarizer with the given API key and fallback
// model order.
func NewSummarizer(apiKey string, models []string, prompts *PromptSet, logger *slog.Logger) (*Summarizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("at least one summary model is required")
	}

	return &Summarizer{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		models:  models,
		prompts: prompts,
		logger:  logger,
	}, nil
}

// Summarize generates a summary of the transcript in the requested format.
func (s *Summarizer) Summarize(ctx context.Context, text, format string) (*Summary, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrValidation)
	}

	prompt := s.prompts.Render(format, text)

	var lastErr error
	for _, model := range s.models {
		message, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: summaryMaxTokens,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			s.logger.Warn("summary model failed", "model", model, "error", err)
			lastErr = err
			continue
		}

		s.logger.Debug("summary generated", "model", model, "format", format)
		return parseSummary(responseText(message)), nil
	}

	return nil, fmt.Errorf("%w: all summary models failed: %v", domain.ErrUnavailable, lastErr)
}

func responseText(msg *anthropic.Message) string {
	var sb strings.Builder
	for _, content := range msg.Content {
		if content.Type == "text" {
			sb.WriteString(content.Text)
		}
	}
	return sb.String()
}

// parseSummary extracts the structured summary from the model's reply. The
// prompt asks for bare JSON, but models occasionally wrap it in a code
// fence or lead with prose, so this scans for the outermost object before
// giving up and falling back to the raw text.
func parseSummary(text string) *Summary {
	candidate := text
	if start := strings.Index(candidate, "{"); start >= 0 {
		if end := strings.LastIndex(candidate, "}"); end > start {
			candidate = candidate[start : end+1]
		}
	}

	var out Summary
	if err := json.Unmarshal([]byte(candidate), &out); err == nil && out.Summary != "" {
		return &out
	}

	// Fallback: keep a truncated raw reply rather than losing the work.
	fallback := text
	if runes := []rune(fallback); len(runes) > 200 {
		fallback = string(runes[:200]) + "..."
	}
	return &Summary{Summary: fallback, SuggestedTitle: "Untitled"}
}
