package summarize

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/nguyentantai21042004/transcript-flow/internal/logger"
)

const summaryPrompt = `You are a careful editor of voice-message transcriptions. Write a concise summary of the transcript below.

Requirements:
- Open with one sentence stating the overall topic
- Keep every concrete fact: names, dates, amounts, places, decisions
- Preserve the order in which points were made
- Write in the same language as the transcript
- Plain text only, no markdown

Transcript:
---
%s
---`

type implSummarizer struct {
	apiKeys    []string
	model      string
	minWords   int
	logger     logger.Logger
	mu         sync.Mutex
	currentKey int
}

// New creates a Summarizer that rotates through the supplied Gemini API keys.
// Inputs under minWords words are rejected with ErrTooShort without an API call.
func New(apiKeys []string, model string, minWords int, log logger.Logger) Summarizer {
	return &implSummarizer{
		apiKeys:  apiKeys,
		model:    model,
		minWords: minWords,
		logger:   log,
	}
}

func (s *implSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if len(strings.Fields(text)) < s.minWords {
		return "", ErrTooShort
	}
	if len(s.apiKeys) == 0 {
		return "", &SummarizeError{Err: fmt.Errorf("no API keys configured")}
	}

	prompt := fmt.Sprintf(summaryPrompt, text)

	attempts := len(s.apiKeys)
	var lastErr error

	for range attempts {
		key := s.nextKey(false)

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			s.nextKey(true)
			continue
		}

		result, err := client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
		if err != nil {
			if isQuotaError(err) {
				s.logger.Warn(ctx, "Gemini key rate limited, rotating")
				s.nextKey(true)
				lastErr = err
				continue
			}
			return "", classify(err)
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var out strings.Builder
			for _, part := range result.Candidates[0].Content.Parts {
				out.WriteString(part.Text)
			}
			summary := strings.TrimSpace(out.String())
			if summary == "" {
				return "", ErrTooShort
			}
			return summary, nil
		}

		return "", &SummarizeError{Err: fmt.Errorf("empty response from model")}
	}

	return "", classify(fmt.Errorf("all API keys exhausted: %w", lastErr))
}

// nextKey returns the current key, advancing first when rotate is set.
func (s *implSummarizer) nextKey(rotate bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rotate {
		s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
	}
	return s.apiKeys[s.currentKey]
}

func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

// classify maps raw engine failures onto the error taxonomy the delivery
// layer renders distinct user messages for.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") || strings.Contains(msg, "deadline exceeded"):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case strings.Contains(msg, "connection") || strings.Contains(msg, "unreachable") || strings.Contains(msg, "no such host"):
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	default:
		return &SummarizeError{Err: err}
	}
}
