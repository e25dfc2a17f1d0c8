package services

import (
	"context"
	"strings"

	"leadengine/utils"
)

const (
	guidanceTemperature = 0.7
	guidanceMaxTokens   = 800
	maxQuestionLength   = 2000
)

const guidanceSystemPrompt = `You are a thoughtful advisor to faith-driven leaders who are exploring how artificial intelligence fits their calling, their organisation and their people.
Answer with warmth and practical wisdom. Ground your advice in servant leadership, stewardship and integrity.
Keep answers under 300 words, end with one concrete next step, and never claim to speak for God.`

// GuidanceService answers free-form questions through the completion service.
type GuidanceService struct {
	completer Completer
}

func NewGuidanceService(c Completer) *GuidanceService {
	return &GuidanceService{completer: c}
}

// Ask returns guidance for question. extra is optional background the
// visitor supplied, such as their role or situation.
func (s *GuidanceService) Ask(ctx context.Context, question, extra string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", invalid("question", "question is required")
	}
	if len(question) > maxQuestionLength {
		return "", invalid("question", "question is too long")
	}

	prompt := question
	if extra = strings.TrimSpace(extra); extra != "" {
		prompt = "Context: " + extra + "\n\nQuestion: " + question
	}

	answer, err := s.completer.Complete(ctx, utils.CompletionRequest{
		System:      guidanceSystemPrompt,
		User:        prompt,
		Temperature: guidanceTemperature,
		MaxTokens:   guidanceMaxTokens,
	})
	if err != nil {
		utils.LogError("guidance_completion_failed", err, nil)
		return "", err
	}
	return answer, nil
}
