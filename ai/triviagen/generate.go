package triviagen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samosabot/samosa-bot/ai"
	"github.com/samosabot/samosa-bot/metrics"
	"github.com/samosabot/samosa-bot/types"
	"github.com/tmc/langchaingo/llms"
)

// GenerateQuestions requests count questions about category in a single call. The
// returned slice keeps the model's order; malformed entries are zero or partial
// Questions and fail Validate.
func (g *Generator) GenerateQuestions(ctx context.Context, category string, count int) ([]types.Question, error) {
	if count <= 0 {
		return nil, fmt.Errorf("question count must be positive, got %d", count)
	}

	seed := g.seed()
	logger := g.logger.With("category", category, "count", count, "seed", seed)
	logger.Debug("calling LLM for trivia questions")

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, g.config.SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, g.config.BuildPrompt(count, category, seed)),
	}

	start := time.Now()
	resp, err := g.llm.GenerateContent(ctx, messages,
		llms.WithCandidateCount(1),
		llms.WithMaxTokens(g.config.MaxTokens),
		llms.WithTemperature(g.config.Temperature),
		llms.WithSeed(seed),
	)
	metrics.QuestionGenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Error("failed to get trivia questions from LLM", "error", err.Error())
		metrics.FailedLLMGenCount.Add(1)
		return nil, fmt.Errorf("failed to get llm response: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		logger.Warn("empty response from trivia LLM")
		metrics.EmptyLLMResponseCount.Add(1)
		return nil, ai.ErrNoQuestions
	}

	questions, err := ai.ParseQuestions(resp.Choices[0].Content)
	if err != nil {
		logger.Error("failed to parse trivia questions", "error", err.Error(), "responseLength", len(resp.Choices[0].Content))
		metrics.FailedLLMGenCount.Add(1)
		if errors.Is(err, ai.ErrNoQuestions) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to parse llm response: %w", err)
	}
	if len(questions) > count {
		questions = questions[:count]
	}

	logger.Debug("successful trivia generation", "received", len(questions))
	metrics.SuccessfulLLMGenCount.Add(1)
	return questions, nil
}
