// Package triviagen implements ai.QuestionGenerator against an OpenAI compatible LLM.
package triviagen

import (
	"fmt"
	"math/rand/v2"

	"github.com/samosabot/samosa-bot/ai"
	"github.com/samosabot/samosa-bot/logging"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator asks the LLM for batches of trivia questions.
type Generator struct {
	llm    llms.Model
	config *ai.TriviaConfig
	logger *logging.Logger
	seed   func() int
}

// Setup creates a new trivia question generator. An empty baseURL talks to OpenAI;
// otherwise the same API spec is used against our own model, e.g. a llama.cpp server.
func Setup(baseURL, token, model string, config *ai.TriviaConfig, logger *logging.Logger) (*Generator, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if config == nil {
		config = ai.DefaultTriviaConfig()
	}

	logger.Info("setting up trivia question LLM", "model", model, "path", baseURL)

	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		logger.Error("failed to create OpenAI LLM", "error", err.Error())
		return nil, fmt.Errorf("failed to create OpenAI LLM: %w", err)
	}

	return newGenerator(llm, config, logger), nil
}

func newGenerator(llm llms.Model, config *ai.TriviaConfig, logger *logging.Logger) *Generator {
	return &Generator{
		llm:    llm,
		config: config,
		logger: logger,
		seed:   func() int { return rand.IntN(1_000_000) + 1 },
	}
}
