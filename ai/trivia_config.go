package ai

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// discord caps slash command choices at 25
const maxCategoryChoices = 25

// TriviaConfig holds the prompt and category list used for question generation.
type TriviaConfig struct {
	// Categories offered as slash command choices. Prefix commands accept any text.
	Categories []string `yaml:"categories"`

	// SystemPrompt is sent ahead of every generation request.
	SystemPrompt string `yaml:"system_prompt"`

	// QuestionPrompt is a format string taking the question count, the category and the seed.
	QuestionPrompt string `yaml:"question_prompt"`

	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// DefaultTriviaConfig returns the built in trivia configuration
func DefaultTriviaConfig() *TriviaConfig {
	return &TriviaConfig{
		Categories: []string{
			"History", "Science", "Geography", "Sports", "Movies", "Animals",
			"Music", "Video Games", "Technology", "Literature", "Mythology",
			"Food & Drink", "Celebrities", "Riddles", "Space", "Cars", "Comics", "Holidays",
		},
		SystemPrompt:   TriviaSystemPrompt,
		QuestionPrompt: TriviaQuestionPrompt,
		Temperature:    0.9,
		MaxTokens:      2048,
	}
}

// LoadTriviaConfig loads a trivia configuration from a YAML file. Missing keys keep their defaults.
func LoadTriviaConfig(path string) (*TriviaConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trivia config file: %w", err)
	}

	config := DefaultTriviaConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse trivia config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the config can drive the slash command and the prompt.
func (c *TriviaConfig) Validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("trivia config needs at least one category")
	}
	if len(c.Categories) > maxCategoryChoices {
		return fmt.Errorf("trivia config has %d categories, discord allows %d", len(c.Categories), maxCategoryChoices)
	}
	if strings.Count(c.QuestionPrompt, "%") < 3 {
		return fmt.Errorf("question_prompt must take count, category and seed verbs")
	}
	return nil
}

// HasCategory reports whether name is one of the configured categories, ignoring case.
func (c *TriviaConfig) HasCategory(name string) bool {
	_, ok := MatchCategory(c.Categories, name)
	return ok
}

// MatchCategory returns the configured spelling of name when it matches one of
// categories ignoring case, and the trimmed name otherwise.
func MatchCategory(categories []string, name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, cat := range categories {
		if strings.EqualFold(cat, name) {
			return cat, true
		}
	}
	return name, false
}

// BuildPrompt renders the question prompt.
func (c *TriviaConfig) BuildPrompt(count int, category string, seed int) string {
	return fmt.Sprintf(c.QuestionPrompt, count, category, seed)
}

// TriviaSystemPrompt frames the model as a JSON only question writer.
var TriviaSystemPrompt = `You write multiple choice trivia questions for a Discord game. Reply with JSON only, no prose and no markdown.`

// TriviaQuestionPrompt asks for a batch of questions. Verbs: count, category, seed.
var TriviaQuestionPrompt = `Generate %[1]d unique multiple-choice trivia questions about %[2]s.
Each question must have exactly four options labeled A, B, C and D, and exactly one correct answer.
Do not repeat questions you have generated before. Random seed: %[3]d.
Respond with a JSON array where every element looks like:
{"question": "What is the capital of France?", "options": ["A: Berlin", "B: Paris", "C: Rome", "D: Madrid"], "correct_answer": "B"}`
