// Package config loads the bot's runtime settings from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendRedis    = "redis"
)

// Config is the full set of settings for the bot process.
type Config struct {
	DiscordToken string `env:"DISCORD_SECRET"`
	Prefix       string `env:"BOT_PREFIX" envDefault:"!"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsAddr  string `env:"METRICS_ADDR" envDefault:":6060"`

	Store    StoreConfig
	LLM      LLMConfig
	Trivia   TriviaConfig
	Throttle ThrottleConfig
}

// StoreConfig selects and addresses the leaderboard backend.
type StoreConfig struct {
	Backend       string `env:"STORE_BACKEND" envDefault:"postgres"`
	PostgresURL   string `env:"POSTGRES_URL"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"samosa"`
}

// LLMConfig points at an OpenAI compatible endpoint. BaseURL may be a llama.cpp server.
type LLMConfig struct {
	BaseURL    string `env:"LLM_BASE_URL"`
	Token      string `env:"OPENAI_API_KEY" envDefault:"none"`
	Model      string `env:"TEXT_GENERATION_MODEL" envDefault:"gpt-4o"`
	ConfigPath string `env:"TRIVIA_CONFIG_PATH"`
}

// TriviaConfig holds game timings in seconds and question counts.
type TriviaConfig struct {
	StartDelay        int `env:"TRIVIA_START_DELAY" envDefault:"30"`
	AnswerTime        int `env:"TRIVIA_ANSWER_TIME" envDefault:"30"`
	QuestionBreak     int `env:"TRIVIA_QUESTION_BREAK_TIME" envDefault:"15"`
	FastStartDelay    int `env:"FAST_TRIVIA_START_DELAY" envDefault:"10"`
	FastAnswerTime    int `env:"FAST_TRIVIA_ANSWER_TIME" envDefault:"15"`
	FastQuestionBreak int `env:"FAST_TRIVIA_QUESTION_BREAK_TIME" envDefault:"5"`
	QuestionCount     int `env:"TRIVIA_QUESTION_COUNT" envDefault:"10"`
	MaxQuestions      int `env:"TRIVIA_MAX_QUESTIONS" envDefault:"20"`
}

// ThrottleConfig limits how often a single user may run commands.
type ThrottleConfig struct {
	ExemptCommands      []string `env:"EXEMPT_COMMANDS" envSeparator:"," envDefault:"trivia"`
	DelayBetweenCommand int      `env:"DELAY_BETWEEN_COMMANDS" envDefault:"5"`
	MaxPerMinute        int      `env:"MAX_ALLOWED_PER_MINUTE" envDefault:"10"`
}

// Load reads .env (if any) and parses the environment into a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreBackendPostgres, StoreBackendRedis:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q: want %s or %s", c.Store.Backend, StoreBackendPostgres, StoreBackendRedis)
	}

	t := c.Trivia
	for name, v := range map[string]int{
		"TRIVIA_START_DELAY":              t.StartDelay,
		"TRIVIA_QUESTION_BREAK_TIME":      t.QuestionBreak,
		"FAST_TRIVIA_START_DELAY":         t.FastStartDelay,
		"FAST_TRIVIA_QUESTION_BREAK_TIME": t.FastQuestionBreak,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if t.AnswerTime <= 0 || t.FastAnswerTime <= 0 {
		return errors.New("trivia answer time must be positive")
	}
	if t.MaxQuestions <= 0 {
		return errors.New("TRIVIA_MAX_QUESTIONS must be positive")
	}
	if t.QuestionCount <= 0 || t.QuestionCount > t.MaxQuestions {
		return fmt.Errorf("TRIVIA_QUESTION_COUNT must be between 1 and %d", t.MaxQuestions)
	}
	if c.Throttle.DelayBetweenCommand < 0 || c.Throttle.MaxPerMinute < 0 {
		return errors.New("throttle settings must not be negative")
	}
	return nil
}

// Seconds converts one of the integer second settings into a time.Duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
