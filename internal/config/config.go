package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kevinmichaelchen/star-topics/internal/logger"
)

// ErrMissingCredential is returned by read operations when no GitHub token
// was configured.
var ErrMissingCredential = errors.New("GitHub token not found in environment variables (set GITHUB_TOKEN)")

type Config struct {
	GitHubToken  string
	GitHubAPIURL string

	HTTPAddr        string
	RequestTimeout  time.Duration
	UpstreamTimeout time.Duration

	EmbeddingBaseURL string
	EmbeddingAPIKey  string
	EmbeddingModel   string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	TopicMinClusterSize      int
	TopicSimilarityThreshold float64
	TopicLanguage            string

	SurrealURL  string
	SurrealNS   string
	SurrealDB   string
	SurrealUser string
	SurrealPass string

	LogLevel string
	LogFile  string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
		GitHubAPIURL: os.Getenv("GITHUB_API_URL"),

		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 60*time.Second),
		UpstreamTimeout: getDuration("UPSTREAM_TIMEOUT", 30*time.Second),

		EmbeddingBaseURL: os.Getenv("EMBEDDING_BASE_URL"),
		EmbeddingAPIKey:  os.Getenv("EMBEDDING_API_KEY"),
		EmbeddingModel:   os.Getenv("EMBEDDING_MODEL"),

		LLMBaseURL: os.Getenv("LLM_BASE_URL"),
		LLMAPIKey:  os.Getenv("LLM_API_KEY"),
		LLMModel:   os.Getenv("LLM_MODEL"),

		TopicMinClusterSize:      getInt("TOPIC_MIN_CLUSTER_SIZE", 5),
		TopicSimilarityThreshold: getFloat("TOPIC_SIMILARITY_THRESHOLD", 0.5),
		TopicLanguage:            os.Getenv("TOPIC_LANGUAGE"),

		SurrealURL:  os.Getenv("SURREAL_URL"),
		SurrealNS:   os.Getenv("SURREAL_NS"),
		SurrealDB:   os.Getenv("SURREAL_DB"),
		SurrealUser: os.Getenv("SURREAL_USER"),
		SurrealPass: os.Getenv("SURREAL_PASS"),

		LogLevel: os.Getenv("LOG_LEVEL"),
		LogFile:  os.Getenv("LOG_FILE"),
	}

	// Older deployments used GITHUB_PAT.
	if cfg.GitHubToken == "" {
		cfg.GitHubToken = os.Getenv("GITHUB_PAT")
	}

	// The SDK appends /rpc automatically
	cfg.SurrealURL = strings.TrimSuffix(cfg.SurrealURL, "/rpc")
	cfg.SurrealURL = strings.TrimSuffix(cfg.SurrealURL, "/")

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8000"
	}
	if cfg.EmbeddingBaseURL == "" {
		cfg.EmbeddingBaseURL = "https://api.openai.com/v1"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = "gpt-4o-mini"
	}
	if cfg.TopicLanguage == "" {
		cfg.TopicLanguage = "multilingual"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg
}

// Token returns the GitHub token or ErrMissingCredential.
func (c *Config) Token() (string, error) {
	if c.GitHubToken == "" {
		return "", ErrMissingCredential
	}
	return c.GitHubToken, nil
}

func (c *Config) HistoryEnabled() bool {
	return c.SurrealURL != ""
}

func (c *Config) LabelingEnabled() bool {
	return c.LLMAPIKey != ""
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logger.Warnf("invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logger.Warnf("invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 || f > 1 {
		logger.Warnf("invalid %s=%q, using %g", key, v, def)
		return def
	}
	return f
}
