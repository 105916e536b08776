// Package config loads runtime configuration from the environment with an
// optional YAML file overlay.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LLM provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderBedrock   = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// LLM provider
	LLMProvider     string `yaml:"llm_provider"`
	LLMModel        string `yaml:"llm_model"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"` // OpenAI-compatible endpoints (e.g. Groq)
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OllamaHost      string `yaml:"ollama_host"`
	BedrockModel    string `yaml:"bedrock_model"`

	// NLU classifier service
	NLUServiceURL string        `yaml:"nlu_service_url"`
	NLUTimeout    time.Duration `yaml:"nlu_timeout"`

	// Messenger webhook
	VerifyToken     string `yaml:"verify_token"`
	PageAccessToken string `yaml:"page_access_token"`
	GraphAPIVersion string `yaml:"graph_api_version"`

	// Server
	ListenAddr  string        `yaml:"listen_addr"`
	TurnTimeout time.Duration `yaml:"turn_timeout"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Load reads configuration from the environment. A `.env` file in the working
// directory is applied first if present; RESOLVEBOT_CONFIG may point to a YAML
// file whose values fill anything the environment leaves unset. Built-in
// defaults apply last, so the file can override any of them.
func Load() Config {
	// Missing .env is the normal case in production.
	_ = godotenv.Load()

	cfg := Config{
		SurrealDBURL:       os.Getenv("SURREALDB_URL"),
		SurrealDBNamespace: os.Getenv("SURREALDB_NAMESPACE"),
		SurrealDBDatabase:  os.Getenv("SURREALDB_DATABASE"),
		SurrealDBUser:      os.Getenv("SURREALDB_USER"),
		SurrealDBPass:      os.Getenv("SURREALDB_PASS"),
		SurrealDBAuthLevel: os.Getenv("SURREALDB_AUTH_LEVEL"),

		LLMProvider:     os.Getenv("RESOLVEBOT_LLM_PROVIDER"),
		LLMModel:        os.Getenv("RESOLVEBOT_LLM_MODEL"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", os.Getenv("GROQ_API_KEY")),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OllamaHost:      os.Getenv("OLLAMA_HOST"),
		BedrockModel:    os.Getenv("RESOLVEBOT_BEDROCK_MODEL"),

		NLUServiceURL: os.Getenv("NLU_SERVICE_URL"),
		NLUTimeout:    getDuration("NLU_TIMEOUT", 0),

		VerifyToken:     os.Getenv("VERIFY_TOKEN"),
		PageAccessToken: os.Getenv("PAGE_ACCESS_TOKEN"),
		GraphAPIVersion: os.Getenv("API_VERSION"),

		ListenAddr:  os.Getenv("RESOLVEBOT_LISTEN_ADDR"),
		TurnTimeout: getDuration("RESOLVEBOT_TURN_TIMEOUT", 0),

		LogFile:  os.Getenv("RESOLVEBOT_LOG_FILE"),
		LogLevel: parseLogLevel(getEnv("RESOLVEBOT_LOG_LEVEL", "INFO")),
	}

	if path := os.Getenv("RESOLVEBOT_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			slog.Warn("config file ignored", "path", path, "error", err)
		}
	}

	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills anything neither the environment nor the config file set.
func (c *Config) applyDefaults() {
	fillString(&c.SurrealDBURL, "ws://localhost:8000/rpc")
	fillString(&c.SurrealDBNamespace, "ecommerce")
	fillString(&c.SurrealDBDatabase, "grocery_shipping")
	fillString(&c.SurrealDBUser, "root")
	fillString(&c.SurrealDBPass, "root")
	fillString(&c.SurrealDBAuthLevel, "root")
	fillString(&c.LLMProvider, ProviderOpenAI)
	fillString(&c.LLMModel, "meta-llama/llama-4-scout-17b-16e-instruct")
	fillString(&c.OpenAIBaseURL, "https://api.groq.com/openai/v1")
	fillString(&c.OllamaHost, "http://localhost:11434")
	fillString(&c.BedrockModel, "anthropic.claude-3-haiku-20240307-v1:0")
	fillString(&c.NLUServiceURL, "http://localhost:8501/classify")
	fillString(&c.GraphAPIVersion, "v24.0")
	fillString(&c.ListenAddr, ":8080")
	fillString(&c.LogFile, "/tmp/resolvebot.log")
	if c.NLUTimeout == 0 {
		c.NLUTimeout = 15 * time.Second
	}
	if c.TurnTimeout == 0 {
		c.TurnTimeout = 60 * time.Second
	}
}

// applyFile overlays values from a YAML config file. The environment wins:
// only fields the environment left empty are filled from the file.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	fillString(&c.SurrealDBURL, file.SurrealDBURL)
	fillString(&c.SurrealDBNamespace, file.SurrealDBNamespace)
	fillString(&c.SurrealDBDatabase, file.SurrealDBDatabase)
	fillString(&c.SurrealDBUser, file.SurrealDBUser)
	fillString(&c.SurrealDBPass, file.SurrealDBPass)
	fillString(&c.SurrealDBAuthLevel, file.SurrealDBAuthLevel)
	fillString(&c.LLMProvider, file.LLMProvider)
	fillString(&c.LLMModel, file.LLMModel)
	fillString(&c.OpenAIAPIKey, file.OpenAIAPIKey)
	fillString(&c.OpenAIBaseURL, file.OpenAIBaseURL)
	fillString(&c.AnthropicAPIKey, file.AnthropicAPIKey)
	fillString(&c.OllamaHost, file.OllamaHost)
	fillString(&c.BedrockModel, file.BedrockModel)
	fillString(&c.NLUServiceURL, file.NLUServiceURL)
	fillString(&c.VerifyToken, file.VerifyToken)
	fillString(&c.PageAccessToken, file.PageAccessToken)
	fillString(&c.GraphAPIVersion, file.GraphAPIVersion)
	fillString(&c.ListenAddr, file.ListenAddr)
	fillString(&c.LogFile, file.LogFile)
	if c.NLUTimeout == 0 {
		c.NLUTimeout = file.NLUTimeout
	}
	if c.TurnTimeout == 0 {
		c.TurnTimeout = file.TurnTimeout
	}
	return nil
}

func fillString(dst *string, val string) {
	if *dst == "" {
		*dst = val
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
