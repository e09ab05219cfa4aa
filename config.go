package main

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Provider        string  `yaml:"provider"`
	Model           string  `yaml:"model"`
	AnthropicAPIKey string  `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string  `yaml:"openai_api_key"`
	OpenAIBaseURL   string  `yaml:"openai_base_url"`
	Temperature     float64 `yaml:"temperature"`

	MaxTokens   int `yaml:"max_tokens"`
	ParseTokens int `yaml:"parse_tokens"`

	RetryTimes    int `yaml:"retry_times"`
	RetryDelaySec int `yaml:"retry_delay_seconds"`
	MaxConcurrent int `yaml:"max_concurrent"`

	RandomOrder    bool `yaml:"random_order"`
	MaxConsecutive int  `yaml:"max_consecutive_same_dimension"`

	MinAge int `yaml:"min_age"`
	MaxAge int `yaml:"max_age"`

	QuestionnaireFile string `yaml:"questionnaire_file"`
	SubjectFile       string `yaml:"subject_file"`
	KeywordsFile      string `yaml:"keywords_file"`
	OutputDir         string `yaml:"output_dir"`
	OutputFormat      string `yaml:"output_format"`
	JournalPath       string `yaml:"journal_path"`

	SlackBotToken  string `yaml:"slack_bot_token"`
	SlackChannelID string `yaml:"slack_channel_id"`

	Schedule string `yaml:"schedule"`
}

func LoadConfig() Config {
	var cfg Config

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.Provider, "LLM_PROVIDER")
	envOverride(&cfg.Model, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.OpenAIBaseURL, "OPENAI_BASE_URL")
	envOverrideInt(&cfg.MaxTokens, "MAX_TOKENS")
	envOverrideInt(&cfg.ParseTokens, "PARSE_TOKENS")
	envOverrideInt(&cfg.RetryTimes, "RETRY_TIMES")
	envOverrideInt(&cfg.RetryDelaySec, "RETRY_DELAY_SECONDS")
	envOverrideInt(&cfg.MaxConcurrent, "MAX_CONCURRENT")
	envOverrideInt(&cfg.MaxConsecutive, "MAX_CONSECUTIVE_SAME_DIMENSION")
	envOverrideInt(&cfg.MinAge, "MIN_AGE")
	envOverrideInt(&cfg.MaxAge, "MAX_AGE")
	envOverride(&cfg.QuestionnaireFile, "QUESTIONNAIRE_FILE")
	envOverride(&cfg.SubjectFile, "SUBJECT_FILE")
	envOverride(&cfg.KeywordsFile, "KEYWORDS_FILE")
	envOverride(&cfg.OutputDir, "OUTPUT_DIR")
	envOverride(&cfg.OutputFormat, "OUTPUT_FORMAT")
	envOverride(&cfg.JournalPath, "JOURNAL_PATH")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")
	envOverride(&cfg.Schedule, "SCHEDULE")
	if val := os.Getenv("RANDOM_ORDER"); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			log.Fatalf("invalid RANDOM_ORDER '%s': %v", val, err)
		}
		cfg.RandomOrder = parsed
	}

	// Defaults
	if cfg.Provider == "" {
		cfg.Provider = "anthropic"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}
	if cfg.ParseTokens == 0 {
		cfg.ParseTokens = 4000
	}
	if cfg.RetryTimes == 0 {
		cfg.RetryTimes = 3
	}
	if cfg.RetryDelaySec == 0 {
		cfg.RetryDelaySec = 2
	}
	if cfg.MaxConcurrent == 0 {
		cfg.MaxConcurrent = 5
	}
	if cfg.MaxConsecutive == 0 {
		cfg.MaxConsecutive = 3
	}
	if cfg.MinAge == 0 {
		cfg.MinAge = 18
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 75
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./results"
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "csv"
	}

	// Validate required fields
	if cfg.QuestionnaireFile == "" {
		log.Fatalf("Required config 'questionnaire_file' is not set (via config.yaml or env var)")
	}
	if cfg.SubjectFile == "" {
		log.Fatalf("Required config 'subject_file' is not set (via config.yaml or env var)")
	}

	switch cfg.Provider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatalf("anthropic_api_key is required when provider=anthropic")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatalf("openai_api_key is required when provider=openai")
		}
	case "mock":
		// offline runs, no credentials
	default:
		log.Fatalf("provider must be 'anthropic', 'openai' or 'mock', got '%s'", cfg.Provider)
	}

	if cfg.OutputFormat != "csv" && cfg.OutputFormat != "xlsx" {
		log.Fatalf("output_format must be 'csv' or 'xlsx', got '%s'", cfg.OutputFormat)
	}
	if cfg.MinAge < 0 || cfg.MaxAge > 120 {
		log.Fatalf("age bounds must lie within 0-120, got %d-%d", cfg.MinAge, cfg.MaxAge)
	}
	if cfg.MinAge >= cfg.MaxAge {
		log.Fatalf("min_age %d must be below max_age %d", cfg.MinAge, cfg.MaxAge)
	}
	if cfg.MaxConsecutive < 1 {
		log.Fatalf("invalid max_consecutive_same_dimension '%d': must be >= 1", cfg.MaxConsecutive)
	}
	if cfg.RetryTimes < 1 {
		log.Fatalf("invalid retry_times '%d': must be >= 1", cfg.RetryTimes)
	}
	if cfg.MaxConcurrent < 1 {
		log.Fatalf("invalid max_concurrent '%d': must be >= 1", cfg.MaxConcurrent)
	}
	if (cfg.SlackBotToken == "") != (cfg.SlackChannelID == "") {
		log.Fatalf("slack_bot_token and slack_channel_id must be set together")
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
