package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings. Credentials come from the environment,
// everything else has defaults tuned for the VnExpress digest run.
type Config struct {
	// Summarizer settings
	GeminiAPIKey       string
	GeminiModel        string
	Temperature        float32
	MaxOutputTokens    int32
	MaxSummaryRequests int // per-run cap on API calls (0 = unlimited)
	SummaryMinInterval time.Duration

	// Mail settings. Checked at send time, not at startup: a run without mail
	// credentials still processes articles and reports delivery failure.
	MailFrom     string
	MailPassword string
	MailTo       string
	SMTPHost     string
	SMTPPort     int

	// Feed settings
	FeedsConfigPath  string
	Lookback         time.Duration
	FeedFetchTimeout time.Duration

	// Extraction settings
	MinStageChars    int // minimum usable text per fallback stage
	MinContentChars  int // below this the summarizer short-circuits
	MaxContentChars  int // final content budget fed to the summarizer
	PageFetchTimeout time.Duration

	Debug bool
}

// Load reads configuration from the environment. A local .env file is picked
// up when present so scheduled and local runs behave the same.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		GeminiModel:        "gemini-1.5-flash",
		Temperature:        0.2,
		MaxOutputTokens:    600,
		SummaryMinInterval: 2 * time.Second,
		SMTPHost:           "smtp.gmail.com",
		SMTPPort:           587,
		FeedsConfigPath:    "configs/feeds.yaml",
		Lookback:           7 * 24 * time.Hour,
		FeedFetchTimeout:   30 * time.Second,
		MinStageChars:      20,
		MinContentChars:    50,
		MaxContentChars:    4000,
		PageFetchTimeout:   20 * time.Second,
	}

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.MailFrom = os.Getenv("GMAIL_EMAIL")
	cfg.MailPassword = os.Getenv("GMAIL_APP_PASSWORD")
	cfg.MailTo = os.Getenv("RECIPIENT_EMAIL")

	cfg.FeedsConfigPath = getEnvOrDefault("FEEDS_CONFIG_PATH", cfg.FeedsConfigPath)
	cfg.SMTPHost = getEnvOrDefault("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = getEnvIntOrDefault("SMTP_PORT", cfg.SMTPPort)
	cfg.GeminiModel = getEnvOrDefault("GEMINI_MODEL", cfg.GeminiModel)

	cfg.Lookback = getEnvDurationOrDefault("LOOKBACK_WINDOW", cfg.Lookback)
	cfg.SummaryMinInterval = getEnvDurationOrDefault("SUMMARY_MIN_INTERVAL", cfg.SummaryMinInterval)
	cfg.PageFetchTimeout = getEnvDurationOrDefault("PAGE_FETCH_TIMEOUT", cfg.PageFetchTimeout)
	cfg.FeedFetchTimeout = getEnvDurationOrDefault("FEED_FETCH_TIMEOUT", cfg.FeedFetchTimeout)

	cfg.MaxSummaryRequests = getEnvIntOrDefault("MAX_SUMMARY_REQUESTS", cfg.MaxSummaryRequests)
	cfg.MaxContentChars = getEnvIntOrDefault("MAX_CONTENT_CHARS", cfg.MaxContentChars)
	cfg.MinContentChars = getEnvIntOrDefault("MIN_CONTENT_CHARS", cfg.MinContentChars)

	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

// Validate checks only what must be present before any network activity.
// The summarizer key is fatal at start; mail credentials are a send-time concern.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.SMTPPort <= 0 {
		return fmt.Errorf("SMTP_PORT must be positive, got %d", c.SMTPPort)
	}
	if c.Lookback <= 0 {
		return fmt.Errorf("LOOKBACK_WINDOW must be positive")
	}
	return nil
}

// HasMailCredentials reports whether every value delivery needs is present.
func (c *Config) HasMailCredentials() bool {
	return c.MailFrom != "" && c.MailPassword != "" && c.MailTo != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
