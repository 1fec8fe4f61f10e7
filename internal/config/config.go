package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ledger/internal/swipe"
	"ledger/internal/telegram"
)

type Config struct {
	// HTTP Server
	Port string

	// Logging
	LogLevel  string
	LogFormat string
	// LogFile receives the terminal client's logs; the screen owns stdout.
	LogFile   string

	// Database
	SQLiteDBPath string

	// Telegram mini-app authentication
	TelegramToken   string
	InitDataMaxAge  time.Duration
	RateLimitPerMin int
	StatsCacheTTL   time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Subscription reminders
	TelegramAPIURL   string
	ReminderInterval time.Duration
	ReminderLeadDays int

	// Google Sheets mirror
	GoogleSpreadsheetID string
	GoogleSheetName     string
	MirrorConcurrency   int

	// Terminal client
	APIBaseURL string
	TGInitData string

	// Swipe gesture geometry
	Swipe swipe.Options
}

func Load() *Config {
	defaults := swipe.DefaultOptions()

	cfg := &Config{
		Port:      getEnv("PORT", "8081"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogFile:   getEnv("LOG_FILE", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/ledger.db"),

		TelegramToken:   getEnv("TELEGRAM_TOKEN", ""),
		InitDataMaxAge:  getEnvDuration("INIT_DATA_MAX_AGE", 24*time.Hour),
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MINUTE", 20),
		StatsCacheTTL:   getEnvDuration("STATS_CACHE_TTL", 30*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transaction_events"),

		TelegramAPIURL:   getEnv("TELEGRAM_API_URL", telegram.DefaultAPIURL),
		ReminderInterval: getEnvDuration("REMINDER_INTERVAL", time.Hour),
		ReminderLeadDays: getEnvInt("REMINDER_LEAD_DAYS", 3),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "History"),
		MirrorConcurrency:   getEnvInt("MIRROR_CONCURRENCY", 4),

		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8081"),
		TGInitData: getEnv("TG_INIT_DATA", ""),

		Swipe: swipe.Options{
			MaxReveal:           getEnvFloat("SWIPE_MAX_REVEAL", defaults.MaxReveal),
			RevealThreshold:     getEnvFloat("SWIPE_REVEAL_THRESHOLD", defaults.RevealThreshold),
			VisibilityThreshold: getEnvFloat("SWIPE_VISIBILITY_THRESHOLD", defaults.VisibilityThreshold),
			CloseDuration:       getEnvDuration("SWIPE_CLOSE_DURATION", defaults.CloseDuration),
			ScrollQuietPeriod:   getEnvDuration("SWIPE_SCROLL_QUIET", defaults.ScrollQuietPeriod),
		},
	}

	return cfg
}

// Validate validates the server configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.TelegramToken == "" {
		errors = append(errors, "TELEGRAM_TOKEN is required to verify mini-app init data")
	}
	if c.InitDataMaxAge < 0 {
		errors = append(errors, fmt.Sprintf("invalid init data max age %v: must not be negative", c.InitDataMaxAge))
	}
	if c.RateLimitPerMin < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMin))
	}
	if c.StatsCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid stats cache ttl %v: must not be negative", c.StatsCacheTTL))
	}

	errors = append(errors, c.amqpErrors()...)

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker validates what the mirror worker needs.
func (c *Config) ValidateWorker() error {
	var errors []string

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	}
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the worker")
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, "GOOGLE_SHEET_NAME cannot be empty")
	}
	if c.MirrorConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("invalid mirror concurrency %d: must be at least 1", c.MirrorConcurrency))
	}
	errors = append(errors, c.amqpErrors()...)

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateReminders validates what the reminder worker needs.
func (c *Config) ValidateReminders() error {
	var errors []string

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	}
	if c.TelegramToken == "" {
		errors = append(errors, "TELEGRAM_TOKEN is required to send reminders")
	}
	if parsed, err := url.Parse(c.TelegramAPIURL); err != nil || parsed.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid Telegram API URL '%s'", c.TelegramAPIURL))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid Telegram API URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
	}
	if c.ReminderInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at least 1m", c.ReminderInterval))
	}
	if c.ReminderLeadDays < 0 || c.ReminderLeadDays > 30 {
		errors = append(errors, fmt.Sprintf("invalid reminder lead %d: must be between 0 and 30 days", c.ReminderLeadDays))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateClient validates what the terminal client needs.
func (c *Config) ValidateClient() error {
	var errors []string

	if parsed, err := url.Parse(c.APIBaseURL); err != nil || parsed.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s'", c.APIBaseURL))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
	}
	if c.TGInitData == "" {
		errors = append(errors, "TG_INIT_DATA is required to call the API")
	}
	if err := c.Swipe.Validate(); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) amqpErrors() []string {
	if c.AMQPURL == "" {
		return nil
	}
	var errors []string
	if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
	} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
	}
	if c.AMQPExchange == "" {
		errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
	}
	return errors
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
