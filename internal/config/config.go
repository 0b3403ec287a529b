package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

type Config struct {
	BotToken          string
	OpenWeatherAPIKey string
	TelegramMode      string // polling or webhook
	TelegramAPIURL    string
	WebhookURL        string // public URL Telegram posts to in webhook mode
	WebhookSecret     string
	Port              string
	DatabaseURL       string // optional; enables the journal and dashboard
	RedisURL          string // optional; enables the lookup cache
	LookupTimeout     time.Duration
	OpenWeatherURL    string
	OpenFoodFactsURL  string
	UserRatePerSec    float64
	UserRateBurst     int

	parseErrs []error
}

func Load() *Config {
	c := &Config{
		BotToken:          getEnv("BOT_TOKEN", ""),
		OpenWeatherAPIKey: getEnv("OPENWEATHER_API_KEY", ""),
		TelegramMode:      strings.ToLower(strings.TrimSpace(getEnv("TELEGRAM_MODE", ModePolling))),
		TelegramAPIURL:    getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		WebhookURL:        getEnv("WEBHOOK_URL", ""),
		WebhookSecret:     getEnv("WEBHOOK_SECRET", ""),
		Port:              getEnv("PORT", "3000"),
		DatabaseURL:       getEnv("DB_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		OpenWeatherURL:    getEnv("OPENWEATHER_URL", "https://api.openweathermap.org"),
		OpenFoodFactsURL:  getEnv("OPENFOODFACTS_URL", "https://world.openfoodfacts.org"),
	}

	var err error
	if c.LookupTimeout, err = time.ParseDuration(getEnv("LOOKUP_TIMEOUT", "10s")); err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Errorf("LOOKUP_TIMEOUT: %w", err))
		c.LookupTimeout = 10 * time.Second
	}
	if c.UserRatePerSec, err = strconv.ParseFloat(getEnv("USER_RATE_PER_SEC", "1"), 64); err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Errorf("USER_RATE_PER_SEC: %w", err))
		c.UserRatePerSec = 1
	}
	if c.UserRateBurst, err = strconv.Atoi(getEnv("USER_RATE_BURST", "5")); err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Errorf("USER_RATE_BURST: %w", err))
		c.UserRateBurst = 5
	}
	return c
}

// Validate reports missing required keys and unparseable values together.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.parseErrs...)
	if c.BotToken == "" {
		errs = append(errs, errors.New("BOT_TOKEN is required"))
	}
	if c.OpenWeatherAPIKey == "" {
		errs = append(errs, errors.New("OPENWEATHER_API_KEY is required"))
	}
	switch c.TelegramMode {
	case ModePolling:
	case ModeWebhook:
		if c.WebhookURL == "" {
			errs = append(errs, errors.New("WEBHOOK_URL is required in webhook mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("TELEGRAM_MODE must be %q or %q, got %q", ModePolling, ModeWebhook, c.TelegramMode))
	}
	if c.LookupTimeout <= 0 {
		errs = append(errs, errors.New("LOOKUP_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// LoadDotEnv reads .env into the environment. A missing file is fine; the
// real environment then supplies everything.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// DatabaseURL returns DB_URL for the CLI tools, which cannot run without it.
func DatabaseURL() (string, error) {
	url := getEnv("DB_URL", "")
	if url == "" {
		return "", errors.New("DB_URL is not set")
	}
	return url, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
