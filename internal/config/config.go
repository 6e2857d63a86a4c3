// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"paris_events/internal/dedup"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath string
	SourcesPath  string
	LogLevel     string
	MetricsAddr  string

	TelegramBotToken string
	TelegramChatID   int64

	ClassifierURL     string
	ClassifierModel   string
	ClassifierAPIKey  string
	ClassifierTimeout time.Duration

	TitleThreshold   float64
	VenueThreshold   float64
	AddressThreshold float64
	TrustedSources   []string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:     envOrDefault("DATABASE_PATH", "./data/events.db"),
		SourcesPath:      envOrDefault("SOURCES_PATH", "./sources.yaml"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		MetricsAddr:      os.Getenv("METRICS_ADDR"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		ClassifierURL:    os.Getenv("CLASSIFIER_URL"),
		ClassifierModel:  os.Getenv("CLASSIFIER_MODEL"),
		ClassifierAPIKey: os.Getenv("CLASSIFIER_API_KEY"),
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", raw, err)
		}
		cfg.TelegramChatID = chatID
	}

	timeoutSec := 10
	if raw := os.Getenv("CLASSIFIER_TIMEOUT_SECONDS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid CLASSIFIER_TIMEOUT_SECONDS %q", raw)
		}
		timeoutSec = n
	}
	cfg.ClassifierTimeout = time.Duration(timeoutSec) * time.Second

	var err error
	if cfg.TitleThreshold, err = floatEnv("TITLE_SIMILARITY_THRESHOLD", 85); err != nil {
		return nil, err
	}
	if cfg.VenueThreshold, err = floatEnv("VENUE_SIMILARITY_THRESHOLD", 75); err != nil {
		return nil, err
	}
	if cfg.AddressThreshold, err = floatEnv("ADDRESS_SIMILARITY_THRESHOLD", 80); err != nil {
		return nil, err
	}

	raw := envOrDefault("TRUSTED_SOURCES", "philharmonie,opera,louvre,orsay,pompidou")
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		cfg.TrustedSources = append(cfg.TrustedSources, s)
	}

	return cfg, nil
}

// DedupConfig bundles the deduplication settings.
func (c *Config) DedupConfig() dedup.Config {
	return dedup.Config{
		TitleThreshold:   c.TitleThreshold,
		VenueThreshold:   c.VenueThreshold,
		AddressThreshold: c.AddressThreshold,
		TrustedSources:   c.TrustedSources,
	}
}

// NotifierEnabled reports whether Telegram digests are configured.
func (c *Config) NotifierEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

// ClassifierEnabled reports whether the external classifier is configured.
func (c *Config) ClassifierEnabled() bool {
	return c.ClassifierURL != "" && c.ClassifierModel != ""
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func floatEnv(key string, def float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if v < 0 || v > 100 {
		return 0, fmt.Errorf("%s must be between 0 and 100, got %v", key, v)
	}
	return v, nil
}
