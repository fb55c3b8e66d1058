// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"backup-media-sync/pkg/models"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"backup-media-sync.db"`
	MediaPath    string `env:"MEDIA_PATH" envDefault:"/media"`
	ServerPort   string `env:"SERVER_PORT" envDefault:"8080"`

	CDNBaseURL           string  `env:"CDN_BASE_URL,required"`
	CDNAPIKey            string  `env:"CDN_API_KEY,required"`
	CDNRequestsPerSecond float64 `env:"CDN_REQUESTS_PER_SECOND" envDefault:"10"`

	SignalsPath     string `env:"SIGNALS_PATH"`
	IsPrimaryDevice bool   `env:"IS_PRIMARY_DEVICE" envDefault:"true"`

	DownloadFullsizeConcurrency  int `env:"DOWNLOAD_FULLSIZE_CONCURRENCY" envDefault:"12"`
	DownloadThumbnailConcurrency int `env:"DOWNLOAD_THUMBNAIL_CONCURRENCY" envDefault:"8"`
	UploadFullsizeConcurrency    int `env:"UPLOAD_FULLSIZE_CONCURRENCY" envDefault:"6"`
	UploadThumbnailConcurrency   int `env:"UPLOAD_THUMBNAIL_CONCURRENCY" envDefault:"8"`
	MaxRetries                   int `env:"MAX_RETRIES" envDefault:"32"`

	RecencyWindow       time.Duration `env:"RECENCY_WINDOW" envDefault:"720h"`
	OffloadingThreshold time.Duration `env:"OFFLOADING_THRESHOLD" envDefault:"720h"`
	TransitMaxAge       time.Duration `env:"TRANSIT_MAX_AGE" envDefault:"1080h"`

	MaxAttachmentBytes  int64         `env:"MAX_ATTACHMENT_BYTES" envDefault:"104857600"`
	CoordinatorInterval time.Duration `env:"COORDINATOR_INTERVAL" envDefault:"1h"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.CDNBaseURL == "" {
		return fmt.Errorf("CDN_BASE_URL is required")
	}
	if c.CDNAPIKey == "" {
		return fmt.Errorf("CDN_API_KEY is required")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	logLevel := strings.ToLower(c.LogLevel)
	isValidLevel := false
	for _, level := range validLogLevels {
		if logLevel == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("invalid log level %q, must be one of: %v", c.LogLevel, validLogLevels)
	}

	if c.MediaPath == "" {
		return fmt.Errorf("MEDIA_PATH cannot be empty")
	}
	cleanPath := filepath.Clean(c.MediaPath)
	if !filepath.IsAbs(cleanPath) {
		return fmt.Errorf("MEDIA_PATH must be an absolute path, got: %s", c.MediaPath)
	}
	// Only checked when the path already exists
	if info, err := os.Stat(cleanPath); err == nil && !info.IsDir() {
		return fmt.Errorf("MEDIA_PATH must be a directory, got file: %s", cleanPath)
	}
	c.MediaPath = cleanPath

	positive := map[string]int{
		"DOWNLOAD_FULLSIZE_CONCURRENCY":  c.DownloadFullsizeConcurrency,
		"DOWNLOAD_THUMBNAIL_CONCURRENCY": c.DownloadThumbnailConcurrency,
		"UPLOAD_FULLSIZE_CONCURRENCY":    c.UploadFullsizeConcurrency,
		"UPLOAD_THUMBNAIL_CONCURRENCY":   c.UploadThumbnailConcurrency,
		"MAX_RETRIES":                    c.MaxRetries,
	}
	for name, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got: %d", name, value)
		}
	}

	if c.CDNRequestsPerSecond <= 0 {
		return fmt.Errorf("CDN_REQUESTS_PER_SECOND must be positive, got: %v", c.CDNRequestsPerSecond)
	}
	if c.MaxAttachmentBytes <= 0 {
		return fmt.Errorf("MAX_ATTACHMENT_BYTES must be positive, got: %d", c.MaxAttachmentBytes)
	}
	if c.RecencyWindow <= 0 || c.OffloadingThreshold <= 0 || c.TransitMaxAge <= 0 {
		return fmt.Errorf("RECENCY_WINDOW, OFFLOADING_THRESHOLD and TRANSIT_MAX_AGE must be positive")
	}
	if c.CoordinatorInterval < time.Minute {
		return fmt.Errorf("COORDINATOR_INTERVAL must be at least 1m, got: %s", c.CoordinatorInterval)
	}

	return nil
}

// RemoteConfig returns the eligibility and dequeue windows
func (c *Config) RemoteConfig() models.RemoteConfig {
	return models.RemoteConfig{
		OffloadingThreshold: c.OffloadingThreshold,
		TransitTierMaxAge:   c.TransitMaxAge,
		RecencyWindow:       c.RecencyWindow,
	}
}

// RequiredDiskSpace is the free space a download queue needs before it will run
func (c *Config) RequiredDiskSpace() int64 {
	return c.MaxAttachmentBytes * 5
}
