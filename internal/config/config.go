package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Vault
	VaultDir     string
	ViewFolder   string
	SettingsFile string

	// Auth
	APIKey string

	// Engine
	DebounceWindow     time.Duration
	MaxConcurrentReads int

	// Notifications
	NotificationTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	LogLevel slog.Level
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		VaultDir:     os.Getenv("VAULT_DIR"),
		ViewFolder:   os.Getenv("VIEW_FOLDER"),
		SettingsFile: os.Getenv("SETTINGS_FILE"),

		APIKey: os.Getenv("TABLELENS_API_KEY"),

		DebounceWindow:     envDuration("DEBOUNCE_WINDOW", 250*time.Millisecond),
		MaxConcurrentReads: envInt("MAX_CONCURRENT_READS", 8),

		NotificationTTL: envDuration("NOTIFICATION_TTL", 10*time.Minute),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),
	}

	if cfg.SettingsFile == "" && cfg.VaultDir != "" {
		cfg.SettingsFile = filepath.Join(cfg.VaultDir, ".tablelens", "settings.yaml")
	}
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = 250 * time.Millisecond
	}
	if cfg.MaxConcurrentReads <= 0 {
		cfg.MaxConcurrentReads = 8
	}
	if cfg.NotificationTTL <= 0 {
		cfg.NotificationTTL = 10 * time.Minute
	}

	return cfg
}

func (c Config) Validate() error {
	if c.VaultDir == "" {
		return fmt.Errorf("VAULT_DIR is required")
	}
	info, err := os.Stat(c.VaultDir)
	if err != nil {
		return fmt.Errorf("VAULT_DIR: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("VAULT_DIR %q is not a directory", c.VaultDir)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(strings.TrimSpace(v))); err == nil {
			return l
		}
	}
	return fallback
}
