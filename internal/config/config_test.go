package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VAULT_DIR", dir)
	t.Setenv("PORT", "")
	t.Setenv("SETTINGS_FILE", "")
	t.Setenv("DEBOUNCE_WINDOW", "")
	t.Setenv("MAX_CONCURRENT_READS", "")
	t.Setenv("LOG_LEVEL", "")

	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if want := filepath.Join(dir, ".tablelens", "settings.yaml"); cfg.SettingsFile != want {
		t.Errorf("expected settings file %q, got %q", want, cfg.SettingsFile)
	}
	if cfg.DebounceWindow != 250*time.Millisecond {
		t.Errorf("expected 250ms debounce, got %v", cfg.DebounceWindow)
	}
	if cfg.MaxConcurrentReads != 8 {
		t.Errorf("expected 8 concurrent reads, got %d", cfg.MaxConcurrentReads)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("expected info level, got %v", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("VAULT_DIR", t.TempDir())
	t.Setenv("DEBOUNCE_WINDOW", "1s")
	t.Setenv("MAX_CONCURRENT_READS", "-3")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")

	cfg := Load()
	if cfg.DebounceWindow != time.Second {
		t.Errorf("expected 1s debounce, got %v", cfg.DebounceWindow)
	}
	if cfg.MaxConcurrentReads != 8 {
		t.Errorf("expected non-positive reads to fall back to 8, got %d", cfg.MaxConcurrentReads)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.LogLevel)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback disabled")
	}
}

func TestValidate_RequiresVault(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Error("expected error without VAULT_DIR")
	}
	if err := (Config{VaultDir: filepath.Join(t.TempDir(), "missing")}).Validate(); err == nil {
		t.Error("expected error for missing vault directory")
	}
}
