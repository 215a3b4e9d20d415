package main

import (
	"strings"

	"fyne.io/fyne/v2"

	"github.com/oukeidos/polyword/internal/config"
	"github.com/oukeidos/polyword/internal/logger"
)

const (
	prefServerURL    = "ServerURL"
	prefBucketPrefix = "BucketPrefix"
)

// guiSettings are the per-user overrides kept in Fyne preferences.
type guiSettings struct {
	ServerURL    string
	BucketPrefix string
}

// loadSettings reads preferences, falling back to the environment/config
// file defaults. Invalid stored values are dropped.
func loadSettings(prefs fyne.Preferences, defaults config.Config) config.Config {
	cfg := defaults
	cfg.ServerURL = strings.TrimSpace(prefs.StringWithFallback(prefServerURL, defaults.ServerURL))
	cfg.BucketPrefix = strings.TrimSpace(prefs.StringWithFallback(prefBucketPrefix, defaults.BucketPrefix))
	if err := cfg.Validate(); err != nil {
		logger.Warn("Stored settings rejected; using defaults", "error", err)
		prefs.RemoveValue(prefServerURL)
		prefs.RemoveValue(prefBucketPrefix)
		return defaults
	}
	return cfg
}

// saveSettings validates s on top of base and persists it.
func saveSettings(prefs fyne.Preferences, base config.Config, s guiSettings) (config.Config, error) {
	cfg := base
	cfg.ServerURL = strings.TrimSpace(s.ServerURL)
	cfg.BucketPrefix = strings.TrimSpace(s.BucketPrefix)
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	prefs.SetString(prefServerURL, cfg.ServerURL)
	prefs.SetString(prefBucketPrefix, cfg.BucketPrefix)
	return cfg, nil
}

// resetSettings forgets stored overrides.
func resetSettings(prefs fyne.Preferences, defaults config.Config) config.Config {
	prefs.RemoveValue(prefServerURL)
	prefs.RemoveValue(prefBucketPrefix)
	return defaults
}
