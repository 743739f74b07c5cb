// Package config loads application configuration from defaults, an optional
// YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"grocery_bot/internal/model"
	"grocery_bot/internal/shelflife"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "GROCERY_"

// ErrMissingToken is returned by RequireToken when no bot token is configured.
var ErrMissingToken = errors.New("TELEGRAM_BOT_TOKEN is required")

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string  `koanf:"telegram_bot_token"`
	DatabasePath     string  `koanf:"database_path"`
	LogLevel         string  `koanf:"log_level"`
	AllowedUsers     []int64 `koanf:"allowed_users"`

	ExpiryThresholdDays    int                  `koanf:"expiry_threshold_days"`
	WarningWindowDays      int                  `koanf:"warning_window_days"`
	RetentionDays          int                  `koanf:"retention_days"`
	TickIntervalSeconds    int                  `koanf:"tick_interval_seconds"`
	CleanupIntervalSeconds int                  `koanf:"cleanup_interval_seconds"`
	ShelfLifeOverrides     []shelflife.Override `koanf:"shelf_life_overrides"`
	DefaultChannels        []model.Channel      `koanf:"default_channels"`
}

// Defaults returns the built-in configuration values.
func Defaults() map[string]any {
	return map[string]any{
		"database_path":            "./data/grocery.db",
		"log_level":                "info",
		"expiry_threshold_days":    3,
		"warning_window_days":      7,
		"retention_days":           30,
		"tick_interval_seconds":    60,
		"cleanup_interval_seconds": 86400,
		"default_channels":         []string{string(model.ChannelInApp), string(model.ChannelTelegram)},
	}
}

// unprefixed maps the bare variable names accepted for compatibility to config keys.
var unprefixed = map[string]string{
	"TELEGRAM_BOT_TOKEN": "telegram_bot_token",
	"DATABASE_PATH":      "database_path",
	"LOG_LEVEL":          "log_level",
	"ALLOWED_USERS":      "allowed_users",
}

// Load builds the configuration. Later layers override earlier ones:
// defaults, the YAML file at path (skipped when empty or missing),
// GROCERY_* variables, then the unprefixed variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		}
	}

	err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		if value == "" {
			return "", nil
		}
		return strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), value
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	for name, key := range unprefixed {
		if v := os.Getenv(name); v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, fmt.Errorf("set %s: %w", key, err)
			}
		}
	}

	if err := normalizeLists(k); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// normalizeLists converts list values that arrived as strings from the
// environment into the shapes Unmarshal expects.
func normalizeLists(k *koanf.Koanf) error {
	if raw, ok := k.Get("allowed_users").(string); ok {
		ids, err := parseUserIDs(raw)
		if err != nil {
			return err
		}
		if err := k.Set("allowed_users", ids); err != nil {
			return fmt.Errorf("set allowed_users: %w", err)
		}
	}
	if raw, ok := k.Get("default_channels").(string); ok {
		if err := k.Set("default_channels", splitList(raw)); err != nil {
			return fmt.Errorf("set default_channels: %w", err)
		}
	}
	if raw, ok := k.Get("shelf_life_overrides").(string); ok {
		overrides, err := parseOverrides(raw)
		if err != nil {
			return err
		}
		if err := k.Set("shelf_life_overrides", overrides); err != nil {
			return fmt.Errorf("set shelf_life_overrides: %w", err)
		}
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseUserIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		uid, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
		}
		ids = append(ids, uid)
	}
	return ids, nil
}

// parseOverrides reads "pattern=days" pairs separated by commas.
func parseOverrides(raw string) ([]map[string]any, error) {
	var out []map[string]any
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		pattern, daysStr, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid shelf life override %q: want pattern=days", pair)
		}
		days, err := strconv.Atoi(strings.TrimSpace(daysStr))
		if err != nil {
			return nil, fmt.Errorf("invalid shelf life override %q: %w", pair, err)
		}
		out = append(out, map[string]any{"pattern": strings.TrimSpace(pattern), "days": days})
	}
	return out, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.TickIntervalSeconds <= 0 {
		return fmt.Errorf("tick_interval_seconds must be positive")
	}
	if c.CleanupIntervalSeconds <= 0 {
		return fmt.Errorf("cleanup_interval_seconds must be positive")
	}
	if c.ExpiryThresholdDays < 0 {
		return fmt.Errorf("expiry_threshold_days must not be negative")
	}
	if c.WarningWindowDays < 0 {
		return fmt.Errorf("warning_window_days must not be negative")
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("retention_days must not be negative")
	}
	for _, ch := range c.DefaultChannels {
		if ch != model.ChannelInApp && ch != model.ChannelTelegram {
			return fmt.Errorf("unknown channel %q in default_channels", ch)
		}
	}
	return nil
}

// RequireToken returns ErrMissingToken if no bot token is set.
func (c *Config) RequireToken() error {
	if c.TelegramBotToken == "" {
		return ErrMissingToken
	}
	return nil
}

// TickInterval returns the due-check cadence.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalSeconds) * time.Second
}

// CleanupInterval returns the cleanup cadence.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSeconds) * time.Second
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	return slices.Contains(c.AllowedUsers, userID)
}
