package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"grocery_bot/internal/model"
	"grocery_bot/internal/shelflife"
)

var envKeys = []string{
	"TELEGRAM_BOT_TOKEN", "DATABASE_PATH", "LOG_LEVEL", "ALLOWED_USERS",
	"GROCERY_TELEGRAM_BOT_TOKEN", "GROCERY_DATABASE_PATH", "GROCERY_LOG_LEVEL", "GROCERY_ALLOWED_USERS",
	"GROCERY_EXPIRY_THRESHOLD_DAYS", "GROCERY_WARNING_WINDOW_DAYS", "GROCERY_RETENTION_DAYS",
	"GROCERY_TICK_INTERVAL_SECONDS", "GROCERY_CLEANUP_INTERVAL_SECONDS",
	"GROCERY_SHELF_LIFE_OVERRIDES", "GROCERY_DEFAULT_CHANNELS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func defaults() *Config {
	return &Config{
		DatabasePath:           "./data/grocery.db",
		LogLevel:               "info",
		ExpiryThresholdDays:    3,
		WarningWindowDays:      7,
		RetentionDays:          30,
		TickIntervalSeconds:    60,
		CleanupIntervalSeconds: 86400,
		DefaultChannels:        []model.Channel{model.ChannelInApp, model.ChannelTelegram},
	}
}

func TestLoadEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    func(c *Config)
		wantErr bool
	}{
		{
			name: "defaults applied",
			env:  map[string]string{},
			want: func(c *Config) {},
		},
		{
			name: "unprefixed values",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"DATABASE_PATH":      "/tmp/grocery.db",
				"LOG_LEVEL":          "debug",
				"ALLOWED_USERS":      "111,222,333",
			},
			want: func(c *Config) {
				c.TelegramBotToken = "tok"
				c.DatabasePath = "/tmp/grocery.db"
				c.LogLevel = "debug"
				c.AllowedUsers = []int64{111, 222, 333}
			},
		},
		{
			name: "prefixed values",
			env: map[string]string{
				"GROCERY_EXPIRY_THRESHOLD_DAYS":    "2",
				"GROCERY_WARNING_WINDOW_DAYS":      "5",
				"GROCERY_RETENTION_DAYS":           "14",
				"GROCERY_TICK_INTERVAL_SECONDS":    "10",
				"GROCERY_CLEANUP_INTERVAL_SECONDS": "3600",
				"GROCERY_DEFAULT_CHANNELS":         "in_app",
				"GROCERY_SHELF_LIFE_OVERRIDES":     "oat_milk=10, kimchi = 60",
			},
			want: func(c *Config) {
				c.ExpiryThresholdDays = 2
				c.WarningWindowDays = 5
				c.RetentionDays = 14
				c.TickIntervalSeconds = 10
				c.CleanupIntervalSeconds = 3600
				c.DefaultChannels = []model.Channel{model.ChannelInApp}
				c.ShelfLifeOverrides = []shelflife.Override{{Pattern: "oat_milk", Days: 10}, {Pattern: "kimchi", Days: 60}}
			},
		},
		{
			name: "channel list",
			env:  map[string]string{"GROCERY_DEFAULT_CHANNELS": "in_app, telegram"},
			want: func(c *Config) {
				c.DefaultChannels = []model.Channel{model.ChannelInApp, model.ChannelTelegram}
			},
		},
		{
			name: "single telegram channel",
			env:  map[string]string{"GROCERY_DEFAULT_CHANNELS": "telegram"},
			want: func(c *Config) { c.DefaultChannels = []model.Channel{model.ChannelTelegram} },
		},
		{
			name: "unprefixed wins over prefixed",
			env: map[string]string{
				"GROCERY_LOG_LEVEL": "warn",
				"LOG_LEVEL":         "error",
			},
			want: func(c *Config) { c.LogLevel = "error" },
		},
		{
			name: "allowed users with spaces",
			env:  map[string]string{"ALLOWED_USERS": " 10 , 20 , "},
			want: func(c *Config) { c.AllowedUsers = []int64{10, 20} },
		},
		{
			name:    "invalid user id",
			env:     map[string]string{"ALLOWED_USERS": "123,abc"},
			wantErr: true,
		},
		{
			name:    "invalid override",
			env:     map[string]string{"GROCERY_SHELF_LIFE_OVERRIDES": "milk"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := Load("")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want := defaults()
			tt.want(want)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "grocery.yaml")
	content := `
log_level: warn
expiry_threshold_days: 4
allowed_users: [7, 8]
default_channels: [telegram]
shelf_life_overrides:
  - pattern: sourdough
    days: 4
  - pattern: milk
    days: 9
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GROCERY_EXPIRY_THRESHOLD_DAYS", "5")

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := defaults()
	want.LogLevel = "warn"
	want.ExpiryThresholdDays = 5
	want.AllowedUsers = []int64{7, 8}
	want.DefaultChannels = []model.Channel{model.ChannelTelegram}
	want.ShelfLifeOverrides = []shelflife.Override{{Pattern: "sourdough", Days: 4}, {Pattern: "milk", Days: 9}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	got, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(defaults(), got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "zero tick", mutate: func(c *Config) { c.TickIntervalSeconds = 0 }, wantErr: true},
		{name: "zero cleanup", mutate: func(c *Config) { c.CleanupIntervalSeconds = 0 }, wantErr: true},
		{name: "negative threshold", mutate: func(c *Config) { c.ExpiryThresholdDays = -1 }, wantErr: true},
		{name: "negative window", mutate: func(c *Config) { c.WarningWindowDays = -1 }, wantErr: true},
		{name: "negative retention", mutate: func(c *Config) { c.RetentionDays = -1 }, wantErr: true},
		{name: "unknown channel", mutate: func(c *Config) { c.DefaultChannels = []model.Channel{"pigeon"} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			tt.mutate(c)
			err := c.Validate()
			if diff := cmp.Diff(tt.wantErr, err != nil); diff != "" {
				t.Errorf("Validate() error = %v (-wantErr +gotErr):\n%s", err, diff)
			}
		})
	}
}

func TestRequireToken(t *testing.T) {
	c := defaults()
	if err := c.RequireToken(); err != ErrMissingToken {
		t.Errorf("err = %v, want ErrMissingToken", err)
	}
	c.TelegramBotToken = "tok"
	if err := c.RequireToken(); err != nil {
		t.Errorf("err = %v, want nil", err)
	}
}

func TestIsUserAllowed(t *testing.T) {
	tests := []struct {
		name         string
		allowedUsers []int64
		userID       int64
		want         bool
	}{
		{
			name:         "empty list allows everyone",
			allowedUsers: nil,
			userID:       42,
			want:         true,
		},
		{
			name:         "user in list",
			allowedUsers: []int64{10, 20, 30},
			userID:       20,
			want:         true,
		},
		{
			name:         "user not in list",
			allowedUsers: []int64{10, 20, 30},
			userID:       99,
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{AllowedUsers: tt.allowedUsers}
			got := cfg.IsUserAllowed(tt.userID)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("IsUserAllowed() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
