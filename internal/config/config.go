// Package config provides YAML-based configuration loading for Storeadmin.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given explicitly.
const DefaultPath = "storeadmin.yaml"

// Config is the top-level Storeadmin configuration, loaded from storeadmin.yaml.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Chat      ChatConfig      `yaml:"chat"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Console   ConsoleConfig   `yaml:"console"`
	Log       LogConfig       `yaml:"log"`
	Notify    NotifyConfig    `yaml:"notify"`
}

// APIConfig holds the addresses of the remote store backend.
type APIConfig struct {
	BaseURL       string `yaml:"base_url"`
	ChatPath      string `yaml:"chat_path"`
	AnalyticsPath string `yaml:"analytics_path"`
	TimeoutSec    *int   `yaml:"timeout_sec"`
}

// ChatConfig controls the chat widget.
type ChatConfig struct {
	Greeting        *bool `yaml:"greeting"`
	ReplyTimeoutSec *int  `yaml:"reply_timeout_sec"`
}

// AnalyticsConfig controls the analytics dashboard.
type AnalyticsConfig struct {
	// RefreshSchedule is a cron expression for automatic refreshes. Empty
	// disables them; the dashboard then refreshes only on request.
	RefreshSchedule string `yaml:"refresh_schedule"`
}

// ConsoleConfig holds settings for the web console.
type ConsoleConfig struct {
	Port int `yaml:"port"`
}

// LogConfig holds logging and telemetry output settings.
type LogConfig struct {
	Level        string `yaml:"level"`
	File         string `yaml:"file"`
	TelemetryDir string `yaml:"telemetry_dir"`
}

// NotifyConfig holds digest delivery targets. Each target is enabled when
// both its token and channel are set.
type NotifyConfig struct {
	Slack   ChannelTarget `yaml:"slack"`
	Discord ChannelTarget `yaml:"discord"`
}

// ChannelTarget is a bot token plus the channel to post to.
type ChannelTarget struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// Enabled reports whether the target has enough settings to post.
func (t ChannelTarget) Enabled() bool {
	return t.BotToken != "" && t.ChannelID != ""
}

// Load reads a YAML config file from path, overlays environment variables
// and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}
	return cfg.finish(os.LookupEnv)
}

// LoadOrDefault behaves like Load, but returns the default configuration
// (with environment overrides) when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return (&Config{}).finish(os.LookupEnv)
}

// Parse unmarshals YAML bytes into a validated Config. Environment
// variables are not consulted.
func Parse(data []byte) (*Config, error) {
	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}
	return cfg.finish(nil)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadDotEnv loads variables from a .env file into the process environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

func decode(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return &cfg, nil
}

func (c *Config) finish(lookup func(string) (string, bool)) (*Config, error) {
	if lookup != nil {
		c.applyEnv(lookup)
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// applyEnv overlays SA_* environment variables onto the file values.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set("SA_API_BASE_URL", &c.API.BaseURL)
	set("SA_CHAT_PATH", &c.API.ChatPath)
	set("SA_ANALYTICS_PATH", &c.API.AnalyticsPath)
	set("SA_REFRESH_SCHEDULE", &c.Analytics.RefreshSchedule)
	set("SA_LOG_LEVEL", &c.Log.Level)
	set("SA_LOG_FILE", &c.Log.File)
	set("SA_TELEMETRY_DIR", &c.Log.TelemetryDir)
	set("SA_SLACK_BOT_TOKEN", &c.Notify.Slack.BotToken)
	set("SA_SLACK_CHANNEL", &c.Notify.Slack.ChannelID)
	set("SA_DISCORD_BOT_TOKEN", &c.Notify.Discord.BotToken)
	set("SA_DISCORD_CHANNEL", &c.Notify.Discord.ChannelID)
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:5000"
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.ChatPath == "" {
		c.API.ChatPath = "/ask"
	}
	if c.API.AnalyticsPath == "" {
		c.API.AnalyticsPath = "/api/analytics"
	}
	if c.API.TimeoutSec == nil {
		c.API.TimeoutSec = intPtr(30)
	}
	if c.Chat.Greeting == nil {
		greet := true
		c.Chat.Greeting = &greet
	}
	if c.Chat.ReplyTimeoutSec == nil {
		c.Chat.ReplyTimeoutSec = intPtr(60)
	}
	if c.Console.Port == 0 {
		c.Console.Port = 8090
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// validate checks that all fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("api.base_url %q must be an absolute http(s) URL", c.API.BaseURL))
	}
	if !strings.HasPrefix(c.API.ChatPath, "/") {
		errs = append(errs, "api.chat_path must start with /")
	}
	if !strings.HasPrefix(c.API.AnalyticsPath, "/") {
		errs = append(errs, "api.analytics_path must start with /")
	}
	if *c.API.TimeoutSec < 0 {
		errs = append(errs, "api.timeout_sec must be >= 0")
	}
	if *c.Chat.ReplyTimeoutSec < 0 {
		errs = append(errs, "chat.reply_timeout_sec must be >= 0")
	}
	if c.Analytics.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.Analytics.RefreshSchedule); err != nil {
			errs = append(errs, fmt.Sprintf("analytics.refresh_schedule: %v", err))
		}
	}
	if c.Console.Port < 1 || c.Console.Port > 65535 {
		errs = append(errs, "console.port must be between 1 and 65535")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q must be one of debug, info, warn, error", c.Log.Level))
	}
	targets := []struct {
		name string
		t    ChannelTarget
	}{{"slack", c.Notify.Slack}, {"discord", c.Notify.Discord}}
	for _, nt := range targets {
		if (nt.t.BotToken == "") != (nt.t.ChannelID == "") {
			errs = append(errs, fmt.Sprintf("notify.%s needs both bot_token and channel_id", nt.name))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ChatURL is the full address of the assistant endpoint.
func (c *Config) ChatURL() string {
	return c.API.BaseURL + c.API.ChatPath
}

// AnalyticsURL is the base address the six analytics resources hang off.
func (c *Config) AnalyticsURL() string {
	return c.API.BaseURL + c.API.AnalyticsPath
}

// HTTPTimeout is the per-request HTTP client timeout; zero means none.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(*c.API.TimeoutSec) * time.Second
}

// ReplyTimeout bounds how long the chat widget waits for a reply; zero means none.
func (c *Config) ReplyTimeout() time.Duration {
	return time.Duration(*c.Chat.ReplyTimeoutSec) * time.Second
}

// GreetingEnabled reports whether new conversations start with the greeting.
func (c *Config) GreetingEnabled() bool {
	return c.Chat.Greeting == nil || *c.Chat.Greeting
}

func intPtr(n int) *int { return &n }
