package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const fullYAML = `
api:
  base_url: https://store.example.com/
  chat_path: /v2/ask
  analytics_path: /v2/analytics
  timeout_sec: 10

chat:
  greeting: false
  reply_timeout_sec: 0

analytics:
  refresh_schedule: "*/5 * * * *"

console:
  port: 9000

log:
  level: debug
  file: /tmp/sa.log

notify:
  slack:
    bot_token: xoxb-1
    channel_id: C123
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "https://store.example.com" {
		t.Errorf("API.BaseURL = %q, want trailing slash trimmed", cfg.API.BaseURL)
	}
	if got := cfg.ChatURL(); got != "https://store.example.com/v2/ask" {
		t.Errorf("ChatURL() = %q", got)
	}
	if got := cfg.AnalyticsURL(); got != "https://store.example.com/v2/analytics" {
		t.Errorf("AnalyticsURL() = %q", got)
	}
	if cfg.HTTPTimeout() != 10*time.Second {
		t.Errorf("HTTPTimeout() = %v, want 10s", cfg.HTTPTimeout())
	}
	if cfg.ReplyTimeout() != 0 {
		t.Errorf("ReplyTimeout() = %v, want 0 (explicitly disabled)", cfg.ReplyTimeout())
	}
	if cfg.GreetingEnabled() {
		t.Error("GreetingEnabled() = true, want false")
	}
	if cfg.Analytics.RefreshSchedule != "*/5 * * * *" {
		t.Errorf("RefreshSchedule = %q", cfg.Analytics.RefreshSchedule)
	}
	if cfg.Console.Port != 9000 {
		t.Errorf("Console.Port = %d, want 9000", cfg.Console.Port)
	}
	if cfg.Log.Level != "debug" || cfg.Log.File != "/tmp/sa.log" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if !cfg.Notify.Slack.Enabled() {
		t.Error("slack target should be enabled")
	}
	if cfg.Notify.Discord.Enabled() {
		t.Error("discord target should be disabled")
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.ChatURL(); got != "http://localhost:5000/ask" {
		t.Errorf("ChatURL() = %q", got)
	}
	if got := cfg.AnalyticsURL(); got != "http://localhost:5000/api/analytics" {
		t.Errorf("AnalyticsURL() = %q", got)
	}
	if cfg.HTTPTimeout() != 30*time.Second {
		t.Errorf("HTTPTimeout() = %v, want 30s", cfg.HTTPTimeout())
	}
	if cfg.ReplyTimeout() != 60*time.Second {
		t.Errorf("ReplyTimeout() = %v, want 60s", cfg.ReplyTimeout())
	}
	if !cfg.GreetingEnabled() {
		t.Error("greeting should default to enabled")
	}
	if cfg.Console.Port != 8090 {
		t.Errorf("Console.Port = %d, want 8090", cfg.Console.Port)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestDefault_MatchesEmptyParse(t *testing.T) {
	cfg := Default()
	if cfg.ChatURL() != "http://localhost:5000/ask" {
		t.Errorf("ChatURL() = %q", cfg.ChatURL())
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"relative base url", "api:\n  base_url: localhost:5000\n", "api.base_url"},
		{"ftp base url", "api:\n  base_url: ftp://x\n", "api.base_url"},
		{"chat path", "api:\n  chat_path: ask\n", "api.chat_path"},
		{"analytics path", "api:\n  analytics_path: api\n", "api.analytics_path"},
		{"negative timeout", "api:\n  timeout_sec: -1\n", "api.timeout_sec"},
		{"negative reply timeout", "chat:\n  reply_timeout_sec: -5\n", "chat.reply_timeout_sec"},
		{"bad schedule", "analytics:\n  refresh_schedule: every now and then\n", "analytics.refresh_schedule"},
		{"bad port", "console:\n  port: 70000\n", "console.port"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"half slack", "notify:\n  slack:\n    bot_token: xoxb\n", "notify.slack"},
		{"half discord", "notify:\n  discord:\n    channel_id: \"1\"\n", "notify.discord"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestParse_MultipleErrorsJoined(t *testing.T) {
	_, err := Parse([]byte("api:\n  chat_path: ask\nconsole:\n  port: -1\n"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("expected joined errors, got %q", err.Error())
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("api: [unclosed"))
	if err == nil || !strings.Contains(err.Error(), "config: parse") {
		t.Errorf("error = %v, want parse error", err)
	}
}

func TestParse_ScheduleDescriptor(t *testing.T) {
	cfg, err := Parse([]byte("analytics:\n  refresh_schedule: \"@every 2m\"\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Analytics.RefreshSchedule != "@every 2m" {
		t.Errorf("RefreshSchedule = %q", cfg.Analytics.RefreshSchedule)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storeadmin.yaml")
	if err := os.WriteFile(path, []byte("api:\n  base_url: http://file.example\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SA_API_BASE_URL", "http://env.example:5000")
	t.Setenv("SA_DISCORD_BOT_TOKEN", "token")
	t.Setenv("SA_DISCORD_CHANNEL", "42")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://env.example:5000" {
		t.Errorf("BaseURL = %q, want env override", cfg.API.BaseURL)
	}
	if !cfg.Notify.Discord.Enabled() {
		t.Error("discord should be enabled from env")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "config: read") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestLoadOrDefault_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SA_LOG_LEVEL", "warn")
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.ChatURL() != "http://localhost:5000/ask" {
		t.Errorf("ChatURL() = %q", cfg.ChatURL())
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want env override warn", cfg.Log.Level)
	}
}

func TestLoadOrDefault_InvalidFileStillFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("console:\n  port: 0\nlog:\n  level: nope\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrDefault(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(dir, ".env")); err != nil {
		t.Fatalf("missing .env should be ignored, got %v", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("SA_TEST_DOTENV_KEY=from-dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("SA_TEST_DOTENV_KEY") })
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("SA_TEST_DOTENV_KEY"); got != "from-dotenv" {
		t.Errorf("env = %q, want from-dotenv", got)
	}
}
