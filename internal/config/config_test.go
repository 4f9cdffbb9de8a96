package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
auth:
  enabled: true
  api_key: secret
db:
  dsn: postgres://tracker@localhost/tracker
webhook:
  host: tracker.internal
  port: 8443
  timeout_seconds: 5
  max_attempts: 4
  retry_delay_ms: 250
worker:
  binary: /usr/local/bin/scrapeworker
  data_dir: /var/lib/tracker/data
  providers_dir: /etc/tracker/providers
headless:
  user_agent: tracker-bot/0.1
  nav_timeout_seconds: 30
sweep:
  interval_seconds: 30
  deadline_seconds: 300
logging:
  development: false
  file_path: /var/log/tracker.log
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if !cfg.Auth.Enabled || cfg.Auth.APIKey != "secret" {
		t.Fatalf("expected auth enabled with secret key")
	}
	if got := cfg.Webhook.URL(); got != "http://tracker.internal:8443/webhook/scraping-completed" {
		t.Fatalf("unexpected webhook url: %s", got)
	}
	if got := cfg.Webhook.RetryDelay(); got != 250*time.Millisecond {
		t.Fatalf("expected retry delay 250ms, got %v", got)
	}
	if cfg.Worker.Binary != "/usr/local/bin/scrapeworker" {
		t.Fatalf("expected worker binary override, got %s", cfg.Worker.Binary)
	}
	if got := cfg.Sweep.Deadline(); got != 300*time.Second {
		t.Fatalf("expected sweep deadline 300s, got %v", got)
	}
	if cfg.Logging.Development || cfg.Logging.FilePath != "/var/log/tracker.log" {
		t.Fatalf("expected logging overrides to apply: %+v", cfg.Logging)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Webhook.MaxAttempts != 3 || cfg.Webhook.RetryDelayMs != 1000 {
		t.Fatalf("unexpected webhook defaults: %+v", cfg.Webhook)
	}
	if got := cfg.Webhook.URL(); got != "http://localhost:3000/webhook/scraping-completed" {
		t.Fatalf("unexpected default webhook url: %s", got)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:  ServerConfig{Port: 3000},
		Webhook: WebhookConfig{MaxAttempts: 3, TimeoutSeconds: 10},
		Sweep:   SweepConfig{DeadlineSeconds: 600},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid port",
			cfg: func() Config {
				c := base
				c.Server.Port = 0
				return c
			}(),
			want: "server.port",
		},
		{
			name: "invalid webhook attempts",
			cfg: func() Config {
				c := base
				c.Webhook.MaxAttempts = 0
				return c
			}(),
			want: "webhook.max_attempts",
		},
		{
			name: "invalid webhook timeout",
			cfg: func() Config {
				c := base
				c.Webhook.TimeoutSeconds = 0
				return c
			}(),
			want: "webhook.timeout_seconds",
		},
		{
			name: "invalid sweep deadline",
			cfg: func() Config {
				c := base
				c.Sweep.DeadlineSeconds = 0
				return c
			}(),
			want: "sweep.deadline_seconds",
		},
		{
			name: "auth missing api key",
			cfg: func() Config {
				c := base
				c.Auth.Enabled = true
				return c
			}(),
			want: "auth.api_key",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
