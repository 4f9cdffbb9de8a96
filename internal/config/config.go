// Package config loads and validates tracker configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	DB       DBConfig       `mapstructure:"db"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// WebhookConfig governs worker-to-server result delivery.
type WebhookConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxAttempts    int    `mapstructure:"max_attempts"`
	RetryDelayMs   int    `mapstructure:"retry_delay_ms"`
}

// URL builds the scraping-completed webhook target.
func (w WebhookConfig) URL() string {
	return fmt.Sprintf("http://%s:%d/webhook/scraping-completed", w.Host, w.Port)
}

// Timeout returns the per-request delivery timeout.
func (w WebhookConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutSeconds) * time.Second
}

// RetryDelay returns the fixed inter-attempt delay.
func (w WebhookConfig) RetryDelay() time.Duration {
	return time.Duration(w.RetryDelayMs) * time.Millisecond
}

// WorkerConfig locates the worker binary and its data/provider directories.
type WorkerConfig struct {
	Binary       string `mapstructure:"binary"`
	DataDir      string `mapstructure:"data_dir"`
	ProvidersDir string `mapstructure:"providers_dir"`
	HTTPRetries  int    `mapstructure:"http_retries"`
	HTTPDelayMs  int    `mapstructure:"http_delay_ms"`
}

// HeadlessConfig configures the browser session used by browser providers.
type HeadlessConfig struct {
	UserAgent     string `mapstructure:"user_agent"`
	NavTimeoutSec int    `mapstructure:"nav_timeout_seconds"`
}

// SweepConfig bounds how long a profile may sit in analyzing before the
// sweeper force-fails the job.
type SweepConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
	DeadlineSeconds int `mapstructure:"deadline_seconds"`
}

// Interval returns the sweep cadence.
func (s SweepConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// Deadline returns the per-job wall-clock budget.
func (s SweepConfig) Deadline() time.Duration {
	return time.Duration(s.DeadlineSeconds) * time.Second
}

// ArchiveConfig sets the optional GCS mirror for raw result artifacts.
type ArchiveConfig struct {
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for completion-event notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features and the file sink.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	FilePath    string `mapstructure:"file_path"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("webhook.host", "localhost")
	v.SetDefault("webhook.port", 3000)
	v.SetDefault("webhook.timeout_seconds", 10)
	v.SetDefault("webhook.max_attempts", 3)
	v.SetDefault("webhook.retry_delay_ms", 1000)
	v.SetDefault("worker.binary", "scrapeworker")
	v.SetDefault("worker.data_dir", "data")
	v.SetDefault("worker.providers_dir", "providers")
	v.SetDefault("worker.http_retries", 3)
	v.SetDefault("worker.http_delay_ms", 1000)
	v.SetDefault("headless.user_agent", "")
	v.SetDefault("headless.nav_timeout_seconds", 90)
	v.SetDefault("sweep.interval_seconds", 60)
	v.SetDefault("sweep.deadline_seconds", 600)
	v.SetDefault("archive.prefix", "raw")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Webhook.MaxAttempts <= 0 {
		return fmt.Errorf("webhook.max_attempts must be > 0")
	}
	if c.Webhook.TimeoutSeconds <= 0 {
		return fmt.Errorf("webhook.timeout_seconds must be > 0")
	}
	if c.Sweep.DeadlineSeconds <= 0 {
		return fmt.Errorf("sweep.deadline_seconds must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}
