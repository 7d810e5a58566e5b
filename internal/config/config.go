// Package config handles loading, validating, and applying defaults to the
// responsed configuration. Configuration is read from a YAML file and may
// be overridden by environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a wrapper around time.Duration that implements yaml.Unmarshaler
// so that Go-style duration strings (e.g. "30s", "5m") can be used in YAML.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a YAML scalar as a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML serialises the duration back to a human-readable string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config is the top-level configuration for the responsed service.
type Config struct {
	App            AppConfig            `yaml:"app"`
	Repository     RepositoryConfig     `yaml:"repository"`
	Orchestrator   OrchestratorConfig   `yaml:"orchestrator"`
	Notify         NotifyConfig         `yaml:"notify"`
	Worker         WorkerConfig         `yaml:"worker"`
	Retention      RetentionConfig      `yaml:"retention"`
	Storage        StorageConfig        `yaml:"storage"`
	Metrics        MetricsConfig        `yaml:"metrics"`
	Health         HealthConfig         `yaml:"health"`

	// AuthToken is populated from the RESPONSED_AUTH_TOKEN environment
	// variable. It is never read from the config file.
	AuthToken string `yaml:"-"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
}

// RepositoryConfig configures the persistence layer behind the
// repository.Repository interface.
type RepositoryConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "memory"; only validated, cmd/responsed always opens SQLite at DSN
	DSN    string `yaml:"dsn"`
}

// OrchestratorConfig controls the observation channel buffering and the
// shared HTTP client used by every Prober. ControlChannelBuffer is loaded and
// defaulted but not read: the orchestrator's control channel always holds 64.
type OrchestratorConfig struct {
	ControlChannelBuffer     int      `yaml:"controlChannelBuffer"`
	ObservationChannelBuffer int      `yaml:"observationChannelBuffer"`
	HTTPTimeout              Duration `yaml:"httpTimeout"`
	MaxIdleConnsPerHost      int      `yaml:"maxIdleConnsPerHost"`
}

// NotifyConfig holds notification settings. Its values are loaded and
// defaulted but not read by NotifyManager or by the providers, which use
// their own fixed base URL and 10s request timeout.
type NotifyConfig struct {
	DispatchTimeout Duration `yaml:"dispatchTimeout"`
	Telegram        TelegramConfig `yaml:"telegram"`
	Discord         DiscordConfig  `yaml:"discord"`
}

// TelegramConfig holds telegram provider settings; the telegram provider
// does not read them.
type TelegramConfig struct {
	APIBaseURL string `yaml:"apiBaseURL"`
}

// DiscordConfig holds discord provider settings; the discord provider does
// not read them.
type DiscordConfig struct {
	RequestTimeout Duration `yaml:"requestTimeout"`
}

// WorkerConfig holds general background-worker pacing settings. They are
// loaded and defaulted but not read: the cleaner runs on
// Retention.CleanupInterval and the storage monitor on
// Storage.MonitorInterval.
type WorkerConfig struct {
	PollInterval Duration `yaml:"pollInterval"`
	Concurrency  int      `yaml:"concurrency"`
}

// RetentionConfig controls old ServerLog cleanup.
type RetentionConfig struct {
	Enabled         bool     `yaml:"enabled"`
	CleanupInterval Duration `yaml:"cleanupInterval"`
	RetentionPeriod Duration `yaml:"retentionPeriod"`
}

// StorageConfig controls the SQLite database and volume monitoring.
type StorageConfig struct {
	MonitorInterval   Duration `yaml:"monitorInterval"`
	DBPath            string   `yaml:"dbPath"`
	VolumePath        string   `yaml:"volumePath"`
	WarningThreshold  int      `yaml:"warningThreshold"`
	CriticalThreshold int      `yaml:"criticalThreshold"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// HealthConfig controls the health/readiness probe endpoints.
type HealthConfig struct {
	LivenessPath  string `yaml:"livenessPath"`
	ReadinessPath string `yaml:"readinessPath"`
	Port          int    `yaml:"port"`
}

// Load reads the YAML configuration file at path, applies defaults, applies
// environment-variable overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.LogFormat == "" {
		c.App.LogFormat = "json"
	}

	if c.Repository.Driver == "" {
		c.Repository.Driver = "sqlite"
	}

	if c.Orchestrator.ControlChannelBuffer == 0 {
		c.Orchestrator.ControlChannelBuffer = 64
	}
	if c.Orchestrator.ObservationChannelBuffer == 0 {
		c.Orchestrator.ObservationChannelBuffer = 256
	}
	if c.Orchestrator.HTTPTimeout.Duration == 0 {
		c.Orchestrator.HTTPTimeout.Duration = 30 * time.Second
	}
	if c.Orchestrator.MaxIdleConnsPerHost == 0 {
		c.Orchestrator.MaxIdleConnsPerHost = 10
	}

	if c.Notify.DispatchTimeout.Duration == 0 {
		c.Notify.DispatchTimeout.Duration = 10 * time.Second
	}
	if c.Notify.Telegram.APIBaseURL == "" {
		c.Notify.Telegram.APIBaseURL = "https://api.telegram.org"
	}
	if c.Notify.Discord.RequestTimeout.Duration == 0 {
		c.Notify.Discord.RequestTimeout.Duration = 10 * time.Second
	}

	if c.Worker.PollInterval.Duration == 0 {
		c.Worker.PollInterval.Duration = 5 * time.Second
	}
	if c.Worker.Concurrency == 0 {
		c.Worker.Concurrency = 5
	}

	if c.Retention.CleanupInterval.Duration == 0 {
		c.Retention.Enabled = true
		c.Retention.CleanupInterval.Duration = 1 * time.Hour
		c.Retention.RetentionPeriod.Duration = 168 * time.Hour
	} else if c.Retention.RetentionPeriod.Duration == 0 {
		c.Retention.RetentionPeriod.Duration = 168 * time.Hour
	}

	if c.Storage.MonitorInterval.Duration == 0 {
		c.Storage.MonitorInterval.Duration = 1 * time.Minute
	}
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = c.Repository.DSN
	}
	if c.Storage.VolumePath == "" {
		c.Storage.VolumePath = "/data"
	}
	if c.Storage.WarningThreshold == 0 {
		c.Storage.WarningThreshold = 80
	}
	if c.Storage.CriticalThreshold == 0 {
		c.Storage.CriticalThreshold = 90
	}

	if c.Metrics.Port == 0 {
		c.Metrics.Enabled = true
		c.Metrics.Port = 8080
		c.Metrics.Path = "/metrics"
	} else if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Health.LivenessPath == "" {
		c.Health.LivenessPath = "/healthz"
	}
	if c.Health.ReadinessPath == "" {
		c.Health.ReadinessPath = "/ready"
	}
	if c.Health.Port == 0 {
		c.Health.Port = 8080
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("REPOSITORY_DSN"); v != "" {
		c.Repository.DSN = v
	}
	if v := os.Getenv("RESPONSED_AUTH_TOKEN"); v != "" {
		c.AuthToken = v
	}
}

// validate checks that all required fields are populated and that enum
// values are within the allowed set.
func (c *Config) validate() error {
	if c.Repository.DSN == "" {
		return fmt.Errorf("repository.dsn is required")
	}

	switch c.App.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("app.logLevel must be one of: debug, info, warn, error; got %q", c.App.LogLevel)
	}

	switch c.App.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("app.logFormat must be one of: json, text; got %q", c.App.LogFormat)
	}

	switch c.Repository.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("repository.driver must be one of: sqlite, memory; got %q", c.Repository.Driver)
	}

	return nil
}
