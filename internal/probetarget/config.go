// Package probetarget implements a configurable HTTP fixture server used to
// exercise a Prober in integration tests and local development: a single
// GET endpoint whose response behavior (success, failure, delay, random) is
// driven entirely by configuration, so a developer can point a real Server
// row at it and watch transitions occur on demand.
package probetarget

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the probe target.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Behavior BehaviorConfig `yaml:"behavior"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	Path         string        `yaml:"path"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

// BehaviorConfig controls how the probe target responds to GET requests.
type BehaviorConfig struct {
	// Mode determines response behavior: "success", "failure", "delay", or
	// "random".
	Mode string `yaml:"mode"`
	// FailureRate is the probability of failure when Mode is "random"
	// (0.0-1.0).
	FailureRate float64 `yaml:"failureRate"`
	// DelayMs is the response delay in milliseconds when Mode is "delay".
	DelayMs int `yaml:"delayMs"`
	// StatusCode is the HTTP status code returned on failure.
	StatusCode int `yaml:"statusCode"`
}

// Defaults returns a Config populated with default values.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8090,
			Path:         "/",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Behavior: BehaviorConfig{
			Mode:        "success",
			FailureRate: 0.0,
			DelayMs:     0,
			StatusCode:  500,
		},
	}
}

// Load reads a YAML configuration file at path and returns a Config with any
// unset fields filled in from Defaults(). If path is empty, the defaults are
// returned as-is.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	if err := validate(cfg); err != nil {
		return cfg, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func validate(cfg Config) error {
	switch cfg.Behavior.Mode {
	case "success", "failure", "delay", "random":
	default:
		return fmt.Errorf("invalid behavior mode %q: must be success, failure, delay, or random", cfg.Behavior.Mode)
	}

	if cfg.Behavior.FailureRate < 0.0 || cfg.Behavior.FailureRate > 1.0 {
		return fmt.Errorf("failureRate must be between 0.0 and 1.0, got %f", cfg.Behavior.FailureRate)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	return nil
}
