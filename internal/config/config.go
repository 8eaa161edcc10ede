// Package config loads the client's process configuration from environment
// variables, applying defaults and validating every setting at startup.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"cash-register-client/internal/configsync"
)

type Config struct {
	Remote    RemoteConfig
	Sync      SyncConfig
	Server    ServerConfig
	Logging   LoggingConfig
	Telemetry TelemetryConfig
}

// RemoteConfig describes the change service the client talks to.
type RemoteConfig struct {
	// URL is the service base URL, without a trailing slash.
	URL string `env:"CHANGE_API_URL" default:"http://localhost:8080"`

	// HealthInterval is how often the liveness endpoint is polled.
	HealthInterval time.Duration `env:"HEALTH_INTERVAL" default:"30s"`
}

type SyncConfig struct {
	// PushPolicy is what a calculation does when the config push fails:
	// "proceed" or "fail".
	PushPolicy string `env:"CONFIG_PUSH_POLICY" default:"proceed"`

	// ExtendedFields allows editing country and special case in the draft.
	ExtendedFields bool `env:"CONFIG_EXTENDED_FIELDS" default:"false"`
}

// ServerConfig holds settings for the local state surface started by serve.
type ServerConfig struct {
	Addr            string        `env:"CLIENT_LISTEN_ADDR" default:":8081"`
	ShutdownTimeout time.Duration `env:"CLIENT_SHUTDOWN_TIMEOUT" default:"5s"`
}

type LoggingConfig struct {
	Level string `env:"LOG_LEVEL" default:"info"`
}

type TelemetryConfig struct {
	// Enabled turns on OTLP export of traces, metrics and logs.
	Enabled     bool   `env:"OTEL_ENABLED" default:"false"`
	ServiceName string `env:"OTEL_SERVICE_NAME" default:"cash-register-client"`
}

// Validate checks every setting and reports all failures at once.
func (c *Config) Validate() error {
	var errs []string

	u, err := url.Parse(c.Remote.URL)
	switch {
	case c.Remote.URL == "":
		errs = append(errs, "CHANGE_API_URL is required")
	case err != nil || u.Scheme == "" || u.Host == "":
		errs = append(errs, fmt.Sprintf("CHANGE_API_URL (%q) must be an absolute URL", c.Remote.URL))
	case strings.HasSuffix(c.Remote.URL, "/"):
		errs = append(errs, fmt.Sprintf("CHANGE_API_URL (%q) must not end with a slash", c.Remote.URL))
	}

	if c.Remote.HealthInterval <= 0 {
		errs = append(errs, "HEALTH_INTERVAL must be positive")
	}

	if _, err := configsync.ParsePolicy(c.Sync.PushPolicy); err != nil {
		errs = append(errs, fmt.Sprintf("CONFIG_PUSH_POLICY (%q) must be one of: proceed, fail", c.Sync.PushPolicy))
	}

	if c.Server.Addr == "" {
		errs = append(errs, "CLIENT_LISTEN_ADDR is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "CLIENT_SHUTDOWN_TIMEOUT must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	if c.Telemetry.Enabled && c.Telemetry.ServiceName == "" {
		errs = append(errs, "OTEL_SERVICE_NAME is required when OTEL_ENABLED is true")
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Policy returns the parsed push policy. Call after Validate.
func (c *Config) Policy() configsync.Policy {
	p, _ := configsync.ParsePolicy(c.Sync.PushPolicy)
	return p
}
