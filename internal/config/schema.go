// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for the notifier daemon.
package config

import "time"

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// App identifies this deployment; its ID prefixes notification tags.
	App AppConfig `yaml:"app"`

	Database      DatabaseConfig      `yaml:"database"`
	Gateway       GatewayConfig       `yaml:"gateway"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Jobs          JobsConfig          `yaml:"jobs"`
	Tracing       TracingConfig       `yaml:"tracing,omitempty"`
	Log           LogConfig           `yaml:"log,omitempty"`
}

// AppConfig holds deployment identity and filesystem layout.
type AppConfig struct {
	// ID prefixes every notification tag. Defaults to "messaging".
	ID string `yaml:"id"`

	// DataDir is the root for the database and downloaded media.
	DataDir string `yaml:"data_dir"`
}

// DatabaseConfig locates the message database.
type DatabaseConfig struct {
	// Path to the SQLite file. Empty selects <data_dir>/messages.db.
	Path string `yaml:"path"`
}

// GatewayConfig holds HTTP gateway settings.
type GatewayConfig struct {
	Bind            string        `yaml:"bind"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// NotificationsConfig tunes the notification engine.
type NotificationsConfig struct {
	// Enabled gates all posting; the gateway and store still run when false.
	Enabled bool `yaml:"enabled"`

	// LineCap bounds lines retained per conversation. <= 0 uses the default.
	LineCap int `yaml:"line_cap"`

	// DefaultRingtone sounds for conversations without a custom one.
	DefaultRingtone string `yaml:"default_ringtone"`

	// FailureSound is played by failed-message notifications.
	FailureSound string `yaml:"failure_sound"`
}

// JobsConfig holds cron expressions for the background jobs.
type JobsConfig struct {
	// FailedSweep re-checks failed messages on a schedule, catching failures
	// whose triggering event was lost. Empty disables the sweep.
	FailedSweep string `yaml:"failed_sweep"`
	// Resync reconciles the whole notification shelf against the store.
	// Empty disables the job.
	Resync string `yaml:"resync"`
}

// TracingConfig enables OTLP trace export.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// LogConfig controls log output.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`

	// Format is "text" or "json". Defaults to text.
	Format string `yaml:"format"`
}

// Defaults fills zero values with sensible defaults.
func (c *Config) Defaults() {
	if c.App.ID == "" {
		c.App.ID = "messaging"
	}
	if c.App.DataDir == "" {
		c.App.DataDir = "./data"
	}
	if c.Gateway.Bind == "" {
		c.Gateway.Bind = "127.0.0.1:8080"
	}
	if c.Gateway.ReadTimeout <= 0 {
		c.Gateway.ReadTimeout = 10 * time.Second
	}
	if c.Gateway.WriteTimeout <= 0 {
		c.Gateway.WriteTimeout = 30 * time.Second
	}
	if c.Gateway.ShutdownTimeout <= 0 {
		c.Gateway.ShutdownTimeout = 5 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
