package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/robfig/cron/v3"
)

// cronParser accepts standard five-field expressions plus descriptors such as
// @hourly, matching what the scheduler itself accepts.
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks the structural validity of a Config. It verifies the version
// field, the gateway bind address, the log settings, and the cron expressions
// of the configured jobs. Defaults must have been applied first.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.Gateway.Bind); err != nil {
		errs = append(errs, fmt.Errorf("config: invalid gateway bind address %q", cfg.Gateway.Bind))
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log level %q", cfg.Log.Level))
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log format %q", cfg.Log.Format))
	}

	if cfg.Notifications.LineCap < 0 {
		errs = append(errs, fmt.Errorf("config: notifications.line_cap must not be negative, got %d", cfg.Notifications.LineCap))
	}

	if expr := cfg.Jobs.FailedSweep; expr != "" {
		if _, err := cronParser.Parse(expr); err != nil {
			errs = append(errs, fmt.Errorf("config: jobs.failed_sweep: invalid cron expression %q: %w", expr, err))
		}
	}
	if expr := cfg.Jobs.Resync; expr != "" {
		if _, err := cronParser.Parse(expr); err != nil {
			errs = append(errs, fmt.Errorf("config: jobs.resync: invalid cron expression %q: %w", expr, err))
		}
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, errors.New("config: tracing.enabled is true but no endpoint provided"))
	}

	return errors.Join(errs...)
}
