package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Sweep.PageSize <= 0 {
		return fmt.Errorf("sweep.page_size must be > 0 (got %d)", c.Sweep.PageSize)
	}
	if c.Sweep.RunTimeout <= 0 {
		return fmt.Errorf("sweep.run_timeout must be > 0 (got %v)", c.Sweep.RunTimeout)
	}
	if err := validateTriggerTime(c.Sweep.TriggerTime); err != nil {
		return fmt.Errorf("sweep.trigger_time: %w", err)
	}

	if len(c.Platform.ServiceSecret) < 32 {
		return fmt.Errorf("platform.service_secret must be at least 32 characters (got %d)", len(c.Platform.ServiceSecret))
	}
	if len(c.Training.ServiceSecret) < 32 {
		return fmt.Errorf("training.service_secret must be at least 32 characters (got %d)", len(c.Training.ServiceSecret))
	}

	if c.Notify.Enabled && c.Notify.Queue == "" {
		return fmt.Errorf("notify.queue must be set when notifications are enabled")
	}

	return nil
}

// validateTriggerTime accepts "HH:MM" in 24-hour time. The value is purely
// documentation for the external cron; a bad value still fails fast so ops
// notices a misconfigured deployment.
func validateTriggerTime(s string) error {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return fmt.Errorf("must be HH:MM (got %q)", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return fmt.Errorf("hour out of range (got %q)", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return fmt.Errorf("minute out of range (got %q)", s)
	}
	return nil
}
