package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateGenerator(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.ImagesDir) == "" {
		return errors.New("paths.images_dir must be set")
	}
	return nil
}

func (c *Config) validateGenerator() error {
	if strings.TrimSpace(c.Generator.BaseURL) == "" {
		return errors.New("generator.base_url must be set")
	}
	if strings.TrimSpace(c.Generator.Model) == "" {
		return errors.New("generator.model must be set")
	}
	if c.Generator.TimeoutSeconds <= 0 {
		return errors.New("generator.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if err := ensurePositiveMap(map[string]int{
		"scheduler.max_concurrent":        c.Scheduler.MaxConcurrent,
		"scheduler.item_delay_seconds":    c.Scheduler.ItemDelaySeconds,
		"scheduler.poll_interval_seconds": c.Scheduler.PollIntervalSeconds,
		"scheduler.error_retry_seconds":   c.Scheduler.ErrorRetrySeconds,
		"scheduler.empty_poll_limit":      c.Scheduler.EmptyPollLimit,
		"scheduler.stuck_timeout_minutes": c.Scheduler.StuckTimeoutMinutes,
		"scheduler.stuck_sweep_minutes":   c.Scheduler.StuckSweepMinutes,
		"scheduler.maintenance_every":     c.Scheduler.MaintenanceEvery,
		"scheduler.retention_hours":       c.Scheduler.RetentionHours,
	}); err != nil {
		return err
	}
	if c.Scheduler.KeepRecent < 0 {
		return errors.New("scheduler.keep_recent must be >= 0")
	}
	if c.Scheduler.MaxRetries < 0 {
		return errors.New("scheduler.max_retries must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
