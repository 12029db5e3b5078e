package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateMerge(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSync() error {
	switch c.Sync.Strategy {
	case "", "auto", "first-line", "scan", "translation", "manual":
	default:
		return fmt.Errorf("sync.strategy %q is not one of auto, first-line, scan, translation, manual", c.Sync.Strategy)
	}
	switch c.Sync.LanguagePreference {
	case "", "auto", "chinese", "english":
	default:
		return fmt.Errorf("sync.language_preference %q is not one of auto, chinese, english", c.Sync.LanguagePreference)
	}
	switch c.Sync.Reference {
	case "", "first", "second":
	default:
		return fmt.Errorf("sync.reference %q is not one of first, second", c.Sync.Reference)
	}
	if c.Sync.MatchThreshold < 0 || c.Sync.MatchThreshold > 1 {
		return errors.New("sync.match_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateMerge() error {
	switch c.Merge.TextOrder {
	case "", "first", "second":
	default:
		return fmt.Errorf("merge.text_order %q is not one of first, second", c.Merge.TextOrder)
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if c.Translation.Enabled && c.Translation.BaseURL == "" {
		return errors.New("translation.base_url is required when translation.enabled is true")
	}
	if c.Translation.TimeoutSeconds < 0 {
		return errors.New("translation.timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Workers < 0 {
		return errors.New("batch.workers must not be negative")
	}
	if len(c.Batch.Extensions) == 0 {
		return errors.New("batch.extensions must list at least one extension")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of console, json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}
