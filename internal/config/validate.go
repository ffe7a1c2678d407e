package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Paths.CacheDir == "" {
		return errors.New("paths.cache_dir must be set")
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validatePriceGuide(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAnalysis() error {
	if !validPolicy(c.Analysis.FetchPolicy) {
		return fmt.Errorf("analysis.fetch_policy: unsupported value %q (use %s, %s or %s)",
			c.Analysis.FetchPolicy, PolicyCacheOnly, PolicyFetchIfAbsent, PolicyForceRefresh)
	}
	if !validPolicy(c.Analysis.PricePolicy) {
		return fmt.Errorf("analysis.price_policy: unsupported value %q (use %s, %s or %s)",
			c.Analysis.PricePolicy, PolicyCacheOnly, PolicyFetchIfAbsent, PolicyForceRefresh)
	}
	if c.Analysis.MinMatchPercentage < 0 || c.Analysis.MinMatchPercentage > 100 {
		return errors.New("analysis.min_match_percentage must be between 0 and 100")
	}
	if c.Analysis.MaxIncomplete < 0 {
		return errors.New("analysis.max_incomplete must not be negative")
	}
	return nil
}

func (c *Config) validatePriceGuide() error {
	if !c.PriceGuide.Enabled {
		return nil
	}
	if c.PriceGuide.TimeoutSeconds <= 0 {
		return errors.New("price_guide.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func validPolicy(value string) bool {
	switch value {
	case PolicyCacheOnly, PolicyFetchIfAbsent, PolicyForceRefresh:
		return true
	default:
		return false
	}
}
