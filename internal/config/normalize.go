package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeProvider(); err != nil {
		return err
	}
	c.normalizePriceGuide()
	if err := c.normalizeAnalysis(); err != nil {
		return err
	}
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("FIGFINDER_CACHE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.CacheDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	var err error
	if c.Paths.CacheDir, err = expandPath(strings.TrimSpace(c.Paths.CacheDir)); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProvider() error {
	if value, ok := os.LookupEnv("FIGFINDER_EXPORT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Provider.ExportDir = strings.TrimSpace(value)
	}
	var err error
	if c.Provider.ExportDir, err = expandPath(strings.TrimSpace(c.Provider.ExportDir)); err != nil {
		return fmt.Errorf("provider.export_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePriceGuide() {
	c.PriceGuide.BaseURL = strings.TrimSpace(c.PriceGuide.BaseURL)
	if c.PriceGuide.BaseURL == "" {
		c.PriceGuide.BaseURL = defaultPriceGuideBaseURL
	}
	c.PriceGuide.UserAgent = strings.TrimSpace(c.PriceGuide.UserAgent)
	if c.PriceGuide.UserAgent == "" {
		c.PriceGuide.UserAgent = defaultPriceGuideUserAgent
	}
}

func (c *Config) normalizeAnalysis() error {
	c.Analysis.FetchPolicy = normalizePolicy(c.Analysis.FetchPolicy, defaultFetchPolicy)
	c.Analysis.PricePolicy = normalizePolicy(c.Analysis.PricePolicy, defaultPricePolicy)
	if strings.TrimSpace(c.Analysis.IDList) == "" {
		c.Analysis.IDList = ""
		return nil
	}
	var err error
	if c.Analysis.IDList, err = expandPath(strings.TrimSpace(c.Analysis.IDList)); err != nil {
		return fmt.Errorf("analysis.id_list: %w", err)
	}
	return nil
}

func normalizePolicy(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, "_", "-")
	if value == "" {
		return fallback
	}
	return value
}

func (c *Config) normalizeMetrics() error {
	var err error
	if c.Metrics.TextfilePath, err = expandPath(strings.TrimSpace(c.Metrics.TextfilePath)); err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
