package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"figfinder/internal/cachestore"
	"figfinder/internal/config"
	"figfinder/internal/finder"
	"figfinder/internal/logging"
	"figfinder/internal/metrics"
	"figfinder/internal/provider/exportdir"
	"figfinder/internal/provider/priceguide"
)

type commandContext struct {
	configFlag   *string
	jsonFlag     *bool
	logLevelFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	recorder *metrics.Recorder
}

func newCommandContext(configFlag *string, jsonFlag *bool, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		jsonFlag:     jsonFlag,
		logLevelFlag: logLevelFlag,
		recorder:     metrics.NewRecorder(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.ToLower(strings.TrimSpace(*c.logLevelFlag)); level != "" {
				cfg.Logging.Level = level
				if err := cfg.Validate(); err != nil {
					c.configErr = fmt.Errorf("--log-level: %w", err)
					return
				}
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// JSONMode reports whether --json was passed.
func (c *commandContext) JSONMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) openStore() (*cachestore.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return cachestore.Open(cfg.Paths.CacheDir,
		cachestore.WithLogger(logger),
		cachestore.WithObserver(c.recorder),
	)
}

func (c *commandContext) newFinder(store *cachestore.Store) (*finder.Finder, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	opts := []finder.Option{
		finder.WithLogger(logger),
		finder.WithMetrics(c.recorder),
	}
	if cfg.Provider.ExportDir != "" {
		opts = append(opts, finder.WithAssemblySource(exportdir.New(cfg.Provider.ExportDir)))
	}
	if cfg.PriceGuide.Enabled {
		client, err := priceguide.New(cfg.PriceGuide.BaseURL,
			priceguide.WithUserAgent(cfg.PriceGuide.UserAgent),
			priceguide.WithTimeout(time.Duration(cfg.PriceGuide.TimeoutSeconds)*time.Second),
		)
		if err != nil {
			return nil, fmt.Errorf("price guide client: %w", err)
		}
		opts = append(opts, finder.WithPriceSource(client))
	}
	return finder.New(store, nil, opts...)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
