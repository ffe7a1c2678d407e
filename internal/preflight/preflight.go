package preflight

import (
	"context"
	"strings"

	"figfinder/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Cache directory (always checked)
	results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))

	if strings.TrimSpace(cfg.Paths.LogDir) != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	if strings.TrimSpace(cfg.Provider.ExportDir) != "" {
		results = append(results, CheckDirectoryReadable("Export directory", cfg.Provider.ExportDir))
	}

	if strings.TrimSpace(cfg.Analysis.IDList) != "" {
		results = append(results, CheckFileReadable("Minifigure id list", cfg.Analysis.IDList))
	}

	if cfg.PriceGuide.Enabled {
		results = append(results, CheckPriceGuide(ctx, cfg.PriceGuide.BaseURL, cfg.PriceGuide.UserAgent))
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
