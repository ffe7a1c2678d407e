package config

const (
	defaultConfigPath          = "~/.config/figfinder/config.toml"
	defaultCacheDir            = "~/.cache/figfinder"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultFetchPolicy         = PolicyFetchIfAbsent
	defaultPricePolicy         = PolicyCacheOnly
	defaultPriceGuideBaseURL   = "https://www.bricklink.com/priceGuideSummary.asp"
	defaultPriceGuideUserAgent = "figfinder/dev"
	defaultPriceGuideTimeout   = 10
)

// Fetch policy names accepted in configuration and on the command line.
const (
	PolicyCacheOnly     = "cache-only"
	PolicyFetchIfAbsent = "fetch-if-absent"
	PolicyForceRefresh  = "force-refresh"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir,
		},
		PriceGuide: PriceGuide{
			BaseURL:        defaultPriceGuideBaseURL,
			UserAgent:      defaultPriceGuideUserAgent,
			TimeoutSeconds: defaultPriceGuideTimeout,
		},
		Analysis: Analysis{
			FetchPolicy: defaultFetchPolicy,
			PricePolicy: defaultPricePolicy,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
