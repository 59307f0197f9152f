// Package config provides environment-driven configuration with defaults.
//
// Settings are read from BROWSER_-prefixed environment variables; struct
// tags supply the defaults so a bare environment is always valid.
//
// Configuration Sections:
//   - HTTP: user agent, redirect budget, dial timeout, cache/gzip toggles
//   - Layout: horizontal and vertical step metrics
//   - Logging: log level and output format
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("redirect budget: %d\n", cfg.HTTP.RedirectBudget)
//
// Environment Variables:
//   - BROWSER_USER_AGENT, BROWSER_REDIRECT_BUDGET, BROWSER_DIAL_TIMEOUT
//   - BROWSER_CACHE_ENABLED, BROWSER_GZIP_ENABLED
//   - BROWSER_LAYOUT_HSTEP, BROWSER_LAYOUT_VSTEP
//   - BROWSER_LOG_LEVEL, BROWSER_LOG_DEV
package config
