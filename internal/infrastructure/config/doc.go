// Package config provides 12-factor configuration management for the token service.
//
// Configuration starts from built-in defaults, is optionally overlaid by a
// YAML file (CONFIG_FILE), and is finally overridden by environment variables.
// CLI flags on cmd/server override all of them.
//
// Configuration Sections:
//   - Server: HTTP listen address and shutdown grace period
//   - Logging: level, output format and optional rotating log file
//   - Browser: binary, headless/stealth mode, extra launch flags, navigation timeouts
//   - Token: upstream base URL, cookie domain and default award id
//   - Breaker: circuit breaker guarding browser launches
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT
//   - LOG_LEVEL, LOG_DEV, LOG_FILE, LOG_MAX_SIZE_MB, LOG_MAX_BACKUPS, LOG_MAX_AGE_DAYS
//   - BROWSER_BIN, BROWSER_HEADLESS, BROWSER_STEALTH, BROWSER_EXTRA_FLAGS
//   - BROWSER_IDLE_WINDOW, BROWSER_HOME_TIMEOUT, BROWSER_TARGET_TIMEOUT, BROWSER_EVAL_TIMEOUT
//   - TOKEN_BASE_URL, TOKEN_COOKIE_DOMAIN, TOKEN_DEFAULT_AWARD_ID
//   - BREAKER_ENABLED, BREAKER_MAX_FAILURES, BREAKER_OPEN_TIMEOUT
package config
