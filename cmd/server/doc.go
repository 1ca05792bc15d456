// Package main is the entry point for the award token server.
//
// The server accepts session cookies for a logged-in account, replays them
// in a headless browser and returns the act token the rewards page would
// obtain for that account.
//
// Configuration:
//   - Environment variables (see internal/infrastructure/config)
//   - Optional YAML file via -config or CONFIG_FILE
//   - CLI flags (override both)
//
// Usage:
//
//	# Production mode
//	./server -port 3000
//
//	# Development mode (colored logs, debug level)
//	./server -dev -config ./awardtoken.yaml
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
