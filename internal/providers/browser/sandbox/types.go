package sandbox

import (
	"context"
	"time"
)

// Config defines sandbox configuration
type Config struct {
	Timeout       time.Duration // Execution timeout
	MaxCallStack  int           // Maximum call stack depth
	EnableConsole bool          // Capture console.log/warn/error
	Fetch         FetchFunc     // Host side of fetch(); nil disables fetch
}

// FetchFunc answers a fetch() call made by a script
type FetchFunc func(ctx context.Context, req FetchRequest) (FetchResponse, error)

// FetchRequest is what a script passed to fetch()
type FetchRequest struct {
	URL         string
	Method      string
	Headers     map[string]string
	Body        string
	Credentials string
}

// FetchResponse is handed back to the script as a Response-like object
type FetchResponse struct {
	Status int
	Body   string
}

// Result holds execution result
type Result struct {
	Value    interface{}   // Return value
	Console  []LogEntry    // Console output
	Duration time.Duration // Execution time
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    // log, warn, error
	Message string    // Log message
	Time    time.Time // Timestamp
}

// DefaultConfig returns a config with console capture and no fetch
func DefaultConfig() Config {
	return Config{
		Timeout:       5 * time.Second,
		MaxCallStack:  1024,
		EnableConsole: true,
	}
}
