/*
Package resilience provides a circuit breaker for graceful degradation.

# Overview

The token service launches a fresh browser for every request. When the
browser binary is missing or the host cannot start new processes, every
launch fails the same way; the breaker short-circuits those requests instead
of spawning doomed processes.

# Usage

	breaker := resilience.New("browser-launch", resilience.Settings{
		Cooldown: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	session, err := resilience.Do(breaker, func() (browser.Session, error) {
		return engine.Launch(ctx, opts)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
