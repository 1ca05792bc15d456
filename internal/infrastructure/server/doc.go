/*
Package server assembles the award token service.

NewServer builds the logger, metrics, tracer, browser provider, token
service and launch breaker from a config.Config, then registers the
middleware chain and routes:

	GET  /           service banner
	GET  /health     breaker state, live browsers and counters
	POST /get-token  run one browser session and return the token
	GET  /metrics    Prometheus exposition

Close drains in-flight requests, then closes any browsers still running.
*/
package server
