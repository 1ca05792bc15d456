// Package client is a resty-based client for the award token server.
//
// Requests pass through a rate limiter and a circuit breaker that opens
// when the server keeps answering 503 or cannot be reached.
package client
