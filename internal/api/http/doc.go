// Package http holds the gin handlers of the token service.
//
// POST /get-token validates the body, runs a browser session and answers
// with the token or the error, always alongside the diagnostic log:
//
//	200 {"success": true, "token": "...", "log": [...]}
//	400 {"error": "Missing cookies or url", "log": [...]}
//	500 {"error": "No act token", "response": {...}, "log": [...]}
//	503 {"error": "circuit breaker is open", "log": [...]}
package http
