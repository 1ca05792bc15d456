// Package middleware provides the gin middleware stack for the token service.
//
// Order matters: Recovery first, then RequestID so every later layer can
// read the identifier, then Logger, then CORS.
//
//	router.Use(middleware.Recovery(log))
//	router.Use(middleware.RequestID())
//	router.Use(middleware.Logger(log))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
package middleware
