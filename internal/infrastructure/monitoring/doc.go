/*
Package monitoring provides Prometheus metrics for the token service.

# Overview

Each Metrics value owns a private registry so that tests and multiple
servers in one process never collide on metric names.

# Metrics

  - HTTP request counters, latency and size histograms (per route template)
  - Token runs by outcome (token, error, no_token, fatal, rejected)
  - Browser step durations and errors (launch, cookies, navigate_home,
    navigate_target, evaluate, close)
  - Running browser processes and launch breaker state
  - Go runtime, process and uptime metrics

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "navigate_home")
	err := session.Navigate(ctx, home, timeout)
	timer.Stop(err)
*/
package monitoring
