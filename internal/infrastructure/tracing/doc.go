/*
Package tracing provides lightweight request tracing.

# Overview

Every HTTP request gets a root span; the token service opens a child span
for each browser step (launch, cookies, navigation, evaluation, close).
Finished spans are handed to a buffered collector that writes them through
zap, so a slow or failing run can be reconstructed from the service log.

# Usage

	tracer := tracing.New("awardtoken", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "browser.navigate")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
	span.SetTag("url", target)

# Trace Format

Trace context travels in HTTP headers:

  - X-Trace-ID: identifier for the entire request flow
  - X-Span-ID: identifier for the current operation
*/
package tracing
