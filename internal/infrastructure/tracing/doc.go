/*
Package tracing provides lightweight request tracing.

Each inbound request gets a span; pipeline stages open child spans through
Tracer.Trace. Finished spans are buffered (1000) and logged by a single
collector goroutine. Identifiers propagate through the X-Trace-ID and X-Span-ID
headers.

	tracer := tracing.New("quartz-ai", logger.Logger)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))

	err := tracer.Trace(ctx, "fetch", func(ctx context.Context) error {
		_, err := fetcher.Fetch(ctx, url)
		return err
	})
*/
package tracing
