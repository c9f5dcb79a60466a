/*
Package monitoring provides Prometheus metrics for the audit service.

Every Metrics value owns its registry, so independent servers and tests never
collide on collector names.

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewStageTimer(metrics, monitoring.StageFetch)
	body, err := fetcher.Fetch(ctx, url)
	timer.StopErr(err)
*/
package monitoring
