/*
Package observability turns engine lifecycle hooks into Prometheus metrics
and structured log records.

	metrics, _ := observability.NewMetrics(registry)
	hooks := metrics.Hooks().Merge(observability.LoggingHooks(logger))
*/
package observability
