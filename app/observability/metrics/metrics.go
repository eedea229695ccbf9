package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
// Make fields public so they can be accessed from other packages.
type AppMetrics struct {
	CacheHitsTotal          metric.Int64Counter
	CacheMissesTotal        metric.Int64Counter
	UpstreamRequestsTotal   metric.Int64Counter
	UpstreamErrorsTotal     metric.Int64Counter
	UpstreamDurationSeconds metric.Float64Histogram
	FallbacksTotal          metric.Int64Counter
	PlanGenerationsTotal    metric.Int64Counter
	PlanGenerationSeconds   metric.Float64Histogram
	PlanConflictsTotal      metric.Int64Counter
	DbQueryDurationSeconds  metric.Float64Histogram
	DbQueryErrorsTotal      metric.Int64Counter
}

var (
	// Global instance of AppMetrics (initialized once)
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider; instruments
// created before the provider is installed are delegated to it afterwards.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("TripPlanner")
		m := &AppMetrics{}

		m.CacheHitsTotal = counter(meter, "cache_hits_total", "Lookups served from the rate or weather cache", "{lookup}")
		m.CacheMissesTotal = counter(meter, "cache_misses_total", "Lookups that required a refresh", "{lookup}")
		m.UpstreamRequestsTotal = counter(meter, "upstream_requests_total", "Calls made to rate and weather sources", "{request}")
		m.UpstreamErrorsTotal = counter(meter, "upstream_errors_total", "Failed calls to rate and weather sources", "{error}")
		m.FallbacksTotal = counter(meter, "fallbacks_total", "Results served from bundled fallback data", "{result}")
		m.PlanGenerationsTotal = counter(meter, "plan_generations_total", "Itinerary generation runs", "{run}")
		m.PlanConflictsTotal = counter(meter, "plan_conflicts_total", "Plan writes rejected by the version check", "{write}")
		m.DbQueryErrorsTotal = counter(meter, "db_query_errors_total", "Total number of database query errors", "{error}")

		m.UpstreamDurationSeconds = histogram(meter, "upstream_duration_seconds", "Duration of rate and weather source calls")
		m.PlanGenerationSeconds = histogram(meter, "plan_generation_duration_seconds", "Duration of itinerary generation")
		m.DbQueryDurationSeconds = histogram(meter, "db_query_duration_seconds", "Duration of database queries in seconds")

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

func counter(meter metric.Meter, name, description, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}

func histogram(meter metric.Meter, name, description string) metric.Float64Histogram {
	h, err := meter.Float64Histogram(name, metric.WithDescription(description), metric.WithUnit("s"))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return h
}

// Get returns the global AppMetrics instance, initializing it on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
