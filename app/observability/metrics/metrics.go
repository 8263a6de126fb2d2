package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	ResolveRequestsTotal       metric.Int64Counter
	ResolveDurationSeconds     metric.Float64Histogram
	GeocodeRequestsTotal       metric.Int64Counter
	GeocodeAttemptsTotal       metric.Int64Counter
	GeocodeMissesTotal         metric.Int64Counter
	ExternalRequestDuration    metric.Float64Histogram
	ExternalRequestErrorsTotal metric.Int64Counter
	BoundaryLoadFailuresTotal  metric.Int64Counter
	DatasetRecordsSkippedTotal metric.Int64Counter
	DoorMigrationOutcomesTotal metric.Int64Counter
	DbQueryDurationSeconds     metric.Float64Histogram
	DbQueryErrorsTotal         metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider, so it must run
// after the provider is installed to export anything.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("ParisianDoors")
		m := &AppMetrics{}

		m.ResolveRequestsTotal = mustCounter(meter, "location_resolve_requests_total",
			"Total number of coordinate resolutions", "{request}")
		m.ResolveDurationSeconds = mustHistogram(meter, "location_resolve_duration_seconds",
			"Duration of coordinate resolutions in seconds")
		m.GeocodeRequestsTotal = mustCounter(meter, "geocode_requests_total",
			"Total number of address geocode requests", "{request}")
		m.GeocodeAttemptsTotal = mustCounter(meter, "geocode_attempts_total",
			"Total number of address variants sent to the geocoder", "{attempt}")
		m.GeocodeMissesTotal = mustCounter(meter, "geocode_misses_total",
			"Addresses for which no variant matched", "{request}")
		m.ExternalRequestDuration = mustHistogram(meter, "external_request_duration_seconds",
			"Duration of outbound HTTP calls in seconds")
		m.ExternalRequestErrorsTotal = mustCounter(meter, "external_request_errors_total",
			"Total number of failed outbound HTTP calls", "{error}")
		m.BoundaryLoadFailuresTotal = mustCounter(meter, "boundary_load_failures_total",
			"Total number of failed boundary dataset loads", "{error}")
		m.DatasetRecordsSkippedTotal = mustCounter(meter, "dataset_records_skipped_total",
			"Dataset records rejected during ingest", "{record}")
		m.DoorMigrationOutcomesTotal = mustCounter(meter, "door_migration_outcomes_total",
			"Per-door outcomes of admin batch runs", "{door}")
		m.DbQueryDurationSeconds = mustHistogram(meter, "db_query_duration_seconds",
			"Duration of database queries in seconds")
		m.DbQueryErrorsTotal = mustCounter(meter, "db_query_errors_total",
			"Total number of database query errors", "{error}")

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

func mustCounter(meter metric.Meter, name, desc, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}

func mustHistogram(meter metric.Meter, name, desc string) metric.Float64Histogram {
	h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return h
}

// Get returns the global AppMetrics. Without a prior InitAppMetrics call the
// instruments bind to whatever provider is current (a no-op one in tests).
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
