package router

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/megannnn98/transport-catalogue/internal/router"

// Query outcomes recorded on transit.route.queries.
const (
	outcomeFound    = "found"
	outcomeNoRoute  = "no_route"
	outcomeSameStop = "same_stop"
	outcomeCached   = "cached"
)

type metrics struct {
	buildDuration metric.Float64Histogram
	queries       metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	meter := otel.Meter(meterName)

	buildDuration, err := meter.Float64Histogram(
		"transit.graph.build.duration",
		metric.WithDescription("Duration of routing graph builds in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	queries, err := meter.Int64Counter(
		"transit.route.queries",
		metric.WithDescription("Total number of route queries by outcome"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, err
	}

	return &metrics{buildDuration: buildDuration, queries: queries}, nil
}

func (m *metrics) recordBuild(ctx context.Context, d time.Duration) {
	m.buildDuration.Record(ctx, d.Seconds())
}

func (m *metrics) recordQuery(ctx context.Context, outcome string) {
	m.queries.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
