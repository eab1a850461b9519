// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for edge building.
var (
	tracer = otel.Tracer("corpusgraph.graph")
	meter  = otel.Meter("corpusgraph.graph")
)

var (
	buildLatency metric.Float64Histogram
	edgesBuilt   metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"graph_build_duration_seconds",
			metric.WithDescription("Duration of relationship graph builds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		edgesBuilt, err = meter.Int64Histogram(
			"graph_edges_built",
			metric.WithDescription("Edges produced per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func startBuildSpan(ctx context.Context, atomCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "graph.build",
		trace.WithAttributes(attribute.Int("atoms", atomCount)),
	)
}

func setBuildSpanResult(span trace.Span, edgeCount int) {
	span.SetAttributes(attribute.Int("edges", edgeCount))
}

func recordBuildMetrics(ctx context.Context, d time.Duration, atomCount, edgeCount int) {
	if initMetrics() != nil {
		return
	}
	buildLatency.Record(ctx, d.Seconds())
	edgesBuilt.Record(ctx, int64(edgeCount),
		metric.WithAttributes(attribute.Int("atoms", atomCount)))
}
