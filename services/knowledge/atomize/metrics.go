// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package atomize

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for atomization.
var (
	tracer = otel.Tracer("corpusgraph.atomize")
	meter  = otel.Meter("corpusgraph.atomize")
)

var (
	atomizeLatency metric.Float64Histogram
	atomizeTotal   metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		atomizeLatency, err = meter.Float64Histogram(
			"atomize_duration_seconds",
			metric.WithDescription("Duration of single-file atomization"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		atomizeTotal, err = meter.Int64Counter(
			"atomize_total",
			metric.WithDescription("Total atomization attempts by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startAtomizeSpan starts a span for one file's atomization.
func startAtomizeSpan(ctx context.Context, relPath string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "atomize.file",
		trace.WithAttributes(attribute.String("file.path", relPath)),
	)
}

// recordAtomize records latency and outcome for one atomization attempt.
func recordAtomize(ctx context.Context, d time.Duration, ok bool) {
	if initMetrics() != nil {
		return
	}
	outcome := "atom"
	if !ok {
		outcome = "skip"
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	atomizeLatency.Record(ctx, d.Seconds(), attrs)
	atomizeTotal.Add(ctx, 1, attrs)
}
