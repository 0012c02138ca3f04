// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package classify

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("depgraph.classify")
	meter  = otel.Meter("depgraph.classify")
)

var (
	classifyLatency metric.Float64Histogram
	entryPoints     metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		classifyLatency, err = meter.Float64Histogram(
			"depgraph_classify_duration_seconds",
			metric.WithDescription("Duration of node classification"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		entryPoints, err = meter.Int64Histogram(
			"depgraph_classify_entry_points",
			metric.WithDescription("Entry points found per classification"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

func recordClassifyMetrics(ctx context.Context, d time.Duration, entries int) {
	if err := initMetrics(); err != nil {
		return
	}
	classifyLatency.Record(ctx, d.Seconds())
	entryPoints.Record(ctx, int64(entries))
}

func startClassifySpan(ctx context.Context, nodes int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "depgraph.classify",
		trace.WithAttributes(attribute.Int("graph.node_count", nodes)),
	)
}

func setClassifySpanResult(span trace.Span, workers, entries int) {
	span.SetAttributes(
		attribute.Int("classify.workers", workers),
		attribute.Int("classify.entry_points", entries),
	)
}
