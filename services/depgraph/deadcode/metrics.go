// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package deadcode

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
	tracer = otel.Tracer("depgraph.deadcode")
	meter  = otel.Meter("depgraph.deadcode")
)

var (
	resolveLatency metric.Float64Histogram
	resolvePasses  metric.Int64Histogram
	capHits        metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		resolveLatency, err = meter.Float64Histogram(
			"depgraph_resolve_duration_seconds",
			metric.WithDescription("Duration of dead code resolution"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		resolvePasses, err = meter.Int64Histogram(
			"depgraph_resolve_passes",
			metric.WithDescription("Propagation passes per resolution"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		capHits, err = meter.Int64Counter(
			"depgraph_resolve_iteration_cap_total",
			metric.WithDescription("Resolutions stopped by the iteration cap"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

func recordResolveMetrics(ctx context.Context, d time.Duration, res *Result) {
	if err := initMetrics(); err != nil {
		return
	}
	resolveLatency.Record(ctx, d.Seconds())
	resolvePasses.Record(ctx, int64(res.IterationsUsed))
	if res.HitIterationCap {
		capHits.Add(ctx, 1)
	}
}

func startResolveSpan(ctx context.Context, nodes, maxIter int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "depgraph.resolve",
		trace.WithAttributes(
			attribute.Int("graph.node_count", nodes),
			attribute.Int("resolve.max_iterations", maxIter),
		),
	)
}

func setResolveSpanResult(span trace.Span, res *Result) {
	span.SetAttributes(
		attribute.Int("resolve.dead_count", len(res.Dead)),
		attribute.Int("resolve.iterations_used", res.IterationsUsed),
		attribute.Bool("resolve.converged", res.Converged),
		attribute.Bool("resolve.hit_iteration_cap", res.HitIterationCap),
		attribute.Int("resolve.pending_flips", res.PendingFlips),
	)
}
