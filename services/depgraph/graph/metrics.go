// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

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

// Package-level tracer and meter for index operations.
var (
	tracer = otel.Tracer("depgraph.graph")
	meter  = otel.Meter("depgraph.graph")
)

var (
	indexLatency metric.Float64Histogram
	indexNodes   metric.Int64Histogram
	indexEdges   metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		indexLatency, err = meter.Float64Histogram(
			"depgraph_index_duration_seconds",
			metric.WithDescription("Duration of dependents index construction"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		indexNodes, err = meter.Int64Histogram(
			"depgraph_index_nodes",
			metric.WithDescription("Number of nodes per built index"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		indexEdges, err = meter.Int64Histogram(
			"depgraph_index_edges",
			metric.WithDescription("Number of supplied edges per built index"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordIndexMetrics(ctx context.Context, duration time.Duration, nodeCount, edgeCount int) {
	if err := initMetrics(); err != nil {
		return
	}
	indexLatency.Record(ctx, duration.Seconds())
	indexNodes.Record(ctx, int64(nodeCount))
	indexEdges.Record(ctx, int64(edgeCount))
}

func startIndexSpan(ctx context.Context, declared int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "depgraph.index",
		trace.WithAttributes(attribute.Int("graph.declared_nodes", declared)),
	)
}

func setIndexSpanResult(span trace.Span, nodeCount, edgeCount, externalCount int) {
	span.SetAttributes(
		attribute.Int("graph.node_count", nodeCount),
		attribute.Int("graph.edge_count", edgeCount),
		attribute.Int("graph.external_count", externalCount),
	)
}
