// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("depgraph.engine")
	meter  = otel.Meter("depgraph.engine")
)

var (
	runDuration metric.Float64Histogram
	runNodes    metric.Int64Histogram
	runsTotal   metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		runDuration, err = meter.Float64Histogram(
			"depgraph_run_duration_seconds",
			metric.WithDescription("Duration of a full analysis run"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		runNodes, err = meter.Int64Histogram(
			"depgraph_run_nodes",
			metric.WithDescription("Number of nodes analysed per run"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		runsTotal, err = meter.Int64Counter(
			"depgraph_runs_total",
			metric.WithDescription("Analysis runs by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordRunMetrics(ctx context.Context, d time.Duration, nodes int, status string) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	runDuration.Record(ctx, d.Seconds(), attrs)
	runNodes.Record(ctx, int64(nodes))
	runsTotal.Add(ctx, 1, attrs)
}
