// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry wires the OpenTelemetry SDK for depgraph.
//
// The analysis packages only talk to the global otel.Tracer and otel.Meter.
// Init installs the providers behind them; until it is called every span
// and instrument is a no-op.
//
// # Exporters
//
// Traces: otlp (gRPC), stdout, or none. Metrics: prometheus, stdout, or
// none. With prometheus, MetricsHandler returns the handler the HTTP
// server mounts at /metrics.
//
// # Environment Variables
//
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint (default: localhost:4317)
//   - OTEL_TRACES_EXPORTER: otlp, stdout, or none (default: none)
//   - OTEL_METRICS_EXPORTER: prometheus, stdout, or none (default: prometheus)
//   - DEPGRAPH_ENV: environment name (default: development)
//
// # Thread Safety
//
// Init must be called once at startup. Everything else is safe for
// concurrent use.
package telemetry

import "errors"

var (
	// ErrNilContext is returned when Init is called with a nil context.
	ErrNilContext = errors.New("telemetry: nil context")

	// ErrUnknownExporter is returned for an exporter name Init does not support.
	ErrUnknownExporter = errors.New("unknown exporter type")
)
