// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package depgraph

import (
	"time"

	"github.com/AleutianAI/depgraph/services/depgraph/config"
	"github.com/AleutianAI/depgraph/services/depgraph/graph"
	"github.com/AleutianAI/depgraph/services/depgraph/report"
)

// AnalyzeRequest is the body of POST /v1/depgraph/analyze.
type AnalyzeRequest struct {
	// Graph maps each node id to the ids it references directly.
	Graph graph.Raw `json:"graph"`

	// Format selects the response encoding: "json" (default) or "yaml".
	Format string `json:"format,omitempty"`
}

// AnalyzeResponse wraps the deterministic report with run metadata.
type AnalyzeResponse struct {
	RunID       string         `json:"runId" yaml:"runId"`
	GeneratedAt time.Time      `json:"generatedAt" yaml:"generatedAt"`
	Cached      bool           `json:"cached" yaml:"cached"`
	DurationMs  int64          `json:"durationMs" yaml:"durationMs"`
	Report      *report.Report `json:"report" yaml:"report"`
}

// HealthResponse is the body of GET /v1/depgraph/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Cache   string `json:"cache"`
}

// ConfigResponse is the body of GET /v1/depgraph/config.
type ConfigResponse struct {
	Config *config.Config `json:"config"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the machine-readable error code.
	Code string `json:"code,omitempty"`

	// RequestID echoes the request id for log correlation.
	RequestID string `json:"requestId,omitempty"`
}
