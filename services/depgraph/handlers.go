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
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/depgraph/services/depgraph/report"
)

// Handlers contains the HTTP handlers for the depgraph service.
type Handlers struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{svc: svc, logger: logger}
}

// HandleAnalyze handles POST /v1/depgraph/analyze.
//
// # Description
//
// Runs the full analysis on the posted graph. The response is the
// AnalyzeResponse envelope encoded as JSON or YAML, or the plain text
// summary of the report for format "text".
//
// # Response
//
//	200 OK: AnalyzeResponse
//	400 Bad Request: Malformed body, missing graph, unknown format
//	413 Request Entity Too Large: Body over the configured limit
//	504 Gateway Timeout: Analysis exceeded the timeout
//	500 Internal Server Error: Anything else
func (h *Handlers) HandleAnalyze(c *gin.Context) {
	requestID := RequestIDFrom(c)
	logger := h.logger.With(slog.String("request_id", requestID), slog.String("handler", "HandleAnalyze"))

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, CodeRequestTooLarge, err)
			return
		}
		logger.Warn("invalid request body", slog.String("error", err.Error()))
		abortWithError(c, http.StatusBadRequest, CodeInvalidRequest, err)
		return
	}
	if req.Graph == nil {
		abortWithError(c, http.StatusBadRequest, CodeInvalidRequest, ErrMissingGraph)
		return
	}
	format, err := report.ParseFormat(req.Format)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, CodeInvalidFormat, err)
		return
	}

	resp, err := h.svc.Analyze(c.Request.Context(), req.Graph)
	if err != nil {
		status, code := http.StatusInternalServerError, CodeAnalysisFailed
		if errors.Is(err, context.DeadlineExceeded) {
			status, code = http.StatusGatewayTimeout, CodeTimeout
		}
		logger.Error("analysis failed", slog.String("error", err.Error()))
		abortWithError(c, status, code, err)
		return
	}

	logger.Info("analysis served",
		slog.String("run_id", resp.RunID),
		slog.Bool("cached", resp.Cached),
		slog.Int("nodes", resp.Report.Summary.Nodes),
		slog.Int64("duration_ms", resp.DurationMs),
	)

	var body any = resp
	if format == report.FormatText {
		body = resp.Report
	}
	var buf bytes.Buffer
	if err := report.Encode(&buf, body, format); err != nil {
		logger.Error("encoding response", slog.String("error", err.Error()))
		abortWithError(c, http.StatusInternalServerError, CodeAnalysisFailed, err)
		return
	}
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// HandleHealth handles GET /v1/depgraph/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	cache := "disabled"
	if h.svc.CacheEnabled() {
		cache = "enabled"
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
		Cache:   cache,
	})
}

// HandleConfig handles GET /v1/depgraph/config.
func (h *Handlers) HandleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, ConfigResponse{Config: h.svc.Config()})
}

func abortWithError(c *gin.Context, status int, code string, err error) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     err.Error(),
		Code:      code,
		RequestID: RequestIDFrom(c),
	})
}
