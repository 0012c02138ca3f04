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
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/depgraph/services/depgraph/telemetry"
)

// RegisterRoutes registers the /depgraph endpoints on rg.
//
// # Endpoints
//
//	POST /v1/depgraph/analyze - Analyze a posted graph
//	GET  /v1/depgraph/health  - Health check
//	GET  /v1/depgraph/config  - Effective analysis configuration
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers, opts ServiceConfig) {
	dg := rg.Group("/depgraph")
	{
		dg.POST("/analyze", MaxBodyBytes(opts.MaxBodyBytes), handlers.HandleAnalyze)
		dg.GET("/health", handlers.HandleHealth)
		dg.GET("/config", handlers.HandleConfig)
	}
}

// NewRouter builds the complete gin engine for svc.
//
// Middleware order: recovery, tracing, request id, rate limit. /metrics is
// mounted when the prometheus exporter is installed and is never rate
// limited.
func NewRouter(svc *Service, handlers *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("depgraph"))
	router.Use(RequestID())

	if h := telemetry.MetricsHandler(); h != nil {
		router.GET("/metrics", gin.WrapH(h))
	}

	var limiter *rate.Limiter
	if svc.opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(svc.opts.RateLimit), max(svc.opts.RateBurst, 1))
	}
	v1 := router.Group("/v1", RateLimit(limiter))
	RegisterRoutes(v1, handlers, svc.opts)
	return router
}
