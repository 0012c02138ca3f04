// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package depgraph exposes the dependency-graph engine over HTTP.
//
// The service is glue: it decodes a raw graph, runs the engine, caches
// the encoded report by content, and wraps it in a response envelope. All
// analysis semantics live in the engine and its stage packages.
package depgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/depgraph/services/depgraph/config"
	"github.com/AleutianAI/depgraph/services/depgraph/engine"
	"github.com/AleutianAI/depgraph/services/depgraph/graph"
	"github.com/AleutianAI/depgraph/services/depgraph/report"
	"github.com/AleutianAI/depgraph/services/depgraph/storage/badger"
)

// ServiceVersion is the depgraph service version.
const ServiceVersion = "0.1.0"

// ServiceConfig configures the HTTP service.
type ServiceConfig struct {
	// MaxBodyBytes bounds analyze request bodies.
	// Default: graph.MaxGraphBytes
	MaxBodyBytes int64

	// AnalyzeTimeout bounds one analysis run.
	// Default: 30s
	AnalyzeTimeout time.Duration

	// RateLimit is the sustained request rate per second. 0 disables limiting.
	// Default: 20
	RateLimit float64

	// RateBurst is the token bucket size.
	// Default: 40
	RateBurst int
}

// DefaultServiceConfig returns sensible defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxBodyBytes:   graph.MaxGraphBytes,
		AnalyzeTimeout: 30 * time.Second,
		RateLimit:      20,
		RateBurst:      40,
	}
}

// Service runs analyses and caches their reports.
//
// # Thread Safety
//
// Safe for concurrent use.
type Service struct {
	engine *engine.Engine
	cache  *badger.ResultCache
	cfg    *config.Config
	opts   ServiceConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a service around eng.
//
// # Inputs
//
//   - eng: The analysis engine. Required.
//   - cache: Report cache. Nil disables caching.
//   - opts: Service options.
//   - logger: Nil means slog.Default().
func NewService(eng *engine.Engine, cache *badger.ResultCache, opts ServiceConfig, logger *slog.Logger) (*Service, error) {
	if eng == nil {
		return nil, ErrNilEngine
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engine: eng,
		cache:  cache,
		cfg:    eng.Config(),
		opts:   opts,
		logger: logger.With(slog.String("component", "service")),
		now:    time.Now,
	}, nil
}

// Config returns a copy of the effective analysis configuration.
func (s *Service) Config() *config.Config { return s.cfg.Clone() }

// CacheEnabled reports whether a result cache is attached.
func (s *Service) CacheEnabled() bool { return s.cache != nil }

// Analyze runs the engine on raw, or serves the report from the cache.
//
// # Description
//
// The cache key covers the canonical graph and the canonical
// configuration, so any change to either misses. Cache failures are
// logged and never fail the request.
//
// # Outputs
//
//   - *AnalyzeResponse: Envelope with a fresh run id.
//   - error: Context errors from the engine.
func (s *Service) Analyze(ctx context.Context, raw graph.Raw) (*AnalyzeResponse, error) {
	start := s.now()
	if s.opts.AnalyzeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.AnalyzeTimeout)
		defer cancel()
	}

	key := s.cacheKey(raw)
	if rep, ok := s.lookup(ctx, key); ok {
		return &AnalyzeResponse{
			RunID:       uuid.NewString(),
			GeneratedAt: start.UTC(),
			Cached:      true,
			DurationMs:  s.now().Sub(start).Milliseconds(),
			Report:      rep,
		}, nil
	}

	res, err := s.engine.Analyze(ctx, raw)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, res.Report)

	return &AnalyzeResponse{
		RunID:       res.RunID,
		GeneratedAt: res.StartedAt.UTC(),
		DurationMs:  res.Duration.Milliseconds(),
		Report:      res.Report,
	}, nil
}

func (s *Service) cacheKey(raw graph.Raw) string {
	if s.cache == nil {
		return ""
	}
	key, err := badger.Key(raw.Canonical, s.cfg.WriteYAML)
	if err != nil {
		s.logger.Warn("cache key failed", slog.String("error", err.Error()))
		return ""
	}
	return key
}

func (s *Service) lookup(ctx context.Context, key string) (*report.Report, bool) {
	if key == "" {
		return nil, false
	}
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache read failed", slog.String("error", err.Error()))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		s.logger.Warn("cached report unreadable", slog.String("error", err.Error()))
		return nil, false
	}
	return &rep, true
}

func (s *Service) store(ctx context.Context, key string, rep *report.Report) {
	if key == "" {
		return
	}
	data, err := encodeReport(rep)
	if err == nil {
		err = s.cache.Put(ctx, key, data)
	}
	if err != nil {
		s.logger.Warn("cache write failed", slog.String("error", err.Error()))
	}
}

func encodeReport(rep *report.Report) ([]byte, error) {
	data, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return data, nil
}
