// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine runs the depgraph analysis pipeline.
//
// Stages run leaf-first on one immutable snapshot each:
//
//	raw graph -> graph.Index -> classify -> deadcode -> report
//
// Every Analyze call builds a fresh run context carrying the run id, the
// logger and the stage options. Nothing is shared between runs except the
// immutable classifier and assembler compiled by New.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/depgraph/services/depgraph/classify"
	"github.com/AleutianAI/depgraph/services/depgraph/config"
	"github.com/AleutianAI/depgraph/services/depgraph/deadcode"
	"github.com/AleutianAI/depgraph/services/depgraph/graph"
	"github.com/AleutianAI/depgraph/services/depgraph/report"
	"github.com/AleutianAI/depgraph/services/depgraph/telemetry"
)

var (
	// ErrNilContext is returned when Analyze is called with a nil context.
	ErrNilContext = errors.New("engine: nil context")

	// ErrNilConfig is returned when New is called without a configuration.
	ErrNilConfig = errors.New("engine: nil config")
)

// Engine analyses raw graphs with one fixed configuration.
//
// # Thread Safety
//
// Safe for concurrent use. Concurrent Analyze calls share nothing mutable.
type Engine struct {
	cfg          *config.Config
	classifier   *classify.Classifier
	assembler    *report.Assembler
	packageOrder []string
	logger       *slog.Logger
}

// New validates cfg and compiles the classifier and assembler.
//
// # Inputs
//
//   - cfg: Configuration. Copied; later changes by the caller have no effect.
//   - logger: Base logger. Nil means slog.Default().
//
// # Outputs
//
//   - *Engine: Ready engine.
//   - error: ErrNilConfig, or config.ErrInvalidConfig (wrapped).
func New(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	classifier, err := classify.New(cfg.ClassifyOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	assembler, err := report.NewAssembler(cfg.ReportOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	order := append(classifier.PackageLabels(), classifier.DefaultPackage(), classifier.ExternalPackage())

	return &Engine{
		cfg:          cfg,
		classifier:   classifier,
		assembler:    assembler,
		packageOrder: order,
		logger:       logger.With(slog.String("component", "engine")),
	}, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *config.Config { return e.cfg.Clone() }

// runContext is the per-analysis state passed through the stages.
// It is built by Analyze and discarded when the call returns.
type runContext struct {
	ID        string
	StartedAt time.Time
	Logger    *slog.Logger

	indexOpts    graph.IndexOptions
	deadCodeOpts deadcode.Options
}

func (e *Engine) newRun(ctx context.Context) *runContext {
	id := uuid.NewString()
	logger := telemetry.LoggerWithTrace(ctx, e.logger.With(slog.String("run_id", id)))
	dc := e.cfg.DeadCodeOptions()
	dc.Logger = logger
	return &runContext{
		ID:           id,
		StartedAt:    time.Now(),
		Logger:       logger,
		indexOpts:    e.cfg.IndexOptions(),
		deadCodeOpts: dc,
	}
}

// Result is the outcome of one Analyze call.
//
// Report is deterministic for a given graph and configuration. The run
// metadata beside it is not.
type Result struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Report    *report.Report
}

// Analyze runs the full pipeline over raw.
//
// # Description
//
// Builds the dependents index, classifies every node, resolves dead code,
// annotates unrooted cycles and assembles the report. Data problems never
// fail a run; they surface as report warnings. raw is not modified.
//
// # Outputs
//
//   - *Result: Report plus run metadata.
//   - error: ErrNilContext, or the context error if ctx is cancelled
//     between stages or passes.
func (e *Engine) Analyze(ctx context.Context, raw graph.Raw) (*Result, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	ctx, span := tracer.Start(ctx, "depgraph.Analyze",
		trace.WithAttributes(attribute.Int("graph.declared_nodes", len(raw))),
	)
	defer span.End()

	run := e.newRun(ctx)
	span.SetAttributes(attribute.String("depgraph.run_id", run.ID))
	run.Logger.Debug("analysis started", slog.Int("declared_nodes", len(raw)))

	rep, err := e.analyze(ctx, run, raw)
	elapsed := time.Since(run.StartedAt)
	if err != nil {
		telemetry.RecordError(span, err)
		recordRunMetrics(ctx, elapsed, len(raw), "error")
		run.Logger.Warn("analysis aborted", slog.String("error", err.Error()))
		return nil, err
	}

	recordRunMetrics(ctx, elapsed, rep.Summary.Nodes, "ok")
	for _, w := range rep.Warnings {
		run.Logger.Warn("analysis degraded",
			slog.String("code", w.Code),
			slog.Int("count", w.Count),
		)
	}
	run.Logger.Info("analysis complete",
		slog.Int("nodes", rep.Summary.Nodes),
		slog.Int("dead", rep.Summary.Dead),
		slog.Int("hotspots", rep.Summary.Hotspots),
		slog.Duration("duration", elapsed),
	)

	return &Result{
		RunID:     run.ID,
		StartedAt: run.StartedAt,
		Duration:  elapsed,
		Report:    rep,
	}, nil
}

func (e *Engine) analyze(ctx context.Context, run *runContext, raw graph.Raw) (*report.Report, error) {
	ix := graph.BuildIndexContext(ctx, raw, run.indexOpts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	classes, err := e.classifier.ClassifyIndex(ctx, ix)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	roots := make([]string, 0)
	for id, c := range classes {
		if c.IsEntryPoint {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	isEntry := func(id string) bool { return classes[id].IsEntryPoint }

	dead, err := deadcode.Resolve(ctx, ix, isEntry, run.deadCodeOpts)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}

	cycles := ix.UnrootedCycles(roots, dead.IsDead)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return e.assembler.Assemble(ctx, report.Input{
		Index:          ix,
		Classes:        classes,
		Dead:           dead,
		UnrootedCycles: cycles,
		PackageOrder:   e.packageOrder,
	})
}
