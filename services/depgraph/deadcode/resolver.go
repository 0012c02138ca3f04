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
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/depgraph/services/depgraph/graph"
)

// parallelThreshold is the frontier size below which a pass is evaluated
// on the calling goroutine even when Workers > 1.
const parallelThreshold = 64

// Resolve marks dead nodes by fixpoint iteration.
//
// # Description
//
// Pass 0 marks every node with no dependents that is neither an entry
// point nor external. Each later pass evaluates the live dependencies of
// the nodes marked by the previous pass and marks those whose dependents
// are all dead. Only those nodes can change state, so this is equivalent
// to re-evaluating every node.
//
// Every pass reads a consistent snapshot: proposed marks are collected
// first and applied together once the pass is complete. With Workers > 1
// the frontier is split into contiguous chunks evaluated concurrently,
// which still only read the snapshot.
//
// Marks are never removed, so the number of dead nodes grows strictly
// with every productive pass and iteration terminates. When
// MaxIterations passes all made progress, a read-only probe counts what
// a further pass would mark and reports it as PendingFlips.
//
// # Inputs
//
//   - ctx: Checked between passes.
//   - ix: The dependents index.
//   - isEntry: Entry-point lookup. Entry points are never marked. May be nil.
//   - opts: Iteration cap and parallelism.
//
// # Outputs
//
//   - *Result: Dead set and resolution metadata.
//   - error: ErrInvalidOptions, or ctx.Err() if cancelled.
//
// # Thread Safety
//
// Safe for concurrent use with distinct or shared indexes.
func Resolve(ctx context.Context, ix *graph.Index, isEntry func(id string) bool, opts Options) (*Result, error) {
	if opts.MaxIterations < 0 || opts.Workers < 0 {
		return nil, fmt.Errorf("%w: max_iterations=%d workers=%d",
			ErrInvalidOptions, opts.MaxIterations, opts.Workers)
	}
	maxIter := opts.MaxIterations
	if maxIter == 0 {
		maxIter = DefaultMaxIterations
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, span := startResolveSpan(ctx, ix.Len(), maxIter)
	defer span.End()
	start := time.Now()

	r := &resolver{
		ix:      ix,
		isEntry: isEntry,
		dead:    make(map[string]bool),
		workers: max(opts.Workers, 1),
	}
	res := &Result{
		Dead:          r.dead,
		Reason:        make(map[string]Reason),
		DeadPass:      make(map[string]int),
		MaxIterations: maxIter,
	}
	notify := func(pass int) {
		if opts.Observer != nil {
			opts.Observer(pass, r.dead)
		}
	}

	var initial []string
	for _, id := range ix.IDs() {
		if !r.exempt(id) && ix.DependentCount(id) == 0 {
			initial = append(initial, id)
		}
	}
	r.apply(res, 0, initial, ReasonNoDependents)
	notify(0)

	frontier := r.frontier(initial)
	for pass := 1; pass <= maxIter; pass++ {
		if len(frontier) == 0 {
			res.Converged = true
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		flips, err := r.evaluate(ctx, frontier)
		if err != nil {
			return nil, err
		}
		res.IterationsUsed = pass
		if len(flips) == 0 {
			res.Converged = true
			break
		}

		r.apply(res, pass, flips, ReasonAllDependentsDead)
		notify(pass)
		logger.Debug("dead code pass complete",
			slog.Int("pass", pass),
			slog.Int("evaluated", len(frontier)),
			slog.Int("flipped", len(flips)),
		)
		frontier = r.frontier(flips)
	}

	if !res.Converged {
		if len(frontier) > 0 {
			pending, err := r.evaluate(ctx, frontier)
			if err != nil {
				return nil, err
			}
			res.PendingFlips = len(pending)
		}
		if res.PendingFlips == 0 {
			res.Converged = true
		} else {
			res.HitIterationCap = true
			logger.Warn("dead code resolution hit iteration cap",
				slog.Int("max_iterations", maxIter),
				slog.Int("pending_flips", res.PendingFlips),
			)
		}
	}

	setResolveSpanResult(span, res)
	recordResolveMetrics(ctx, time.Since(start), res)
	return res, nil
}

// resolver holds the mutable state of one Resolve call.
type resolver struct {
	ix      *graph.Index
	isEntry func(string) bool
	dead    map[string]bool
	workers int
}

// exempt reports whether id can never be marked dead.
func (r *resolver) exempt(id string) bool {
	if r.ix.IsExternal(id) {
		return true
	}
	return r.isEntry != nil && r.isEntry(id)
}

func (r *resolver) apply(res *Result, pass int, ids []string, reason Reason) {
	for _, id := range ids {
		r.dead[id] = true
		res.Reason[id] = reason
		res.DeadPass[id] = pass
	}
	res.Passes = append(res.Passes, PassStat{Pass: pass, Flipped: len(ids)})
}

// frontier returns the live, non-exempt dependencies of the given nodes,
// sorted and without duplicates.
func (r *resolver) frontier(flipped []string) []string {
	seen := make(graph.IDSet)
	for _, id := range flipped {
		for _, dep := range r.ix.Dependencies(id) {
			if seen.Has(dep) || !r.ix.Has(dep) || r.dead[dep] || r.exempt(dep) {
				continue
			}
			seen.Add(dep)
		}
	}
	return seen.Sorted()
}

// evaluate returns the members of frontier whose dependents are all dead.
// It only reads r.dead.
func (r *resolver) evaluate(ctx context.Context, frontier []string) ([]string, error) {
	if r.workers == 1 || len(frontier) < parallelThreshold {
		return r.evaluateRange(frontier), nil
	}

	chunk := (len(frontier) + r.workers - 1) / r.workers
	parts := make([][]string, (len(frontier)+chunk-1)/chunk)
	g, gctx := errgroup.WithContext(ctx)
	for i := range parts {
		lo, hi := i*chunk, min((i+1)*chunk, len(frontier))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parts[i] = r.evaluateRange(frontier[lo:hi])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var flips []string
	for _, p := range parts {
		flips = append(flips, p...)
	}
	return flips, nil
}

func (r *resolver) evaluateRange(ids []string) []string {
	var out []string
	for _, id := range ids {
		if r.allDependentsDead(id) {
			out = append(out, id)
		}
	}
	return out
}

func (r *resolver) allDependentsDead(id string) bool {
	deps := r.ix.Dependents(id)
	if len(deps) == 0 {
		return false
	}
	for _, d := range deps {
		if !r.dead[d] {
			return false
		}
	}
	return true
}
