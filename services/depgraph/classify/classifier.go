// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package classify

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/depgraph/services/depgraph/graph"
)

const (
	// parallelThreshold is the node count below which ClassifyIndex runs
	// on the calling goroutine.
	parallelThreshold = 512

	// maxWorkers caps the number of classification goroutines.
	maxWorkers = 16
)

// Options configures a Classifier.
//
// # Fields
//
//   - PackageRules: Ordered prefix rules; the first matching prefix wins.
//   - DefaultPackage: Label for ids no rule matches (default "other").
//   - ExternalPackage: Label for external nodes (default "external").
//   - EntryPoints: Ordered entry-point rules; any match marks an entry point.
//   - Thresholds: Blast-radius tier boundaries.
//   - Workers: Goroutines for ClassifyIndex. 0 means GOMAXPROCS, capped at 16.
type Options struct {
	PackageRules    []PackageRule
	DefaultPackage  string
	ExternalPackage string
	EntryPoints     []EntryPointRule
	Thresholds      Thresholds
	Workers         int
}

// DefaultOptions returns options with no package rules, the default
// entry-point conventions and the default thresholds.
func DefaultOptions() Options {
	return Options{
		DefaultPackage:  "other",
		ExternalPackage: "external",
		EntryPoints:     DefaultEntryPointRules(),
		Thresholds:      DefaultThresholds(),
	}
}

// Classification is the per-node output of the Classifier.
type Classification struct {
	Package      string
	BlastRadius  BlastRadius
	IsEntryPoint bool
	EntryRule    string
}

// Classifier applies package rules, entry-point rules and blast-radius
// thresholds to node ids.
//
// # Thread Safety
//
// Immutable after New; safe for concurrent use.
type Classifier struct {
	packages        []PackageRule
	defaultPackage  string
	externalPackage string
	entries         []entryMatcher
	thresholds      Thresholds
	workers         int
}

// New validates opts and returns a Classifier.
//
// # Outputs
//
//   - *Classifier: Ready to use.
//   - error: ErrInvalidPattern, ErrInvalidThresholds or ErrInvalidPackageRule (wrapped).
func New(opts Options) (*Classifier, error) {
	if err := opts.Thresholds.Validate(); err != nil {
		return nil, err
	}

	c := &Classifier{
		packages:        make([]PackageRule, 0, len(opts.PackageRules)),
		defaultPackage:  opts.DefaultPackage,
		externalPackage: opts.ExternalPackage,
		entries:         make([]entryMatcher, 0, len(opts.EntryPoints)),
		thresholds:      opts.Thresholds,
		workers:         opts.Workers,
	}
	if c.defaultPackage == "" {
		c.defaultPackage = "other"
	}
	if c.externalPackage == "" {
		c.externalPackage = "external"
	}
	if c.workers <= 0 {
		c.workers = runtime.GOMAXPROCS(0)
	}
	if c.workers > maxWorkers {
		c.workers = maxWorkers
	}

	for i, r := range opts.PackageRules {
		if r.Label == "" {
			return nil, fmt.Errorf("%w: rule %d (prefix %q) has no label", ErrInvalidPackageRule, i, r.Prefix)
		}
		c.packages = append(c.packages, r)
	}
	for _, r := range opts.EntryPoints {
		m, err := compileEntryRule(r)
		if err != nil {
			return nil, err
		}
		c.entries = append(c.entries, m)
	}
	return c, nil
}

// Package returns the label of the first package rule whose prefix id
// starts with, or the default label.
func (c *Classifier) Package(id string) string {
	for _, r := range c.packages {
		if strings.HasPrefix(id, r.Prefix) {
			return r.Label
		}
	}
	return c.defaultPackage
}

// EntryPoint reports whether id matches an entry-point rule, and the name
// of the first rule that did.
func (c *Classifier) EntryPoint(id string) (string, bool) {
	base := baseName(id)
	for _, m := range c.entries {
		if m.match(id, base) {
			return m.name, true
		}
	}
	return "", false
}

// Classify derives the classification of a declared node from its id and
// dependents count.
func (c *Classifier) Classify(id string, dependentCount int) Classification {
	rule, entry := c.EntryPoint(id)
	return Classification{
		Package:      c.Package(id),
		BlastRadius:  c.thresholds.Tier(dependentCount),
		IsEntryPoint: entry,
		EntryRule:    rule,
	}
}

// ClassifyExternal classifies an external node. Only the blast radius is
// derived; external nodes are never matched against rules.
func (c *Classifier) ClassifyExternal(dependentCount int) Classification {
	return Classification{
		Package:     c.externalPackage,
		BlastRadius: c.thresholds.Tier(dependentCount),
	}
}

// ExternalPackage returns the label given to external nodes.
func (c *Classifier) ExternalPackage() string { return c.externalPackage }

// DefaultPackage returns the label given to ids no rule matches.
func (c *Classifier) DefaultPackage() string { return c.defaultPackage }

// PackageLabels returns the configured rule labels in rule order, without
// duplicates.
func (c *Classifier) PackageLabels() []string {
	seen := make(map[string]bool, len(c.packages))
	out := make([]string, 0, len(c.packages))
	for _, r := range c.packages {
		if !seen[r.Label] {
			seen[r.Label] = true
			out = append(out, r.Label)
		}
	}
	return out
}

// ClassifyIndex classifies every node of ix.
//
// # Description
//
// Nodes are split into contiguous chunks, one per worker, and each worker
// writes only its own slots of the result slice. Small indexes are
// classified sequentially.
//
// # Inputs
//
//   - ctx: Cancellation is checked between chunks.
//   - ix: The dependents index.
//
// # Outputs
//
//   - map[string]Classification: One entry per node of ix.
//   - error: ctx.Err() if cancelled.
func (c *Classifier) ClassifyIndex(ctx context.Context, ix *graph.Index) (map[string]Classification, error) {
	ctx, span := startClassifySpan(ctx, ix.Len())
	defer span.End()
	start := time.Now()

	ids := ix.IDs()
	results := make([]Classification, len(ids))

	classifyRange := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			id := ids[i]
			if ix.IsExternal(id) {
				results[i] = c.ClassifyExternal(ix.DependentCount(id))
				continue
			}
			results[i] = c.Classify(id, ix.DependentCount(id))
		}
	}

	workers := c.workers
	if len(ids) < parallelThreshold {
		workers = 1
	}

	if workers == 1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		classifyRange(0, len(ids))
	} else {
		g, gctx := errgroup.WithContext(ctx)
		chunk := (len(ids) + workers - 1) / workers
		for lo := 0; lo < len(ids); lo += chunk {
			lo, hi := lo, min(lo+chunk, len(ids))
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				classifyRange(lo, hi)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	out := make(map[string]Classification, len(ids))
	entries := 0
	for i, id := range ids {
		out[id] = results[i]
		if results[i].IsEntryPoint {
			entries++
		}
	}

	setClassifySpanResult(span, workers, entries)
	recordClassifyMetrics(ctx, time.Since(start), entries)
	return out, nil
}
