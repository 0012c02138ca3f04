// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/depgraph/services/depgraph/classify"
	"github.com/AleutianAI/depgraph/services/depgraph/deadcode"
	"github.com/AleutianAI/depgraph/services/depgraph/graph"
)

var tracer = otel.Tracer("depgraph.report")

// DefaultHotspotThreshold is the dependents count a node must exceed to
// be a hotspot.
const DefaultHotspotThreshold = 5

// DefaultSafePatterns returns globs for test-like ids.
func DefaultSafePatterns() []string {
	return []string{
		"**/*.test.*",
		"**/*.spec.*",
		"**/*_test.go",
		"**/__tests__/**",
		"**/__mocks__/**",
		"**/test/**",
		"**/tests/**",
		"**/fixtures/**",
	}
}

// Options configures an Assembler.
type Options struct {
	// HotspotThreshold: nodes with more dependents than this are hotspots.
	HotspotThreshold int

	// SafePatterns: doublestar globs matched against the full id. Dead
	// nodes matching any are classed safe to remove.
	SafePatterns []string
}

// DefaultOptions returns the default assembler options.
func DefaultOptions() Options {
	return Options{
		HotspotThreshold: DefaultHotspotThreshold,
		SafePatterns:     DefaultSafePatterns(),
	}
}

// Input is everything Assemble projects into a report.
//
// # Fields
//
//   - Index: The dependents index. Required.
//   - Classes: Classification per index node. Required.
//   - Dead: Resolver output. Required.
//   - UnrootedCycles: Optional cycle annotation.
//   - PackageOrder: Labels in the order Packages should list them.
type Input struct {
	Index          *graph.Index
	Classes        map[string]classify.Classification
	Dead           *deadcode.Result
	UnrootedCycles [][]string
	PackageOrder   []string
}

// Assembler builds reports. Immutable after NewAssembler.
type Assembler struct {
	hotspotThreshold int
	safePatterns     []string
}

// NewAssembler validates opts and returns an Assembler.
func NewAssembler(opts Options) (*Assembler, error) {
	for _, p := range opts.SafePatterns {
		if p == "" || !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSafePattern, p)
		}
	}
	if opts.HotspotThreshold < 0 {
		return nil, fmt.Errorf("%w: hotspot threshold %d is negative", ErrInvalidOptions, opts.HotspotThreshold)
	}
	return &Assembler{
		hotspotThreshold: opts.HotspotThreshold,
		safePatterns:     append([]string(nil), opts.SafePatterns...),
	}, nil
}

// Assemble projects the per-node facts into a Report.
//
// # Description
//
// Pure projection: reads the index, classifications and dead set, does no
// graph traversal, and never mutates its input. Every slice in the
// returned report is non-nil so that empty results encode as [] rather
// than null.
//
// # Outputs
//
//   - *Report: The assembled report.
//   - error: ErrIncompleteInput when Index, Classes or Dead is nil.
func (a *Assembler) Assemble(ctx context.Context, in Input) (*Report, error) {
	if in.Index == nil || in.Classes == nil || in.Dead == nil {
		return nil, fmt.Errorf("%w: index, classes and dead set are required", ErrIncompleteInput)
	}
	_, span := tracer.Start(ctx, "depgraph.assemble")
	defer span.End()

	ix := in.Index
	r := &Report{
		Nodes:              make(map[string]NodeRecord, ix.Len()),
		Hotspots:           []Hotspot{},
		DeadCodeCandidates: []Candidate{},
		Orphans:            []string{},
		Packages:           orderedmap.New[string, PackageStats](),
		UnrootedCycles:     [][]string{},
		ExternalTargets:    ix.ExternalTargets(),
		Warnings:           []Warning{},
	}
	for _, label := range in.PackageOrder {
		if _, ok := r.Packages.Get(label); !ok {
			r.Packages.Set(label, PackageStats{})
		}
	}

	stats := make(map[string]PackageStats)
	for _, id := range ix.IDs() {
		rec := a.record(ix, in, id)
		r.Nodes[id] = rec

		ps := stats[rec.Package]
		ps.Nodes++
		if rec.IsDead {
			ps.Dead++
			r.Summary.Dead++
			if !rec.IsExternal {
				r.DeadCodeCandidates = append(r.DeadCodeCandidates, a.candidate(rec))
			}
		}
		if rec.IsEntryPoint {
			ps.EntryPoints++
			r.Summary.EntryPoints++
		}
		if rec.IsOrphan {
			ps.Orphans++
			r.Orphans = append(r.Orphans, id)
		}
		if rec.IsHotspot {
			ps.Hotspots++
			r.Hotspots = append(r.Hotspots, Hotspot{
				ID:          id,
				Dependents:  len(rec.Dependents),
				Package:     rec.Package,
				BlastRadius: rec.BlastRadius,
			})
		}
		stats[rec.Package] = ps
	}

	// Configured labels keep their pre-seeded position; the rest follow sorted.
	extra := make([]string, 0, len(stats))
	for label := range stats {
		if _, ok := r.Packages.Get(label); !ok {
			extra = append(extra, label)
		}
	}
	sort.Strings(extra)
	for _, label := range extra {
		r.Packages.Set(label, PackageStats{})
	}
	for label, ps := range stats {
		r.Packages.Set(label, ps)
	}

	sort.Slice(r.Hotspots, func(i, j int) bool {
		if r.Hotspots[i].Dependents != r.Hotspots[j].Dependents {
			return r.Hotspots[i].Dependents > r.Hotspots[j].Dependents
		}
		return r.Hotspots[i].ID < r.Hotspots[j].ID
	})
	sort.Slice(r.DeadCodeCandidates, func(i, j int) bool {
		ci, cj := r.DeadCodeCandidates[i], r.DeadCodeCandidates[j]
		if ci.Safety != cj.Safety {
			return safetyRank(ci.Safety) < safetyRank(cj.Safety)
		}
		return ci.ID < cj.ID
	})

	for _, c := range in.UnrootedCycles {
		r.UnrootedCycles = append(r.UnrootedCycles, append([]string(nil), c...))
	}

	r.Resolution = Resolution{
		IterationsUsed:  in.Dead.IterationsUsed,
		MaxIterations:   in.Dead.MaxIterations,
		Converged:       in.Dead.Converged,
		HitIterationCap: in.Dead.HitIterationCap,
		PendingFlips:    in.Dead.PendingFlips,
		Passes:          append([]deadcode.PassStat{}, in.Dead.Passes...),
	}
	r.Summary.Nodes = ix.Len()
	r.Summary.Edges = ix.EdgeCount()
	r.Summary.ExternalTargets = len(r.ExternalTargets)
	r.Summary.Orphans = len(r.Orphans)
	r.Summary.Hotspots = len(r.Hotspots)
	r.Summary.UnrootedCycles = len(r.UnrootedCycles)
	r.Warnings = warnings(ix, r)

	span.SetAttributes(
		attribute.Int("report.nodes", r.Summary.Nodes),
		attribute.Int("report.candidates", len(r.DeadCodeCandidates)),
		attribute.Int("report.hotspots", r.Summary.Hotspots),
		attribute.Int("report.warnings", len(r.Warnings)),
	)
	return r, nil
}

func (a *Assembler) record(ix *graph.Index, in Input, id string) NodeRecord {
	cls := in.Classes[id]
	rec := NodeRecord{
		ID:             id,
		Dependencies:   append([]string{}, ix.Dependencies(id)...),
		Dependents:     append([]string{}, ix.Dependents(id)...),
		Package:        cls.Package,
		BlastRadius:    cls.BlastRadius,
		IsEntryPoint:   cls.IsEntryPoint,
		EntryPointRule: cls.EntryRule,
		IsDead:         in.Dead.IsDead(id),
		IsOrphan:       ix.IsOrphan(id),
		IsExternal:     ix.IsExternal(id),
	}
	rec.IsHotspot = len(rec.Dependents) > a.hotspotThreshold
	if rec.IsDead {
		rec.DeadReason = in.Dead.Reason[id]
		pass := in.Dead.DeadPass[id]
		rec.DeadPass = &pass
	}
	return rec
}

func (a *Assembler) candidate(rec NodeRecord) Candidate {
	return Candidate{
		ID:          rec.ID,
		Safety:      a.safety(rec),
		Package:     rec.Package,
		Reason:      rec.DeadReason,
		BlastRadius: rec.BlastRadius,
		Dependents:  len(rec.Dependents),
	}
}

// safety classes a dead node: test-like ids are safe, high blast radius is
// risky, everything else medium.
func (a *Assembler) safety(rec NodeRecord) Safety {
	id := strings.ReplaceAll(rec.ID, `\`, "/")
	for _, p := range a.safePatterns {
		if ok, _ := doublestar.Match(p, id); ok {
			return SafetySafe
		}
	}
	if rec.BlastRadius == classify.BlastHigh {
		return SafetyRisky
	}
	return SafetyMedium
}

func safetyRank(s Safety) int {
	switch s {
	case SafetySafe:
		return 0
	case SafetyMedium:
		return 1
	default:
		return 2
	}
}

func warnings(ix *graph.Index, r *Report) []Warning {
	out := []Warning{}
	if n := len(r.ExternalTargets); n > 0 {
		msg := fmt.Sprintf("%d referenced ids are not declared and were kept as external nodes", n)
		if !ix.Options().IncludeExternalTargets {
			msg = fmt.Sprintf("%d referenced ids are not declared; %d edges to them were ignored",
				n, ix.DroppedEdges())
		}
		out = append(out, Warning{Code: WarnExternalReferences, Message: msg, Count: n})
	}
	if r.Resolution.HitIterationCap {
		msg := fmt.Sprintf("dead code resolution stopped after %d passes; the next pass would mark %d more nodes",
			r.Resolution.IterationsUsed, r.Resolution.PendingFlips)
		out = append(out, Warning{Code: WarnIterationCapExceeded, Message: msg, Count: r.Resolution.PendingFlips})
	}
	if n := len(r.UnrootedCycles); n > 0 {
		out = append(out, Warning{
			Code:    WarnUnrootedCycle,
			Message: fmt.Sprintf("%d dependency cycles are not reachable from any entry point but are kept live", n),
			Count:   n,
		})
	}
	return out
}
