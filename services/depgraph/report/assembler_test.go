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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/depgraph/services/depgraph/classify"
	"github.com/AleutianAI/depgraph/services/depgraph/deadcode"
	"github.com/AleutianAI/depgraph/services/depgraph/graph"
)

// =============================================================================
// Fixtures
// =============================================================================

type fixture struct {
	raw      graph.Raw
	indexOpt graph.IndexOptions
	classOpt classify.Options
	deadOpt  deadcode.Options
}

func newFixture(raw graph.Raw) fixture {
	copts := classify.DefaultOptions()
	copts.PackageRules = []classify.PackageRule{
		{Prefix: "core/", Label: "core"},
		{Prefix: "web/", Label: "web"},
	}
	return fixture{
		raw:      raw,
		indexOpt: graph.DefaultIndexOptions(),
		classOpt: copts,
		deadOpt:  deadcode.DefaultOptions(),
	}
}

func (f fixture) assemble(t *testing.T, opts Options) *Report {
	t.Helper()
	ctx := context.Background()

	ix := graph.BuildIndex(f.raw, f.indexOpt)
	c, err := classify.New(f.classOpt)
	require.NoError(t, err)
	classes, err := c.ClassifyIndex(ctx, ix)
	require.NoError(t, err)

	isEntry := func(id string) bool { return classes[id].IsEntryPoint }
	dead, err := deadcode.Resolve(ctx, ix, isEntry, f.deadOpt)
	require.NoError(t, err)

	var roots []string
	for _, id := range ix.IDs() {
		if isEntry(id) {
			roots = append(roots, id)
		}
	}

	a, err := NewAssembler(opts)
	require.NoError(t, err)
	r, err := a.Assemble(ctx, Input{
		Index:          ix,
		Classes:        classes,
		Dead:           dead,
		UnrootedCycles: ix.UnrootedCycles(roots, dead.IsDead),
		PackageOrder:   append(c.PackageLabels(), c.DefaultPackage(), c.ExternalPackage()),
	})
	require.NoError(t, err)
	return r
}

// hubGraph: core/hub.ts has 7 dependents, core/mid.ts has 6, and the
// web pages are reached from web/index.ts.
func hubGraph() graph.Raw {
	raw := graph.Raw{
		"core/hub.ts":         nil,
		"core/mid.ts":         {"core/hub.ts"},
		"core/unused.ts":      {"core/hub.ts"},
		"core/unused.test.ts": {"core/unused.ts"},
		"web/index.ts":        {"web/page0.ts", "web/page1.ts"},
		"scripts/lone.js":     nil,
	}
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("web/page%d.ts", i)
		raw[id] = []string{"core/hub.ts", "core/mid.ts", "lodash"}
	}
	raw["web/index.ts"] = append(raw["web/index.ts"], "core/mid.ts")
	return raw
}

// =============================================================================
// Assemble Tests
// =============================================================================

func TestAssemble_NodeRecords(t *testing.T) {
	r := newFixture(graph.Raw{"A": {}, "B": {"A"}, "C": {}}).assemble(t, DefaultOptions())

	require.Len(t, r.Nodes, 3)
	a := r.Nodes["A"]
	assert.Equal(t, []string{"B"}, a.Dependents)
	assert.Equal(t, []string{}, a.Dependencies)
	assert.True(t, a.IsDead)
	assert.Equal(t, deadcode.ReasonAllDependentsDead, a.DeadReason)
	require.NotNil(t, a.DeadPass)
	assert.Equal(t, 1, *a.DeadPass)
	assert.Equal(t, "other", a.Package)
	assert.Equal(t, classify.BlastLow, a.BlastRadius)

	c := r.Nodes["C"]
	assert.True(t, c.IsOrphan)
	assert.True(t, c.IsDead)
	require.NotNil(t, c.DeadPass)
	assert.Equal(t, 0, *c.DeadPass)

	assert.Equal(t, []string{"C"}, r.Orphans)
	assert.Empty(t, r.Warnings)
	assert.True(t, r.Resolution.Converged)
}

func TestAssemble_Hotspots(t *testing.T) {
	r := newFixture(hubGraph()).assemble(t, DefaultOptions())

	require.Len(t, r.Hotspots, 2)
	assert.Equal(t, "core/hub.ts", r.Hotspots[0].ID)
	assert.Equal(t, 7, r.Hotspots[0].Dependents)
	assert.Equal(t, "core/mid.ts", r.Hotspots[1].ID)
	assert.Equal(t, 6, r.Hotspots[1].Dependents)
	assert.True(t, r.Nodes["core/hub.ts"].IsHotspot)
	assert.False(t, r.Nodes["lodash"].IsHotspot, "exactly 5 dependents is not above the threshold")
}

func TestAssemble_HotspotTieBreakAndExternal(t *testing.T) {
	raw := graph.Raw{}
	for i := 0; i < 6; i++ {
		raw[fmt.Sprintf("u%d.ts", i)] = []string{"zeta.ts", "alpha.ts", "react"}
	}
	raw["zeta.ts"] = nil
	raw["alpha.ts"] = nil

	r := newFixture(raw).assemble(t, DefaultOptions())

	ids := make([]string, 0, len(r.Hotspots))
	for _, h := range r.Hotspots {
		ids = append(ids, h.ID)
	}
	assert.Equal(t, []string{"alpha.ts", "react", "zeta.ts"}, ids)
	assert.Equal(t, "external", r.Nodes["react"].Package)
	assert.True(t, r.Nodes["react"].IsExternal)
}

func TestAssemble_Candidates(t *testing.T) {
	raw := graph.Raw{
		"src/unused.ts":          nil,
		"src/widget.spec.ts":     {"src/widget.ts"},
		"src/__tests__/setup.ts": nil,
		"src/widget.ts":          nil,
		"src/big.ts":             nil,
	}
	for i := 0; i < 8; i++ {
		raw[fmt.Sprintf("src/gen/g%d.ts", i)] = []string{"src/big.ts"}
	}

	f := newFixture(raw)
	// *.spec.* is normally an entry point; drop the rules so the spec file is dead.
	f.classOpt.EntryPoints = nil
	r := f.assemble(t, DefaultOptions())

	safe := r.CandidatesBySafety(SafetySafe)
	risky := r.CandidatesBySafety(SafetyRisky)
	medium := r.CandidatesBySafety(SafetyMedium)

	assert.Equal(t, []string{"src/__tests__/setup.ts", "src/widget.spec.ts"}, candidateIDs(safe))
	assert.Equal(t, []string{"src/big.ts"}, candidateIDs(risky))
	assert.Contains(t, candidateIDs(medium), "src/unused.ts")
	assert.Contains(t, candidateIDs(medium), "src/widget.ts")

	// Ordering: all safe, then medium, then risky.
	assert.Equal(t, SafetySafe, r.DeadCodeCandidates[0].Safety)
	assert.Equal(t, SafetyRisky, r.DeadCodeCandidates[len(r.DeadCodeCandidates)-1].Safety)
	assert.Len(t, r.DeadCodeCandidates, r.Summary.Dead)
}

func candidateIDs(cs []Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestAssemble_PackageOrder(t *testing.T) {
	r := newFixture(hubGraph()).assemble(t, DefaultOptions())

	var keys []string
	for pair := r.Packages.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"core", "web", "other", "external"}, keys)

	core, _ := r.Packages.Get("core")
	assert.Equal(t, 4, core.Nodes)
	assert.Equal(t, 2, core.Hotspots)

	web, _ := r.Packages.Get("web")
	assert.Equal(t, 1, web.EntryPoints)
	assert.Equal(t, 6, web.Nodes)

	ext, _ := r.Packages.Get("external")
	assert.Equal(t, 1, ext.Nodes)
	assert.Equal(t, 0, ext.Dead)
}

func TestAssemble_Warnings(t *testing.T) {
	t.Run("external references", func(t *testing.T) {
		r := newFixture(graph.Raw{"a.ts": {"react"}}).assemble(t, DefaultOptions())

		assert.True(t, r.HasWarning(WarnExternalReferences))
		assert.Equal(t, []string{"react"}, r.ExternalTargets)
		for _, c := range r.DeadCodeCandidates {
			assert.NotEqual(t, "react", c.ID)
		}
	})

	t.Run("external references dropped", func(t *testing.T) {
		f := newFixture(graph.Raw{"a.ts": {"react", "react"}})
		f.indexOpt.IncludeExternalTargets = false
		r := f.assemble(t, DefaultOptions())

		require.True(t, r.HasWarning(WarnExternalReferences))
		assert.Contains(t, r.Warnings[0].Message, "2 edges")
		assert.NotContains(t, r.Nodes, "react")
		assert.Equal(t, []string{"react", "react"}, r.Nodes["a.ts"].Dependencies)
	})

	t.Run("iteration cap", func(t *testing.T) {
		raw := graph.Raw{}
		for i := 0; i < 6; i++ {
			raw[fmt.Sprintf("n%d", i)] = []string{fmt.Sprintf("n%d", i+1)}
		}
		raw["n6"] = nil
		f := newFixture(raw)
		f.deadOpt.MaxIterations = 2
		r := f.assemble(t, DefaultOptions())

		assert.True(t, r.HasWarning(WarnIterationCapExceeded))
		assert.True(t, r.Resolution.HitIterationCap)
		assert.Equal(t, 1, r.Resolution.PendingFlips)
	})

	t.Run("unrooted cycle", func(t *testing.T) {
		r := newFixture(graph.Raw{"X": {"Y"}, "Y": {"X"}}).assemble(t, DefaultOptions())

		assert.True(t, r.HasWarning(WarnUnrootedCycle))
		assert.Equal(t, [][]string{{"X", "Y"}}, r.UnrootedCycles)
		assert.False(t, r.Nodes["X"].IsDead)
	})
}

func TestAssemble_EmptyGraph(t *testing.T) {
	r := newFixture(graph.Raw{}).assemble(t, DefaultOptions())

	assert.Empty(t, r.Nodes)
	assert.NotNil(t, r.Hotspots)
	assert.NotNil(t, r.DeadCodeCandidates)
	assert.NotNil(t, r.Orphans)
	assert.Empty(t, r.Warnings)
	assert.Equal(t, Summary{}, r.Summary)
}

func TestAssemble_IncompleteInput(t *testing.T) {
	a, err := NewAssembler(DefaultOptions())
	require.NoError(t, err)

	_, err = a.Assemble(context.Background(), Input{})
	assert.ErrorIs(t, err, ErrIncompleteInput)
}

func TestNewAssembler_InvalidOptions(t *testing.T) {
	_, err := NewAssembler(Options{SafePatterns: []string{"[oops"}})
	assert.ErrorIs(t, err, ErrInvalidSafePattern)

	_, err = NewAssembler(Options{HotspotThreshold: -1})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}
