// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report merges index, classification and dead-code facts into
// the flattened, serialisable analysis report.
//
// The report holds ids only, never pointers between records, so it
// encodes to JSON or YAML even when the underlying graph is cyclic. It
// carries no timestamps or random identifiers: assembling the same facts
// twice yields identical reports.
package report

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/AleutianAI/depgraph/services/depgraph/classify"
	"github.com/AleutianAI/depgraph/services/depgraph/deadcode"
)

// Safety is the removal-safety class of a dead-code candidate.
type Safety string

const (
	// SafetySafe marks test-like ids; removing them cannot break production code.
	SafetySafe Safety = "safe"

	// SafetyMedium is the default class.
	SafetyMedium Safety = "medium"

	// SafetyRisky marks candidates with a high blast radius.
	SafetyRisky Safety = "risky"
)

// Warning codes.
const (
	WarnExternalReferences   = "EXTERNAL_REFERENCES"
	WarnIterationCapExceeded = "ITERATION_CAP_EXCEEDED"
	WarnUnrootedCycle        = "UNROOTED_CYCLE"
)

// NodeRecord is the annotated view of one node.
type NodeRecord struct {
	ID             string               `json:"id" yaml:"id"`
	Dependencies   []string             `json:"dependencies" yaml:"dependencies"`
	Dependents     []string             `json:"dependents" yaml:"dependents"`
	Package        string               `json:"package" yaml:"package"`
	BlastRadius    classify.BlastRadius `json:"blastRadius" yaml:"blastRadius"`
	IsEntryPoint   bool                 `json:"isEntryPoint" yaml:"isEntryPoint"`
	EntryPointRule string               `json:"entryPointRule,omitempty" yaml:"entryPointRule,omitempty"`
	IsDead         bool                 `json:"isDead" yaml:"isDead"`
	DeadReason     deadcode.Reason      `json:"deadReason,omitempty" yaml:"deadReason,omitempty"`
	DeadPass       *int                 `json:"deadPass,omitempty" yaml:"deadPass,omitempty"`
	IsOrphan       bool                 `json:"isOrphan" yaml:"isOrphan"`
	IsHotspot      bool                 `json:"isHotspot" yaml:"isHotspot"`
	IsExternal     bool                 `json:"isExternal" yaml:"isExternal"`
}

// Hotspot is a node whose dependents count exceeds the hotspot threshold.
type Hotspot struct {
	ID          string               `json:"id" yaml:"id"`
	Dependents  int                  `json:"dependents" yaml:"dependents"`
	Package     string               `json:"package" yaml:"package"`
	BlastRadius classify.BlastRadius `json:"blastRadius" yaml:"blastRadius"`
}

// Candidate is a dead node proposed for removal.
type Candidate struct {
	ID          string               `json:"id" yaml:"id"`
	Safety      Safety               `json:"safety" yaml:"safety"`
	Package     string               `json:"package" yaml:"package"`
	Reason      deadcode.Reason      `json:"reason" yaml:"reason"`
	BlastRadius classify.BlastRadius `json:"blastRadius" yaml:"blastRadius"`
	Dependents  int                  `json:"dependents" yaml:"dependents"`
}

// PackageStats aggregates node facts for one package label.
type PackageStats struct {
	Nodes       int `json:"nodes" yaml:"nodes"`
	Dead        int `json:"dead" yaml:"dead"`
	EntryPoints int `json:"entryPoints" yaml:"entryPoints"`
	Orphans     int `json:"orphans" yaml:"orphans"`
	Hotspots    int `json:"hotspots" yaml:"hotspots"`
}

// Resolution is the dead-code fixpoint metadata.
type Resolution struct {
	IterationsUsed  int                 `json:"iterationsUsed" yaml:"iterationsUsed"`
	MaxIterations   int                 `json:"maxIterations" yaml:"maxIterations"`
	Converged       bool                `json:"converged" yaml:"converged"`
	HitIterationCap bool                `json:"hitIterationCap" yaml:"hitIterationCap"`
	PendingFlips    int                 `json:"pendingFlips" yaml:"pendingFlips"`
	Passes          []deadcode.PassStat `json:"passes" yaml:"passes"`
}

// Warning describes a degraded but usable aspect of the result.
type Warning struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
	Count   int    `json:"count" yaml:"count"`
}

// Summary holds report-wide totals.
type Summary struct {
	Nodes           int `json:"nodes" yaml:"nodes"`
	Edges           int `json:"edges" yaml:"edges"`
	ExternalTargets int `json:"externalTargets" yaml:"externalTargets"`
	EntryPoints     int `json:"entryPoints" yaml:"entryPoints"`
	Dead            int `json:"dead" yaml:"dead"`
	Orphans         int `json:"orphans" yaml:"orphans"`
	Hotspots        int `json:"hotspots" yaml:"hotspots"`
	UnrootedCycles  int `json:"unrootedCycles" yaml:"unrootedCycles"`
}

// Report is the complete analysis output.
//
// # Fields
//
//   - Nodes: Annotated record per node id.
//   - Hotspots: Sorted by dependents descending, then id.
//   - DeadCodeCandidates: Dead, non-external nodes ordered safe, medium,
//     risky, then by id.
//   - Orphans: Ids with neither dependencies nor dependents, sorted.
//   - Packages: Per-label aggregates in configured rule order, then the
//     default label, then the external label, then any others sorted.
//   - UnrootedCycles: Live cycles no entry point reaches.
//   - ExternalTargets: Referenced but undeclared ids, sorted.
//   - Resolution: Fixpoint metadata.
//   - Summary: Totals.
//   - Warnings: Degradations, in a fixed code order.
type Report struct {
	Nodes              map[string]NodeRecord                        `json:"nodes" yaml:"nodes"`
	Hotspots           []Hotspot                                    `json:"hotspots" yaml:"hotspots"`
	DeadCodeCandidates []Candidate                                  `json:"deadCodeCandidates" yaml:"deadCodeCandidates"`
	Orphans            []string                                     `json:"orphans" yaml:"orphans"`
	Packages           *orderedmap.OrderedMap[string, PackageStats] `json:"packages" yaml:"packages"`
	UnrootedCycles     [][]string                                   `json:"unrootedCycles" yaml:"unrootedCycles"`
	ExternalTargets    []string                                     `json:"externalTargets" yaml:"externalTargets"`
	Resolution         Resolution                                   `json:"resolution" yaml:"resolution"`
	Summary            Summary                                      `json:"summary" yaml:"summary"`
	Warnings           []Warning                                    `json:"warnings" yaml:"warnings"`
}

// CandidatesBySafety returns the candidates of one safety class, in
// report order.
func (r *Report) CandidatesBySafety(s Safety) []Candidate {
	var out []Candidate
	for _, c := range r.DeadCodeCandidates {
		if c.Safety == s {
			out = append(out, c)
		}
	}
	return out
}

// HasWarning reports whether a warning with code is present.
func (r *Report) HasWarning(code string) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}
