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
	"log/slog"
	"sort"
)

// DefaultMaxIterations bounds the number of propagation passes.
const DefaultMaxIterations = 10

// Reason records why a node was marked dead.
type Reason string

const (
	// ReasonNoDependents marks nodes dead in the initial pass.
	ReasonNoDependents Reason = "no_dependents"

	// ReasonAllDependentsDead marks nodes whose dependents all died earlier.
	ReasonAllDependentsDead Reason = "all_dependents_dead"
)

// Options configures Resolve.
//
// # Fields
//
//   - MaxIterations: Propagation pass cap, 0 means DefaultMaxIterations.
//   - Workers: Goroutines evaluating one pass. 0 or 1 is sequential.
//   - Observer: Called after the initial marking (pass 0) and after every
//     applied pass with the current dead set. Must not retain or modify it.
//   - Logger: Debug output per pass. Nil means slog.Default().
type Options struct {
	MaxIterations int
	Workers       int
	Observer      func(pass int, dead map[string]bool)
	Logger        *slog.Logger
}

// DefaultOptions returns sequential resolution with the default cap.
func DefaultOptions() Options {
	return Options{MaxIterations: DefaultMaxIterations, Workers: 1}
}

// PassStat is the number of nodes marked dead by one pass.
type PassStat struct {
	Pass    int `json:"pass" yaml:"pass"`
	Flipped int `json:"flipped" yaml:"flipped"`
}

// Result is the outcome of Resolve.
//
// # Fields
//
//   - Dead: Every dead node id maps to true. Live nodes are absent.
//   - Reason: Why each dead node died.
//   - DeadPass: Pass at which each dead node died, 0 for the initial marking.
//   - Passes: Flip counts for pass 0 and every propagation pass that ran.
//   - IterationsUsed: Propagation passes run, including a final pass that
//     found nothing.
//   - Converged: A pass, or the verification probe after the cap, found
//     nothing left to mark.
//   - HitIterationCap: The cap stopped propagation with PendingFlips > 0.
//     Some dead nodes are then reported live; no live node is ever
//     reported dead.
//   - PendingFlips: Nodes the next pass would mark when the cap was hit.
type Result struct {
	Dead            map[string]bool
	Reason          map[string]Reason
	DeadPass        map[string]int
	Passes          []PassStat
	IterationsUsed  int
	MaxIterations   int
	Converged       bool
	HitIterationCap bool
	PendingFlips    int
}

// IsDead reports whether id was marked dead.
func (r *Result) IsDead(id string) bool { return r.Dead[id] }

// DeadIDs returns the dead node ids in ascending order.
func (r *Result) DeadIDs() []string {
	out := make([]string, 0, len(r.Dead))
	for id := range r.Dead {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
