// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"sort"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// directedView is the gonum representation of the declared part of an
// Index. Edges point from a node to its dependencies.
type directedView struct {
	g         *simple.DirectedGraph
	toGonum   map[string]int64
	fromGonum map[int64]string
	selfLoop  IDSet
}

func newDirectedView(x *Index) *directedView {
	v := &directedView{
		g:         simple.NewDirectedGraph(),
		toGonum:   make(map[string]int64, len(x.ids)),
		fromGonum: make(map[int64]string, len(x.ids)),
		selfLoop:  make(IDSet),
	}
	for i, id := range x.ids {
		if x.IsExternal(id) {
			continue
		}
		gid := int64(i)
		v.toGonum[id] = gid
		v.fromGonum[gid] = id
		v.g.AddNode(simple.Node(gid))
	}
	for _, id := range x.ids {
		from, ok := v.toGonum[id]
		if !ok {
			continue
		}
		for _, dep := range x.dependencies[id] {
			to, ok := v.toGonum[dep]
			if !ok {
				continue
			}
			// simple graphs reject self edges
			if from == to {
				v.selfLoop.Add(id)
				continue
			}
			v.g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
		}
	}
	return v
}

// Reachable returns every declared node reachable from at least one root
// by following dependency edges. Roots are included.
func (x *Index) Reachable(roots []string) IDSet {
	return newDirectedView(x).reachable(roots)
}

func (v *directedView) reachable(roots []string) IDSet {
	out := make(IDSet)
	bf := traverse.BreadthFirst{
		Visit: func(n gonum.Node) { out.Add(v.fromGonum[n.ID()]) },
	}
	for _, root := range roots {
		gid, ok := v.toGonum[root]
		if !ok {
			continue
		}
		bf.Walk(v.g, v.g.Node(gid), nil)
	}
	return out
}

// UnrootedCycles finds dependency cycles that nothing rooted uses.
//
// # Description
//
// Computes strongly connected components (Tarjan) over declared nodes and
// keeps each component with more than one member, or a single member that
// references itself, when every member is unreachable from all roots and
// not already dead according to isDead.
//
// These are exactly the mutual cycles a dependents-only dead-code pass
// cannot flag: every member has a live-looking dependent inside the cycle.
// The result is an annotation only; it never changes deadness.
//
// # Inputs
//
//   - roots: Entry-point ids.
//   - isDead: Deadness lookup from the resolver. May be nil.
//
// # Outputs
//
//   - [][]string: Member ids of each cycle, sorted, cycles ordered by first id.
func (x *Index) UnrootedCycles(roots []string, isDead func(id string) bool) [][]string {
	v := newDirectedView(x)
	reached := v.reachable(roots)

	var cycles [][]string
	for _, scc := range topo.TarjanSCC(v.g) {
		if len(scc) == 1 && !v.selfLoop.Has(v.fromGonum[scc[0].ID()]) {
			continue
		}
		members := make([]string, 0, len(scc))
		unrooted := true
		for _, n := range scc {
			id := v.fromGonum[n.ID()]
			if reached.Has(id) || (isDead != nil && isDead(id)) {
				unrooted = false
				break
			}
			members = append(members, id)
		}
		if !unrooted {
			continue
		}
		sort.Strings(members)
		cycles = append(cycles, members)
	}

	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}
