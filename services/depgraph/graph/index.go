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
	"context"
	"sort"
	"time"
)

// IndexOptions configures BuildIndex.
type IndexOptions struct {
	// IncludeExternalTargets records ids that are referenced but never
	// declared as dependents-only nodes with an empty dependency list.
	// When false, edges to such ids are dropped from the dependents index.
	// Default: true.
	IncludeExternalTargets bool
}

// DefaultIndexOptions returns the default options.
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{IncludeExternalTargets: true}
}

// Index is the immutable reverse-edge view of a raw graph.
//
// # Invariant
//
// For every id in the index, Dependents(id) is exactly the set of ids Y
// such that id appears in Dependencies(Y). Repeated edges count once.
type Index struct {
	ids          []string
	dependencies map[string][]string
	dependents   map[string][]string
	external     IDSet
	edgeCount    int
	droppedEdges int
	opts         IndexOptions
}

// BuildIndex derives the dependents index from a raw graph.
//
// # Description
//
// Single pass over every (node, dependency) pair, adding node to the
// dependency's dependents set. Never fails: an empty graph produces an
// empty index, and references to undeclared ids are handled according to
// opts.IncludeExternalTargets.
//
// # Inputs
//
//   - raw: The forward adjacency map. Not retained.
//   - opts: Index options.
//
// # Outputs
//
//   - *Index: Immutable index with a dependents entry for every node.
//
// # Example
//
//	idx := graph.BuildIndex(graph.Raw{"b": {"a"}, "a": nil}, graph.DefaultIndexOptions())
//	idx.Dependents("a") // ["b"]
func BuildIndex(raw Raw, opts IndexOptions) *Index {
	return BuildIndexContext(context.Background(), raw, opts)
}

// BuildIndexContext is BuildIndex with tracing and metrics recorded on ctx.
func BuildIndexContext(ctx context.Context, raw Raw, opts IndexOptions) *Index {
	ctx, span := startIndexSpan(ctx, len(raw))
	defer span.End()
	start := time.Now()

	sets := make(map[string]IDSet, len(raw))
	idx := &Index{
		dependencies: make(map[string][]string, len(raw)),
		external:     make(IDSet),
		opts:         opts,
	}

	for id, deps := range raw {
		idx.dependencies[id] = append(make([]string, 0, len(deps)), deps...)
		if _, ok := sets[id]; !ok {
			sets[id] = make(IDSet)
		}
	}

	for id, deps := range raw {
		for _, dep := range deps {
			idx.edgeCount++
			if _, declared := raw[dep]; !declared {
				idx.external.Add(dep)
				if !opts.IncludeExternalTargets {
					idx.droppedEdges++
					continue
				}
			}
			set, ok := sets[dep]
			if !ok {
				set = make(IDSet)
				sets[dep] = set
			}
			set.Add(id)
		}
	}

	idx.dependents = make(map[string][]string, len(sets))
	idx.ids = make([]string, 0, len(sets))
	for id, set := range sets {
		idx.dependents[id] = set.Sorted()
		idx.ids = append(idx.ids, id)
		if _, declared := idx.dependencies[id]; !declared {
			idx.dependencies[id] = []string{}
		}
	}
	sort.Strings(idx.ids)

	setIndexSpanResult(span, len(idx.ids), idx.edgeCount, len(idx.external))
	recordIndexMetrics(ctx, time.Since(start), len(idx.ids), idx.edgeCount)
	return idx
}

// Len returns the number of nodes in the index, external nodes included.
func (x *Index) Len() int { return len(x.ids) }

// IDs returns every node id in ascending order. The slice must not be modified.
func (x *Index) IDs() []string { return x.ids }

// Has reports whether id is a node of the index.
func (x *Index) Has(id string) bool {
	_, ok := x.dependents[id]
	return ok
}

// Dependencies returns the dependency list of id exactly as supplied,
// or nil if id is not in the index. The slice must not be modified.
func (x *Index) Dependencies(id string) []string { return x.dependencies[id] }

// Dependents returns the sorted, duplicate-free dependents of id, or nil
// if id is not in the index. The slice must not be modified.
func (x *Index) Dependents(id string) []string { return x.dependents[id] }

// DependentCount returns |Dependents(id)|.
func (x *Index) DependentCount(id string) int { return len(x.dependents[id]) }

// IsExternal reports whether id was referenced without being declared.
func (x *Index) IsExternal(id string) bool { return x.external.Has(id) }

// ExternalTargets returns every referenced-but-undeclared id, sorted,
// whether or not it was kept as a node.
func (x *Index) ExternalTargets() []string { return x.external.Sorted() }

// IsOrphan reports whether id has neither dependencies nor dependents.
func (x *Index) IsOrphan(id string) bool {
	return x.Has(id) && len(x.dependencies[id]) == 0 && len(x.dependents[id]) == 0
}

// EdgeCount returns the number of supplied edges, duplicates included.
func (x *Index) EdgeCount() int { return x.edgeCount }

// DroppedEdges returns how many edges to external ids were left out of
// the dependents index because IncludeExternalTargets was false.
func (x *Index) DroppedEdges() int { return x.droppedEdges }

// Options returns the options the index was built with.
func (x *Index) Options() IndexOptions { return x.opts }
