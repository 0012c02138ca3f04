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
	"fmt"
	"strings"

	"github.com/AleutianAI/depgraph/pkg/ux"
)

// DefaultSummaryLimit bounds each list in the summary.
const DefaultSummaryLimit = 10

// RenderSummary prints a human-readable digest of r.
//
// Lists are truncated to limit entries (DefaultSummaryLimit when limit <= 0)
// with a trailing count of what was omitted.
func RenderSummary(p *ux.Printer, r *Report, limit int) {
	if limit <= 0 {
		limit = DefaultSummaryLimit
	}
	s := r.Summary

	p.Title("Dependency graph report")
	p.KV("nodes", s.Nodes)
	p.KV("edges", s.Edges)
	p.KV("entry points", s.EntryPoints)
	p.KV("dead", s.Dead)
	p.KV("orphans", s.Orphans)
	p.KV("hotspots", s.Hotspots)
	p.KV("external targets", s.ExternalTargets)
	p.KV("unrooted cycles", s.UnrootedCycles)
	p.KV("passes", fmt.Sprintf("%d/%d", r.Resolution.IterationsUsed, r.Resolution.MaxIterations))

	if r.Packages != nil && r.Packages.Len() > 0 {
		p.Section("Packages")
		for pair := r.Packages.Oldest(); pair != nil; pair = pair.Next() {
			ps := pair.Value
			p.KV(pair.Key, fmt.Sprintf("%d nodes, %d dead, %d entry, %d orphan, %d hotspot",
				ps.Nodes, ps.Dead, ps.EntryPoints, ps.Orphans, ps.Hotspots))
		}
	}

	if len(r.Hotspots) > 0 {
		p.Section("Hotspots")
		for i, h := range r.Hotspots {
			if i == limit {
				p.Muted(fmt.Sprintf("  ... and %d more", len(r.Hotspots)-limit))
				break
			}
			p.Bullet(fmt.Sprintf("%s (%d dependents, %s)", p.Emphasis(h.ID), h.Dependents, h.BlastRadius))
		}
	}

	if len(r.DeadCodeCandidates) > 0 {
		p.Section("Dead code candidates")
		for _, safety := range []Safety{SafetySafe, SafetyMedium, SafetyRisky} {
			group := r.CandidatesBySafety(safety)
			if len(group) == 0 {
				continue
			}
			p.Muted(fmt.Sprintf("  %s (%d)", safety, len(group)))
			for i, c := range group {
				if i == limit {
					p.Muted(fmt.Sprintf("  ... and %d more", len(group)-limit))
					break
				}
				p.Bullet(fmt.Sprintf("%s [%s]", c.ID, c.Reason))
			}
		}
	}

	if len(r.UnrootedCycles) > 0 {
		p.Section("Unrooted cycles")
		for i, c := range r.UnrootedCycles {
			if i == limit {
				p.Muted(fmt.Sprintf("  ... and %d more", len(r.UnrootedCycles)-limit))
				break
			}
			p.Bullet(strings.Join(c, " <-> "))
		}
	}

	if len(r.Warnings) > 0 {
		p.Blank()
		for _, w := range r.Warnings {
			p.Warning(fmt.Sprintf("%s: %s", w.Code, w.Message))
		}
	} else if r.Resolution.Converged {
		p.Blank()
		p.Success("analysis complete")
	}
}
