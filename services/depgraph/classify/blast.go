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

import "fmt"

// BlastRadius is a coarse risk tier derived from how many nodes depend on
// a node.
type BlastRadius string

const (
	// BlastLow means few dependents; changes stay local.
	BlastLow BlastRadius = "low"

	// BlastMedium means a moderate number of dependents.
	BlastMedium BlastRadius = "medium"

	// BlastHigh means many dependents; changes ripple widely.
	BlastHigh BlastRadius = "high"
)

// Thresholds holds the dependents counts at which tiers start.
//
// # Fields
//
//   - High: count >= High is BlastHigh (default 8).
//   - Medium: count >= Medium is BlastMedium (default 4).
type Thresholds struct {
	High   int `json:"high" yaml:"high"`
	Medium int `json:"medium" yaml:"medium"`
}

// DefaultThresholds returns the default tier boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{High: 8, Medium: 4}
}

// Validate checks 0 <= Medium < High.
func (t Thresholds) Validate() error {
	if t.Medium < 0 || t.High <= t.Medium {
		return fmt.Errorf("%w: high=%d medium=%d (need 0 <= medium < high)",
			ErrInvalidThresholds, t.High, t.Medium)
	}
	return nil
}

// Tier maps a dependents count to its blast radius. Total over all ints.
func (t Thresholds) Tier(count int) BlastRadius {
	switch {
	case count >= t.High:
		return BlastHigh
	case count >= t.Medium:
		return BlastMedium
	default:
		return BlastLow
	}
}
