// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package classify assigns a package label, a blast-radius tier and an
// entry-point flag to every node of a dependents index.
//
// Classification of one node depends only on its own id and its own
// dependents count, so nodes are classified independently and, for large
// graphs, in parallel.
//
// # Known Limitation
//
// Entry points are recognised by naming convention only. Projects whose
// entry files follow other conventions will see false negatives unless
// they add rules; those files are then reported as dead.
package classify

import "errors"

var (
	// ErrInvalidPattern is returned by New when an entry-point rule has an
	// empty or malformed pattern, or an unknown kind or target.
	ErrInvalidPattern = errors.New("invalid entry point pattern")

	// ErrInvalidThresholds is returned when blast-radius thresholds are
	// negative or not strictly ordered.
	ErrInvalidThresholds = errors.New("invalid blast radius thresholds")

	// ErrInvalidPackageRule is returned when a package rule has an empty label.
	ErrInvalidPackageRule = errors.New("invalid package rule")
)
