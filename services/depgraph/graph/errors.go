// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the raw dependency graph types and the reverse
// (dependents) index built from them.
//
// A raw graph maps every analysed unit to the ordered list of units it
// references directly. The Index derived from it answers the inverse
// question: which units reference a given unit.
//
// # Ownership Model
//
// BuildIndex copies everything it keeps. The caller may reuse or mutate
// the Raw map after the call returns without affecting the Index.
//
// # Thread Safety
//
// An Index is immutable after BuildIndex returns and is safe for
// concurrent reads from multiple goroutines.
//
// # Malformed Input
//
// Dependency ids that never appear as keys are external references. They
// never cause an error. Depending on IndexOptions they either become
// dependents-only nodes or are dropped from the dependents index; in both
// cases they are listed by ExternalTargets so nothing is lost silently.
package graph

import "errors"

// Sentinel errors for graph decoding.
var (
	// ErrInvalidGraph is returned when an encoded graph document does not
	// have the shape of an id -> []id mapping.
	ErrInvalidGraph = errors.New("invalid graph document")

	// ErrUnsupportedFormat is returned when a graph file extension is not
	// one of the supported encodings.
	ErrUnsupportedFormat = errors.New("unsupported graph format")

	// ErrGraphTooLarge is returned when an encoded graph exceeds the
	// configured byte limit.
	ErrGraphTooLarge = errors.New("graph document too large")
)
