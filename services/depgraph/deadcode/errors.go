// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package deadcode computes which nodes of a dependents index are dead.
//
// A node is directly dead when nothing depends on it and it is not an
// entry point. It is transitively dead when it is not an entry point, has
// dependents, and every one of them is dead. Resolve computes the least
// fixpoint of these rules by synchronous passes.
//
// # Known Limitation
//
// Deadness only flows from dependents, so a group of nodes that reference
// only each other keeps itself alive even when no entry point reaches it.
// Such groups are reported separately by graph.Index.UnrootedCycles and
// are never marked dead here.
package deadcode

import "errors"

// ErrInvalidOptions is returned when MaxIterations or Workers is negative.
var ErrInvalidOptions = errors.New("invalid dead code options")
