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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndex_Reachable(t *testing.T) {
	raw := Raw{
		"main.ts":  {"app.ts"},
		"app.ts":   {"lib.ts", "react"},
		"lib.ts":   nil,
		"stray.ts": {"lib.ts"},
	}
	idx := BuildIndex(raw, DefaultIndexOptions())

	got := idx.Reachable([]string{"main.ts", "missing.ts"})

	assert.ElementsMatch(t, []string{"main.ts", "app.ts", "lib.ts"}, got.Sorted())
	assert.False(t, got.Has("react"), "external nodes are not part of the reachability view")
	assert.False(t, got.Has("stray.ts"))
	assert.Empty(t, idx.Reachable(nil))
}

func TestIndex_UnrootedCycles(t *testing.T) {
	t.Run("mutual pair with no roots", func(t *testing.T) {
		idx := BuildIndex(Raw{"X": {"Y"}, "Y": {"X"}}, DefaultIndexOptions())

		cycles := idx.UnrootedCycles(nil, nil)

		assert.Equal(t, [][]string{{"X", "Y"}}, cycles)
	})

	t.Run("cycle reachable from an entry point is rooted", func(t *testing.T) {
		idx := BuildIndex(Raw{
			"main.ts": {"X"},
			"X":       {"Y"},
			"Y":       {"X"},
		}, DefaultIndexOptions())

		assert.Empty(t, idx.UnrootedCycles([]string{"main.ts"}, nil))
	})

	t.Run("self loop", func(t *testing.T) {
		idx := BuildIndex(Raw{"loop.ts": {"loop.ts"}, "other.ts": nil}, DefaultIndexOptions())

		assert.Equal(t, [][]string{{"loop.ts"}}, idx.UnrootedCycles(nil, nil))
	})

	t.Run("dead members are skipped", func(t *testing.T) {
		idx := BuildIndex(Raw{"X": {"Y"}, "Y": {"X"}}, DefaultIndexOptions())
		dead := func(id string) bool { return id == "X" }

		assert.Empty(t, idx.UnrootedCycles(nil, dead))
	})

	t.Run("several cycles ordered by first member", func(t *testing.T) {
		idx := BuildIndex(Raw{
			"q": {"p"}, "p": {"q"},
			"c": {"b"}, "b": {"a"}, "a": {"c"},
			"solo": {"a"},
		}, DefaultIndexOptions())

		cycles := idx.UnrootedCycles(nil, nil)

		assert.Equal(t, [][]string{{"a", "b", "c"}, {"p", "q"}}, cycles)
	})

	t.Run("external nodes never form cycles", func(t *testing.T) {
		idx := BuildIndex(Raw{"a": {"ext"}}, DefaultIndexOptions())

		assert.Empty(t, idx.UnrootedCycles(nil, nil))
	})
}
