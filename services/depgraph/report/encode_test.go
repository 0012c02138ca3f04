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
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/depgraph/pkg/ux"
	"github.com/AleutianAI/depgraph/services/depgraph/graph"
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "yml": FormatYAML, "text": FormatText} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestEncode_JSON(t *testing.T) {
	r := newFixture(hubGraph()).assemble(t, DefaultOptions())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, r, FormatJSON))
	out := buf.String()

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	for _, key := range []string{"nodes", "hotspots", "deadCodeCandidates", "orphans", "packages",
		"unrootedCycles", "externalTargets", "resolution", "summary", "warnings"} {
		assert.Contains(t, decoded, key)
	}

	node := decoded["nodes"].(map[string]any)["core/hub.ts"].(map[string]any)
	assert.Equal(t, "medium", node["blastRadius"])
	assert.Equal(t, true, node["isHotspot"])
	assert.NotContains(t, node, "deadPass", "live nodes omit deadPass")

	// Package aggregates keep configured order in the encoded document.
	assert.Less(t, strings.Index(out, `"core": {`), strings.Index(out, `"web": {`))
	assert.Less(t, strings.Index(out, `"web": {`), strings.Index(out, `"other": {`))
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestEncode_EmptyListsAreArrays(t *testing.T) {
	r := newFixture(graph.Raw{}).assemble(t, DefaultOptions())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, r, FormatJSON))

	assert.Contains(t, buf.String(), `"hotspots": []`)
	assert.NotContains(t, buf.String(), "null")
}

func TestEncode_YAML(t *testing.T) {
	r := newFixture(graph.Raw{"A": {}, "B": {"A"}, "C": {}}).assemble(t, DefaultOptions())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, r, FormatYAML))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "deadCodeCandidates")
	assert.Contains(t, buf.String(), "deadReason: all_dependents_dead")
	assert.Contains(t, buf.String(), "packages:\n  core:")
}

func TestEncode_Text(t *testing.T) {
	r := newFixture(hubGraph()).assemble(t, DefaultOptions())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, r, FormatText))
	out := buf.String()

	assert.Contains(t, out, "Dependency graph report")
	assert.Contains(t, out, "core/hub.ts (7 dependents, medium)")
	assert.Contains(t, out, "WARN: EXTERNAL_REFERENCES")
	assert.NotContains(t, out, "\x1b[")

	err := Encode(&buf, struct{}{}, FormatText)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRenderSummary_Truncates(t *testing.T) {
	r := newFixture(graph.Raw{"a": nil, "b": nil, "c": nil, "d": nil}).assemble(t, DefaultOptions())

	var buf bytes.Buffer
	RenderSummary(ux.NewPrinter(&buf, ux.ModePlain), r, 2)

	assert.Contains(t, buf.String(), "... and 2 more")
}
