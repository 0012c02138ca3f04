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
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxGraphBytes bounds the size of an encoded graph accepted by Decode.
const MaxGraphBytes = 64 * 1024 * 1024

// Raw is the input contract of the engine: node id -> ordered ids it
// references directly.
//
// Ids are opaque, path-like strings. A dependency list may be nil or
// empty, may repeat ids, and may reference ids that are not keys.
type Raw map[string][]string

// IDs returns the declared node ids in sorted order.
func (r Raw) IDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EdgeCount returns the number of (node, dependency) pairs, counting
// duplicates.
func (r Raw) EdgeCount() int {
	n := 0
	for _, deps := range r {
		n += len(deps)
	}
	return n
}

// Clone returns a deep copy of the raw graph.
func (r Raw) Clone() Raw {
	out := make(Raw, len(r))
	for id, deps := range r {
		out[id] = append([]string(nil), deps...)
	}
	return out
}

// Canonical writes a stable textual form of the graph to w.
//
// Node ids are sorted; dependency order is preserved because it is part
// of the input contract. Used for content-addressed caching.
func (r Raw) Canonical(w io.Writer) error {
	for _, id := range r.IDs() {
		if _, err := fmt.Fprintf(w, "%q:", id); err != nil {
			return err
		}
		for _, dep := range r[id] {
			if _, err := fmt.Fprintf(w, "%q,", dep); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// IDSet is a set of node ids.
type IDSet map[string]struct{}

// Add inserts id into the set.
func (s IDSet) Add(id string) { s[id] = struct{}{} }

// Has reports whether id is in the set.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order.
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Decode reads a raw graph from r.
//
// # Description
//
// Accepts either JSON or YAML depending on format ("json", "yaml", "yml").
// The document must be a mapping from string ids to lists of string ids;
// a null list is treated as empty.
//
// # Inputs
//
//   - r: Source of the encoded document. Read up to MaxGraphBytes+1 bytes.
//   - format: Encoding name.
//
// # Outputs
//
//   - Raw: Decoded graph, never nil on success.
//   - error: ErrUnsupportedFormat, ErrGraphTooLarge, or ErrInvalidGraph (wrapped).
func Decode(r io.Reader, format string) (Raw, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxGraphBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading graph: %w", err)
	}
	if len(data) > MaxGraphBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrGraphTooLarge, MaxGraphBytes)
	}

	raw := Raw{}
	switch strings.ToLower(format) {
	case "json":
		err = json.Unmarshal(data, &raw)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGraph, err)
	}
	if raw == nil {
		raw = Raw{}
	}
	return raw, nil
}

// FormatFromPath infers the graph encoding from a file extension.
// Unknown extensions default to JSON.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}
