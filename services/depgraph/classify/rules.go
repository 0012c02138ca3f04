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

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PackageRule maps ids starting with Prefix to Label.
type PackageRule struct {
	Prefix string `json:"prefix" yaml:"prefix"`
	Label  string `json:"label" yaml:"label"`
}

// PatternKind selects how an entry-point pattern is interpreted.
type PatternKind string

const (
	// KindGlob patterns use doublestar syntax ("*.test.*", "cmd/**/main.go").
	KindGlob PatternKind = "glob"

	// KindRegex patterns are RE2 regular expressions.
	KindRegex PatternKind = "regex"
)

// MatchTarget selects which part of the id a pattern is applied to.
type MatchTarget string

const (
	// TargetBase matches against the last path element of the id.
	TargetBase MatchTarget = "base"

	// TargetPath matches against the whole id.
	TargetPath MatchTarget = "path"
)

// EntryPointRule marks matching nodes as entry points.
//
// # Fields
//
//   - Name: Reported on matching nodes as entryPointRule. Defaults to Pattern.
//   - Pattern: Glob or regex, according to Kind.
//   - Kind: KindGlob (default) or KindRegex.
//   - Target: TargetBase (default) or TargetPath.
type EntryPointRule struct {
	Name    string      `json:"name,omitempty" yaml:"name,omitempty"`
	Pattern string      `json:"pattern" yaml:"pattern"`
	Kind    PatternKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Target  MatchTarget `json:"target,omitempty" yaml:"target,omitempty"`
}

// DefaultEntryPointRules returns the conventional entry-file patterns:
// index, main, config and test files, and server/app entry files.
func DefaultEntryPointRules() []EntryPointRule {
	globs := []string{
		"index.*",
		"main.*",
		"*.config.*",
		"*.test.*",
		"*.spec.*",
		"*_test.go",
		"server.*",
		"app.*",
	}
	rules := make([]EntryPointRule, 0, len(globs))
	for _, g := range globs {
		rules = append(rules, EntryPointRule{Name: g, Pattern: g, Kind: KindGlob, Target: TargetBase})
	}
	return rules
}

// entryMatcher is a validated EntryPointRule.
type entryMatcher struct {
	name   string
	glob   string
	re     *regexp.Regexp
	onPath bool
}

func compileEntryRule(r EntryPointRule) (entryMatcher, error) {
	if r.Pattern == "" {
		return entryMatcher{}, fmt.Errorf("%w: empty pattern (rule %q)", ErrInvalidPattern, r.Name)
	}
	m := entryMatcher{name: r.Name}
	if m.name == "" {
		m.name = r.Pattern
	}

	switch r.Target {
	case "", TargetBase:
	case TargetPath:
		m.onPath = true
	default:
		return entryMatcher{}, fmt.Errorf("%w: unknown target %q", ErrInvalidPattern, r.Target)
	}

	switch r.Kind {
	case "", KindGlob:
		if !doublestar.ValidatePattern(r.Pattern) {
			return entryMatcher{}, fmt.Errorf("%w: bad glob %q", ErrInvalidPattern, r.Pattern)
		}
		m.glob = r.Pattern
	case KindRegex:
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return entryMatcher{}, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
		m.re = re
	default:
		return entryMatcher{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidPattern, r.Kind)
	}
	return m, nil
}

func (m entryMatcher) match(id, base string) bool {
	subject := base
	if m.onPath {
		subject = id
	}
	if m.re != nil {
		return m.re.MatchString(subject)
	}
	// Pattern validity was checked at compile time.
	ok, _ := doublestar.Match(m.glob, subject)
	return ok
}

// baseName returns the last element of a slash or backslash separated id.
func baseName(id string) string {
	return path.Base(strings.ReplaceAll(id, `\`, "/"))
}
