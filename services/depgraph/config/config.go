// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config defines the depgraph configuration document and how it
// is loaded: embedded defaults, an optional YAML overlay, then environment
// overrides, then validation.
//
// The analysis engine never reads files or the environment itself; it
// receives a fully built Config.
package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/depgraph/services/depgraph/classify"
	"github.com/AleutianAI/depgraph/services/depgraph/deadcode"
	"github.com/AleutianAI/depgraph/services/depgraph/graph"
	"github.com/AleutianAI/depgraph/services/depgraph/report"
)

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New()

// Config is the complete configuration document.
type Config struct {
	Graph           GraphConfig       `yaml:"graph" json:"graph"`
	Packages        []PackageRule     `yaml:"packages" json:"packages" validate:"dive"`
	DefaultPackage  string            `yaml:"default_package" json:"default_package" validate:"required"`
	ExternalPackage string            `yaml:"external_package" json:"external_package" validate:"required"`
	EntryPoints     []EntryPointRule  `yaml:"entry_points" json:"entry_points" validate:"dive"`
	BlastRadius     BlastRadiusConfig `yaml:"blast_radius" json:"blast_radius"`
	DeadCode        DeadCodeConfig    `yaml:"dead_code" json:"dead_code"`
	Classify        ClassifyConfig    `yaml:"classify" json:"classify"`
	Report          ReportConfig      `yaml:"report" json:"report"`
}

// GraphConfig controls index construction.
type GraphConfig struct {
	IncludeExternalTargets bool `yaml:"include_external_targets" json:"include_external_targets"`
}

// PackageRule maps an id prefix to a package label.
type PackageRule struct {
	Prefix string `yaml:"prefix" json:"prefix"`
	Label  string `yaml:"label" json:"label" validate:"required"`
}

// EntryPointRule marks matching ids as entry points.
type EntryPointRule struct {
	Name    string `yaml:"name,omitempty" json:"name,omitempty"`
	Pattern string `yaml:"pattern" json:"pattern" validate:"required"`
	Kind    string `yaml:"kind,omitempty" json:"kind,omitempty" validate:"omitempty,oneof=glob regex"`
	Target  string `yaml:"target,omitempty" json:"target,omitempty" validate:"omitempty,oneof=base path"`
}

// BlastRadiusConfig holds the tier thresholds.
type BlastRadiusConfig struct {
	High   int `yaml:"high" json:"high" validate:"gtfield=Medium"`
	Medium int `yaml:"medium" json:"medium" validate:"gte=0"`
}

// DeadCodeConfig controls the fixpoint.
type DeadCodeConfig struct {
	MaxIterations int `yaml:"max_iterations" json:"max_iterations" validate:"gte=1,lte=100000"`
	Workers       int `yaml:"workers" json:"workers" validate:"gte=0,lte=64"`
}

// ClassifyConfig controls classification parallelism. 0 means GOMAXPROCS.
type ClassifyConfig struct {
	Workers int `yaml:"workers" json:"workers" validate:"gte=0,lte=64"`
}

// ReportConfig controls report assembly.
type ReportConfig struct {
	HotspotThreshold int      `yaml:"hotspot_threshold" json:"hotspot_threshold" validate:"gte=0"`
	SafePatterns     []string `yaml:"safe_patterns" json:"safe_patterns" validate:"dive,required"`
}

// Validate checks struct constraints, then compiles every pattern so that
// malformed globs and regexes are reported before any analysis runs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := classify.New(c.ClassifyOptions()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := report.NewAssembler(c.ReportOptions()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// IndexOptions returns the graph index options.
func (c *Config) IndexOptions() graph.IndexOptions {
	return graph.IndexOptions{IncludeExternalTargets: c.Graph.IncludeExternalTargets}
}

// ClassifyOptions returns the classifier options.
func (c *Config) ClassifyOptions() classify.Options {
	opts := classify.Options{
		PackageRules:    make([]classify.PackageRule, 0, len(c.Packages)),
		DefaultPackage:  c.DefaultPackage,
		ExternalPackage: c.ExternalPackage,
		EntryPoints:     make([]classify.EntryPointRule, 0, len(c.EntryPoints)),
		Thresholds:      classify.Thresholds{High: c.BlastRadius.High, Medium: c.BlastRadius.Medium},
		Workers:         c.Classify.Workers,
	}
	for _, p := range c.Packages {
		opts.PackageRules = append(opts.PackageRules, classify.PackageRule{Prefix: p.Prefix, Label: p.Label})
	}
	for _, e := range c.EntryPoints {
		opts.EntryPoints = append(opts.EntryPoints, classify.EntryPointRule{
			Name:    e.Name,
			Pattern: e.Pattern,
			Kind:    classify.PatternKind(e.Kind),
			Target:  classify.MatchTarget(e.Target),
		})
	}
	return opts
}

// DeadCodeOptions returns the resolver options without observer or logger.
func (c *Config) DeadCodeOptions() deadcode.Options {
	return deadcode.Options{MaxIterations: c.DeadCode.MaxIterations, Workers: c.DeadCode.Workers}
}

// ReportOptions returns the assembler options.
func (c *Config) ReportOptions() report.Options {
	return report.Options{
		HotspotThreshold: c.Report.HotspotThreshold,
		SafePatterns:     append([]string(nil), c.Report.SafePatterns...),
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Packages = append([]PackageRule(nil), c.Packages...)
	out.EntryPoints = append([]EntryPointRule(nil), c.EntryPoints...)
	out.Report.SafePatterns = append([]string(nil), c.Report.SafePatterns...)
	return &out
}

// WriteYAML writes the configuration as YAML. The output is stable for
// equal configurations and is used as part of result cache keys.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}
